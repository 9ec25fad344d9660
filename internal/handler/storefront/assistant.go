package storefront

import (
	"net/http"

	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/service"
)

// AssistantHandler serves the product-advisor chat
type AssistantHandler struct {
	assistant *service.Assistant
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistant *service.Assistant) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

type askRequest struct {
	Message string `json:"message"`
}

// Greeting handles GET /api/assistant so the chat window can open with the
// welcome line and hide itself when no model is configured.
func (h *AssistantHandler) Greeting(w http.ResponseWriter, r *http.Request) {
	handler.OK(w, map[string]any{
		"greeting": service.AssistantGreeting,
		"enabled":  h.assistant.Enabled(),
	})
}

// Ask handles POST /api/assistant
func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !handler.DecodeJSON(w, r, &req) {
		return
	}

	reply, err := h.assistant.Ask(r.Context(), req.Message)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, reply)
}
