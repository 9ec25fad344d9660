package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dukerupert/campusshop/internal/domain"
)

// AssistantModel generates a text answer for a prompt.
type AssistantModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MaxAssistantQuestion bounds the question length in characters.
const MaxAssistantQuestion = 500

// AssistantGreeting opens every conversation.
const AssistantGreeting = "Hi! I'm the ShopStudent assistant. Looking for a laptop or accessories for your studies?"

const assistantFallback = "Sorry, I'm a little busy right now. Please try again!"

// AssistantReply is one answer from the shopping assistant.
type AssistantReply struct {
	Reply string `json:"reply"`
}

// Assistant answers shopper questions about the catalog. Prices in the
// answer come from the live product list sent with every prompt.
type Assistant struct {
	catalog *Catalog
	model   AssistantModel
	timeout time.Duration
	logger  *slog.Logger
}

// NewAssistant creates the assistant. A nil model disables it; Ask then
// returns ErrAssistantDisabled.
func NewAssistant(catalog *Catalog, model AssistantModel, timeout time.Duration, logger *slog.Logger) *Assistant {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Assistant{catalog: catalog, model: model, timeout: timeout, logger: logger}
}

// Enabled reports whether a model is configured.
func (a *Assistant) Enabled() bool {
	return a.model != nil
}

// Ask answers a question. An empty model answer yields the fallback reply;
// a model failure is logged and reported as ErrAssistantUnavailable.
func (a *Assistant) Ask(ctx context.Context, question string) (*AssistantReply, error) {
	const op = "assistant.ask"

	question = strings.TrimSpace(question)
	switch {
	case question == "":
		return nil, domain.NewValidationError(op, "message", "This field is required")
	case utf8.RuneCountInString(question) > MaxAssistantQuestion:
		return nil, domain.NewValidationError(op, "message", fmt.Sprintf("Must be at most %d characters", MaxAssistantQuestion))
	}
	if a.model == nil {
		return nil, ErrAssistantDisabled
	}

	products, err := a.catalog.List(ctx, domain.ProductFilter{})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	answer, err := a.model.Generate(ctx, assistantPrompt(products, question))
	if err != nil {
		a.logger.WarnContext(ctx, "assistant model failed", "error", err)
		return nil, ErrAssistantUnavailable
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = assistantFallback
	}
	return &AssistantReply{Reply: answer}, nil
}

func assistantPrompt(products []domain.Product, question string) string {
	var b strings.Builder
	b.WriteString("You are the friendly sales assistant of the \"ShopStudent\" store.\n")
	b.WriteString("These are the products currently in stock:\n")
	for _, p := range products {
		fmt.Fprintf(&b, "%s: %s - %s\n", p.Name, FormatVND(p.Price), p.Description)
	}
	b.WriteString("\nAnswer briefly, focusing on what students need, in the customer's language.\n")
	b.WriteString("When asked about a price, quote it exactly from the list above.\n")
	b.WriteString("Customer question: ")
	b.WriteString(question)
	return b.String()
}

// FormatVND renders an amount the way Vietnamese prices are written,
// e.g. 25.000.000đ.
func FormatVND(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var b strings.Builder
	b.WriteString(sign)
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	b.WriteString("đ")
	return b.String()
}
