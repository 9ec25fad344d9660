package firestore

import (
	"context"
	"errors"

	"github.com/dukerupert/campusshop/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// wrapError maps Firestore failures onto domain error codes.
// notFound is returned as-is for missing documents so callers get the
// resource-specific message.
func wrapError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.Persistence(err, op, "storage request timed out")
	}

	switch status.Code(err) {
	case codes.NotFound:
		if notFound != nil {
			return notFound
		}
		return domain.NotFound(op, "document", "")
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return domain.Persistence(err, op, "storage is temporarily unavailable")
	}
	return domain.Internal(err, op, "storage request failed")
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
