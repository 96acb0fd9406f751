package contract

import (
	"errors"
	"fmt"
)

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")

	ErrInputFormat             = errors.New("input format error")
	ErrNotFound                = errors.New("not found")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

var (
	ErrCatalogUnavailable    = fmt.Errorf("catalog: %w", ErrCollaboratorUnavailable)
	ErrOrdersUnavailable     = fmt.Errorf("orders: %w", ErrCollaboratorUnavailable)
	ErrCartUnavailable       = fmt.Errorf("cart: %w", ErrCollaboratorUnavailable)
	ErrClassifierUnavailable = fmt.Errorf("classifier: %w", ErrCollaboratorUnavailable)
)
