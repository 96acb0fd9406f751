package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
)

// SessionState is the per-conversation record owned by the dialog engine.
// - LocationCode + AvailableCategories are fixed once the session is opened.
// - LastShownProducts is replaced wholesale by every listing or detail view.
// - Pending holds at most one outstanding question (see PendingOperation).
type SessionState struct {
	SessionID string `json:"session_id"`

	LocationCode        string              `json:"location_code"`
	AvailableCategories []string            `json:"available_categories,omitempty"`
	LastShownProducts   []contractx.Product `json:"last_shown_products,omitempty"`
	Pending             PendingOperation    `json:"pending"`

	UpdatedAt time.Time `json:"updated_at"`
}

type PendingKind string

const (
	PendingNone             PendingKind = ""
	PendingQuantity         PendingKind = "awaiting_quantity"
	PendingSlotConfirmation PendingKind = "awaiting_slot_confirmation"
	PendingDate             PendingKind = "awaiting_date"
	PendingCartConfirmation PendingKind = "awaiting_cart_confirmation"
)

// PendingOperation is a tagged value: Kind selects the variant and Product is
// the payload every non-None variant carries. A single field on SessionState
// means two questions can never be outstanding at once.
type PendingOperation struct {
	Kind    PendingKind        `json:"kind,omitempty"`
	Product *contractx.Product `json:"product,omitempty"`
}

/* --------------------------- Pending constructors --------------------------- */

func NoPending() PendingOperation {
	return PendingOperation{}
}

func AwaitingQuantity(product contractx.Product) PendingOperation {
	return pendingFor(PendingQuantity, product)
}

func AwaitingSlotConfirmation(service contractx.Product) PendingOperation {
	return pendingFor(PendingSlotConfirmation, service)
}

func AwaitingDate(service contractx.Product) PendingOperation {
	return pendingFor(PendingDate, service)
}

func AwaitingCartConfirmation(service contractx.Product) PendingOperation {
	return pendingFor(PendingCartConfirmation, service)
}

func pendingFor(kind PendingKind, product contractx.Product) PendingOperation {
	p := product
	return PendingOperation{Kind: kind, Product: &p}
}

/* ----------------------------- Pending helpers ----------------------------- */

func (p PendingOperation) IsNone() bool {
	return p.Kind == PendingNone
}

// ExpectsConfirmation reports whether the outstanding question is a yes/no one.
func (p PendingOperation) ExpectsConfirmation() bool {
	return p.Kind == PendingSlotConfirmation || p.Kind == PendingCartConfirmation
}

func (p PendingOperation) String() string {
	if p.IsNone() {
		return "none"
	}
	if p.Product == nil {
		return string(p.Kind)
	}
	return fmt.Sprintf("%s(%s)", p.Kind, p.Product.ID)
}

var (
	ErrInvalidLocationCode = errors.New("location code must be 6 digits")
	ErrInvalidPending      = errors.New("invalid pending operation")
	ErrNilSessionState     = errors.New("session state is nil")
)

func (p PendingOperation) Validate() error {
	switch p.Kind {
	case PendingNone:
		if p.Product != nil {
			return fmt.Errorf("%w: none must not carry a product", ErrInvalidPending)
		}
		return nil
	case PendingQuantity, PendingSlotConfirmation, PendingDate, PendingCartConfirmation:
		if p.Product == nil || strings.TrimSpace(p.Product.ID) == "" {
			return fmt.Errorf("%w: %s requires a product", ErrInvalidPending, p.Kind)
		}
		if p.Kind == PendingQuantity && !p.Product.IsPhysical() {
			return fmt.Errorf("%w: quantity requested for non-physical product %s", ErrInvalidPending, p.Product.ID)
		}
		if p.Kind != PendingQuantity && !p.Product.IsService() {
			return fmt.Errorf("%w: %s requires a service product, got %s", ErrInvalidPending, p.Kind, p.Product.ID)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPending, p.Kind)
	}
}

/* -------------------------- SessionState helpers ------------------------- */

// ValidLocationCode reports whether code is exactly six ASCII digits.
func ValidLocationCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func NewSessionState(sessionID, locationCode string, categories []string, now time.Time) (*SessionState, error) {
	if !ValidLocationCode(locationCode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocationCode, locationCode)
	}
	return &SessionState{
		SessionID:           sessionID,
		LocationCode:        locationCode,
		AvailableCategories: append([]string(nil), categories...),
		UpdatedAt:           now.UTC(),
	}, nil
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// SetPending replaces whatever question was outstanding.
func (s *SessionState) SetPending(p PendingOperation) {
	s.Pending = p
}

func (s *SessionState) ClearPending() {
	s.Pending = NoPending()
}

func (s *SessionState) ReplaceLastShown(products []contractx.Product) {
	s.LastShownProducts = append([]contractx.Product(nil), products...)
}

// Clone returns a deep copy so a turn can be computed without touching the input.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := *s
	out.AvailableCategories = append([]string(nil), s.AvailableCategories...)
	out.LastShownProducts = nil
	for _, p := range s.LastShownProducts {
		out.LastShownProducts = append(out.LastShownProducts, cloneProduct(p))
	}
	if s.Pending.Product != nil {
		p := cloneProduct(*s.Pending.Product)
		out.Pending.Product = &p
	}
	return &out
}

func cloneProduct(p contractx.Product) contractx.Product {
	out := p
	out.PinCodes = append([]string(nil), p.PinCodes...)
	if p.Quantity != nil {
		q := *p.Quantity
		out.Quantity = &q
	}
	return out
}

func (s *SessionState) Validate() error {
	if s == nil {
		return ErrNilSessionState
	}
	if !ValidLocationCode(s.LocationCode) {
		return fmt.Errorf("%w: %q", ErrInvalidLocationCode, s.LocationCode)
	}
	if err := s.Pending.Validate(); err != nil {
		return err
	}
	return nil
}
