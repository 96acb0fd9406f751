package contract

import "context"

type CatalogClient interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ValidatePincode(ctx context.Context, code string) (bool, []string, error)
	GetSlots(ctx context.Context, date string, productID string) ([]Slot, error)
}

type OrderClient interface {
	ListOrders(ctx context.Context) ([]Order, error)
}

type CartClient interface {
	AddItem(ctx context.Context, productID string, quantity int) (CartResult, error)
}

// IntentClassifier extracts a coarse intent label and parameters from free text.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance string) (Classification, error)
}

// EventPublisher forwards cart events emitted by a turn to an external sink.
type EventPublisher interface {
	Publish(ctx context.Context, sessionID string, events []CartEvent) error
}
