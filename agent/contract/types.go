package contract

import "strings"

type ProductType string

const (
	ProductTypePhysical     ProductType = "Physical Product"
	ProductTypeService      ProductType = "Service Product"
	ProductTypeSubscription ProductType = "Subscription Product"
)

type Product struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Type             ProductType `json:"type"`
	SellingPrice     string      `json:"selling_price,omitempty"`
	ShortDescription string      `json:"short_description,omitempty"`
	ServiceDetails   string      `json:"service_details,omitempty"`
	SubscriptionPlan string      `json:"subscription_plan,omitempty"`
	Quantity         *int        `json:"quantity,omitempty"`
	PinCodes         []string    `json:"pin_codes,omitempty"`
}

func (p Product) IsPhysical() bool {
	return p.Type == ProductTypePhysical
}

func (p Product) IsService() bool {
	return p.Type == ProductTypeService
}

// AvailableAt reports whether the product is deliverable to the given location code.
func (p Product) AvailableAt(code string) bool {
	for _, pc := range p.PinCodes {
		if strings.TrimSpace(pc) == code {
			return true
		}
	}
	return false
}

type Slot struct {
	PeriodLabel     string `json:"period_label"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
}

// Complete reports whether every sub-field needed for rendering is present.
func (s Slot) Complete() bool {
	return strings.TrimSpace(s.PeriodLabel) != "" &&
		strings.TrimSpace(s.StartTime) != "" &&
		strings.TrimSpace(s.EndTime) != "" &&
		s.DurationMinutes > 0 &&
		strings.TrimSpace(s.Status) != ""
}

type Order struct {
	ID           string `json:"id"`
	ProductLabel string `json:"product_label"`
	Status       string `json:"status"`
	Date         string `json:"date"`
	Amount       string `json:"amount,omitempty"`
}

type CartResult struct {
	Success  bool   `json:"success"`
	Conflict bool   `json:"conflict,omitempty"`
	Message  string `json:"message,omitempty"`
}

type Classification struct {
	Label       string `json:"intent"`
	Category    string `json:"category,omitempty"`
	ProductName string `json:"product_name,omitempty"`
}

type IntentKind string

const (
	IntentShowProducts    IntentKind = "show_products"
	IntentShowDetails     IntentKind = "show_details"
	IntentAddToCart       IntentKind = "add_to_cart"
	IntentCheckOrders     IntentKind = "check_orders"
	IntentConfirmYes      IntentKind = "confirm_yes"
	IntentConfirmNo       IntentKind = "confirm_no"
	IntentProvideQuantity IntentKind = "provide_quantity"
	IntentProvideDate     IntentKind = "provide_date"
	IntentCancel          IntentKind = "cancel"
	IntentUnrecognized    IntentKind = "unrecognized"
)

// Intent is the structured reading of one utterance. It lives for a single turn.
type Intent struct {
	Kind       IntentKind
	Category   string
	Identifier string
	Quantity   int
	Date       string
}

func ShowProducts(category string) Intent {
	return Intent{Kind: IntentShowProducts, Category: category}
}

func ShowDetails(identifier string) Intent {
	return Intent{Kind: IntentShowDetails, Identifier: identifier}
}

func AddToCart(identifier string) Intent {
	return Intent{Kind: IntentAddToCart, Identifier: identifier}
}

func CheckOrders() Intent { return Intent{Kind: IntentCheckOrders} }
func ConfirmYes() Intent  { return Intent{Kind: IntentConfirmYes} }
func ConfirmNo() Intent   { return Intent{Kind: IntentConfirmNo} }
func Cancel() Intent      { return Intent{Kind: IntentCancel} }

func Unrecognized() Intent { return Intent{Kind: IntentUnrecognized} }

func ProvideQuantity(n int) Intent {
	return Intent{Kind: IntentProvideQuantity, Quantity: n}
}

func ProvideDate(date string) Intent {
	return Intent{Kind: IntentProvideDate, Date: date}
}

type CartOutcome string

const (
	CartOutcomeAdded    CartOutcome = "added"
	CartOutcomeConflict CartOutcome = "conflict"
	CartOutcomeRejected CartOutcome = "rejected"
	CartOutcomeFailed   CartOutcome = "failed"
)

type CartEvent struct {
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	Outcome     CartOutcome `json:"outcome"`
}

type Response struct {
	Text   string
	Events []CartEvent
}
