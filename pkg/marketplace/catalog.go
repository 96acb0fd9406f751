package marketplace

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
)

type productPayload struct {
	ProductData []productRecord `json:"product_data"`
}

type productRecord struct {
	ProductID        flexString   `json:"product_id"`
	ProductName      string       `json:"product_name"`
	ProductTypeName  string       `json:"product_type_name"`
	SellingPrice     flexString   `json:"selling_price"`
	ShortDescription string       `json:"short_description"`
	ServiceDetails   string       `json:"service_details"`
	SubscriptionPlan flexString   `json:"subscription_plan"`
	Quantity         flexString   `json:"quantity"`
	PinCodes         []flexString `json:"pin_codes"`
}

func (r productRecord) toProduct() contractx.Product {
	p := contractx.Product{
		ID:               r.ProductID.String(),
		Name:             strings.TrimSpace(r.ProductName),
		Type:             contractx.ProductType(strings.TrimSpace(r.ProductTypeName)),
		SellingPrice:     r.SellingPrice.String(),
		ShortDescription: strings.TrimSpace(r.ShortDescription),
		ServiceDetails:   strings.TrimSpace(r.ServiceDetails),
		SubscriptionPlan: r.SubscriptionPlan.String(),
	}
	if q, ok := r.Quantity.Int(); ok {
		p.Quantity = &q
	}
	for _, pc := range r.PinCodes {
		if s := pc.String(); s != "" {
			p.PinCodes = append(p.PinCodes, s)
		}
	}
	return p
}

type slotPayload struct {
	Slots []slotPeriod `json:"slots"`
}

type slotPeriod struct {
	DayTimeName  string       `json:"day_time_name"`
	DayTimeSlots []slotRecord `json:"day_time_slots"`
}

type slotRecord struct {
	SlotStartTime flexString `json:"slot_start_time"`
	SlotEndTime   flexString `json:"slot_end_time"`
	SlotDuration  flexString `json:"slot_duration"`
	SlotStatus    flexString `json:"slot_status"`
}

// ListProducts returns the full catalog. Results are cached for
// ProductCacheTTL since pincode checks and lookups hit the same endpoint.
func (c *Client) ListProducts(ctx context.Context) ([]contractx.Product, error) {
	if products, ok := c.cachedProducts(); ok {
		return products, nil
	}

	var payload productPayload
	if err := c.get(ctx, c.catalogURL+"/pbs/rest/v3/products", &payload); err != nil {
		return nil, fmt.Errorf("%w: list products: %v", contractx.ErrCatalogUnavailable, err)
	}

	products := make([]contractx.Product, 0, len(payload.ProductData))
	for _, r := range payload.ProductData {
		p := r.toProduct()
		if p.ID == "" || p.Name == "" {
			continue
		}
		products = append(products, p)
	}

	c.storeProducts(products)
	return cloneProducts(products), nil
}

// ValidatePincode reports whether any product is deliverable to code and
// returns the distinct product type labels available there, in catalog order.
func (c *Client) ValidatePincode(ctx context.Context, code string) (bool, []string, error) {
	code = strings.TrimSpace(code)
	products, err := c.ListProducts(ctx)
	if err != nil {
		return false, nil, err
	}

	var (
		categories []string
		seen       = make(map[string]struct{})
		valid      bool
	)
	for _, p := range products {
		if !p.AvailableAt(code) {
			continue
		}
		valid = true
		label := strings.TrimSpace(string(p.Type))
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		categories = append(categories, label)
	}
	return valid, categories, nil
}

// GetSlots flattens the per-period slot groups in the order returned.
// Records missing a field come back incomplete and are filtered by the caller.
func (c *Client) GetSlots(ctx context.Context, date string, productID string) ([]contractx.Slot, error) {
	q := url.Values{}
	q.Set("date", strings.TrimSpace(date))
	q.Set("product_id", strings.TrimSpace(productID))

	var payload slotPayload
	if err := c.get(ctx, c.catalogURL+"/pbs/rest/v3/slots?"+q.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("%w: get slots: %v", contractx.ErrCatalogUnavailable, err)
	}

	var slots []contractx.Slot
	for _, period := range payload.Slots {
		for _, r := range period.DayTimeSlots {
			duration, _ := r.SlotDuration.Int()
			slots = append(slots, contractx.Slot{
				PeriodLabel:     strings.TrimSpace(period.DayTimeName),
				StartTime:       r.SlotStartTime.String(),
				EndTime:         r.SlotEndTime.String(),
				DurationMinutes: duration,
				Status:          r.SlotStatus.String(),
			})
		}
	}
	return slots, nil
}

func (c *Client) cachedProducts() ([]contractx.Product, bool) {
	if c.cacheTTL <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasCached || c.now().Sub(c.cachedAt) >= c.cacheTTL {
		return nil, false
	}
	return cloneProducts(c.cached), true
}

func (c *Client) storeProducts(products []contractx.Product) {
	if c.cacheTTL <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = cloneProducts(products)
	c.cachedAt = c.now()
	c.hasCached = true
}

func cloneProducts(in []contractx.Product) []contractx.Product {
	out := make([]contractx.Product, len(in))
	for i, p := range in {
		out[i] = p
		out[i].PinCodes = append([]string(nil), p.PinCodes...)
		if p.Quantity != nil {
			q := *p.Quantity
			out[i].Quantity = &q
		}
	}
	return out
}
