package marketplace

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
)

type orderPayload struct {
	Orders []orderRecord `json:"Orders"`
}

type orderRecord struct {
	ID                     flexString `json:"id"`
	ProductTypeDisplayName string     `json:"product_type_display_name"`
	OrderStatus            string     `json:"order_status"`
	DateOfOrder            string     `json:"date_of_order"`
	CurrencySymbol         string     `json:"currency_symbol"`
	TotalAmount            flexString `json:"total_amount"`
}

func (r orderRecord) toOrder() contractx.Order {
	o := contractx.Order{
		ID:           r.ID.String(),
		ProductLabel: strings.TrimSpace(r.ProductTypeDisplayName),
		Status:       strings.TrimSpace(r.OrderStatus),
		Date:         strings.TrimSpace(r.DateOfOrder),
	}
	if amount := r.TotalAmount.String(); amount != "" {
		o.Amount = strings.TrimSpace(strings.TrimSpace(r.CurrencySymbol) + " " + amount)
	}
	return o
}

func (c *Client) ListOrders(ctx context.Context) ([]contractx.Order, error) {
	var payload orderPayload
	if err := c.get(ctx, c.cartURL+"/cfs/rest/v3/list-orders-with-order-items", &payload); err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", contractx.ErrOrdersUnavailable, err)
	}

	orders := make([]contractx.Order, 0, len(payload.Orders))
	for _, r := range payload.Orders {
		orders = append(orders, r.toOrder())
	}
	return orders, nil
}
