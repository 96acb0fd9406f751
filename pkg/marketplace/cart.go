package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
)

const addedMessage = "Item added successfully"

type cartRequest struct {
	CustomerCart []cartLine `json:"customer_cart"`
}

type cartLine struct {
	Product      int `json:"product"`
	CartQuantity int `json:"cart_quantity"`
}

// AddItem posts one cart line. Backend rejections come back as a CartResult;
// only transport failures and 5xx responses are errors.
func (c *Client) AddItem(ctx context.Context, productID string, quantity int) (contractx.CartResult, error) {
	id, err := strconv.Atoi(strings.TrimSpace(productID))
	if err != nil {
		return contractx.CartResult{}, fmt.Errorf("%w: product id %q is not numeric", contractx.ErrInputFormat, productID)
	}
	if quantity <= 0 {
		return contractx.CartResult{}, fmt.Errorf("%w: quantity must be > 0", contractx.ErrInputFormat)
	}

	body := cartRequest{CustomerCart: []cartLine{{Product: id, CartQuantity: quantity}}}
	res, err := c.do(ctx, http.MethodPost, c.cartURL+"/cfs/rest/v3/customer-cart", body)
	if err != nil {
		return contractx.CartResult{}, fmt.Errorf("%w: add item: %v", contractx.ErrCartUnavailable, err)
	}
	if res.status >= http.StatusInternalServerError {
		return contractx.CartResult{}, fmt.Errorf("%w: add item: http status=%d body=%s", contractx.ErrCartUnavailable, res.status, truncate(res.raw, 256))
	}

	return cartResult(res), nil
}

func cartResult(res *httpResult) contractx.CartResult {
	message := strings.TrimSpace(res.env.ResponseMessage)
	bodyStatus, hasBodyStatus := res.env.StatusCode.Int()

	switch {
	case res.status == http.StatusConflict || (hasBodyStatus && bodyStatus == http.StatusConflict):
		return contractx.CartResult{Conflict: true, Message: message}
	case !isSuccess(res.status):
		return contractx.CartResult{Message: message}
	case hasBodyStatus && !isSuccess(bodyStatus):
		return contractx.CartResult{Message: message}
	case message == "" || strings.EqualFold(message, addedMessage) || hasBodyStatus:
		return contractx.CartResult{Success: true, Message: message}
	default:
		return contractx.CartResult{Message: message}
	}
}
