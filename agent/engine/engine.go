package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/state"
)

type OpenStatus int

const (
	OpenReady OpenStatus = iota
	OpenInvalidFormat
	OpenUnserviceable
	OpenUnavailable
)

type OpenResult struct {
	Status   OpenStatus
	State    *statex.SessionState
	Response contractx.Response
}

// Engine is the dialog state machine. Its only side effects are the calls it
// makes to the catalog, order and cart collaborators.
type Engine struct {
	catalog contractx.CatalogClient
	orders  contractx.OrderClient
	cart    contractx.CartClient
}

func New(catalog contractx.CatalogClient, orders contractx.OrderClient, cart contractx.CartClient) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("catalog client is required")
	}
	if orders == nil {
		return nil, errors.New("order client is required")
	}
	if cart == nil {
		return nil, errors.New("cart client is required")
	}
	return &Engine{catalog: catalog, orders: orders, cart: cart}, nil
}

// Open validates a location code and creates the session state for it.
func (e *Engine) Open(ctx context.Context, sessionID string, code string, now time.Time) OpenResult {
	code = strings.TrimSpace(code)
	if !statex.ValidLocationCode(code) {
		return OpenResult{Status: OpenInvalidFormat, Response: reply(msgInvalidPincode)}
	}

	ok, categories, err := e.catalog.ValidatePincode(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("location_code", code).Msg("pincode validation failed")
		return OpenResult{Status: OpenUnavailable, Response: reply(msgApology)}
	}
	categories = dedupe(categories)
	if !ok || len(categories) == 0 {
		return OpenResult{Status: OpenUnserviceable, Response: reply(msgUnserviceable)}
	}

	st, err := statex.NewSessionState(sessionID, code, categories, now)
	if err != nil {
		return OpenResult{Status: OpenInvalidFormat, Response: reply(msgInvalidPincode)}
	}
	return OpenResult{Status: OpenReady, State: st, Response: reply(renderWelcome(categories))}
}

// Handle computes the next state and the reply for one intent. The input
// state is never mutated.
func (e *Engine) Handle(ctx context.Context, st *statex.SessionState, in contractx.Intent) (*statex.SessionState, contractx.Response) {
	if st == nil {
		return nil, reply(msgNoSession)
	}
	next := st.Clone()
	if err := next.Pending.Validate(); err != nil {
		log.Warn().Err(err).Str("session_id", next.SessionID).Msg("dropping malformed pending operation")
		next.ClearPending()
		return next, reply(renderHelp())
	}

	var resp contractx.Response
	switch next.Pending.Kind {
	case statex.PendingQuantity:
		resp = e.onQuantityReply(ctx, next, in)
	case statex.PendingSlotConfirmation:
		resp = e.onSlotConfirmation(next, in)
	case statex.PendingDate:
		resp = e.onDateReply(ctx, next, in)
	case statex.PendingCartConfirmation:
		resp = e.onCartConfirmation(ctx, next, in)
	default:
		resp = e.onIdle(ctx, next, in)
	}

	log.Debug().
		Str("session_id", next.SessionID).
		Str("intent", string(in.Kind)).
		Str("pending_before", st.Pending.String()).
		Str("pending_after", next.Pending.String()).
		Msg("turn handled")
	return next, resp
}

/* ------------------------------ idle intents ------------------------------ */

func (e *Engine) onIdle(ctx context.Context, st *statex.SessionState, in contractx.Intent) contractx.Response {
	switch in.Kind {
	case contractx.IntentShowProducts:
		return e.showProducts(ctx, st, in.Category)
	case contractx.IntentShowDetails:
		return e.showDetails(ctx, st, in.Identifier)
	case contractx.IntentAddToCart:
		return e.startAddToCart(ctx, st, in.Identifier)
	case contractx.IntentCheckOrders:
		return e.checkOrders(ctx)
	case contractx.IntentCancel:
		return reply(msgNothingToCancel + "\n\n" + renderHelp())
	default:
		return reply(renderHelp())
	}
}

func (e *Engine) showProducts(ctx context.Context, st *statex.SessionState, query string) contractx.Response {
	if strings.TrimSpace(query) == "" {
		return reply(renderCategoryQuestion(st.AvailableCategories))
	}
	category, ok := matchCategory(st.AvailableCategories, query)
	if !ok {
		return reply(renderUnknownCategory(query, st.AvailableCategories))
	}

	products, err := e.catalog.ListProducts(ctx)
	if err != nil {
		return e.apologize(st, err, "list products")
	}

	listed := make([]contractx.Product, 0, len(products))
	for _, p := range products {
		if strings.EqualFold(string(p.Type), category) && p.AvailableAt(st.LocationCode) {
			listed = append(listed, p)
		}
	}
	st.ReplaceLastShown(listed)
	if len(listed) == 0 {
		return reply(fmt.Sprintf("I couldn't find any %s available in your area right now.", category))
	}
	return reply(renderProductList(category, listed))
}

func (e *Engine) showDetails(ctx context.Context, st *statex.SessionState, identifier string) contractx.Response {
	product, err := e.resolveProduct(ctx, st, identifier)
	if err != nil {
		return e.resolveFailure(st, identifier, err, msgWhichProductDetails)
	}

	st.ReplaceLastShown([]contractx.Product{product})
	if product.IsService() {
		st.SetPending(statex.AwaitingSlotConfirmation(product))
	}
	return reply(renderDetails(product))
}

func (e *Engine) startAddToCart(ctx context.Context, st *statex.SessionState, identifier string) contractx.Response {
	product, err := e.resolveProduct(ctx, st, identifier)
	if err != nil {
		return e.resolveFailure(st, identifier, err, msgWhichProductCart)
	}

	switch product.Type {
	case contractx.ProductTypePhysical:
		st.SetPending(statex.AwaitingQuantity(product))
		return reply(fmt.Sprintf("How many %s would you like to add to your cart?", product.Name))
	case contractx.ProductTypeService:
		st.SetPending(statex.AwaitingSlotConfirmation(product))
		return reply(fmt.Sprintf("%s is a service, so it is booked by time slot. Would you like to check available slots for %s? (yes/no)", product.Name, product.Name))
	default:
		return reply(renderUnsupportedType(product))
	}
}

func (e *Engine) checkOrders(ctx context.Context) contractx.Response {
	orders, err := e.orders.ListOrders(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("list orders failed")
		return reply(msgApology)
	}
	if len(orders) == 0 {
		return reply(msgNoOrders)
	}
	return reply(renderOrders(orders))
}

/* ----------------------------- pending replies ---------------------------- */

func (e *Engine) onQuantityReply(ctx context.Context, st *statex.SessionState, in contractx.Intent) contractx.Response {
	product := *st.Pending.Product

	switch in.Kind {
	case contractx.IntentProvideQuantity:
		if in.Quantity <= 0 {
			return reply(fmt.Sprintf("Please enter a quantity greater than 0 for %s.", product.Name))
		}
		st.ClearPending()
		return e.addItem(ctx, product, in.Quantity)
	case contractx.IntentCancel:
		st.ClearPending()
		return reply(fmt.Sprintf("Okay, I won't add %s to your cart.", product.Name))
	default:
		return reply(fmt.Sprintf("Please enter a whole number for how many %s you would like, or say 'cancel'.", product.Name))
	}
}

func (e *Engine) onSlotConfirmation(st *statex.SessionState, in contractx.Intent) contractx.Response {
	service := *st.Pending.Product

	switch in.Kind {
	case contractx.IntentConfirmYes:
		st.SetPending(statex.AwaitingDate(service))
		return reply(fmt.Sprintf("Please enter the date (YYYY-MM-DD) to check available slots for %s:", service.Name))
	case contractx.IntentConfirmNo, contractx.IntentCancel:
		st.ClearPending()
		return reply(msgAnythingElse)
	default:
		return reply(fmt.Sprintf("Would you like to check available slots for %s? Please answer yes or no.", service.Name))
	}
}

func (e *Engine) onDateReply(ctx context.Context, st *statex.SessionState, in contractx.Intent) contractx.Response {
	service := *st.Pending.Product

	switch in.Kind {
	case contractx.IntentProvideDate:
		slots, err := e.catalog.GetSlots(ctx, in.Date, service.ID)
		if err != nil {
			return e.apologize(st, err, "get slots")
		}
		slots = completeSlots(slots)
		if len(slots) == 0 {
			st.ClearPending()
			return reply(fmt.Sprintf("No slots available for %s on %s.", service.Name, in.Date))
		}
		st.SetPending(statex.AwaitingCartConfirmation(service))
		return reply(renderSlots(service, in.Date, slots))
	case contractx.IntentCancel:
		st.ClearPending()
		return reply(msgAnythingElse)
	default:
		return reply(msgDateFormat)
	}
}

func (e *Engine) onCartConfirmation(ctx context.Context, st *statex.SessionState, in contractx.Intent) contractx.Response {
	service := *st.Pending.Product

	switch in.Kind {
	case contractx.IntentConfirmYes:
		st.ClearPending()
		return e.addItem(ctx, service, 1)
	case contractx.IntentConfirmNo, contractx.IntentCancel:
		st.ClearPending()
		return reply(msgAnythingElse)
	default:
		return reply(fmt.Sprintf("Would you like to add %s to your cart? Please answer yes or no.", service.Name))
	}
}

/* -------------------------------- helpers -------------------------------- */

func (e *Engine) addItem(ctx context.Context, product contractx.Product, quantity int) contractx.Response {
	event := contractx.CartEvent{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
	}

	res, err := e.cart.AddItem(ctx, product.ID, quantity)
	var text string
	switch {
	case err != nil:
		log.Warn().Err(err).Str("product_id", product.ID).Msg("cart add failed")
		event.Outcome = contractx.CartOutcomeFailed
		text = msgApology
	case res.Conflict:
		event.Outcome = contractx.CartOutcomeConflict
		text = firstNonEmpty(res.Message, fmt.Sprintf("%s is already in your cart.", product.Name))
	case !res.Success:
		event.Outcome = contractx.CartOutcomeRejected
		text = firstNonEmpty(res.Message, fmt.Sprintf("Sorry, I couldn't add %s to your cart. Please try again.", product.Name))
	default:
		event.Outcome = contractx.CartOutcomeAdded
		text = renderAdded(product, quantity)
	}

	return contractx.Response{Text: text, Events: []contractx.CartEvent{event}}
}

// apologize reports a collaborator failure and drops any pending question so
// the next turn starts clean.
func (e *Engine) apologize(st *statex.SessionState, err error, op string) contractx.Response {
	log.Warn().Err(err).Str("op", op).Str("session_id", st.SessionID).Msg("collaborator call failed")
	st.ClearPending()
	return reply(msgApology)
}

func (e *Engine) resolveFailure(st *statex.SessionState, identifier string, err error, emptyPrompt string) contractx.Response {
	switch {
	case errors.Is(err, errEmptyIdentifier):
		return reply(emptyPrompt)
	case errors.Is(err, contractx.ErrNotFound):
		st.ClearPending()
		return reply(fmt.Sprintf("I couldn't find a product named '%s'. Could you check the name?", strings.TrimSpace(identifier)))
	default:
		return e.apologize(st, err, "resolve product")
	}
}

func completeSlots(slots []contractx.Slot) []contractx.Slot {
	out := make([]contractx.Slot, 0, len(slots))
	for _, s := range slots {
		if s.Complete() {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		key := strings.ToLower(l)
		if l == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func reply(text string) contractx.Response {
	return contractx.Response{Text: text}
}
