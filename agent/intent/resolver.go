package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/state"
)

const DateLayout = "2006-01-02"

var (
	affirmativeTokens = map[string]struct{}{
		"yes": {}, "y": {}, "yeah": {}, "yep": {}, "sure": {}, "ok": {}, "okay": {},
	}
	negativeTokens = map[string]struct{}{
		"no": {}, "n": {}, "nope": {}, "nah": {},
	}
	cancelTokens = map[string]struct{}{
		"cancel": {}, "stop": {}, "never mind": {}, "nevermind": {},
	}
)

// Resolver turns one utterance into an Intent. Cancel words always win.
// After that the resolution order is:
//  1. the reply shape expected by the pending operation, if any
//  2. deterministic command patterns
//  3. the classifier collaborator
type Resolver struct {
	classifier contractx.IntentClassifier
	rules      []rule
}

func NewResolver(classifier contractx.IntentClassifier) *Resolver {
	return &Resolver{
		classifier: classifier,
		rules:      defaultRules(),
	}
}

func (r *Resolver) Resolve(ctx context.Context, utterance string, st *statex.SessionState) contractx.Intent {
	text := normalize(utterance)
	if text == "" {
		return contractx.Unrecognized()
	}

	if _, ok := cancelTokens[text]; ok {
		return contractx.Cancel()
	}
	if st != nil && !st.Pending.IsNone() {
		return resolvePendingReply(text, st.Pending)
	}

	var categories []string
	if st != nil {
		categories = st.AvailableCategories
	}
	for _, rl := range r.rules {
		if in, ok := rl.match(text, categories); ok {
			log.Debug().Str("rule", rl.name).Str("intent", string(in.Kind)).Msg("intent matched deterministic rule")
			return in
		}
	}

	return r.classify(ctx, utterance)
}

// resolvePendingReply only ever yields the expected shape or Unrecognized so a pending question is never bypassed by an unrelated command.
func resolvePendingReply(text string, pending statex.PendingOperation) contractx.Intent {
	if pending.ExpectsConfirmation() {
		if yes, ok := ParseConfirmation(text); ok {
			if yes {
				return contractx.ConfirmYes()
			}
			return contractx.ConfirmNo()
		}
		return contractx.Unrecognized()
	}

	switch pending.Kind {
	case statex.PendingQuantity:
		if n, ok := ParseQuantity(text); ok {
			return contractx.ProvideQuantity(n)
		}
	case statex.PendingDate:
		if d, ok := ParseDate(text); ok {
			return contractx.ProvideDate(d)
		}
	}
	return contractx.Unrecognized()
}

// ParseQuantity accepts any integer literal; range checks belong to the engine.
func ParseQuantity(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return n, true
}

func ParseDate(text string) (string, bool) {
	text = strings.TrimSpace(text)
	d, err := time.Parse(DateLayout, text)
	if err != nil {
		return "", false
	}
	return d.Format(DateLayout), true
}

// ParseConfirmation returns (answer, recognized).
func ParseConfirmation(text string) (bool, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if _, ok := affirmativeTokens[text]; ok {
		return true, true
	}
	if _, ok := negativeTokens[text]; ok {
		return false, true
	}
	return false, false
}

func (r *Resolver) classify(ctx context.Context, utterance string) contractx.Intent {
	if r.classifier == nil {
		return contractx.Unrecognized()
	}

	out, err := r.classifier.Classify(ctx, utterance)
	if err != nil {
		log.Warn().Err(err).Msg("intent classifier failed")
		return contractx.Unrecognized()
	}
	return fromClassification(out)
}

func fromClassification(c contractx.Classification) contractx.Intent {
	category := normalize(c.Category)
	product := normalize(c.ProductName)

	switch normalize(c.Label) {
	case "show_products", "get_products", "list_products":
		return contractx.ShowProducts(category)
	case "show_details", "product_details":
		return contractx.ShowDetails(product)
	case "add_to_cart":
		return contractx.AddToCart(product)
	case "check_orders", "order_status":
		return contractx.CheckOrders()
	default:
		return contractx.Unrecognized()
	}
}

var spaceRun = regexp.MustCompile(`\s+`)

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".!?")
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
