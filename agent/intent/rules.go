package intent

import (
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
)

// rule matches an already-normalized utterance. categories are the labels
// available for the session and may be empty.
type rule struct {
	name  string
	match func(text string, categories []string) (contractx.Intent, bool)
}

var (
	addToCartPrefix = regexp.MustCompile(`^(?:please )?add to (?:my )?cart(?:\s+(.*))?$`)
	addToCartSuffix = regexp.MustCompile(`^(?:please )?add (.+?) to (?:my )?cart$`)
	showProducts    = regexp.MustCompile(`^(?:show|list|display|browse)(?: me)?(?: all)?(?: the)? (?:products|items)(?: (?:in|from|for|of|under) (.+))?$`)
	showVerb        = regexp.MustCompile(`\b(?:show|list|display|browse)\b`)
	orderPhrases    = regexp.MustCompile(`\b(?:my orders?|order status|(?:check|show|list) (?:my )?orders)\b`)
)

var detailPhrases = []string{
	"show me details about",
	"show details about",
	"show details of",
	"show details for",
	"show detail about",
	"show detail of",
	"tell me more about",
	"tell me about",
	"details about",
	"details of",
	"details for",
	"more about",
	"describe",
	"show details",
}

func defaultRules() []rule {
	return []rule{
		{name: "add_to_cart", match: matchAddToCart},
		{name: "show_details", match: matchShowDetails},
		{name: "check_orders", match: matchCheckOrders},
		{name: "show_products", match: matchShowProducts},
		{name: "category_mention", match: matchCategoryMention},
	}
}

func matchAddToCart(text string, _ []string) (contractx.Intent, bool) {
	if m := addToCartPrefix.FindStringSubmatch(text); m != nil {
		return contractx.AddToCart(cleanIdentifier(m[1])), true
	}
	if m := addToCartSuffix.FindStringSubmatch(text); m != nil {
		return contractx.AddToCart(cleanIdentifier(m[1])), true
	}
	return contractx.Intent{}, false
}

func matchCheckOrders(text string, _ []string) (contractx.Intent, bool) {
	if orderPhrases.MatchString(text) {
		return contractx.CheckOrders(), true
	}
	return contractx.Intent{}, false
}

func matchShowDetails(text string, _ []string) (contractx.Intent, bool) {
	for _, phrase := range detailPhrases {
		if text == phrase {
			return contractx.ShowDetails(""), true
		}
		if rest, ok := strings.CutPrefix(text, phrase+" "); ok {
			return contractx.ShowDetails(cleanIdentifier(rest)), true
		}
	}
	return contractx.Intent{}, false
}

func matchShowProducts(text string, _ []string) (contractx.Intent, bool) {
	m := showProducts.FindStringSubmatch(text)
	if m == nil {
		return contractx.Intent{}, false
	}
	return contractx.ShowProducts(cleanIdentifier(m[1])), true
}

// matchCategoryMention catches "show service products" style phrasing where a
// known category label appears next to a show verb.
func matchCategoryMention(text string, categories []string) (contractx.Intent, bool) {
	if !showVerb.MatchString(text) {
		return contractx.Intent{}, false
	}
	for _, c := range categories {
		label := strings.ToLower(strings.TrimSpace(c))
		if label != "" && strings.Contains(text, label) {
			return contractx.ShowProducts(label), true
		}
	}
	return contractx.Intent{}, false
}

func cleanIdentifier(s string) string {
	s = strings.TrimSpace(s)
	for _, article := range []string{"the ", "a ", "an "} {
		s = strings.TrimPrefix(s, article)
	}
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
