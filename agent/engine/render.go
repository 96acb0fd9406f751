package engine

import (
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
)

const (
	msgInvalidPincode      = "Please enter a valid 6-digit pincode."
	msgUnserviceable       = "Sorry, we don't deliver to this pincode yet. Please try another pincode."
	msgApology             = "Sorry, I'm having trouble reaching the store right now. Please try again in a moment."
	msgNoSession           = "Please enter your pincode first so I can check what is available in your area."
	msgNoOrders            = "You don't have any orders yet."
	msgNothingToCancel     = "There is nothing to cancel right now."
	msgAnythingElse        = "No problem. Is there anything else I can help you with?"
	msgDateFormat          = "Please enter the date in YYYY-MM-DD format (e.g., 2025-01-15), or say 'cancel'."
	msgWhichProductDetails = "Which product would you like to know more about?"
	msgWhichProductCart    = "Which product would you like to add to your cart?"

	orderSeparator = "----------------------------------------"
)

func renderHelp() string {
	var b strings.Builder
	b.WriteString("I can help you with:\n")
	b.WriteString("  • show products in <category>\n")
	b.WriteString("  • show details about <product name or id>\n")
	b.WriteString("  • add to cart <product name or id>\n")
	b.WriteString("  • show my orders\n")
	b.WriteString("Type 'exit' to leave.")
	return b.String()
}

func renderWelcome(categories []string) string {
	var b strings.Builder
	b.WriteString("Great! Here's what is available in your area:\n")
	writeBullets(&b, categories)
	b.WriteString("\n")
	b.WriteString(renderHelp())
	return b.String()
}

func renderCategoryQuestion(categories []string) string {
	var b strings.Builder
	b.WriteString("Which category would you like to see? Available in your area:\n")
	writeBullets(&b, categories)
	return strings.TrimRight(b.String(), "\n")
}

func renderUnknownCategory(query string, categories []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I couldn't find a category matching '%s'. Available in your area:\n", strings.TrimSpace(query))
	writeBullets(&b, categories)
	return strings.TrimRight(b.String(), "\n")
}

func renderProductList(category string, products []contractx.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are the %s available in your area:\n", category)
	for i, p := range products {
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, p.ID, p.Name)
		if p.SellingPrice != "" {
			fmt.Fprintf(&b, " - %s", p.SellingPrice)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nSay 'show details about <name or id>' for more information.")
	if strings.EqualFold(category, string(contractx.ProductTypePhysical)) {
		b.WriteString("\nSay 'add to cart <name or id>' to order.")
	}
	return b.String()
}

func renderDetails(p contractx.Product) string {
	var b strings.Builder
	writeField(&b, "Product ID", p.ID)
	writeField(&b, "Name", p.Name)
	writeField(&b, "Type", string(p.Type))

	switch p.Type {
	case contractx.ProductTypePhysical:
		if p.Quantity != nil {
			writeField(&b, "Quantity", strconv.Itoa(*p.Quantity))
		}
		writeField(&b, "Price", p.SellingPrice)
		writeField(&b, "Description", p.ShortDescription)
		b.WriteString("\nSay 'add to cart " + p.Name + "' to order it.")
	case contractx.ProductTypeService:
		writeField(&b, "Price", p.SellingPrice)
		writeField(&b, "Service Details", p.ServiceDetails)
		writeField(&b, "Description", p.ShortDescription)
		fmt.Fprintf(&b, "\nWould you like to check available slots for %s? (yes/no)", p.Name)
	default:
		writeField(&b, "Price", p.SellingPrice)
		writeField(&b, "Subscription Plan", p.SubscriptionPlan)
		writeField(&b, "Description", p.ShortDescription)
		b.WriteString("\n" + renderUnsupportedType(p))
	}
	return b.String()
}

func renderUnsupportedType(p contractx.Product) string {
	return fmt.Sprintf("Sorry, %s is a %s and can't be ordered through chat yet.", p.Name, p.Type)
}

// renderSlots groups slots by period label, keeping the order the periods
// first appear in.
func renderSlots(service contractx.Product, date string, slots []contractx.Slot) string {
	var (
		periods []string
		byLabel = make(map[string][]contractx.Slot)
	)
	for _, s := range slots {
		if _, ok := byLabel[s.PeriodLabel]; !ok {
			periods = append(periods, s.PeriodLabel)
		}
		byLabel[s.PeriodLabel] = append(byLabel[s.PeriodLabel], s)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available slots for %s on %s:\n", service.Name, date)
	for _, period := range periods {
		fmt.Fprintf(&b, "\n%s:\n", period)
		for _, s := range byLabel[period] {
			fmt.Fprintf(&b, "  • %s - %s (%d min) [%s]\n", s.StartTime, s.EndTime, s.DurationMinutes, s.Status)
		}
	}
	fmt.Fprintf(&b, "\nWould you like to add %s to your cart? (yes/no)", service.Name)
	return b.String()
}

func renderOrders(orders []contractx.Order) string {
	var b strings.Builder
	b.WriteString("Here are your orders:\n")
	for _, o := range orders {
		b.WriteString(orderSeparator + "\n")
		fmt.Fprintf(&b, "• Order #%s: %s | %s | %s", o.ID, o.ProductLabel, o.Status, datePart(o.Date))
		if o.Amount != "" {
			fmt.Fprintf(&b, " | %s", o.Amount)
		}
		b.WriteString("\n")
	}
	b.WriteString(orderSeparator)
	return b.String()
}

func renderAdded(p contractx.Product, quantity int) string {
	if p.IsService() {
		return fmt.Sprintf("Added %s to your cart.", p.Name)
	}
	return fmt.Sprintf("Added %d x %s to your cart.", quantity, p.Name)
}

// datePart keeps the calendar date of an ISO timestamp.
func datePart(ts string) string {
	ts = strings.TrimSpace(ts)
	if i := strings.IndexAny(ts, "T "); i > 0 {
		return ts[:i]
	}
	return ts
}

func writeBullets(b *strings.Builder, items []string) {
	for _, it := range items {
		fmt.Fprintf(b, "  • %s\n", it)
	}
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}
