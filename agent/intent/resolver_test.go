package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/state"
)

type fakeClassifier struct {
	out   contractx.Classification
	err   error
	calls []string
}

func (f *fakeClassifier) Classify(_ context.Context, utterance string) (contractx.Classification, error) {
	f.calls = append(f.calls, utterance)
	if f.err != nil {
		return contractx.Classification{}, f.err
	}
	return f.out, nil
}

func idleState(t *testing.T) *statex.SessionState {
	t.Helper()
	st, err := statex.NewSessionState("s1", "560001", []string{"Physical Product", "Service Product"}, time.Now())
	if err != nil {
		t.Fatalf("NewSessionState() error = %v", err)
	}
	return st
}

func pendingState(t *testing.T, p statex.PendingOperation) *statex.SessionState {
	t.Helper()
	st := idleState(t)
	st.SetPending(p)
	return st
}

func TestResolvePendingReplyShapes(t *testing.T) {
	t.Parallel()

	widget := contractx.Product{ID: "3", Name: "Widget", Type: contractx.ProductTypePhysical}
	haircut := contractx.Product{ID: "7", Name: "Haircut", Type: contractx.ProductTypeService}

	tests := []struct {
		name      string
		pending   statex.PendingOperation
		utterance string
		want      contractx.Intent
	}{
		{name: "quantity", pending: statex.AwaitingQuantity(widget), utterance: "5", want: contractx.ProvideQuantity(5)},
		{name: "negative quantity reaches engine", pending: statex.AwaitingQuantity(widget), utterance: "-2", want: contractx.ProvideQuantity(-2)},
		{name: "quantity text", pending: statex.AwaitingQuantity(widget), utterance: "abc", want: contractx.Unrecognized()},
		{name: "date", pending: statex.AwaitingDate(haircut), utterance: " 2025-01-15 ", want: contractx.ProvideDate("2025-01-15")},
		{name: "date wrong layout", pending: statex.AwaitingDate(haircut), utterance: "15/01/2025", want: contractx.Unrecognized()},
		{name: "date impossible", pending: statex.AwaitingDate(haircut), utterance: "2025-02-30", want: contractx.Unrecognized()},
		{name: "yes upper", pending: statex.AwaitingSlotConfirmation(haircut), utterance: "YES", want: contractx.ConfirmYes()},
		{name: "no", pending: statex.AwaitingCartConfirmation(haircut), utterance: "nope", want: contractx.ConfirmNo()},
		{name: "maybe", pending: statex.AwaitingCartConfirmation(haircut), utterance: "maybe", want: contractx.Unrecognized()},
		{name: "cancel", pending: statex.AwaitingDate(haircut), utterance: "Never mind", want: contractx.Cancel()},
		{name: "unrelated command", pending: statex.AwaitingQuantity(widget), utterance: "add to cart widget", want: contractx.Unrecognized()},
		{name: "number while confirming", pending: statex.AwaitingSlotConfirmation(haircut), utterance: "5", want: contractx.Unrecognized()},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			classifier := &fakeClassifier{out: contractx.Classification{Label: "check_orders"}}
			r := NewResolver(classifier)

			got := r.Resolve(context.Background(), tt.utterance, pendingState(t, tt.pending))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Resolve(%q) mismatch (-want +got):\n%s", tt.utterance, diff)
			}
			if len(classifier.calls) != 0 {
				t.Fatalf("classifier consulted while a reply was pending: %v", classifier.calls)
			}
		})
	}
}

func TestResolveDeterministicRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		utterance string
		want      contractx.Intent
	}{
		{utterance: "add to cart Widget", want: contractx.AddToCart("widget")},
		{utterance: "Please add the Widget to my cart", want: contractx.AddToCart("widget")},
		{utterance: "add to cart", want: contractx.AddToCart("")},
		{utterance: "show products in Physical Product", want: contractx.ShowProducts("physical product")},
		{utterance: "list all products", want: contractx.ShowProducts("")},
		{utterance: "show me service product", want: contractx.ShowProducts("service product")},
		{utterance: "show details about Haircut!", want: contractx.ShowDetails("haircut")},
		{utterance: "tell me more about the first one", want: contractx.ShowDetails("first one")},
		{utterance: "show details", want: contractx.ShowDetails("")},
		{utterance: "show my orders", want: contractx.CheckOrders()},
		{utterance: "what is my order status?", want: contractx.CheckOrders()},
		{utterance: "check orders", want: contractx.CheckOrders()},
		{utterance: "show details about Border Status Lamp", want: contractx.ShowDetails("border status lamp")},
		{utterance: "tell me about my orders", want: contractx.ShowDetails("my orders")},
		{utterance: "add to cart   Widget", want: contractx.AddToCart("widget")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.utterance, func(t *testing.T) {
			t.Parallel()
			classifier := &fakeClassifier{out: contractx.Classification{Label: "check_orders"}}
			r := NewResolver(classifier)

			got := r.Resolve(context.Background(), tt.utterance, idleState(t))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Resolve(%q) mismatch (-want +got):\n%s", tt.utterance, diff)
			}
			if len(classifier.calls) != 0 {
				t.Fatalf("classifier consulted for a deterministic command")
			}
		})
	}
}

func TestResolveRulesRequireWordBoundaries(t *testing.T) {
	t.Parallel()

	for _, utterance := range []string{"add to cartwheel", "where is the border status lamp"} {
		classifier := &fakeClassifier{out: contractx.Classification{Label: "unknown"}}
		r := NewResolver(classifier)

		got := r.Resolve(context.Background(), utterance, idleState(t))
		if got.Kind != contractx.IntentUnrecognized {
			t.Fatalf("Resolve(%q) = %+v, want classifier fallback", utterance, got)
		}
		if len(classifier.calls) != 1 {
			t.Fatalf("Resolve(%q) must fall through to the classifier, calls = %v", utterance, classifier.calls)
		}
	}
}

func TestResolveFallsBackToClassifier(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{out: contractx.Classification{Label: "add_to_cart", ProductName: "  Blue WIDGET "}}
	r := NewResolver(classifier)

	got := r.Resolve(context.Background(), "I'd like a blue widget please", idleState(t))
	if diff := cmp.Diff(contractx.AddToCart("blue widget"), got); diff != "" {
		t.Fatalf("Resolve() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"I'd like a blue widget please"}, classifier.calls); diff != "" {
		t.Fatalf("classifier calls mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveClassifierLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   contractx.Classification
		want contractx.Intent
	}{
		{in: contractx.Classification{Label: "show_products", Category: "Service Product"}, want: contractx.ShowProducts("service product")},
		{in: contractx.Classification{Label: "SHOW_DETAILS", ProductName: "Haircut"}, want: contractx.ShowDetails("haircut")},
		{in: contractx.Classification{Label: "check_orders"}, want: contractx.CheckOrders()},
		{in: contractx.Classification{Label: "greeting"}, want: contractx.Unrecognized()},
		{in: contractx.Classification{}, want: contractx.Unrecognized()},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, fromClassification(tt.in)); diff != "" {
			t.Errorf("fromClassification(%+v) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestResolveClassifierErrorIsUnrecognized(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{err: contractx.ErrClassifierUnavailable}
	r := NewResolver(classifier)

	got := r.Resolve(context.Background(), "something vague", idleState(t))
	if got.Kind != contractx.IntentUnrecognized {
		t.Fatalf("Resolve() = %+v, want unrecognized", got)
	}
}

func TestResolveWithoutClassifier(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	if got := r.Resolve(context.Background(), "hello there", idleState(t)); got.Kind != contractx.IntentUnrecognized {
		t.Fatalf("Resolve() = %+v, want unrecognized", got)
	}
	if got := r.Resolve(context.Background(), "   ", nil); got.Kind != contractx.IntentUnrecognized {
		t.Fatalf("Resolve(blank) = %+v, want unrecognized", got)
	}
}

func TestResolveCancelWhileIdleSkipsClassifier(t *testing.T) {
	t.Parallel()

	fc := &fakeClassifier{out: contractx.Classification{Label: "show_products"}}
	r := NewResolver(fc)

	if got := r.Resolve(context.Background(), "Stop!", idleState(t)); got.Kind != contractx.IntentCancel {
		t.Fatalf("Resolve() = %+v, want cancel", got)
	}
	if len(fc.calls) != 0 {
		t.Fatalf("classifier must not be called, got %v", fc.calls)
	}
}

func TestParseHelpers(t *testing.T) {
	t.Parallel()

	if n, ok := ParseQuantity("12"); !ok || n != 12 {
		t.Fatalf("ParseQuantity(12) = %d, %v", n, ok)
	}
	if _, ok := ParseQuantity("1.5"); ok {
		t.Fatal("ParseQuantity accepted a decimal")
	}
	if _, ok := ParseDate("2025-1-5"); ok {
		t.Fatal("ParseDate accepted a non-padded date")
	}
	if yes, ok := ParseConfirmation("Okay"); !ok || !yes {
		t.Fatalf("ParseConfirmation(Okay) = %v, %v", yes, ok)
	}
	if _, ok := ParseConfirmation("yes please"); ok {
		t.Fatal("ParseConfirmation matched a non-exact token")
	}
	if !errors.Is(contractx.ErrClassifierUnavailable, contractx.ErrCollaboratorUnavailable) {
		t.Fatal("classifier error must wrap ErrCollaboratorUnavailable")
	}
}
