// Package purchase drives one buyer's attempt to pay for a template, from
// order creation through the gateway checkout to backend verification.
package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"scrollvite/internal/client"
)

type State string

const (
	Idle         State = "idle"
	OrderCreated State = "order_created"
	CheckoutOpen State = "checkout_open"
	Verified     State = "verified"
	Failed       State = "failed"
	Cancelled    State = "cancelled"
)

const (
	DefaultCurrency = "INR"
	MerchantName    = "ScrollVite"
)

var (
	ErrInvalidTransition = errors.New("invalid purchase transition")
	ErrAttemptOpen       = fmt.Errorf("%w: a checkout is already open", ErrInvalidTransition)
)

// Backend is the subset of the API client a purchase needs.
type Backend interface {
	CreatePaymentOrder(ctx context.Context, templateID string) (*client.PaymentOrder, error)
	VerifyPayment(ctx context.Context, conf client.PaymentConfirmation) (*client.VerifyResult, error)
}

// CheckoutOptions is handed verbatim to the gateway's Checkout constructor.
type CheckoutOptions struct {
	Key         string `json:"key"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OrderID     string `json:"order_id"`
}

// Outcome tells the page controller what to do after a transition.
type Outcome struct {
	State    State
	Redirect string
	Message  string
	Checkout *CheckoutOptions
}

// Flow is a single purchase attempt. It is not safe for concurrent use; the
// Manager serializes access.
type Flow struct {
	templateID string
	state      State
	checkout   *CheckoutOptions
	history    []State
}

func NewFlow(templateID string) *Flow {
	return &Flow{templateID: templateID, state: Idle, history: []State{Idle}}
}

func (f *Flow) State() State {
	return f.state
}

// History lists every state the flow has passed through, oldest first.
func (f *Flow) History() []State {
	return append([]State(nil), f.history...)
}

// Checkout returns the open checkout options, nil unless CheckoutOpen.
func (f *Flow) Checkout() *CheckoutOptions {
	if f.state != CheckoutOpen {
		return nil
	}
	return f.checkout
}

func (f *Flow) to(s State) {
	f.state = s
	f.history = append(f.history, s)
}

// Start creates a gateway order. A template the buyer already owns skips the
// gateway and sends them to the existing editor.
func (f *Flow) Start(ctx context.Context, b Backend) (Outcome, error) {
	switch f.state {
	case Idle:
	case CheckoutOpen, OrderCreated:
		return Outcome{State: f.state}, ErrAttemptOpen
	default:
		return Outcome{State: f.state}, fmt.Errorf("%w: start from %s", ErrInvalidTransition, f.state)
	}

	order, err := b.CreatePaymentOrder(ctx, f.templateID)
	if err != nil {
		f.to(Failed)
		f.to(Idle)
		return Outcome{State: Idle, Message: "Failed to initiate payment. Please try again."}, err
	}
	f.to(OrderCreated)

	if order.AlreadyPurchased {
		f.to(Idle)
		return Outcome{
			State:    Idle,
			Redirect: EditorURL(order.EditorURL, order.InviteID),
			Message:  order.Message,
		}, nil
	}

	currency := order.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	f.checkout = &CheckoutOptions{
		Key:         order.RazorpayKeyID,
		Amount:      Paise(order.Amount),
		Currency:    currency,
		Name:        MerchantName,
		Description: order.TemplateTitle,
		OrderID:     order.RazorpayOrderID,
	}
	f.to(CheckoutOpen)
	return Outcome{State: CheckoutOpen, Checkout: f.checkout}, nil
}

// Confirm sends the gateway's success payload to the backend for verification.
func (f *Flow) Confirm(ctx context.Context, b Backend, conf client.PaymentConfirmation) (Outcome, error) {
	if f.state != CheckoutOpen {
		return Outcome{State: f.state}, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, f.state)
	}
	if conf.RazorpayOrderID == "" {
		conf.RazorpayOrderID = f.checkout.OrderID
	}

	res, err := b.VerifyPayment(ctx, conf)
	if err != nil {
		f.to(Failed)
		f.to(Idle)
		f.checkout = nil
		return Outcome{State: Idle, Message: "Payment verification failed. Please contact support."}, err
	}

	f.to(Verified)
	f.checkout = nil
	return Outcome{
		State:    Verified,
		Redirect: EditorURL(res.EditorURL, res.InviteID),
		Message:  res.Message,
	}, nil
}

// Cancel closes an open checkout without paying.
func (f *Flow) Cancel() (Outcome, error) {
	if f.state != CheckoutOpen {
		return Outcome{State: f.state}, fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, f.state)
	}
	f.to(Cancelled)
	f.to(Idle)
	f.checkout = nil
	return Outcome{State: Idle, Message: "Payment was cancelled or failed. Please try again."}, nil
}

// EditorURL prefers the backend-supplied editor path over one built from the
// invite id.
func EditorURL(editorURL, inviteID string) string {
	if editorURL != "" {
		return editorURL
	}
	if inviteID == "" {
		return "/my-templates"
	}
	return "/editor/" + inviteID
}

var hundred = decimal.NewFromInt(100)

// Paise converts a rupee amount to the gateway's minor unit.
func Paise(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
