package client

import (
	"time"

	"github.com/shopspring/decimal"

	"scrollvite/internal/schema"
)

const (
	RoleBuyer      = "BUYER"
	RoleSuperAdmin = "SUPER_ADMIN"
)

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the user may edit template blueprints.
func (u User) IsAdmin() bool {
	return u.Role == RoleSuperAdmin
}

type AuthResponse struct {
	Access string `json:"access"`
	User   User   `json:"user"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type TemplateSummary struct {
	ID                  int64           `json:"id"`
	Title               string          `json:"title"`
	Price               decimal.Decimal `json:"price"`
	TemplateComponent   string          `json:"template_component"`
	DefaultHeroImageURL string          `json:"default_hero_image_url,omitempty"`
}

type TemplateDetail struct {
	TemplateSummary
	Schema schema.Schema `json:"schema"`
}

// EditableTemplate is the admin view of a template blueprint.
type EditableTemplate struct {
	ID                int64         `json:"id"`
	Title             string        `json:"title"`
	Schema            schema.Schema `json:"schema"`
	IsPublished       bool          `json:"is_published"`
	TemplateComponent string        `json:"template_component"`
}

type Invite struct {
	ID                string        `json:"id"`
	TemplateTitle     string        `json:"template_title"`
	TemplateComponent string        `json:"template_component"`
	Schema            schema.Schema `json:"schema"`
	PublicSlug        string        `json:"public_slug"`
	IsActive          bool          `json:"is_active"`
	ExpiresAt         string        `json:"expires_at,omitempty"`
	Expired           bool          `json:"expired"`
}

type PublicInvite struct {
	Schema            schema.Schema `json:"schema"`
	TemplateComponent string        `json:"template_component"`
	Expired           bool          `json:"expired"`
	ExpiresAt         string        `json:"expires_at,omitempty"`
}

type SaveResult struct {
	Status     string `json:"status"`
	ID         string `json:"id"`
	PublicSlug string `json:"public_slug"`
	Expired    bool   `json:"expired"`
	ExpiresAt  string `json:"expires_at,omitempty"`
}

type PurchasedInvite struct {
	InviteID          string    `json:"invite_id"`
	TemplateID        int64     `json:"template_id"`
	TemplateTitle     string    `json:"template_title"`
	TemplateComponent string    `json:"template_component"`
	PublicSlug        string    `json:"public_slug"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	IsExpired         bool      `json:"is_expired"`
	BrideName         string    `json:"bride_name"`
	GroomName         string    `json:"groom_name"`
}

// DaysLeft is the number of whole days until the invite expires, never negative.
func (p PurchasedInvite) DaysLeft(now time.Time) int {
	if p.IsExpired || p.ExpiresAt.IsZero() || !p.ExpiresAt.After(now) {
		return 0
	}
	return int(p.ExpiresAt.Sub(now).Hours() / 24)
}

// PaymentOrder is the backend's answer to a purchase attempt. When
// AlreadyPurchased is set only the editor fields are meaningful.
type PaymentOrder struct {
	AlreadyPurchased bool   `json:"already_purchased"`
	Message          string `json:"message,omitempty"`
	EditorURL        string `json:"editor_url,omitempty"`
	InviteID         string `json:"invite_id,omitempty"`

	RazorpayOrderID string          `json:"razorpay_order_id,omitempty"`
	RazorpayKeyID   string          `json:"razorpay_key_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	TemplateTitle   string          `json:"template_title,omitempty"`
}

type PaymentConfirmation struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

type VerifyResult struct {
	Message   string `json:"message"`
	EditorURL string `json:"editor_url,omitempty"`
	InviteID  string `json:"invite_id"`
}

type uploadResult struct {
	URL string `json:"url"`
}
