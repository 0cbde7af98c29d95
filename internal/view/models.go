package view

import (
	"html/template"
	"time"

	"scrollvite/internal/client"
	"scrollvite/internal/purchase"
)

type LoginData struct {
	GoogleClientID string
	LoginURI       string
}

type CategoriesData struct {
	Categories []client.Category
}

type TemplatesData struct {
	CategorySlug string
	Templates    []client.TemplateSummary
}

type PreviewData struct {
	CategorySlug  string
	Template      *client.TemplateDetail
	HTML          template.HTML
	IsAdmin       bool
	OwnedInviteID string
	CheckoutOpen  bool
}

type CheckoutData struct {
	BaseURL string
	Options *purchase.CheckoutOptions
}

// SocketConfig is handed to the editor script.
type SocketConfig struct {
	InviteID string `json:"inviteId"`
	Ticket   string `json:"ticket"`
}

type EditorData struct {
	InviteID      string
	TemplateTitle string
	PublicSlug    string
	ExpiresAt     string
	MaxUpload     string
	Form          Form
	HTML          template.HTML
	Socket        SocketConfig
}

type ExpiredData struct {
	ExpiresAt string
	Owner     bool
}

type InviteData struct {
	HTML template.HTML
}

type MyTemplatesData struct {
	Now     time.Time
	Invites []client.PurchasedInvite
}

type AdminTemplateData struct {
	Template *client.EditableTemplate
	Form     Form
	HTML     template.HTML
}

type PreviewTemplatesData struct {
	Templates []client.TemplateSummary
}

type DemoData struct {
	Title string
	HTML  template.HTML
	Marks []string
}

type ErrorData struct {
	Heading string
	Message string
	Back    string
}

// WatermarkMarks is the repeating overlay text of demo previews.
func WatermarkMarks() []string {
	marks := make([]string, 0, 12)
	for i := 0; i < 6; i++ {
		marks = append(marks, "SCROLLVITE", "PREVIEW")
	}
	return marks
}
