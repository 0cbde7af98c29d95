package handler

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"scrollvite/internal/client"
	"scrollvite/internal/purchase"
	"scrollvite/internal/render"
	"scrollvite/internal/view"
	"scrollvite/internal/web"
	"scrollvite/middleware"
	"scrollvite/pkg/logger"
)

type CatalogHandler struct {
	*web.Base
	Renderer  *render.Renderer
	Purchases *purchase.Manager
}

func NewCatalogHandler(base *web.Base, renderer *render.Renderer, purchases *purchase.Manager) *CatalogHandler {
	return &CatalogHandler{Base: base, Renderer: renderer, Purchases: purchases}
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.APIFor(r).ListCategories(r.Context())
	if err != nil {
		h.Fail(w, r, err, "", "Failed to load categories.")
		return
	}
	h.Render(w, r, http.StatusOK, view.Categories, "Choose a category", view.CategoriesData{Categories: categories})
}

func (h *CatalogHandler) Templates(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	templates, err := h.APIFor(r).ListTemplates(r.Context(), slug)
	if err != nil {
		h.Fail(w, r, err, "/categories", "Failed to load templates.")
		return
	}
	h.Render(w, r, http.StatusOK, view.Templates, "Templates", view.TemplatesData{CategorySlug: slug, Templates: templates})
}

// Preview shows a template with its sample content. Buyers who already own
// it get a link to their editor instead of a buy button.
func (h *CatalogHandler) Preview(w http.ResponseWriter, r *http.Request) {
	slug, templateID := r.PathValue("slug"), r.PathValue("id")
	sess := h.Session(r)
	api := h.APIFor(r)
	isAdmin := sess.User.IsAdmin()

	var (
		detail    *client.TemplateDetail
		purchased []client.PurchasedInvite
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		detail, err = api.GetTemplate(ctx, templateID)
		return err
	})
	if !isAdmin {
		// Ownership only picks between Buy and Edit; the backend refuses a
		// second purchase anyway.
		g.Go(func() error {
			var err error
			if purchased, err = api.ListPurchasedInvites(ctx); err != nil {
				logger.Sugar.Warnf("Handler: Ownership check for template %s failed: %v", templateID, err)
				purchased = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.Fail(w, r, err, "/templates/"+slug, "Failed to load template.")
		return
	}

	html, err := h.Renderer.RenderHTML(detail.TemplateComponent, detail.Schema)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to render template %s: %v", templateID, err)
	}
	h.Render(w, r, http.StatusOK, view.Preview, detail.Title, view.PreviewData{
		CategorySlug:  slug,
		Template:      detail,
		HTML:          html,
		IsAdmin:       isAdmin,
		OwnedInviteID: ownedInvite(purchased, detail.ID, time.Now()),
		CheckoutOpen:  h.Purchases.Open(sess.ID, templateID) != nil,
	})
}

// ownedInvite returns the buyer's live invite for a template, if any.
func ownedInvite(invites []client.PurchasedInvite, templateID int64, now time.Time) string {
	for _, inv := range invites {
		if inv.TemplateID == templateID && !inv.IsExpired && (inv.ExpiresAt.IsZero() || inv.ExpiresAt.After(now)) {
			return inv.InviteID
		}
	}
	return ""
}

// Buy opens a purchase attempt and sends the buyer to the checkout page, or
// straight to the editor when the template is already theirs.
func (h *CatalogHandler) Buy(w http.ResponseWriter, r *http.Request) {
	base := purchaseBase(r)
	out, err := h.Purchases.Start(r.Context(), h.APIFor(r), h.Session(r).ID, r.PathValue("id"))
	switch {
	case errors.Is(err, purchase.ErrAttemptOpen):
		http.Redirect(w, r, base+"/checkout", http.StatusSeeOther)
	case err != nil:
		h.Fail(w, r, err, base, out.Message)
	case out.Redirect != "":
		h.Redirect(w, r, out.Redirect, middleware.FlashInfo, out.Message)
	default:
		http.Redirect(w, r, base+"/checkout", http.StatusSeeOther)
	}
}

// Checkout renders the gateway widget for the open attempt.
func (h *CatalogHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	base := purchaseBase(r)
	opts := h.Purchases.Open(h.Session(r).ID, r.PathValue("id"))
	if opts == nil {
		http.Redirect(w, r, base, http.StatusSeeOther)
		return
	}
	h.Render(w, r, http.StatusOK, view.Checkout, "Checkout", view.CheckoutData{BaseURL: base, Options: opts})
}

// Verify receives the gateway's success callback.
func (h *CatalogHandler) Verify(w http.ResponseWriter, r *http.Request) {
	base := purchaseBase(r)
	if err := r.ParseForm(); err != nil {
		h.Redirect(w, r, base, middleware.FlashError, "Invalid payment response.")
		return
	}
	conf := client.PaymentConfirmation{
		RazorpayOrderID:   r.PostForm.Get("razorpay_order_id"),
		RazorpayPaymentID: r.PostForm.Get("razorpay_payment_id"),
		RazorpaySignature: r.PostForm.Get("razorpay_signature"),
	}
	if conf.RazorpayPaymentID == "" || conf.RazorpaySignature == "" {
		h.Redirect(w, r, base+"/checkout", middleware.FlashError, "Incomplete payment response.")
		return
	}

	out, err := h.Purchases.Confirm(r.Context(), h.APIFor(r), h.Session(r).ID, r.PathValue("id"), conf)
	switch {
	case errors.Is(err, purchase.ErrInvalidTransition):
		h.Redirect(w, r, base, middleware.FlashError, "No payment is in progress for this template.")
	case err != nil:
		h.Fail(w, r, err, base, out.Message)
	default:
		message := out.Message
		if message == "" {
			message = "Payment successful!"
		}
		h.Redirect(w, r, out.Redirect, middleware.FlashSuccess, message)
	}
}

// Cancel receives the gateway's dismiss callback.
func (h *CatalogHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	base := purchaseBase(r)
	out, err := h.Purchases.Cancel(h.Session(r).ID, r.PathValue("id"))
	if err != nil {
		http.Redirect(w, r, base, http.StatusSeeOther)
		return
	}
	h.Redirect(w, r, base, middleware.FlashInfo, out.Message)
}

func (h *CatalogHandler) MyTemplates(w http.ResponseWriter, r *http.Request) {
	invites, err := h.APIFor(r).ListPurchasedInvites(r.Context())
	if err != nil {
		h.Fail(w, r, err, "", "Failed to load your templates.")
		return
	}
	h.Render(w, r, http.StatusOK, view.MyTemplates, "My Templates", view.MyTemplatesData{Now: time.Now(), Invites: invites})
}

func (h *CatalogHandler) PreviewTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.API.ListPreviewTemplates(r.Context())
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to load preview templates: %v", err)
		h.Render(w, r, http.StatusBadGateway, view.Error, "Something went wrong", view.ErrorData{
			Heading: "Something went wrong",
			Message: "Failed to load templates.",
		})
		return
	}
	h.Render(w, r, http.StatusOK, view.PreviewTemplates, "Template Gallery", view.PreviewTemplatesData{Templates: templates})
}

// Demo renders a public template preview under a watermark. A template whose
// stored schema is empty shows the theme's sample content.
func (h *CatalogHandler) Demo(w http.ResponseWriter, r *http.Request) {
	templateID := r.PathValue("id")
	detail, err := h.API.GetPreviewTemplate(r.Context(), templateID)
	if err != nil {
		status, message := http.StatusBadGateway, "Failed to load preview."
		if errors.Is(err, client.ErrNotFound) {
			status, message = http.StatusNotFound, "This template is not available for preview."
		} else {
			logger.Sugar.Errorf("Handler: Failed to load preview template %s: %v", templateID, err)
		}
		h.Render(w, r, status, view.Error, "Preview unavailable", view.ErrorData{
			Heading: "Preview unavailable",
			Message: message,
			Back:    "/preview-templates",
		})
		return
	}

	s := detail.Schema
	if len(s.Map()) == 0 {
		if sample, ok := h.Renderer.Sample(h.Renderer.Resolve(detail.TemplateComponent)); ok {
			s = sample
		}
	}
	html, err := h.Renderer.RenderHTML(detail.TemplateComponent, s)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to render preview %s: %v", templateID, err)
	}
	h.Render(w, r, http.StatusOK, view.Demo, detail.Title, view.DemoData{
		Title: detail.Title,
		HTML:  html,
		Marks: view.WatermarkMarks(),
	})
}

func purchaseBase(r *http.Request) string {
	return "/templates/" + r.PathValue("slug") + "/" + r.PathValue("id")
}

