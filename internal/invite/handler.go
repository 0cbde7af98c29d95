package handler

import (
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"

	"scrollvite/internal/client"
	"scrollvite/internal/invite/service"
	"scrollvite/internal/render"
	"scrollvite/internal/view"
	"scrollvite/internal/web"
	"scrollvite/middleware"
	"scrollvite/pkg/logger"
)

type InviteHandler struct {
	*web.Base
	Service   *service.InviteService
	Renderer  *render.Renderer
	Tickets   *middleware.Tickets
	MaxUpload int64
}

func NewInviteHandler(base *web.Base, svc *service.InviteService, renderer *render.Renderer, tickets *middleware.Tickets, maxUpload int64) *InviteHandler {
	return &InviteHandler{Base: base, Service: svc, Renderer: renderer, Tickets: tickets, MaxUpload: maxUpload}
}

// Editor shows the form, the current preview and a ticket for the live socket.
func (h *InviteHandler) Editor(w http.ResponseWriter, r *http.Request) {
	inviteID := r.PathValue("id")
	state, err := h.Service.Load(r.Context(), h.APIFor(r), inviteID)
	if err != nil {
		h.Fail(w, r, err, "", "Failed to load invite.")
		return
	}
	if state.Invite.Expired {
		h.Render(w, r, http.StatusGone, view.Expired, "Invite expired", view.ExpiredData{
			ExpiresAt: state.Invite.ExpiresAt,
			Owner:     true,
		})
		return
	}

	ticket, err := h.Tickets.Issue(h.Session(r).ID, inviteID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to issue socket ticket for %s: %v", inviteID, err)
		h.Fail(w, r, err, "", "Failed to open the editor.")
		return
	}

	theme := state.Invite.TemplateComponent
	html, err := h.Renderer.RenderHTML(theme, state.Schema)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to render invite %s: %v", inviteID, err)
	}
	h.Render(w, r, http.StatusOK, view.Editor, "Edit Invite", view.EditorData{
		InviteID:      inviteID,
		TemplateTitle: state.Invite.TemplateTitle,
		PublicSlug:    state.Invite.PublicSlug,
		ExpiresAt:     state.Invite.ExpiresAt,
		MaxUpload:     humanize.IBytes(uint64(h.MaxUpload)),
		Form:          view.BuildForm(theme, state.Schema),
		HTML:          html,
		Socket:        view.SocketConfig{InviteID: inviteID, Ticket: ticket},
	})
}

// Save handles the form post of the editor, including the add and remove
// buttons of list sections.
func (h *InviteHandler) Save(w http.ResponseWriter, r *http.Request) {
	inviteID := r.PathValue("id")
	back := "/editor/" + inviteID
	if err := r.ParseForm(); err != nil {
		h.Redirect(w, r, back, middleware.FlashError, "Invalid form submission.")
		return
	}

	_, err := h.Service.ApplyForm(r.Context(), h.APIFor(r), inviteID, r.PostForm)
	switch {
	case err == nil:
		message := "Saved successfully!"
		if r.PostForm.Get("op") != "" {
			message = ""
		}
		h.Redirect(w, r, back, middleware.FlashSuccess, message)
	case errors.Is(err, client.ErrExpired):
		http.Redirect(w, r, back, http.StatusSeeOther)
	case service.IsUserError(err):
		logger.Sugar.Infof("Handler: Rejected edit of %s: %v", inviteID, err)
		h.Redirect(w, r, back, middleware.FlashError, "That change could not be applied.")
	default:
		h.Fail(w, r, err, back, "Failed to save invite.")
	}
}

// Upload stores a couple photo and saves its URL into the hero section.
func (h *InviteHandler) Upload(w http.ResponseWriter, r *http.Request) {
	inviteID := r.PathValue("id")
	back := "/editor/" + inviteID
	tooLarge := "Image must be smaller than " + humanize.IBytes(uint64(h.MaxUpload)) + "."

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Redirect(w, r, back, middleware.FlashError, tooLarge)
			return
		}
		h.Redirect(w, r, back, middleware.FlashError, "Invalid upload.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		h.Redirect(w, r, back, middleware.FlashError, "Choose an image to upload.")
		return
	}
	defer file.Close()
	if header.Size > h.MaxUpload {
		h.Redirect(w, r, back, middleware.FlashError, tooLarge)
		return
	}

	field := r.FormValue("field")
	if field == "" {
		field = "couple_photo"
	}
	_, err = h.Service.Upload(r.Context(), h.APIFor(r), inviteID, field, header.Filename, file)
	switch {
	case err == nil:
		h.Redirect(w, r, back, middleware.FlashSuccess, "Image uploaded successfully!")
	case errors.Is(err, client.ErrExpired):
		http.Redirect(w, r, back, http.StatusSeeOther)
	case service.IsUserError(err):
		h.Redirect(w, r, back, middleware.FlashError, "That image field cannot be set.")
	default:
		h.Fail(w, r, err, back, "Failed to upload image.")
	}
}

// Public renders a published invite for guests.
func (h *InviteHandler) Public(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	inv, err := h.API.GetPublicInvite(r.Context(), slug)
	switch {
	case errors.Is(err, client.ErrNotFound):
		h.RenderBare(w, r, http.StatusNotFound, view.Error, "Invite not found", view.ErrorData{
			Heading: "Invite not found",
			Message: "This invitation does not exist or is no longer available.",
		})
		return
	case err != nil:
		logger.Sugar.Errorf("Handler: Failed to load public invite %s: %v", slug, err)
		h.RenderBare(w, r, http.StatusBadGateway, view.Error, "Something went wrong", view.ErrorData{
			Heading: "Something went wrong",
			Message: "We could not load this invitation. Please try again later.",
		})
		return
	}

	if inv.Expired {
		h.RenderBare(w, r, http.StatusGone, view.Expired, "Invite expired", view.ExpiredData{ExpiresAt: inv.ExpiresAt})
		return
	}
	html, err := h.Renderer.RenderHTML(inv.TemplateComponent, inv.Schema)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to render public invite %s: %v", slug, err)
	}
	h.RenderBare(w, r, http.StatusOK, view.Invite, "You're invited", view.InviteData{HTML: html})
}
