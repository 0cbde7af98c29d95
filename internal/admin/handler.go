package handler

import (
	"net/http"
	"strconv"

	"scrollvite/internal/render"
	"scrollvite/internal/schema"
	"scrollvite/internal/view"
	"scrollvite/internal/web"
	"scrollvite/middleware"
	"scrollvite/pkg/logger"
)

// TemplateHandler lets super admins edit the blueprint schema of a template.
type TemplateHandler struct {
	*web.Base
	Renderer *render.Renderer
}

func NewTemplateHandler(base *web.Base, renderer *render.Renderer) *TemplateHandler {
	return &TemplateHandler{Base: base, Renderer: renderer}
}

func (h *TemplateHandler) Edit(w http.ResponseWriter, r *http.Request) {
	templateID := r.PathValue("id")
	tmpl, err := h.APIFor(r).GetEditableTemplate(r.Context(), templateID)
	if err != nil {
		h.Fail(w, r, err, "", "Failed to load template.")
		return
	}

	html, err := h.Renderer.RenderHTML(tmpl.TemplateComponent, tmpl.Schema)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to render template %s: %v", templateID, err)
	}
	h.Render(w, r, http.StatusOK, view.AdminTemplate, "Edit Template", view.AdminTemplateData{
		Template: tmpl,
		Form:     view.BuildForm(tmpl.TemplateComponent, tmpl.Schema),
		HTML:     html,
	})
}

// Save applies the posted form to the stored blueprint. The add and remove
// buttons of list sections post through here as well.
func (h *TemplateHandler) Save(w http.ResponseWriter, r *http.Request) {
	templateID := r.PathValue("id")
	back := "/admin/templates/" + templateID
	if err := r.ParseForm(); err != nil {
		h.Redirect(w, r, back, middleware.FlashError, "Invalid form submission.")
		return
	}

	api := h.APIFor(r)
	tmpl, err := api.GetEditableTemplate(r.Context(), templateID)
	if err != nil {
		h.Fail(w, r, err, back, "Failed to load template.")
		return
	}

	next, err := schema.ApplyAll(tmpl.Schema, schema.EditsFromForm(r.PostForm))
	if err == nil && r.PostForm.Get("op") != "" {
		var op schema.ListOp
		if op, err = schema.ParseListOp(r.PostForm.Get("op")); err == nil {
			next, err = op.Apply(next)
		}
	}
	if err != nil {
		logger.Sugar.Infof("Handler: Rejected template edit %s: %v", templateID, err)
		h.Redirect(w, r, back, middleware.FlashError, "That change could not be applied.")
		return
	}

	var published *bool
	if values := r.PostForm["is_published"]; len(values) > 0 {
		b, _ := strconv.ParseBool(values[len(values)-1])
		published = &b
	}
	if err := api.SaveTemplate(r.Context(), templateID, next, published); err != nil {
		h.Fail(w, r, err, back, "Failed to save template.")
		return
	}

	message := "Template saved successfully!"
	if r.PostForm.Get("op") != "" {
		message = ""
	}
	h.Redirect(w, r, back, middleware.FlashSuccess, message)
}
