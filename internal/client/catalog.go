package client

import (
	"context"
	"net/http"

	"scrollvite/internal/schema"
)

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("categories/"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTemplates(ctx context.Context, categorySlug string) ([]TemplateSummary, error) {
	var out []TemplateSummary
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("templates/%s/", categorySlug), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTemplate(ctx context.Context, templateID string) (*TemplateDetail, error) {
	var out TemplateDetail
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("template/%s/", templateID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPreviewTemplates is the public demo gallery.
func (c *Client) ListPreviewTemplates(ctx context.Context) ([]TemplateSummary, error) {
	var out []TemplateSummary
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("preview-templates/"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPreviewTemplate(ctx context.Context, templateID string) (*TemplateDetail, error) {
	var out TemplateDetail
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("template-preview/%s/", templateID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetEditableTemplate(ctx context.Context, templateID string) (*EditableTemplate, error) {
	var out EditableTemplate
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("template-editor/%s/", templateID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type saveTemplateRequest struct {
	Schema      schema.Schema `json:"schema"`
	IsPublished *bool         `json:"is_published,omitempty"`
}

// SaveTemplate stores a blueprint. A nil published leaves the flag untouched.
func (c *Client) SaveTemplate(ctx context.Context, templateID string, s schema.Schema, published *bool) error {
	body := saveTemplateRequest{Schema: s, IsPublished: published}
	return c.doJSON(ctx, http.MethodPost, c.endpoint("template-save/%s/", templateID), body, nil)
}
