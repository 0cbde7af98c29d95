package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"scrollvite/internal/schema"
)

// GetInvite loads a buyer's invite. An expired invite is returned with
// Expired set and an empty schema, whether the backend answered 2xx or not.
func (c *Client) GetInvite(ctx context.Context, inviteID string) (*Invite, error) {
	var out Invite
	err := c.doJSON(ctx, http.MethodGet, c.endpoint("invites/%s/", inviteID), nil, &out)
	if apiErr := expiredError(err); apiErr != nil {
		return &Invite{ID: inviteID, Expired: true, ExpiresAt: apiErr.ExpiresAt}, nil
	}
	if err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = inviteID
	}
	return &out, nil
}

type saveInviteRequest struct {
	Schema schema.Schema `json:"schema"`
}

// SaveInvite replaces the invite schema. It returns ErrExpired when the
// backend refuses the write because the invite expired.
func (c *Client) SaveInvite(ctx context.Context, inviteID string, s schema.Schema) (*SaveResult, error) {
	var out SaveResult
	err := c.doJSON(ctx, http.MethodPut, c.endpoint("invites/%s/", inviteID), saveInviteRequest{Schema: s}, &out)
	if apiErr := expiredError(err); apiErr != nil {
		return nil, apiErr
	}
	if err != nil {
		return nil, err
	}
	if out.Expired {
		return nil, ErrExpired
	}
	return &out, nil
}

// GetPublicInvite is the unauthenticated read behind the public page.
func (c *Client) GetPublicInvite(ctx context.Context, publicSlug string) (*PublicInvite, error) {
	var out PublicInvite
	err := c.doJSON(ctx, http.MethodGet, c.endpoint("invite/%s/", publicSlug), nil, &out)
	if apiErr := expiredError(err); apiErr != nil {
		return &PublicInvite{Expired: true, ExpiresAt: apiErr.ExpiresAt}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPurchasedInvites(ctx context.Context) ([]PurchasedInvite, error) {
	var out []PurchasedInvite
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("my-templates/"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadImage stores an image for the invite and returns its public URL.
func (c *Client) UploadImage(ctx context.Context, inviteID, filename string, image io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("failed to copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("invites/%s/upload-image/", inviteID), &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out uploadResult
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", errors.New("upload response carried no url")
	}
	return out.URL, nil
}

func expiredError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Expired {
		return apiErr
	}
	return nil
}
