package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"scrollvite/internal/client"
	"scrollvite/internal/invite/model"
	"scrollvite/internal/schema"
	"scrollvite/socket"
)

type InviteService struct {
	Hub *socket.Hub
}

func NewInviteService(hub *socket.Hub) *InviteService {
	return &InviteService{Hub: hub}
}

// Load fetches the invite and prefers the schema of a live editing room over
// the stored one. Expired invites come back with Expired set and no schema.
func (s *InviteService) Load(ctx context.Context, api *client.Client, inviteID string) (*model.EditorState, error) {
	inv, err := api.GetInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	state := &model.EditorState{Invite: inv, Schema: inv.Schema}
	if inv.Expired {
		return state, nil
	}
	if live, ok := s.Hub.Snapshot(inviteID); ok {
		state.Schema = live
		state.Live = true
	}
	return state, nil
}

// ApplyForm applies the posted form fields, then the optional list button,
// and saves the result right away.
func (s *InviteService) ApplyForm(ctx context.Context, api *client.Client, inviteID string, form url.Values) (schema.Schema, error) {
	var op *schema.ListOp
	if value := form.Get("op"); value != "" {
		parsed, err := schema.ParseListOp(value)
		if err != nil {
			return schema.Schema{}, err
		}
		op = &parsed
	}

	state, err := s.Load(ctx, api, inviteID)
	if err != nil {
		return schema.Schema{}, err
	}
	if state.Invite.Expired {
		return schema.Schema{}, client.ErrExpired
	}

	next, err := schema.ApplyAll(state.Schema, schema.EditsFromForm(form))
	if err != nil {
		return schema.Schema{}, err
	}
	if op != nil {
		if next, err = op.Apply(next); err != nil {
			return schema.Schema{}, err
		}
	}
	return next, s.save(ctx, api, inviteID, next)
}

// Upload stores an image with the backend and points hero.<field> at it.
func (s *InviteService) Upload(ctx context.Context, api *client.Client, inviteID, field, filename string, image io.Reader) (string, error) {
	if !model.PhotoFields[field] {
		return "", fmt.Errorf("%w: %q", model.ErrBadPhotoKey, field)
	}

	state, err := s.Load(ctx, api, inviteID)
	if err != nil {
		return "", err
	}
	if state.Invite.Expired {
		return "", client.ErrExpired
	}

	imageURL, err := api.UploadImage(ctx, inviteID, filename, image)
	if err != nil {
		return "", err
	}
	next, err := schema.UpdateSection(state.Schema, schema.SectionHero, field, imageURL)
	if err != nil {
		return "", err
	}
	return imageURL, s.save(ctx, api, inviteID, next)
}

func (s *InviteService) save(ctx context.Context, api *client.Client, inviteID string, next schema.Schema) error {
	if _, err := api.SaveInvite(ctx, inviteID, next); err != nil {
		return err
	}
	s.Hub.Replace(inviteID, next)
	return nil
}

// IsUserError reports whether err comes from bad form input rather than the
// backend.
func IsUserError(err error) bool {
	return errors.Is(err, schema.ErrBadListOp) ||
		errors.Is(err, model.ErrBadPhotoKey) ||
		errors.Is(err, schema.ErrIndexOutOfRange) ||
		errors.Is(err, schema.ErrNotList) ||
		errors.Is(err, schema.ErrNotObject) ||
		errors.Is(err, schema.ErrEmptyName)
}
