package socket

import (
	"context"

	"scrollvite/internal/client"
	"scrollvite/internal/schema"
)

// APIBackend adapts the REST client to the hub, one bearer token per call.
type APIBackend struct {
	Client *client.Client
}

func (b APIBackend) Load(ctx context.Context, token, inviteID string) (*client.Invite, error) {
	return b.Client.WithToken(token).GetInvite(ctx, inviteID)
}

func (b APIBackend) Save(ctx context.Context, token, inviteID string, s schema.Schema) error {
	_, err := b.Client.WithToken(token).SaveInvite(ctx, inviteID, s)
	return err
}
