package model

import (
	"errors"

	"scrollvite/internal/client"
	"scrollvite/internal/schema"
)

var ErrBadPhotoKey = errors.New("unknown photo field")

// PhotoFields are the hero keys an uploaded image may fill.
var PhotoFields = map[string]bool{
	"couple_photo": true,
	"hero_image":   true,
	"image":        true,
}

// EditorState is an invite as the editor should show it: the backend record
// plus the newest schema, which may come from a live editing room.
type EditorState struct {
	Invite *client.Invite
	Schema schema.Schema
	Live   bool
}
