package socket

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"sync"
	"time"

	"scrollvite/internal/client"
	"scrollvite/internal/schema"
	"scrollvite/pkg/logger"
)

const (
	EditType    = "EDIT"    // Buyer changed a field
	SaveType    = "SAVE"    // Buyer pressed save
	PreviewType = "PREVIEW" // Freshly rendered invitation
	SavedType   = "SAVED"   // Schema persisted to the backend
	ExpiredType = "EXPIRED" // Backend reports the invite expired; the room is read-only
	ErrorType   = "ERROR"   // An edit or save was refused
)

type WSMessage struct {
	Type     string          `json:"type"`
	InviteID string          `json:"invite_id"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type PreviewPayload struct {
	HTML   string        `json:"html"`
	Schema schema.Schema `json:"schema"`
}

type SavedPayload struct {
	SavedAt time.Time `json:"saved_at"`
	Auto    bool      `json:"auto"`
}

type ExpiredPayload struct {
	ExpiresAt string `json:"expires_at,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Backend loads and persists invite schemas on behalf of a bearer token.
type Backend interface {
	Load(ctx context.Context, token, inviteID string) (*client.Invite, error)
	Save(ctx context.Context, token, inviteID string, s schema.Schema) error
}

type Renderer interface {
	RenderHTML(id string, s schema.Schema) (template.HTML, error)
}

// Room is the live state of one invite while at least one editor is open.
type Room struct {
	Clients   map[*Client]bool
	Schema    schema.Schema
	Theme     string
	Dirty     bool
	LastEdit  time.Time
	Token     string // token of the most recent editor, used for auto-saves
	Expired   bool
	ExpiresAt string
}

// Envelope is an inbound message together with the connection it came from.
type Envelope struct {
	Client  *Client
	Message WSMessage
}

type Hub struct {
	Rooms      map[string]*Room
	Incoming   chan Envelope
	Register   chan *Client
	Unregister chan *Client

	backend  Backend
	renderer Renderer
	window   time.Duration

	mu       sync.Mutex
	flushing map[string]chan struct{} // invite id -> closed when the final save of a closed room is done
	saving   map[string]*saveLock     // invite id -> held while a write to the backend is in flight
}

// saveLock serializes backend writes of one invite.
type saveLock struct {
	mu   sync.Mutex
	refs int
}

// NewHub returns a hub that auto-saves a room once no edit has arrived for window.
func NewHub(backend Backend, renderer Renderer, window time.Duration) *Hub {
	return &Hub{
		Rooms:      make(map[string]*Room),
		Incoming:   make(chan Envelope),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		backend:    backend,
		renderer:   renderer,
		window:     window,
		flushing:   make(map[string]chan struct{}),
		saving:     make(map[string]*saveLock),
	}
}

// Open makes sure a room exists for inviteID, loading the invite from the
// backend when this is the first editor. Loading happens outside the hub loop.
func (h *Hub) Open(ctx context.Context, inviteID, token string) error {
	h.mu.Lock()
	if _, ok := h.Rooms[inviteID]; ok {
		h.mu.Unlock()
		return nil
	}
	pending := h.flushing[inviteID]
	h.mu.Unlock()

	// A room that just closed may still be writing its last edits.
	if pending != nil {
		select {
		case <-pending:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	inv, err := h.backend.Load(ctx, token, inviteID)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.Rooms[inviteID]; !ok {
		h.Rooms[inviteID] = &Room{
			Clients:   make(map[*Client]bool),
			Schema:    inv.Schema,
			Theme:     inv.TemplateComponent,
			Token:     token,
			Expired:   inv.Expired,
			ExpiresAt: inv.ExpiresAt,
		}
	}
	return nil
}

// Snapshot returns the live schema of an open room, including unsaved edits.
func (h *Hub) Snapshot(inviteID string) (schema.Schema, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.Rooms[inviteID]
	if !ok {
		return schema.Schema{}, false
	}
	return room.Schema, true
}

// Replace installs a schema that was saved outside the socket (the form
// editor) and pushes it to every open editor.
func (h *Hub) Replace(inviteID string, s schema.Schema) {
	h.mu.Lock()
	room, ok := h.Rooms[inviteID]
	if !ok {
		h.mu.Unlock()
		return
	}
	room.Schema = s
	room.Dirty = false
	theme := room.Theme
	clients := room.clientList()
	h.mu.Unlock()

	h.sendPreview(inviteID, theme, s, clients)
	h.send(clients, newMessage(SavedType, inviteID, SavedPayload{SavedAt: time.Now().UTC()}))
}

// Run is the hub loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.Register:
			h.mu.Lock()
			room, ok := h.Rooms[c.InviteID]
			if !ok {
				// Open was not called or the room closed in between.
				h.mu.Unlock()
				c.close()
				continue
			}
			room.Clients[c] = true
			theme, current := room.Theme, room.Schema
			expired, expiresAt := room.Expired, room.ExpiresAt
			h.mu.Unlock()

			if expired {
				h.send([]*Client{c}, newMessage(ExpiredType, c.InviteID, ExpiredPayload{ExpiresAt: expiresAt}))
				continue
			}
			h.sendPreview(c.InviteID, theme, current, []*Client{c})

		case c := <-h.Unregister:
			h.mu.Lock()
			room, ok := h.Rooms[c.InviteID]
			if !ok || !room.Clients[c] {
				h.mu.Unlock()
				continue
			}
			delete(room.Clients, c)
			c.close()

			if len(room.Clients) == 0 {
				delete(h.Rooms, c.InviteID)
				if room.Dirty && !room.Expired {
					done := make(chan struct{})
					h.flushing[c.InviteID] = done
					go h.flushClosed(c.InviteID, room.Token, room.Schema, done)
				}
				logger.Sugar.Infof("Closed editor room: %s", c.InviteID)
			}
			h.mu.Unlock()

		case env := <-h.Incoming:
			switch env.Message.Type {
			case EditType:
				h.applyEdit(env.Client, env.Message.Payload)
			default:
				h.sendError(env.Client, "unsupported message type "+env.Message.Type)
			}
		}
	}
}

func (h *Hub) applyEdit(c *Client, payload json.RawMessage) {
	var edit schema.Edit
	if err := json.Unmarshal(payload, &edit); err != nil {
		h.sendError(c, "malformed edit")
		return
	}

	h.mu.Lock()
	room, ok := h.Rooms[c.InviteID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if room.Expired {
		h.mu.Unlock()
		h.sendError(c, "this invite has expired and can no longer be edited")
		return
	}
	next, err := edit.Apply(room.Schema)
	if err != nil {
		h.mu.Unlock()
		h.sendError(c, err.Error())
		return
	}
	room.Schema = next
	room.Dirty = true
	room.LastEdit = time.Now()
	room.Token = c.Token
	theme := room.Theme
	clients := room.clientList()
	h.mu.Unlock()

	h.sendPreview(c.InviteID, theme, next, clients)
}

// SaveNow persists the room immediately. Called for a manual save.
func (h *Hub) SaveNow(ctx context.Context, c *Client) {
	h.mu.Lock()
	room, ok := h.Rooms[c.InviteID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if room.Expired {
		h.mu.Unlock()
		h.sendError(c, "this invite has expired and can no longer be edited")
		return
	}
	h.mu.Unlock()

	h.persist(ctx, c.InviteID, c.Token, false)
}

// SaveWorker auto-saves rooms whose last edit is at least one window old, so
// a burst of edits turns into a single backend write.
func (h *Hub) SaveWorker(ctx context.Context) {
	tick := h.window / 4
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, d := range h.due(now) {
				h.persist(ctx, d.inviteID, d.token, true)
			}
		}
	}
}

type pendingSave struct {
	inviteID string
	token    string
}

func (h *Hub) due(now time.Time) []pendingSave {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []pendingSave
	for id, room := range h.Rooms {
		if room.Dirty && !room.Expired && now.Sub(room.LastEdit) >= h.window {
			out = append(out, pendingSave{inviteID: id, token: room.Token})
		}
	}
	return out
}

// FlushAll saves every dirty room. Used on shutdown.
func (h *Hub) FlushAll(ctx context.Context) {
	h.mu.Lock()
	var out []pendingSave
	for id, room := range h.Rooms {
		if room.Dirty && !room.Expired {
			out = append(out, pendingSave{inviteID: id, token: room.Token})
		}
	}
	pending := make([]chan struct{}, 0, len(h.flushing))
	for _, ch := range h.flushing {
		pending = append(pending, ch)
	}
	h.mu.Unlock()

	for _, d := range out {
		h.persist(ctx, d.inviteID, d.token, true)
	}
	for _, ch := range pending {
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}

// lockSave blocks until no other write of inviteID is in flight and returns
// the matching unlock.
func (h *Hub) lockSave(inviteID string) func() {
	h.mu.Lock()
	l, ok := h.saving[inviteID]
	if !ok {
		l = &saveLock{}
		h.saving[inviteID] = l
	}
	l.refs++
	h.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		h.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(h.saving, inviteID)
		}
		h.mu.Unlock()
	}
}

// persist writes the room's current schema. The schema is read once the
// previous write of the same invite has finished, so writes land in edit order.
func (h *Hub) persist(ctx context.Context, inviteID, token string, auto bool) {
	unlock := h.lockSave(inviteID)
	defer unlock()

	h.mu.Lock()
	room, ok := h.Rooms[inviteID]
	// A closed room is written by flushClosed.
	if !ok || room.Expired || (auto && !room.Dirty) {
		h.mu.Unlock()
		return
	}
	s := room.Schema
	h.mu.Unlock()

	err := h.backend.Save(ctx, token, inviteID, s)

	h.mu.Lock()
	room, ok = h.Rooms[inviteID]
	if !ok {
		h.mu.Unlock()
		if err != nil {
			logger.Sugar.Errorf("Failed to save invite %s: %v", inviteID, err)
		}
		return
	}
	clients := room.clientList()

	switch {
	case errors.Is(err, client.ErrExpired):
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.ExpiresAt != "" {
			room.ExpiresAt = apiErr.ExpiresAt
		}
		room.Expired = true
		room.Dirty = false
		expiresAt := room.ExpiresAt
		h.mu.Unlock()
		logger.Sugar.Infof("Invite %s expired, room frozen", inviteID)
		h.send(clients, newMessage(ExpiredType, inviteID, ExpiredPayload{ExpiresAt: expiresAt}))

	case err != nil:
		// Back off one window before the worker retries.
		room.LastEdit = time.Now()
		h.mu.Unlock()
		logger.Sugar.Errorf("Failed to save invite %s: %v", inviteID, err)
		h.send(clients, newMessage(ErrorType, inviteID, ErrorPayload{Message: "Failed to save. Retrying shortly."}))

	default:
		// Edits or a form save that arrived while the write was in flight
		// still need a write of their own.
		room.Dirty = !room.Schema.Equal(s)
		h.mu.Unlock()
		if auto {
			logger.Sugar.Infof("Auto-saved invite: %s", inviteID)
		}
		h.send(clients, newMessage(SavedType, inviteID, SavedPayload{SavedAt: time.Now().UTC(), Auto: auto}))
	}
}

func (h *Hub) flushClosed(inviteID, token string, s schema.Schema, done chan struct{}) {
	defer func() {
		h.mu.Lock()
		delete(h.flushing, inviteID)
		h.mu.Unlock()
		close(done)
	}()

	unlock := h.lockSave(inviteID)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := h.backend.Save(ctx, token, inviteID, s); err != nil {
		logger.Sugar.Errorf("Failed to save invite %s on close: %v", inviteID, err)
		return
	}
	logger.Sugar.Infof("Saved invite %s on close", inviteID)
}

func (h *Hub) sendPreview(inviteID, theme string, s schema.Schema, clients []*Client) {
	html, err := h.renderer.RenderHTML(theme, s)
	if err != nil {
		logger.Sugar.Errorf("Failed to render preview for %s: %v", inviteID, err)
		return
	}
	h.send(clients, newMessage(PreviewType, inviteID, PreviewPayload{HTML: string(html), Schema: s}))
}

func (h *Hub) sendError(c *Client, message string) {
	h.send([]*Client{c}, newMessage(ErrorType, c.InviteID, ErrorPayload{Message: message}))
}

// send delivers outside the hub lock. A client whose buffer is full is
// dropped; its read pump unregisters it once the connection closes.
func (h *Hub) send(clients []*Client, msg []byte) {
	if msg == nil {
		return
	}
	for _, c := range clients {
		c.deliver(msg)
	}
}

func (r *Room) clientList() []*Client {
	out := make([]*Client, 0, len(r.Clients))
	for c := range r.Clients {
		out = append(out, c)
	}
	return out
}

func newMessage(kind, inviteID string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s payload: %v", kind, err)
		return nil
	}
	msg, err := json.Marshal(WSMessage{Type: kind, InviteID: inviteID, Payload: raw})
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s message: %v", kind, err)
		return nil
	}
	return msg
}
