package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrollvite/internal/client"
	"scrollvite/internal/invite/model"
	"scrollvite/internal/render"
	"scrollvite/internal/schema"
	"scrollvite/socket"
)

type fixture struct {
	api   *client.Client
	hub   *socket.Hub
	svc   *InviteService
	saved []schema.Schema
}

func newFixture(t *testing.T, invite string) *fixture {
	t.Helper()
	f := &fixture{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/invites/inv-1/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(invite))
	})
	mux.HandleFunc("PUT /api/invites/inv-1/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Schema schema.Schema `json:"schema"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.saved = append(f.saved, body.Schema)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("POST /api/invites/inv-1/upload-image/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url":"https://cdn.example.com/a.jpg"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	api, err := client.New(srv.URL+"/api", client.WithBearerToken("tok"))
	require.NoError(t, err)
	f.api = api
	f.hub = socket.NewHub(socket.APIBackend{Client: api}, render.Must(), time.Second)
	f.svc = NewInviteService(f.hub)
	return f
}

const storedInvite = `{"id":"inv-1","template_component":"RoyalWeddingTemplate",
	"schema":{"hero":{"bride_name":"Meera"},"events":[{"name":"Sangeet"}]}}`

func TestLoadWithoutRoomUsesStoredSchema(t *testing.T) {
	f := newFixture(t, storedInvite)

	state, err := f.svc.Load(context.Background(), f.api, "inv-1")
	require.NoError(t, err)
	assert.False(t, state.Live)
	assert.Equal(t, "Meera", state.Schema.Text(schema.SectionHero, "bride_name"))
}

func TestFormSaveBuildsOnLiveRoom(t *testing.T) {
	f := newFixture(t, storedInvite)
	ctx := context.Background()
	require.NoError(t, f.hub.Open(ctx, "inv-1", "tok"))

	live, _ := f.hub.Snapshot("inv-1")
	edited, err := schema.UpdateSection(live, schema.SectionHero, "groom_name", "Arjun")
	require.NoError(t, err)
	f.hub.Replace("inv-1", edited)

	state, err := f.svc.Load(ctx, f.api, "inv-1")
	require.NoError(t, err)
	assert.True(t, state.Live)

	next, err := f.svc.ApplyForm(ctx, f.api, "inv-1", url.Values{"hero.bride_name": {"Priya"}})
	require.NoError(t, err)
	assert.Equal(t, "Priya", next.Text(schema.SectionHero, "bride_name"))
	assert.Equal(t, "Arjun", next.Text(schema.SectionHero, "groom_name"))

	require.Len(t, f.saved, 1)
	assert.True(t, f.saved[0].Equal(next))
	snap, ok := f.hub.Snapshot("inv-1")
	require.True(t, ok)
	assert.True(t, snap.Equal(next))
}

func TestApplyFormFieldsBeforeListButton(t *testing.T) {
	f := newFixture(t, storedInvite)

	next, err := f.svc.ApplyForm(context.Background(), f.api, "inv-1", url.Values{
		"events.0.time": {"7:00 PM"},
		"op":            {"append:events"},
	})
	require.NoError(t, err)
	events := next.List(schema.SectionEvents)
	require.Len(t, events, 2)
	assert.Equal(t, "7:00 PM", events[0]["time"])
}

func TestApplyFormRejectsUnknownButton(t *testing.T) {
	f := newFixture(t, storedInvite)

	_, err := f.svc.ApplyForm(context.Background(), f.api, "inv-1", url.Values{"op": {"shuffle:events"}})
	assert.ErrorIs(t, err, schema.ErrBadListOp)
	assert.True(t, IsUserError(err))
	assert.Empty(t, f.saved)
}

func TestApplyFormOnExpiredInvite(t *testing.T) {
	f := newFixture(t, `{"expired":true}`)

	_, err := f.svc.ApplyForm(context.Background(), f.api, "inv-1", url.Values{"hero.bride_name": {"Priya"}})
	assert.ErrorIs(t, err, client.ErrExpired)
	assert.Empty(t, f.saved)
}

func TestUploadSetsHeroField(t *testing.T) {
	f := newFixture(t, storedInvite)

	imageURL, err := f.svc.Upload(context.Background(), f.api, "inv-1", "hero_image", "a.jpg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.jpg", imageURL)
	require.Len(t, f.saved, 1)
	assert.Equal(t, imageURL, f.saved[0].Text(schema.SectionHero, "hero_image"))
}

func TestUploadRejectsUnknownField(t *testing.T) {
	f := newFixture(t, storedInvite)

	_, err := f.svc.Upload(context.Background(), f.api, "inv-1", "bride_name", "a.jpg", strings.NewReader("jpeg"))
	assert.ErrorIs(t, err, model.ErrBadPhotoKey)
	assert.True(t, IsUserError(err))
}
