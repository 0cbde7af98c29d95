// Package web holds what every page controller shares: rendering with the
// session's user and flash, and the mapping of backend failures onto redirects.
package web

import (
	"errors"
	"net/http"

	"scrollvite/internal/client"
	"scrollvite/internal/view"
	"scrollvite/middleware"
	"scrollvite/pkg/logger"
	"scrollvite/store"
)

type Base struct {
	API      *client.Client
	Views    *view.Views
	Sessions *middleware.Sessions
}

// Session returns the caller's session; nil for anonymous requests.
func (b *Base) Session(r *http.Request) *store.Session {
	return middleware.SessionFrom(r.Context())
}

// APIFor returns a backend client carrying the caller's token.
func (b *Base) APIFor(r *http.Request) *client.Client {
	if sess := b.Session(r); sess.Authenticated() {
		return b.API.WithToken(sess.Token)
	}
	return b.API
}

// Render draws a page with the signed-in user and the pending flash.
func (b *Base) Render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	p := view.Page{Title: title, Data: data, Flash: b.Sessions.PopFlash(w, r)}
	if sess := b.Session(r); sess.Authenticated() {
		user := sess.User
		p.User = &user
	}
	b.Views.Render(w, status, name, p)
}

// RenderBare draws a public page without the app navigation.
func (b *Base) RenderBare(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	b.Views.Render(w, status, name, view.Page{Title: title, Data: data, Bare: true})
}

// Redirect queues a flash and sends the browser to target.
func (b *Base) Redirect(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	if message != "" {
		b.Sessions.SetFlash(w, kind, message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Fail handles a backend error for a page. Unauthorized clears the session
// and goes to login; forbidden and not found go to the category list; any
// other failure returns to back with message.
func (b *Base) Fail(w http.ResponseWriter, r *http.Request, err error, back, message string) {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		logger.Sugar.Infof("Backend rejected session on %s: %v", r.URL.Path, err)
		b.Sessions.End(w, r)
		b.Redirect(w, r, "/login", middleware.FlashInfo, "Your session has ended. Please sign in again.")
	case errors.Is(err, client.ErrForbidden), errors.Is(err, client.ErrNotFound):
		logger.Sugar.Infof("Denied %s: %v", r.URL.Path, err)
		b.Redirect(w, r, "/categories", middleware.FlashError, "That page is not available to you.")
	default:
		logger.Sugar.Errorf("Request %s failed: %v", r.URL.Path, err)
		if back == "" {
			b.Render(w, r, http.StatusBadGateway, view.Error, "Something went wrong", view.ErrorData{
				Heading: "Something went wrong",
				Message: message,
			})
			return
		}
		b.Redirect(w, r, back, middleware.FlashError, message)
	}
}
