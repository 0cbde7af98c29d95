package handler

import (
	"net/http"
	"strings"

	"scrollvite/internal/view"
	"scrollvite/internal/web"
	"scrollvite/middleware"
	"scrollvite/pkg/logger"
	"scrollvite/store"
)

// csrfField is the double-submit token the Google sign-in widget sends as
// both a cookie and a form field.
const csrfField = "g_csrf_token"

type AuthHandler struct {
	*web.Base
	GoogleClientID string
	PublicURL      string
}

func NewAuthHandler(base *web.Base, googleClientID, publicURL string) *AuthHandler {
	return &AuthHandler{Base: base, GoogleClientID: googleClientID, PublicURL: strings.TrimRight(publicURL, "/")}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.Session(r).Authenticated() {
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}
	h.Render(w, r, http.StatusOK, view.Login, "Sign in", view.LoginData{
		GoogleClientID: h.GoogleClientID,
		LoginURI:       h.PublicURL + "/login",
	})
}

// Login exchanges the Google identity token for a backend token and starts
// a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Redirect(w, r, "/login", middleware.FlashError, "Invalid sign-in response.")
		return
	}

	cookie, err := r.Cookie(csrfField)
	if err != nil || cookie.Value == "" || cookie.Value != r.PostForm.Get(csrfField) {
		logger.Sugar.Warnf("Handler: Sign-in rejected, csrf token mismatch")
		h.Redirect(w, r, "/login", middleware.FlashError, "Sign-in could not be verified. Please try again.")
		return
	}

	credential := r.PostForm.Get("credential")
	if credential == "" {
		h.Redirect(w, r, "/login", middleware.FlashError, "Google sign-in failed.")
		return
	}

	auth, err := h.API.LoginWithGoogle(r.Context(), credential)
	if err != nil {
		logger.Sugar.Errorf("Handler: Google login failed: %v", err)
		h.Redirect(w, r, "/login", middleware.FlashError, "Google sign-in failed.")
		return
	}

	sess := store.NewSession(auth.Access, auth.User, h.Sessions.TTL())
	if err := h.Sessions.Start(w, r, sess); err != nil {
		logger.Sugar.Errorf("Handler: Failed to start session: %v", err)
		h.Redirect(w, r, "/login", middleware.FlashError, "Could not sign you in. Please try again.")
		return
	}
	logger.Sugar.Infof("User %d signed in", auth.User.ID)
	h.Redirect(w, r, "/categories", middleware.FlashSuccess, "Welcome, "+firstName(auth.User.Name)+"!")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.End(w, r)
	h.Redirect(w, r, "/login", middleware.FlashInfo, "You have been signed out.")
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return "there"
}
