package router

import (
	"net/http"

	"scrollvite/config"
	adminHandler "scrollvite/internal/admin"
	authHandler "scrollvite/internal/auth"
	catalogHandler "scrollvite/internal/catalog"
	"scrollvite/internal/client"
	inviteHandler "scrollvite/internal/invite"
	"scrollvite/internal/invite/service"
	"scrollvite/internal/purchase"
	"scrollvite/internal/render"
	"scrollvite/internal/view"
	"scrollvite/internal/web"
	"scrollvite/middleware"
	"scrollvite/pkg/logger"
	"scrollvite/socket"
	"scrollvite/store"
)

// Deps are the long-lived services the routes share.
type Deps struct {
	Config    *config.Config
	API       *client.Client
	Store     store.Store
	Sessions  *middleware.Sessions
	Tickets   *middleware.Tickets
	Hub       *socket.Hub
	Renderer  *render.Renderer
	Views     *view.Views
	Purchases *purchase.Manager
}

func Setup(d Deps) http.Handler {
	mux := http.NewServeMux()
	base := &web.Base{API: d.API, Views: d.Views, Sessions: d.Sessions}

	authH := authHandler.NewAuthHandler(base, d.Config.GoogleClientID, d.Config.PublicURL)
	catalogH := catalogHandler.NewCatalogHandler(base, d.Renderer, d.Purchases)
	inviteSvc := service.NewInviteService(d.Hub)
	inviteH := inviteHandler.NewInviteHandler(base, inviteSvc, d.Renderer, d.Tickets, d.Config.MaxUploadBytes)
	adminH := adminHandler.NewTemplateHandler(base, d.Renderer)

	auth := middleware.RequireAuth
	admin := middleware.RequireRole(client.RoleSuperAdmin)

	// Public pages
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /login", authH.LoginPage)
	mux.HandleFunc("POST /login", authH.Login)
	mux.HandleFunc("POST /logout", authH.Logout)
	mux.HandleFunc("GET /preview-templates", catalogH.PreviewTemplates)
	mux.HandleFunc("GET /preview/{id}", catalogH.Demo)
	mux.HandleFunc("GET /invite/{slug}", inviteH.Public)

	// Buyer pages
	mux.Handle("GET /categories", auth(http.HandlerFunc(catalogH.Categories)))
	mux.Handle("GET /templates/{slug}", auth(http.HandlerFunc(catalogH.Templates)))
	mux.Handle("GET /templates/{slug}/{id}", auth(http.HandlerFunc(catalogH.Preview)))
	mux.Handle("POST /templates/{slug}/{id}/buy", auth(http.HandlerFunc(catalogH.Buy)))
	mux.Handle("GET /templates/{slug}/{id}/checkout", auth(http.HandlerFunc(catalogH.Checkout)))
	mux.Handle("POST /templates/{slug}/{id}/verify", auth(http.HandlerFunc(catalogH.Verify)))
	mux.Handle("POST /templates/{slug}/{id}/cancel", auth(http.HandlerFunc(catalogH.Cancel)))
	mux.Handle("GET /my-templates", auth(http.HandlerFunc(catalogH.MyTemplates)))
	mux.Handle("GET /editor/{id}", auth(http.HandlerFunc(inviteH.Editor)))
	mux.Handle("POST /editor/{id}/save", auth(http.HandlerFunc(inviteH.Save)))
	mux.Handle("POST /editor/{id}/upload", auth(http.HandlerFunc(inviteH.Upload)))

	// Admin pages
	mux.Handle("GET /admin/templates/{id}", admin(http.HandlerFunc(adminH.Edit)))
	mux.Handle("POST /admin/templates/{id}", admin(http.HandlerFunc(adminH.Save)))

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, inviteID := middleware.TicketFrom(r.Context())
		sess, err := d.Store.Get(r.Context(), sessionID)
		if err != nil || !sess.Authenticated() {
			logger.Sugar.Warnf("Socket ticket for %s outlived its session: %v", inviteID, err)
			http.Error(w, "Unauthorized: Session ended", http.StatusUnauthorized)
			return
		}
		socket.ServeWs(d.Hub, w, r, sessionID, inviteID, sess.Token)
	})
	mux.Handle("GET /ws", d.Tickets.RequireTicket(wsHandler))

	return middleware.RequestLogger(d.Sessions.LoadSession(mux))
}
