package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"scrollvite/config"
	"scrollvite/config/database"
	"scrollvite/internal/client"
	"scrollvite/internal/purchase"
	"scrollvite/internal/render"
	"scrollvite/internal/view"
	"scrollvite/middleware"
	"scrollvite/pkg/logger"
	"scrollvite/router"
	"scrollvite/socket"
	"scrollvite/store"
)

const (
	janitorSchedule = "@every 15m"
	ticketTTL       = 10 * time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	defer logger.Log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Sugar.Fatalf("Failed to open %s session store: %v", cfg.SessionBackend, err)
	}
	defer closeStore()

	api, err := client.New(cfg.APIURL, client.WithLogger(logger.Sugar))
	if err != nil {
		logger.Sugar.Fatalf("Invalid API_URL: %v", err)
	}

	renderer := render.Must()
	sessions := middleware.NewSessions(sessionStore, []byte(cfg.CookieHashKey), []byte(cfg.CookieBlockKey),
		cfg.SessionTTL, strings.HasPrefix(cfg.PublicURL, "https://"))
	tickets := middleware.NewTickets([]byte(cfg.SocketSecret), ticketTTL)

	purchases := purchase.NewManager()
	attemptJanitor, err := store.StartJanitor("checkout attempts", purchases, janitorSchedule)
	if err != nil {
		logger.Sugar.Fatalf("Failed to schedule checkout cleanup: %v", err)
	}
	defer attemptJanitor.Stop()

	// The hub loop and the auto-save worker live until shutdown.
	hub := socket.NewHub(socket.APIBackend{Client: api}, renderer, cfg.AutosaveWindow)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)
	go hub.SaveWorker(hubCtx)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.Setup(router.Deps{
			Config:    cfg,
			API:       api,
			Store:     sessionStore,
			Sessions:  sessions,
			Tickets:   tickets,
			Hub:       hub,
			Renderer:  renderer,
			Views:     view.Must(),
			Purchases: purchases,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Sugar.Infof("ScrollVite listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Server shutdown: %v", err)
	}
	hub.FlushAll(shutdownCtx)
	stopHub()
}

// openStore builds the configured session store and starts its janitor when
// the backend does not expire entries on its own.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionBackendPostgres:
		db, err := database.Connect(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		janitor, err := store.StartJanitor("sessions", pg, janitorSchedule)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return pg, func() { janitor.Stop(); db.Close() }, nil

	case config.SessionBackendRedis:
		rs, err := store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { rs.Close() }, nil

	default:
		mem := store.NewMemoryStore()
		janitor, err := store.StartJanitor("sessions", mem, janitorSchedule)
		if err != nil {
			return nil, nil, err
		}
		return mem, func() { janitor.Stop() }, nil
	}
}
