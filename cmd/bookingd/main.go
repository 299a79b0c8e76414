package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/tabletop-booking/internal/application"
	"github.com/example/tabletop-booking/internal/config"
	httptransport "github.com/example/tabletop-booking/internal/http"
	"github.com/example/tabletop-booking/internal/persistence/memory"
	"github.com/example/tabletop-booking/internal/persistence/sqlite"
	"github.com/example/tabletop-booking/internal/seed"
)

// dataStore is the full persistence surface the services need. Both the
// in-memory and the SQLite store satisfy it.
type dataStore interface {
	application.ReservationRepository
	application.RoomCatalog
	application.AssociationLister
	application.MembershipDirectory
	application.CredentialStore
	application.SessionRepository
	seed.Target
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	var store dataStore
	if cfg.SQLiteDSN == "" {
		logger.Info("using in-memory storage")
		store = memory.NewStore()
	} else {
		storage, err := sqlite.Open(ctx, cfg.SQLiteDSN)
		if err != nil {
			logger.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := storage.Close(); cerr != nil {
				logger.Error("failed to close storage", "error", cerr)
			}
		}()
		logger.Info("using sqlite storage", "dsn", cfg.SQLiteDSN)
		store = storage
	}

	if cfg.SeedDemo {
		if err := seed.Apply(ctx, store); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		logger.Info("demo data loaded")
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	reservationService := application.NewReservationServiceWithLogger(store, store, store, store, idGenerator, now, logger)
	directoryService := application.NewDirectoryServiceWithLogger(store, store, store, store, logger)
	authService := application.NewAuthServiceWithLogger(store, store, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Directory:    httptransport.NewDirectoryHandler(directoryService, now, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		Session:      httptransport.RequireSession(authService, logger),
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
