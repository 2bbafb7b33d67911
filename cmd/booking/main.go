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
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/resource-booking/internal/application"
	"github.com/example/resource-booking/internal/config"
	httptransport "github.com/example/resource-booking/internal/http"
	"github.com/example/resource-booking/internal/logging"
	"github.com/example/resource-booking/internal/persistence/sqlite"
)

func main() {
	root := &cobra.Command{
		Use:           "booking",
		Short:         "Institutional resource booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the booking HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer pool.Close()
			if err := pool.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			return nil
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.NewLogger(parseLogLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	resourceRepo := newResourceRepositoryAdapter(sqlite.NewResourceRepository(pool))
	reservationRepo := newReservationRepositoryAdapter(sqlite.NewReservationRepository(pool))
	maintenanceRepo := newMaintenanceRepositoryAdapter(sqlite.NewMaintenanceRepository(pool))
	incidentRepo := newIncidentRepositoryAdapter(sqlite.NewIncidentRepository(pool))
	notificationRepo := newNotificationRepositoryAdapter(sqlite.NewNotificationRepository(pool))
	userStore := sqlite.NewUserRepository(pool)
	userRepo := newUserRepositoryAdapter(userStore)
	privilegedDirectory := newPrivilegedDirectoryAdapter(userStore)
	credentialStore := newCredentialStoreAdapter(userStore)
	sessionRepo := newSessionRepositoryAdapter(sqlite.NewSessionRepository(pool))

	notificationService := application.NewNotificationService(notificationRepo, privilegedDirectory, idGenerator, now, logger)
	availabilityService := application.NewAvailabilityService(resourceRepo, reservationRepo, maintenanceRepo, logger)
	// One lock set for everything that writes to a resource's calendar.
	resourceLocks := application.NewResourceLockSet()
	resourceService := application.NewResourceService(resourceRepo, reservationRepo, availabilityService, notificationService, resourceLocks, idGenerator, now, logger)
	reservationService := application.NewReservationService(reservationRepo, resourceService, availabilityService, notificationService, resourceLocks, idGenerator, now, logger)
	maintenanceService := application.NewMaintenanceService(maintenanceRepo, resourceService, notificationService, idGenerator, now, logger)
	incidentService := application.NewIncidentService(incidentRepo, reservationRepo, resourceService, notificationService, cfg.IncidentGracePeriod, idGenerator, now, logger)
	userService := application.NewUserService(userRepo, nil, idGenerator, now)
	authService := application.NewAuthServiceWithLogger(credentialStore, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Users:         httptransport.NewUserHandler(userService, logger),
		Resources:     httptransport.NewResourceHandler(resourceService, availabilityService, logger),
		Reservations:  httptransport.NewReservationHandler(reservationService, logger),
		Maintenance:   httptransport.NewMaintenanceHandler(maintenanceService, logger),
		Incidents:     httptransport.NewIncidentHandler(incidentService, logger),
		Notifications: httptransport.NewNotificationHandler(notificationService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Login is the only route reachable without a session.
		if r.Method == http.MethodPost && strings.EqualFold(r.URL.Path, "/sessions") {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
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
		return fmt.Errorf("server encountered error: %w", err)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
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
