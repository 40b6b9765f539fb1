package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rifa/application"
	"rifa/clock"
	"rifa/config"
	"rifa/database"
	"rifa/domain/entities"
	"rifa/domain/interfaces"
	"rifa/domain/services"
	"rifa/infrastructure"
	"rifa/web"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting raffle server...")

	// Load configuration
	cfg := config.Get()

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize the ticket ledger from the persisted snapshot
	store := infrastructure.NewPostgresSnapshotStore(db)
	clk := clock.NewSystem()
	raffleConfig := entities.RaffleConfig{
		TotalNumbers:       cfg.TotalNumbers,
		PricePerNumber:     cfg.PricePerNumber,
		MaxPurchaseLimit:   cfg.MaxPurchaseLimit,
		MaxEntriesPerPhone: cfg.MaxEntriesPerPhone,
	}
	ledger := services.NewLedger(raffleConfig, store, clk)
	if err := ledger.Load(ctx); err != nil {
		return fmt.Errorf("failed to load raffle snapshot: %w", err)
	}
	log.Info("Ticket ledger loaded successfully")

	// Initialize purchase sessions and the reservation sweeper
	sessions := application.NewSessionManager(ledger, clk, cfg.ReservationTTL)
	sweeper := application.NewReservationSweeper(ledger, sessions, clk, cfg.SweepInterval)
	stopSweeper := sweeper.Start(ctx)
	defer stopSweeper()

	// Initialize content generation
	gemini, err := infrastructure.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	// Discord winner announcements are optional
	var notifier interfaces.WinnerNotifier
	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		notifier, err = infrastructure.NewDiscordWinnerNotifier(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		log.Info("Discord winner notifications enabled")
	}

	drawService := services.NewDrawService(ledger, gemini, notifier, clk)

	// Initialize HTTP server
	router := gin.New()
	router.Use(gin.Recovery())
	handler := web.NewHandler(ledger, sessions, drawService, gemini, gemini, clk, cfg.AdminPassword)
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Infof("Server is running in %s mode...", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error shutting down HTTP server")
	}

	log.Info("Shutdown completed")
	return nil
}
