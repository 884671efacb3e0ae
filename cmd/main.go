package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cleanbuddy-fulfillment/api"
	"cleanbuddy-fulfillment/res/store"

	"github.com/joho/godotenv"
)

var logger = log.New(os.Stdout, "(cmd/main.go)", log.LstdFlags|log.LUTC|log.Llongfile)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load .env file in development
	// Try multiple locations: current dir, cleanbuddy-fulfillment/
	err := godotenv.Load()
	if err != nil {
		err = godotenv.Load("cleanbuddy-fulfillment/.env")
	}
	if err != nil {
		logger.Printf("Note: .env file not found, using system environment variables")
	}

	cfg, err := api.LoadConfig()
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := api.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize services: %v", err)
	}

	// Bootstrap global admin if GLOBAL_ADMIN_EMAIL is set
	if cfg.GlobalAdminEmail != "" {
		if err := bootstrapGlobalAdmin(ctx, app.Store, cfg.GlobalAdminEmail); err != nil {
			logger.Printf("Warning: Failed to bootstrap global admin: %v", err)
		}
	}

	if app.Fixture != nil {
		logDevelopmentTokens(app)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("Starting server on :%s (environment: %s)\n", cfg.Port, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Error shutting down HTTP server: %v", err)
	}
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Error releasing resources: %v", err)
	}
}

func bootstrapGlobalAdmin(ctx context.Context, storeInstance store.Store, email string) error {
	user, err := storeInstance.Users().GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user with email %s: %w", email, err)
	}

	// If user already has global admin role, nothing to do
	if user.IsAdmin() {
		logger.Printf("User %s already has global admin role", email)
		return nil
	}

	if err := storeInstance.Users().UpdateRole(ctx, user.ID, store.UserRoleAdmin); err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}

	logger.Printf("Successfully promoted user %s to global admin", email)
	return nil
}

// logDevelopmentTokens prints access tokens for the seeded users of the in-memory store
func logDevelopmentTokens(app *api.API) {
	fx := app.Fixture
	for _, user := range []*store.User{fx.Admin, fx.Customer, fx.CompanyAdmin, fx.StaffUser, fx.SecondUser} {
		token, err := app.Auth.GenerateAccessToken(user.ID)
		if err != nil {
			logger.Printf("Error generating development token for %s: %v", user.ID, err)
			continue
		}
		logger.Printf("Development token for %s (%s): %s", user.DisplayName, user.Role, token)
	}
}
