package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/flexledger/flexledger/internal/api"
	"github.com/flexledger/flexledger/internal/config"
	"github.com/flexledger/flexledger/internal/convert"
	"github.com/flexledger/flexledger/internal/database"
	"github.com/flexledger/flexledger/internal/flex"
	"github.com/flexledger/flexledger/internal/ledger"
	"github.com/flexledger/flexledger/internal/repository"
	"github.com/flexledger/flexledger/internal/resolver"
	"github.com/flexledger/flexledger/internal/scheduler"
	"github.com/flexledger/flexledger/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// Exchange table: embedded default unless a file override is configured
	exchanges := convert.DefaultExchangeTable()
	if cfg.Import.ExchangeFilePath != "" {
		exchanges, err = convert.LoadExchangeTableFile(cfg.Import.ExchangeFilePath)
		if err != nil {
			log.Fatalf("Failed to load exchange table: %v", err)
		}
	}

	// Create repositories
	flexConfigRepo := repository.NewFlexConfigRepository(db)
	importRunRepo := repository.NewImportRunRepository(db)

	// Create services
	systemService := service.NewSystemService(db)

	secretService, err := service.NewSecretService(secretKey(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize secret service: %v", err)
	}
	flexConfigService := service.NewFlexConfigService(flexConfigRepo, secretService)

	var symbolResolver resolver.Resolver = resolver.Noop{}
	if cfg.Resolver.BaseURL != "" {
		symbolResolver = resolver.NewHTTPResolver(cfg.Resolver.BaseURL)
	}

	importService := service.NewImportService(
		cfg.Import.BaseCurrency,
		cfg.Import.Currencies,
		exchanges,
		ledger.NewHTTPClient(cfg.Ledger.BaseURL, cfg.Ledger.APIKey),
		symbolResolver,
		flex.NewReportClient(cfg.Flex.BaseURL),
		flexConfigService,
		importRunRepo,
	)

	// Scheduler for automated imports
	sched, err := scheduler.New(cfg.Import.CronSpec, importService, flexConfigService)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Create router
	router := api.NewRouter(systemService, importService, flexConfigService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// secretKey returns the configured fernet key, or generates an ephemeral
// one. With an ephemeral key stored credentials do not survive a restart.
func secretKey(cfg *config.Config) string {
	if cfg.Import.SecretKey != "" {
		return cfg.Import.SecretKey
	}

	var key fernet.Key
	if err := key.Generate(); err != nil {
		log.Fatalf("Failed to generate secret key: %v", err)
	}
	log.Println("SECRET_KEY not set, using an ephemeral key; stored tokens will not survive a restart")
	return key.Encode()
}
