package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fwat/gui"
	"fwat/internal/config"
	"fwat/mailer"
	"fwat/merge"
	"fwat/server"
	"fwat/server/services"
	"fwat/station"
	"fwat/translator"
	"fwat/weights"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════")
	log.Println("Starting FWAT - Food Waste Analysis Tool...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	table, err := translator.Build(cfg.LookupWorkbookPath, cfg.TranslatorCache)
	if err != nil {
		// Run with an empty table: every lookup misses and the merge
		// reports everything as unmatched instead of crashing.
		log.Printf("Failed to build ID translator, lookups will miss: %v", err)
		table = translator.New()
	}

	stationLoader := station.NewLoader(cfg.DataDir, cfg.StationPrefix)
	weightClient := weights.NewClient(cfg.WeightAPIBaseURL, cfg.WeightAPITimeout, cfg.WeightAPIRateLimit)
	engine := merge.New(table, stationLoader, weightClient)
	reportService := services.NewReportService(engine, cfg.StorePath, cfg.YearGroups)

	var m *mailer.Mailer
	if cfg.SMTPHost != "" {
		m = mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	}

	srv := server.NewServer(cfg, reportService)
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	if os.Getenv("USE_GUI") == "true" {
		window := gui.NewWindow(cfg, reportService, m)
		window.ShowAndRun()

		// GUI window closed: stop the API as well.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown failed: %v", err)
		}
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}
