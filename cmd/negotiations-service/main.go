package main

import (
	"fmt"
	"os"

	"github.com/nurpe/negotiations-service/internal/auth"
	"github.com/nurpe/negotiations-service/internal/config"
	"github.com/nurpe/negotiations-service/internal/db"
	"github.com/nurpe/negotiations-service/internal/export"
	httphandler "github.com/nurpe/negotiations-service/internal/http"
	"github.com/nurpe/negotiations-service/internal/http/middleware"
	"github.com/nurpe/negotiations-service/internal/live"
	"github.com/nurpe/negotiations-service/internal/logger"
	"github.com/nurpe/negotiations-service/internal/repository"
	"github.com/nurpe/negotiations-service/internal/service"
	"github.com/nurpe/negotiations-service/internal/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	proposalRepo := repository.NewProposalRepository(database)
	snapshotRepo := repository.NewSnapshotRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	requestRepo := repository.NewRequestRepository(database)
	userRepo := repository.NewUserRepository(database)

	trackerClient := tracker.NewClient(cfg.Tracker.BaseURL, cfg.Tracker.Token, cfg.Tracker.Timeout, log)

	var publisher service.LivePublisher
	if p := live.New(cfg.Redis.Addr, cfg.Redis.Password, log); p != nil {
		publisher = p
		log.Info().Str("addr", cfg.Redis.Addr).Msg("live notification push enabled")
	}

	fanout := service.NewFanout(notificationRepo, publisher, log)
	ledger := service.NewLedger(proposalRepo, log)
	workflow := service.NewWorkflow(
		trackerClient,
		snapshotRepo,
		requestRepo,
		ledger,
		userRepo,
		fanout,
		cfg.Tracker.CompletedLabel,
		log,
	)
	requestService := service.NewRequestService(requestRepo, fanout, log)
	notificationService := service.NewNotificationService(notificationRepo)
	contractService := service.NewContractService(snapshotRepo, export.NewExcelGenerator(), export.NewPDFGenerator())

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(ledger, workflow, requestService, notificationService, contractService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, database, cfg.Environment, cfg.HTTP.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting negotiations service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
