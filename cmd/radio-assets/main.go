package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/config"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/database"
	httpapi "github.com/MichielDePaepe/RadioAssetManagement/internal/http"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/logger"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/repository"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/service"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "radio-assets")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)

	subsRepo := repository.NewPostgresSubscriptionsRepo(db)
	radiosRepo := repository.NewPostgresRadiosRepo(db)
	assignmentsRepo := repository.NewPostgresAssignmentsRepo(db)
	endpointsRepo := repository.NewPostgresEndpointsRepo(db)
	ticketsRepo := repository.NewPostgresTicketsRepo(db)
	vehiclesRepo := repository.NewPostgresVehiclesRepo(db)

	reconcileService := service.NewReconcileService(subsRepo, kv, log)
	assignmentService := service.NewAssignmentService(assignmentsRepo, endpointsRepo, log)
	ticketService := service.NewTicketService(ticketsRepo, subsRepo, log)

	fireplanClient := service.NewFireplanClient(cfg.Fireplan, log)
	resourcesoffClient := service.NewResourcesoffClient(cfg.Resourcesoff, log)
	fleetSync := service.NewFleetSyncService(fireplanClient, resourcesoffClient, vehiclesRepo, radiosRepo, kv, log)

	router := httpapi.NewRouter(log)
	router.RegisterSubscriptionRoutes(httpapi.NewSubscriptionHandler(subsRepo, reconcileService, log))
	router.RegisterRadioRoutes(httpapi.NewRadioHandler(radiosRepo, log))
	router.RegisterAssignmentRoutes(httpapi.NewAssignmentHandler(assignmentService, endpointsRepo, log))
	router.RegisterTicketRoutes(httpapi.NewTicketHandler(ticketService, log))
	router.RegisterSyncRoutes(httpapi.NewSyncHandler(fleetSync, vehiclesRepo, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server stopped", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	database.Close(db)
}
