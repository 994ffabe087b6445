package server

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Eddy-etame/pillarpayout-sub001/internal/account"
	"github.com/Eddy-etame/pillarpayout-sub001/internal/cache"
	"github.com/Eddy-etame/pillarpayout-sub001/internal/config"
	"github.com/Eddy-etame/pillarpayout-sub001/internal/database"
	"github.com/Eddy-etame/pillarpayout-sub001/internal/game"
)

type FiberServer struct {
	*fiber.App

	cfg       *config.Config
	db        database.Service
	cache     cache.Service
	accounts  account.Service
	scheduler *game.Scheduler
	hub       *game.Hub
}

func New() *FiberServer {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[SERVER] Invalid configuration: %v", err)
	}

	db := database.New()

	redisService := cache.New()
	if redisService == nil {
		log.Fatal("[SERVER] Redis is required for balances")
	}
	accounts := account.NewRedis(redisService.GetClient())

	hub := game.NewHub()
	scheduler := game.NewScheduler(cfg.Game, accounts, db, game.RealClock())

	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:  "pillarpayout",
			AppName:       "pillarpayout",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			IdleTimeout:   120 * time.Second,
			StrictRouting: false,
		}),

		cfg:       cfg,
		db:        db,
		cache:     redisService,
		accounts:  accounts,
		scheduler: scheduler,
		hub:       hub,
	}

	server.App.Use(recover.New())
	server.App.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	go hub.Run()
	go hub.Relay(scheduler.Events())
	scheduler.Start()

	log.Println("[SERVER] Round scheduler started")

	return server
}

// Shutdown stops the round engine and closes external connections.
func (s *FiberServer) Shutdown() error {
	log.Println("[SERVER] Shutting down...")

	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.cache != nil {
		s.cache.Close()
	}
	if s.db != nil {
		s.db.Close()
	}

	return nil
}
