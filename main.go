package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/chrummy/server/internal/auth"
	"github.com/chrummy/server/internal/cache"
	"github.com/chrummy/server/internal/config"
	"github.com/chrummy/server/internal/database"
	"github.com/chrummy/server/internal/handlers"
	"github.com/chrummy/server/internal/middleware"
	"github.com/chrummy/server/internal/room"
)

func main() {
	log := logrus.New()
	if config.Bool("CHRUMMY_DEBUG", false) {
		log.SetLevel(logrus.DebugLevel)
	}
	for _, arg := range os.Args[1:] {
		if arg == "-v" {
			log.SetLevel(logrus.DebugLevel)
		}
	}

	if err := auth.Init(); err != nil {
		log.WithError(err).Fatal("Failed to init seat token keys")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Postgres history and the Redis leaderboard are both optional: a
	// table plays fine without either.
	var historian *database.Historian
	if pool, err := database.Connect(ctx); err != nil {
		log.WithError(err).Warn("Running without round history")
	} else {
		defer pool.Close()
		historian = database.NewHistorian(pool, log)
		if err := historian.EnsureSchema(ctx); err != nil {
			log.WithError(err).Warn("Failed to ensure history schema; running without round history")
			historian = nil
		}
	}

	var redisClient *cache.Client
	if cc, err := cache.Connect(ctx, log); err != nil {
		log.WithError(err).Warn("Running without leaderboard and action journal")
	} else {
		defer cc.Close()
		redisClient = cc
	}

	cfg := room.DefaultConfig()
	cfg.AITurnDelay = config.Duration("AI_TURN_DELAY", cfg.AITurnDelay)
	cfg.BotTimeout = config.Duration("BOT_TURN_TIMEOUT", cfg.BotTimeout)
	cfg.RoundPause = config.Duration("ROUND_PAUSE", cfg.RoundPause)
	cfg.IdleTTL = config.Duration("ROOM_IDLE_TTL", cfg.IdleTTL)

	rooms := room.NewManager(cfg, log)
	rooms.StartCleanup(ctx)

	srv := handlers.NewServer(rooms, historian, redisClient, log)

	server := &http.Server{
		Handler:      middleware.LogMiddleware(log)(srv.Routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	port := config.String("CHRUMMY_PORT", "8080")
	l, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		log.WithError(err).Fatal("Failed to listen")
	}
	log.WithField("addr", l.Addr().String()).Info("Listening")

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	select {
	case err := <-errc:
		log.WithError(err).Error("Server stopped")
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
}
