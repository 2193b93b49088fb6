package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/JakubGluszek/ludicrum/internal/config"
	"github.com/JakubGluszek/ludicrum/internal/database"
	"github.com/JakubGluszek/ludicrum/internal/handler"
	"github.com/JakubGluszek/ludicrum/internal/middleware"
	"github.com/JakubGluszek/ludicrum/internal/queue"
	"github.com/JakubGluszek/ludicrum/internal/repository"
	"github.com/JakubGluszek/ludicrum/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Redis is optional: when unreachable, both the response cache and
	// the rate limiter become pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	deps := handler.Deps{
		Events:  repository.NewEventRepo(db),
		Reviews: repository.NewReviewRepo(db),
		Users:   repository.NewUserRepo(db),
		CodeLen: cfg.ReviewCodeLen,
		Invalidate: func(ctx context.Context) {
			middleware.InvalidateCache(ctx, cacheCfg, rdb)
		},
	}
	ev := handler.NewEventHandler(deps)
	rv := handler.NewReviewHandler(deps)

	// Activity log consumer; reconnects forever in the background.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, ev, rv, cfg.JWTSecret, router.Middlewares{
		Cache:     middleware.NewResponseCache(cacheCfg, rdb),
		RateLimit: middleware.NewTokenBucket(rateCfg, rdb),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
