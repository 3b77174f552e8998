package main // Entry point package

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/ai"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/config"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/database"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/handler"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/middleware"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/queue"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/repository"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/router"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	rate := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	departments := repository.NewDepartmentRepo(db)
	categories := repository.NewCategoryRepo(db)
	complaints := repository.NewComplaintRepo(db)
	remarks := repository.NewRemarkRepo(db)
	notifications := repository.NewNotificationRepo(db)
	analytics := repository.NewAnalyticsRepo(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The event worker drains the notify and email queues in-process.
	consumer := &queue.Consumer{
		Notifications: notifications,
		Mail:          service.NewMailer(cfg),
	}
	go consumer.Run(ctx)

	// Housekeeping: expired denylist rows are invisible to the revocation
	// check anyway, this just keeps the table small.
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := tokens.PurgeExpired(ctx); err == nil && n > 0 {
					log.Printf("purged %d expired denylist rows", n)
				}
			}
		}
	}()

	h := router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, users, tokens),
		Complaints:    handler.NewComplaintHandler(cfg, db, complaints, categories, users, remarks),
		Notifications: handler.NewNotificationHandler(notifications),
		Analytics:     handler.NewAnalyticsHandler(analytics),
		Admin:         handler.NewAdminHandler(cfg, users, departments, categories),
		Chatbot:       handler.NewChatbotHandler(ai.NewClient(cfg)),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, db, h, cfg.JWTAccessSecret, tokens, rate)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	if err := e.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
