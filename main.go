package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"lostfound-backend/internal/auth"
	"lostfound-backend/internal/db"
	"lostfound-backend/internal/handlers"
	"lostfound-backend/internal/middleware"
	"lostfound-backend/internal/observability"
	"lostfound-backend/internal/repositories"
	"lostfound-backend/internal/telemetry"
	"lostfound-backend/internal/ws"
)

const serviceName = "lostfound-backend"

func main() {
	_ = godotenv.Load()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), serviceName, getEnv("OTLP_ENDPOINT", ""))
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	publisher := observability.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "lostfound.events"))
	defer publisher.Close()
	observability.SetPublisher(publisher)

	tokens := auth.NewTokenManager(getEnv("JWT_SECRET", "supersecretkey"), 7*24*time.Hour)
	audit := telemetry.NewAuditEmitter("audit.reports", serviceName, getEnv("ENVIRONMENT", "development"))

	userRepo := repositories.NewUserRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	notifRepo := repositories.NewNotificationRepo(database)
	reportRepo := repositories.NewReportRepo(database)

	hub := ws.NewHub()
	relay := ws.NewRelayHandler(hub, chatRepo, messageRepo, notifRepo)

	authHandler := handlers.NewAuthHandler(userRepo, tokens)
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, notifRepo, hub)
	notifHandler := handlers.NewNotificationHandler(notifRepo)
	reportHandler := handlers.NewReportHandler(reportRepo, audit)

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(tokens)

	api := router.Group("/api")
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.GET("/me", authMiddleware, authHandler.Me)

	api.GET("/chats", authMiddleware, chatHandler.ListChats)
	api.POST("/chats", authMiddleware, chatHandler.CreateChat)
	api.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.GetChatMessages)
	api.POST("/chats/:chat_id/send", authMiddleware, chatHandler.SendMessage)

	api.GET("/notifications", authMiddleware, notifHandler.List)
	api.PUT("/notifications/:id/read", authMiddleware, notifHandler.MarkRead)

	api.POST("/report", authMiddleware, reportHandler.Report)
	api.POST("/report/block", authMiddleware, reportHandler.Block)

	router.GET("/ws", relay.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8000")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
