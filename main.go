package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/phani-manda/chatX/internal/config"
	"github.com/phani-manda/chatX/internal/db"
	"github.com/phani-manda/chatX/internal/email"
	"github.com/phani-manda/chatX/internal/handlers"
	"github.com/phani-manda/chatX/internal/media"
	"github.com/phani-manda/chatX/internal/middleware"
	"github.com/phani-manda/chatX/internal/observability"
	"github.com/phani-manda/chatX/internal/rabbitmq"
	"github.com/phani-manda/chatX/internal/repositories"
	"github.com/phani-manda/chatX/internal/token"
	"github.com/phani-manda/chatX/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, "chatx", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()

	mediaStore, err := media.NewDiskStore(cfg.UploadDir, cfg.UploadBase)
	if err != nil {
		log.Fatalf("failed to init media store: %v", err)
	}

	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	groupMessageRepo := repositories.NewGroupMessageRepo(database)

	tokens := token.NewManager(cfg.JWTSecret)
	mailer := email.NewMailer(publisher, cfg.EmailFrom, cfg.EmailName)

	registry := ws.NewPresenceRegistry()
	hub := ws.NewHub(registry, groupRepo)

	wsOrigin := ""
	if cfg.Production() {
		wsOrigin = cfg.ClientURL
	}
	wsHandler := ws.NewHandler(hub, ws.NewAuthenticator(tokens, userRepo), publisher, wsOrigin)

	authHandler := handlers.NewAuthHandler(userRepo, tokens, mediaStore, mailer, cfg.ClientURL, cfg.Production())
	messageHandler := handlers.NewMessageHandler(userRepo, messageRepo, mediaStore, hub)
	groupHandler := handlers.NewGroupHandler(userRepo, groupRepo, groupMessageRepo, mediaStore, hub)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("chatx"))
	router.Use(observability.HTTPMetricsMiddleware())

	authRequired := middleware.Auth(tokens)

	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/check", authRequired, authHandler.Check)
		auth.PUT("/update-profile", authRequired, authHandler.UpdateProfile)
	}

	messages := router.Group("/api/messages", authRequired)
	{
		messages.GET("/contacts", messageHandler.GetContacts)
		messages.GET("/chats", messageHandler.GetChatPartners)
		messages.GET("/:id", messageHandler.GetMessages)
		messages.POST("/send/:id", messageHandler.SendMessage)
		messages.DELETE("/:id", messageHandler.DeleteMessage)
	}

	groups := router.Group("/api/groups", authRequired)
	{
		groups.POST("", groupHandler.CreateGroup)
		groups.GET("", groupHandler.ListGroups)
		groups.GET("/:id", groupHandler.GetGroup)
		groups.PUT("/:id", groupHandler.UpdateGroup)
		groups.POST("/:id/leave", groupHandler.LeaveGroup)
		groups.POST("/:id/members", groupHandler.AddMember)
		groups.DELETE("/:id/members/:userId", groupHandler.RemoveMember)
		groups.GET("/:id/messages", groupHandler.GetGroupMessages)
		groups.POST("/:id/messages", groupHandler.PostGroupMessage)
		groups.DELETE("/:id/messages/:messageId", groupHandler.DeleteGroupMessage)
	}

	router.GET("/ws", wsHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static(cfg.UploadBase, mediaStore.Dir())

	log.Printf("chatx listening on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
