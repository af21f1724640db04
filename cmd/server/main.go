package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/yeray-yas/ChatApp-sub003/internal/cache"
	"github.com/yeray-yas/ChatApp-sub003/internal/firestore"
	"github.com/yeray-yas/ChatApp-sub003/internal/handlers"
	"github.com/yeray-yas/ChatApp-sub003/internal/handlers/ws"
	"github.com/yeray-yas/ChatApp-sub003/internal/httpx"
	"github.com/yeray-yas/ChatApp-sub003/internal/identity"
	"github.com/yeray-yas/ChatApp-sub003/internal/middleware"
	"github.com/yeray-yas/ChatApp-sub003/internal/repository"
	"github.com/yeray-yas/ChatApp-sub003/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	backend := os.Getenv("BACKEND")
	if backend == "" {
		backend = "redis"
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Chat List Aggregator",
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	var (
		chatListService *service.ChatListService
		chatService     *service.ChatService
		presence        ws.PresenceSetter
	)

	switch backend {
	case "redis":
		// Initialize database connection
		db, err := repository.InitDB()
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		redisAddr := os.Getenv("REDIS_ADDR")
		if redisAddr == "" {
			redisAddr = "localhost:6379"
		}
		redisPassword := os.Getenv("REDIS_PASSWORD")
		redisDB := 0
		if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
			if parsedDB, err := strconv.Atoi(dbStr); err == nil {
				redisDB = parsedDB
			}
		}

		// The live feed runs over Redis pub/sub; without it there is
		// nothing to observe, so fail fast instead of degrading.
		redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
		if err := redisCache.Ping(context.Background()); err != nil {
			log.Fatal("Redis connection failed:", err)
		}
		log.Println("Redis connected successfully")
		defer redisCache.Close()

		snapshotCache := cache.NewSnapshotCache(redisCache)
		groupCache := cache.NewGroupCache(redisCache)

		// Initialize repositories
		messageRepo := repository.NewMessageRepository(db)
		profileRepo := repository.NewProfileRepository(db)
		groupRepo := repository.NewGroupRepository(db)
		groupReadStateRepo := repository.NewGroupReadStateRepository(db)

		// Initialize services
		chatService = service.NewChatService(messageRepo, profileRepo, groupRepo, groupReadStateRepo, snapshotCache, groupCache)
		chatListService = service.NewChatListService(snapshotCache, profileRepo, groupCache, identity.Anonymous)
		presence = chatService

	case "firestore":
		projectID := os.Getenv("FIRESTORE_PROJECT_ID")
		if projectID == "" {
			log.Fatal("FIRESTORE_PROJECT_ID is required when BACKEND=firestore")
		}

		store, err := firestore.NewStore(context.Background(), projectID, os.Getenv("FIRESTORE_CREDENTIALS"))
		if err != nil {
			log.Fatal("Failed to connect to Firestore:", err)
		}
		log.Printf("Firestore connected successfully (project=%s)", projectID)
		defer store.Close()

		// Firestore mode is observe-only: clients write through the
		// Firebase SDKs, this server only aggregates. No write routes.
		chatListService = service.NewChatListService(store, store, store, identity.Anonymous)

	default:
		log.Fatalf("Unknown BACKEND %q (want redis or firestore)", backend)
	}

	hub := ws.NewHub(presence)
	wsHandler := handlers.NewWebSocketHandler(chatListService, hub)

	// REST write routes exist only where this server owns the write path.
	if chatService != nil {
		messageHandler := handlers.NewMessageHandler(chatService)
		groupHandler := handlers.NewGroupHandler(chatService)
		profileHandler := handlers.NewProfileHandler(chatService)

		api := app.Group("/api/v1", middleware.OriginAllowed())
		protected := api.Group("/", middleware.AuthRequired())

		sendLimiter := limiter.New(limiter.Config{
			Max:        60,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				if uid, err := httpx.LocalString(c, "userID"); err == nil {
					return "send:" + uid
				}
				return c.IP()
			},
		})

		protected.Get("/messages", messageHandler.GetMessages)
		protected.Post("/messages", sendLimiter, messageHandler.SendMessage)
		protected.Post("/conversations/:counterpartId/read", messageHandler.MarkConversationRead)

		protected.Post("/groups", groupHandler.CreateGroup)
		protected.Get("/groups", groupHandler.GetMyGroups)
		protected.Post("/groups/:id/join", groupHandler.JoinGroup)
		protected.Post("/groups/:id/leave", groupHandler.LeaveGroup)
		protected.Get("/groups/:id/members", groupHandler.GetGroupMembers)
		protected.Post("/groups/:id/messages", sendLimiter, groupHandler.SendGroupMessage)
		protected.Post("/groups/:id/read", groupHandler.MarkGroupRead)
		protected.Get("/groups/:id/unread", groupHandler.GetGroupUnread)

		protected.Put("/profile", profileHandler.PutProfile)
		protected.Get("/profiles/:id", profileHandler.GetProfile)
	}

	// WebSocket routes (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(),
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			// Upgrade to WebSocket
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws/chat-list", websocket.New(wsHandler.ChatList))
	app.Get("/ws/unread/individual", websocket.New(wsHandler.UnreadIndividual))
	app.Get("/ws/unread/groups", websocket.New(wsHandler.UnreadGroups))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"backend":     backend,
			"connections": hub.Count(),
		})
	})

	// Close push connections before the listener so clients see a
	// going-away frame instead of a dropped socket.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		hub.CloseAll()
		_ = app.Shutdown()
	}()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
