package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telescordAPI/handlers"
	"telescordAPI/internal/notification"
	"telescordAPI/internal/store"
	"telescordAPI/internal/store/memory"
	"telescordAPI/internal/store/postgres"
	"telescordAPI/middleware"
	"telescordAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	userStore           store.UserStore
	relationshipStore   store.RelationshipStore
	messageStore        store.MessageStore
	notificationStore   store.NotificationStore
	userService         *services.UserService
	relationshipService *services.RelationshipService
	messageService      *services.MessageService
	notificationService *services.NotificationService
	fcmService          *notification.FCMService
	hub                 *services.Hub
	router              *services.DeliveryRouter
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolConfig, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			log.Fatal("Failed to parse database URL:", err)
		}

		poolConfig.MaxConns = 25
		poolConfig.MinConns = 5
		poolConfig.MaxConnLifetime = time.Hour
		poolConfig.MaxConnIdleTime = 30 * time.Minute
		poolConfig.HealthCheckPeriod = time.Minute

		dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			log.Fatal("Failed to create connection pool:", err)
		}

		if err := dbPool.Ping(ctx); err != nil {
			log.Fatal("Failed to ping database:", err)
		}

		log.Println("Successfully connected to Postgres")

		pg := postgres.New(dbPool)
		userStore, relationshipStore, messageStore, notificationStore = pg, pg, pg, pg
	} else {
		log.Println("Warning: DATABASE_URL not set, using in-memory store (data is lost on restart)")
		mem := memory.New()
		userStore, relationshipStore, messageStore, notificationStore = mem, mem, mem, mem
	}

	notificationService = services.NewNotificationService(notificationStore, userStore)
	userService = services.NewUserService(userStore)
	relationshipService = services.NewRelationshipService(userStore, relationshipStore)
	messageService = services.NewMessageService(messageStore)
	hub = services.NewHub()
	router = services.NewDeliveryRouter(hub, messageService, notificationService)

	var err error
	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
	services.InitChatMetrics()
}

func main() {
	defer func() {
		notificationService.Stop()
		if dbPool != nil {
			log.Println("Closing database connection pool...")
			dbPool.Close()
		}
	}()

	authHandler := handlers.NewAuthHandler(userService, relationshipService)
	friendHandler := handlers.NewFriendHandler(userService, relationshipService, router, notificationService)
	chatHandler := handlers.NewChatHandler(hub, router, userService)
	mediaHandler := handlers.NewMediaHandler()
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := mux.NewRouter()

	// The websocket route stays outside the standard chain: rate limiting and
	// response instrumentation don't mix with hijacked connections.
	r.HandleFunc("/api/v1/chat/ws", chatHandler.ServeWS)

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "./uploads"
	}
	fs := http.FileServer(http.Dir(uploadsDir))
	standardRouter.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", fs))
	log.Printf("Serving uploaded files from %s at /uploads/", uploadsDir)

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if dbPool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := dbPool.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "telescord-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH COOKIE OR BEARER TOKEN)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	protected.HandleFunc("/auth/verify", authHandler.Verify).Methods("GET")
	protected.HandleFunc("/user/avatar", authHandler.UploadAvatar).Methods("POST")
	protected.HandleFunc("/user/search", friendHandler.SearchUsers).Methods("GET")

	protected.HandleFunc("/friends", friendHandler.GetFriends).Methods("GET")
	protected.HandleFunc("/friends", friendHandler.RemoveFriend).Methods("DELETE")
	protected.HandleFunc("/friends/request", friendHandler.SendFriendRequest).Methods("POST")
	protected.HandleFunc("/friends/accept", friendHandler.AcceptFriendRequest).Methods("POST")
	protected.HandleFunc("/friends/reject", friendHandler.RejectFriendRequest).Methods("POST")
	protected.HandleFunc("/friends/requests", friendHandler.GetFriendRequests).Methods("GET")

	protected.HandleFunc("/chat/history", chatHandler.GetHistory).Methods("GET")
	protected.HandleFunc("/media/upload", mediaHandler.UploadMedia).Methods("POST")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotification).Methods("DELETE")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	// No global Read/WriteTimeout here: those would tear down long-lived
	// websocket sessions. The pumps enforce their own deadlines.
	server := http.Server{
		Addr:              port,
		Handler:           corsHandler(r),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
