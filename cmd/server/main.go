package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"thr-trivia/internal/audit"
	"thr-trivia/internal/auth"
	"thr-trivia/internal/models"
	"thr-trivia/internal/participant"
	"thr-trivia/internal/room"
	"thr-trivia/pkg/cache"
	"thr-trivia/pkg/database"
	"thr-trivia/pkg/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	dbConfig := &database.Config{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}

	db, err := database.NewPostgresDB(dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.Question{},
		&models.Option{},
		&models.Participant{},
		&models.Reward{},
		&models.RewardClaim{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	redisCache := cache.NewRedisCache(os.Getenv("REDIS_ADDR"))

	wsHub := websocket.NewHub()
	go wsHub.Run()

	authRepo := auth.NewRepository(db)
	roomRepo := room.NewRepository(db)
	participantRepo := participant.NewRepository(db)
	auditRepo := audit.NewRepository(db)

	jwtSecret := os.Getenv("JWT_SECRET")
	authService := auth.NewService(authRepo, jwtSecret)
	roomService := room.NewService(roomRepo, redisCache)
	participantService := participant.NewService(participantRepo, redisCache, wsHub)
	auditService := audit.NewService(auditRepo)

	authHandler := auth.NewHandler(authService)
	roomHandler := room.NewHandler(roomService)
	participantHandler := participant.NewHandler(participantService)
	auditHandler := audit.NewHandler(auditService)

	router := mux.NewRouter()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	handler := corsMiddleware.Handler(router)

	// Auth routes - no JWT required
	router.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Player routes - no JWT required
	router.HandleFunc("/api/participants/join", participantHandler.Join).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/participants/logout", participantHandler.Logout).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/participants/validate", roomHandler.ValidateAccess).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/rooms/validate", roomHandler.ValidateByCode).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/rooms/{accessCode}/leaderboard", participantHandler.Leaderboard).Methods("GET", "OPTIONS")

	// Admin routes - JWT + admin role required
	adminRouter := router.PathPrefix("/api/admin").Subrouter()
	adminRouter.Use(auth.JWTMiddleware(jwtSecret))
	adminRouter.Use(auth.RequireAdmin)

	adminRouter.HandleFunc("/rooms", roomHandler.Create).Methods("POST", "OPTIONS")
	adminRouter.HandleFunc("/rooms", roomHandler.List).Methods("GET")
	adminRouter.HandleFunc("/rooms/{id}", roomHandler.Get).Methods("GET")
	adminRouter.HandleFunc("/rooms/{id}", roomHandler.Update).Methods("PUT", "OPTIONS")
	adminRouter.HandleFunc("/rooms/{id}", roomHandler.Deactivate).Methods("DELETE")
	adminRouter.HandleFunc("/rooms/{id}/questions", roomHandler.CreateQuestion).Methods("POST", "OPTIONS")
	adminRouter.HandleFunc("/rooms/{id}/questions", roomHandler.ListQuestions).Methods("GET")
	adminRouter.HandleFunc("/questions/{id}", roomHandler.UpdateQuestion).Methods("PUT", "OPTIONS")
	adminRouter.HandleFunc("/questions/{id}", roomHandler.DisableQuestion).Methods("DELETE")
	adminRouter.HandleFunc("/rooms/{id}/rewards", roomHandler.CreateReward).Methods("POST", "OPTIONS")
	adminRouter.HandleFunc("/rooms/{id}/rewards", roomHandler.ListRewards).Methods("GET")
	adminRouter.HandleFunc("/participants/{id}/award", participantHandler.Award).Methods("POST", "OPTIONS")
	adminRouter.HandleFunc("/db-validation", auditHandler.Validate).Methods("GET")

	// WebSocket endpoint
	router.HandleFunc("/ws/{accessCode}", wsHub.HandleWebSocket)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server shutdown gracefully")
}
