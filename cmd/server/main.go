package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"quizzle/internal/auth"
	"quizzle/internal/config"
	"quizzle/internal/content"
	"quizzle/internal/metrics"
	"quizzle/internal/models"
	"quizzle/internal/pkg/respond"
	"quizzle/internal/progress"
	"quizzle/internal/quiz"
	"quizzle/pkg/cache"
	"quizzle/pkg/database"
	"quizzle/pkg/events"
	"quizzle/pkg/websocket"
)

func main() {
	configPath := flag.String("config", "", "optional config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := database.NewPostgresDB(&database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.QuizResult{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis cache
	redisCache := cache.NewRedisCache(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisCache.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		log.Fatalf("Failed to connect to redis at %s: %v", cfg.Redis.Addr, err)
	}
	cancelPing()

	// Events are optional
	var publisher quiz.EventPublisher
	if cfg.Events.URL != "" {
		p, err := events.NewPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to message broker: %v", err)
		}
		defer p.Close()
		publisher = p
	} else {
		log.Printf("AMQP_URL not set; quiz events are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)

	// Initialize repositories
	catalog := content.DefaultCatalog()
	bank := content.NewBank(os.DirFS(cfg.Content.Dir), catalog, redisCache, cfg.Content.CacheTTL())
	authRepo := auth.NewRepository(db)
	quizRepo := quiz.NewRepository(db)

	// Initialize services
	quizService := quiz.NewService(quizRepo, bank, catalog, wsHub, publisher)
	authService := auth.NewService(authRepo, redisCache, quizService, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	progressService := progress.NewService(quizRepo, authService, catalog)

	// Initialize handlers
	authHandler := auth.NewHandler(authService)
	contentHandler := content.NewHandler(catalog)
	quizHandler := quiz.NewHandler(quizService)
	progressHandler := progress.NewHandler(progressService)

	router := mux.NewRouter()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Session-ID", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	handler := corsMiddleware.Handler(router)

	// Public routes
	router.HandleFunc("/api/health", healthHandler(db, cfg.Database.DBName)).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.HandleFunc("/api/auth/create-profile", authHandler.CreateProfile).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/subjects", contentHandler.ListSubjects).Methods("GET")
	router.HandleFunc("/api/subjects/{subjectId}", contentHandler.GetSubject).Methods("GET")

	// Session routes
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(auth.SessionMiddleware(authService))

	apiRouter.HandleFunc("/auth/user", authHandler.CurrentUser).Methods("GET")
	apiRouter.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/auth/reset-profile", authHandler.ResetProfile).Methods("DELETE", "OPTIONS")

	apiRouter.HandleFunc("/quizzes/lesson", quizHandler.StartLesson).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/quizzes/subject", quizHandler.StartSubject).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/quizzes/full-syllabus", quizHandler.StartFullSyllabus).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/attempts/{attemptId}", quizHandler.GetAttempt).Methods("GET")
	apiRouter.HandleFunc("/attempts/{attemptId}/{action}", quizHandler.Act).Methods("POST", "OPTIONS")

	apiRouter.HandleFunc("/quiz-results", quizHandler.SaveResult).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/quiz-results", quizHandler.ListResults).Methods("GET")

	apiRouter.HandleFunc("/profile/stats", progressHandler.Stats).Methods("GET")
	apiRouter.HandleFunc("/profile/progress", progressHandler.Progress).Methods("GET")
	apiRouter.HandleFunc("/profile/progress/{subjectId}/lessons", progressHandler.LessonProgress).Methods("GET")

	adminRouter := apiRouter.PathPrefix("/admin").Subrouter()
	adminRouter.Use(auth.RequireRole(models.RoleInstructor))
	adminRouter.HandleFunc("/user/{email}", progressHandler.AdminUser).Methods("GET")

	// WebSocket endpoint
	router.HandleFunc("/ws/attempts/{attemptId}", wsHub.Handler(func(r *http.Request) (string, error) {
		user, err := authService.Authenticate(r.Context(), auth.TokenFromRequest(r))
		if err != nil {
			return "", err
		}
		attemptID := mux.Vars(r)["attemptId"]
		if !quizService.OwnsAttempt(user.ID, attemptID) {
			return "", fmt.Errorf("attempt %s not found", attemptID)
		}
		return quiz.AttemptRoom(attemptID), nil
	}))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	if err := quizService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Quiz attempts did not drain: %v", err)
	}

	log.Println("Server shutdown gracefully")
}

func healthHandler(db *gorm.DB, dbName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "OK"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
			status = "DEGRADED"
			code = http.StatusServiceUnavailable
		}
		respond.JSON(w, code, map[string]interface{}{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"database":  dbName,
		})
	}
}
