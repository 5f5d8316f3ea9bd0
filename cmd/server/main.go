package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"messenger-backend/config"
	"messenger-backend/handlers"
	"messenger-backend/logger"
	"messenger-backend/repository"
	"messenger-backend/services"
	"messenger-backend/utils"
	"messenger-backend/ws"
)

func requestLogger(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Upgrade, Connection")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	cipher, err := utils.NewCipher(cfg.EncryptionKey, cfg.EncryptionIV)
	if err != nil {
		log.Error("initializing encryption", "err", err)
		os.Exit(1)
	}

	db, err := repository.Open(cfg.DBPath)
	if err != nil {
		log.Error("opening database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	userRepo := repository.NewSQLUserRepo(db)
	convoRepo := repository.NewSQLConversationRepo(db)
	membershipRepo := repository.NewSQLMembershipRepo(db)
	messageRepo := repository.NewSQLMessageRepo(db)

	userSvc := services.NewUserService(userRepo, membershipRepo, cipher)
	convoSvc := services.NewConversationService(convoRepo, membershipRepo, messageRepo, userRepo, cipher, cfg.MaxMessageLength)
	authSvc := services.NewAuthService(userSvc, cfg)

	hub := ws.NewHub(log)
	socket := ws.NewSocketServer(hub, authSvc, userSvc, convoSvc, log)

	userH := handlers.NewUserHandler(userSvc, convoSvc, authSvc)
	convoH := handlers.NewConversationHandler(convoSvc)

	mux := handlers.NewRouter(userH, convoH, socket, authSvc, userSvc)
	handler := withCORS(requestLogger(log, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("messenger server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "err", err)
	}
}
