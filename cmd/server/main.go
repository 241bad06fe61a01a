package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"quotedesk/internal/app"
	"quotedesk/internal/auth"
	"quotedesk/internal/config"
	"quotedesk/internal/ratelimit"
	"quotedesk/internal/server"
	"quotedesk/internal/util"
	"quotedesk/pkg/queue"
	"quotedesk/pkg/storage"
	"quotedesk/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}
	linkTTL, err := config.ParseMagicLinkTTL(cfg.MagicLinkTTL)
	if err != nil {
		log.Fatalf("failed to parse magic link TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	sessions, err := buildSessions(cfg, st, sessionTTL)
	if err != nil {
		log.Fatalf("failed to init sessions: %v", err)
	}

	objects, err := buildObjectStore(cfg)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	mailer, err := buildMailer(cfg)
	if err != nil {
		log.Fatalf("failed to init mailer: %v", err)
	}

	var limiter auth.Limiter
	if cfg.RedisAddr != "" && cfg.SignInRateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "quotedesk:ratelimit",
			cfg.SignInRateLimitPerMinute, time.Minute,
		)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	}

	authSvc, err := auth.NewService(auth.Config{
		Store:    st,
		Sessions: sessions,
		Mailer:   mailer,
		Limiter:  limiter,
		BaseURL:  cfg.BaseURL,
		LinkTTL:  linkTTL,
	})
	if err != nil {
		log.Fatalf("failed to init auth: %v", err)
	}

	appCore, err := app.New(app.Config{
		Store:   st,
		Objects: objects,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:               appCore,
		Auth:              authSvc,
		Sessions:          sessions,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		MaxUploadBytes:    cfg.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr, "sessions", cfg.SessionStrategy, "storage", cfg.StorageBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

func buildSessions(cfg config.FileConfig, st store.Store, ttl time.Duration) (store.SessionStore, error) {
	switch cfg.SessionStrategy {
	case config.SessionStrategyJWT:
		var revoker store.TokenRevoker
		if cfg.RedisAddr != "" {
			revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		} else {
			revoker = store.NewMemoryTokenRevoker()
		}
		return store.NewJWTSessionStore(cfg.JWTSecret, ttl, revoker)
	default:
		if ttl <= 0 {
			ttl = 30 * 24 * time.Hour
		}
		return store.NewDatabaseSessionStore(st, ttl), nil
	}
}

func buildObjectStore(cfg config.FileConfig) (storage.ObjectStore, error) {
	if cfg.StorageBackend == config.StorageBackendMinio {
		return storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	}
	baseURL := cfg.LocalStorageBaseURL
	if baseURL == "" {
		baseURL = cfg.BaseURL + "/files"
	}
	return storage.NewLocalStore(cfg.LocalStoragePath, baseURL)
}

func buildMailer(cfg config.FileConfig) (auth.Mailer, error) {
	if cfg.RedisAddr == "" {
		return auth.LogMailer{}, nil
	}
	q, err := queue.NewRedisMailQueue(queue.RedisQueueConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		Stream:   cfg.MailStream,
		Group:    cfg.MailGroup,
	})
	if err != nil {
		return nil, err
	}
	return auth.NewQueueMailer(q), nil
}
