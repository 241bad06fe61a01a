package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"quotedesk/internal/auth"
	"quotedesk/internal/config"
	"quotedesk/internal/util"
	"quotedesk/pkg/queue"
)

// The mailer worker drains the sign-in mail stream and delivers each link
// over SMTP. Run it next to the API server when a Redis address is set.
func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.RedisAddr == "" {
		log.Fatal("redisAddr is required for the mailer worker")
	}

	util.InitLogger(cfg.LogLevel)

	var mailer auth.Mailer
	if cfg.SMTPAddr != "" {
		mailer, err = auth.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
		if err != nil {
			log.Fatalf("failed to init smtp mailer: %v", err)
		}
	} else {
		mailer = auth.LogMailer{}
	}

	q, err := queue.NewRedisMailQueue(queue.RedisQueueConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		Stream:   cfg.MailStream,
		Group:    cfg.MailGroup,
	})
	if err != nil {
		log.Fatalf("failed to init mail queue: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	q.Start(ctx, cfg.MailConcurrency, func(ctx context.Context, job queue.MailJob) error {
		return mailer.SendSignInLink(ctx, job.Email, job.SignInURL)
	})

	slog.Info("mailer worker started", "stream", cfg.MailStream, "group", cfg.MailGroup, "concurrency", cfg.MailConcurrency)
	<-ctx.Done()
	slog.Info("mailer worker stopping")
}
