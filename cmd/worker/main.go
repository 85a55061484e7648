package main

import (
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/app"
	"github.com/noah-isme/backend-trek/internal/config"
	"github.com/noah-isme/backend-trek/internal/obs"
	"github.com/noah-isme/backend-trek/internal/queue"
)

// logMailer stands in for a real SMTP integration. Delivery is observable in
// the worker logs, which is enough for development and staging.
type logMailer struct {
	log zerolog.Logger
}

func (m logMailer) Send(to, subject, _ string) error {
	m.log.Info().Str("to", to).Str("subject", subject).Msg("email delivered")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()

	srv, err := app.NewTaskServer(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("open task server")
	}

	mux := queue.NewMux(&queue.EmailWorker{
		Sender: logMailer{log: logger},
		Log:    logger,
	})

	logger.Info().Int("concurrency", cfg.QueueConcurrency).Str("queue", cfg.QueueRedisPrefix).Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
}
