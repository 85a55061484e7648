package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/common"
)

// TaskSendEmail is the task type for outbound notification mail.
const TaskSendEmail = "email:send"

// EmailTask is the payload of a TaskSendEmail task.
type EmailTask struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// RedisOptFromURL converts a redis URL into asynq's connection option.
func RedisOptFromURL(redisURL string) (asynq.RedisClientOpt, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	}, nil
}

// Enqueuer puts tasks on the background queue.
type Enqueuer struct {
	Client *asynq.Client
	Queue  string
}

// EnqueueEmail schedules one notification email with retry.
func (e *Enqueuer) EnqueueEmail(ctx context.Context, task EmailTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode email task: %w", err)
	}
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
	}
	if e.Queue != "" {
		opts = append(opts, asynq.Queue(e.Queue))
	}
	if _, err := e.Client.EnqueueContext(ctx, asynq.NewTask(TaskSendEmail, payload), opts...); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

// EmailWorker drains TaskSendEmail tasks through an email sender.
type EmailWorker struct {
	Sender common.EmailSender
	Log    zerolog.Logger
}

// HandleSendEmail processes one email task. Returning an error triggers
// asynq's retry with backoff.
func (w *EmailWorker) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var task EmailTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		// A payload that never decodes will never succeed; skip retries.
		w.Log.Error().Err(err).Msg("undecodable email task dropped")
		return nil
	}
	if err := w.Sender.Send(task.To, task.Subject, task.Body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	w.Log.Info().Str("to", task.To).Str("subject", task.Subject).Msg("notification email sent")
	return nil
}

// NewMux registers all task handlers for the worker process.
func NewMux(w *EmailWorker) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSendEmail, w.HandleSendEmail)
	return mux
}
