// Package notifyworker drains the notification queue and hands each intent
// to the SMS dispatcher. Patient SMS is simulated, so the default dispatcher
// only logs.
package notifyworker

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/wolfman30/dentaai-platform/internal/notify"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

const (
	defaultWorkerCount = 2
	defaultWaitSeconds = 10
	defaultBatchSize   = 5
	// Messages received more often than this are dropped instead of retried.
	defaultMaxReceives = 5

	minBackoff = time.Second
	maxBackoff = 5 * time.Second
)

type config struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
	maxReceives      int
}

// Option tunes a Worker.
type Option func(*config)

func WithWorkerCount(count int) Option {
	return func(cfg *config) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait (0..20 seconds).
func WithReceiveWaitSeconds(seconds int) Option {
	return func(cfg *config) {
		if seconds >= 0 && seconds <= 20 {
			cfg.receiveWaitSecs = seconds
		}
	}
}

func WithReceiveBatchSize(size int) Option {
	return func(cfg *config) {
		if size > 0 && size <= 10 {
			cfg.receiveBatchSize = size
		}
	}
}

func WithMaxReceives(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxReceives = n
		}
	}
}

// Worker consumes notification intents until its context is cancelled.
type Worker struct {
	queue      queueClient
	dispatcher notify.Emitter
	logger     *logging.Logger
	cfg        config
	wg         sync.WaitGroup
}

func New(queue queueClient, dispatcher notify.Emitter, logger *logging.Logger, opts ...Option) *Worker {
	if queue == nil {
		panic("notifyworker: queue cannot be nil")
	}
	if dispatcher == nil {
		panic("notifyworker: dispatcher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := config{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
		maxReceives:      defaultMaxReceives,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{queue: queue, dispatcher: dispatcher, logger: logger, cfg: cfg}
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("notification worker started", "worker_id", workerID)

	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			w.logger.Debug("notification worker stopping", "worker_id", workerID)
			return
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to receive notifications", "error", err, "worker_id", workerID)
			if !pause(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = minBackoff

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

// nextBackoff doubles d up to maxBackoff.
func nextBackoff(d time.Duration) time.Duration {
	return min(d*2, maxBackoff)
}

// pause waits for d and reports false if ctx ended first.
func pause(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// handleMessage deletes the message once dispatched. Failed dispatches stay
// on the queue for redelivery until maxReceives; undecodable bodies are
// dropped at once.
func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var intent notify.Message
	if err := json.Unmarshal([]byte(msg.Body), &intent); err != nil {
		w.logger.Error("dropping undecodable notification", "error", err, "msg_id", msg.ID)
		w.delete(msg)
		return
	}

	if err := w.dispatcher.Emit(ctx, intent); err != nil {
		receives, _ := strconv.Atoi(msg.ReceiveCount)
		if receives >= w.cfg.maxReceives {
			w.logger.Error("dropping notification after repeated failures",
				"error", err,
				"msg_id", msg.ID,
				"kind", intent.Kind,
				"appointment_id", intent.AppointmentID,
				"receives", receives,
			)
			w.delete(msg)
			return
		}
		w.logger.Warn("notification dispatch failed; leaving for redelivery",
			"error", err,
			"msg_id", msg.ID,
			"kind", intent.Kind,
		)
		return
	}
	w.delete(msg)
}

func (w *Worker) delete(msg queueMessage) {
	// Use a fresh context so shutdown does not strand processed messages.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Error("failed to delete notification", "error", err, "msg_id", msg.ID)
	}
}
