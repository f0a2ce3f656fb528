package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/polebot/internal/model"
)

// handleTimeout -- потолок обработки одного апдейта: пара запросов к VK
// плюс несколько запросов к базе.
const handleTimeout = 30 * time.Second

// Handler обрабатывает один апдейт.
type Handler interface {
	HandleUpdate(ctx context.Context, upd model.Update) error
}

// WorkerPool разбирает очередь апдейтов фиксированным числом воркеров.
type WorkerPool struct {
	queue   <-chan model.Update
	handler Handler
	limiter *UserLimiter
	workers int
}

// NewWorkerPool создаёт пул из workers воркеров над queue.
func NewWorkerPool(queue <-chan model.Update, handler Handler, limiter *UserLimiter, workers int) *WorkerPool {
	return &WorkerPool{queue: queue, handler: handler, limiter: limiter, workers: workers}
}

// Run запускает воркеров и возвращается, когда очередь закрыта и
// дочитана. Контекста нет намеренно: остановку инициирует поллер
// закрытием очереди, а хвост добирается на собственных таймаутах,
// чтобы принятые апдейты не пропадали при выключении.
func (w *WorkerPool) Run() error {
	var wg sync.WaitGroup
	for i := range w.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("worker started", "worker", i)
			for upd := range w.queue {
				w.handleOne(upd)
			}
			slog.Info("worker stopped", "worker", i)
		}()
	}
	wg.Wait()
	return nil
}

func (w *WorkerPool) handleOne(upd model.Update) {
	defer func() {
		if r := recover(); r != nil {
			workerErrors.Inc()
			slog.Error("worker panic", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	// Allow берёт токен сразу, Wait -- когда тот накопится
	lim := w.limiter.Get(upd.Object.Message.FromID)
	if !lim.Allow() {
		ratelimitThrottled.Inc()
		if err := lim.Wait(ctx); err != nil {
			workerErrors.Inc()
			slog.Warn("rate limit wait aborted", "from_id", upd.Object.Message.FromID, "error", err)
			return
		}
	}

	if err := w.handler.HandleUpdate(ctx, upd); err != nil {
		workerErrors.Inc()
		slog.Error("update handling failed",
			"peer_id", upd.Object.Message.PeerID,
			"from_id", upd.Object.Message.FromID,
			"error", err)
		return
	}
	updatesProcessed.Inc()
}
