package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/udisondev/polebot/internal/model"
	"github.com/udisondev/polebot/internal/vk"
)

const (
	backoffMin = time.Second
	backoffMax = 30 * time.Second
)

// LongPoller -- сторона VK long poll, нужная поллеру.
type LongPoller interface {
	Handshake(ctx context.Context) error
	LongPoll(ctx context.Context) ([]model.Update, error)
}

// Poller -- единственный производитель очереди апдейтов. Транспортные
// сбои пережидает с экспоненциальной паузой, протокольные (failed=2/3)
// лечит повторным рукопожатием. Очередь закрывается при выходе из Run,
// воркеры узнают о завершении по ней.
type Poller struct {
	client LongPoller
	queue  chan<- model.Update
}

// NewPoller создаёт поллер, пишущий в queue.
func NewPoller(client LongPoller, queue chan<- model.Update) *Poller {
	return &Poller{client: client, queue: queue}
}

// Run крутит цикл long poll до отмены контекста.
func (p *Poller) Run(ctx context.Context) error {
	defer close(p.queue)

	backoff := backoffMin
	for {
		updates, err := p.client.LongPoll(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err == nil:
			backoff = backoffMin
			for _, u := range updates {
				select {
				case p.queue <- u:
					updatesReceived.Inc()
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		case vk.IsProtocol(err):
			longpollErrors.WithLabelValues("protocol").Inc()
			slog.Warn("long-poll session expired", "error", err)
			if herr := p.client.Handshake(ctx); herr != nil {
				slog.Error("long-poll handshake failed", "error", herr, "retry_in", backoff)
				if !sleepCtx(ctx, backoff) {
					return ctx.Err()
				}
				backoff = nextBackoff(backoff)
			} else {
				backoff = backoffMin
			}
		default:
			longpollErrors.WithLabelValues("transport").Inc()
			slog.Warn("long-poll request failed", "error", err, "retry_in", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > backoffMax {
		return backoffMax
	}
	return d
}

// sleepCtx ждёт d или отмены контекста; false -- контекст отменён.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
