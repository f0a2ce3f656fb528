package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/udisondev/polebot/internal/game"
	"github.com/udisondev/polebot/internal/model"
	"github.com/udisondev/polebot/internal/vk"
)

// GameService -- движок партий, как его видит роутер.
type GameService interface {
	Start(ctx context.Context, chatID int64) (*model.Game, *model.User, error)
	Process(ctx context.Context, chatID int64, text string, fromID int64) error
	WorldLeaderboard(ctx context.Context, chatID int64) (string, error)
}

// GameLookup -- запрос последней партии чата.
type GameLookup interface {
	LatestGame(ctx context.Context, chatID int64) (*model.Game, error)
}

// Sender -- исходящие сообщения в чат.
type Sender interface {
	SendMessage(ctx context.Context, peerID int64, text, keyboard string) error
}

// Router решает судьбу каждого апдейта: чат с активной партией получает
// его целиком, вне партии работает небольшой набор команд.
type Router struct {
	games  GameService
	lookup GameLookup
	sender Sender
}

// NewRouter создаёт роутер апдейтов.
func NewRouter(games GameService, lookup GameLookup, sender Sender) *Router {
	return &Router{games: games, lookup: lookup, sender: sender}
}

// HandleUpdate обрабатывает один апдейт long poll.
func (r *Router) HandleUpdate(ctx context.Context, upd model.Update) error {
	if upd.Type != "message_new" {
		updatesDropped.Inc()
		return nil
	}
	msg := upd.Object.Message
	if msg.PeerID <= 0 {
		updatesDropped.Inc()
		slog.Debug("malformed update dropped", "peer_id", msg.PeerID)
		return nil
	}
	text := canonicalText(msg.Text)

	current, err := r.lookup.LatestGame(ctx, msg.PeerID)
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}
	if current != nil && !current.Finished() {
		return r.games.Process(ctx, msg.PeerID, text, msg.FromID)
	}

	switch text {
	case vk.ButtonInfo, "/info":
		return r.send(ctx, msg.PeerID, game.AboutText(), vk.PreviewKeyboard())
	case vk.ButtonStart, "/start":
		return r.startGame(ctx, msg.PeerID)
	case vk.ButtonLeaderboard, "/leaderboard":
		board, err := r.games.WorldLeaderboard(ctx, msg.PeerID)
		if err != nil {
			return err
		}
		return r.send(ctx, msg.PeerID, board, vk.PreviewKeyboard())
	default:
		return r.send(ctx, msg.PeerID, game.WantStartText(), vk.PreviewKeyboard())
	}
}

// startGame объявляет новую партию: загадка, затем приглашение первому
// ходящему. Без партии (движок уже всё сказал) объявлять нечего.
func (r *Router) startGame(ctx context.Context, peerID int64) error {
	started, first, err := r.games.Start(ctx, peerID)
	if err != nil {
		return err
	}
	if started == nil {
		return nil
	}
	if err := r.send(ctx, peerID, game.RiddleText(started.Question.Text), vk.DefaultKeyboard()); err != nil {
		return err
	}
	return r.send(ctx, peerID, game.FirstTurnText(*first), vk.GameKeyboard())
}

func (r *Router) send(ctx context.Context, peerID int64, text, keyboard string) error {
	if err := r.sender.SendMessage(ctx, peerID, text, keyboard); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// canonicalText срезает префикс упоминания сообщества "[club…|@бот] "
// и пробелы по краям.
func canonicalText(s string) string {
	if i := strings.LastIndex(s, "] "); i >= 0 {
		s = s[i+2:]
	}
	return strings.TrimSpace(s)
}
