package model

import "time"

// Game -- одна партия в чате. ChatID хранит peer_id беседы как есть,
// конвертация в chat_id для messages.send происходит в VK-клиенте.
type Game struct {
	ID              int64
	ChatID          int64
	CreatedAt       time.Time
	Question        Question
	State           GameState
	LastAction      string // последний литеральный ввод (аудит), не состояние
	TurnUserID      int64
	LettersRevealed string

	// Players и Scores загружаются вместе с игрой, в одном порядке
	// (по user_vk_id), чтобы курсор хода был стабилен между чтениями.
	Players []User
	Scores  []GameScore
}

// GameScore -- участие одного игрока в одной партии.
type GameScore struct {
	GameID       int64
	UserVkID     int64
	Points       int64
	UserIsActive bool
}

// Finished reports whether the game reached its terminal state.
func (g *Game) Finished() bool {
	return g.State == StateFinish
}

// ScoreOf returns the score row for the given player, or nil.
func (g *Game) ScoreOf(vkID int64) *GameScore {
	for i := range g.Scores {
		if g.Scores[i].UserVkID == vkID {
			return &g.Scores[i]
		}
	}
	return nil
}

// PlayerOf returns the player with the given vk_id, or nil.
func (g *Game) PlayerOf(vkID int64) *User {
	for i := range g.Players {
		if g.Players[i].VkID == vkID {
			return &g.Players[i]
		}
	}
	return nil
}

// ActiveCount returns the number of players still in the game.
func (g *Game) ActiveCount() int {
	n := 0
	for i := range g.Scores {
		if g.Scores[i].UserIsActive {
			n++
		}
	}
	return n
}
