package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGame -- хелпер для игры из трёх игроков, все активны.
func newTestGame(t *testing.T) *Game {
	t.Helper()
	g := &Game{
		ID:     1,
		ChatID: 2000000001,
		Question: Question{
			ID:     1,
			Text:   "Столица России",
			Answer: "Москва",
		},
		State:      StatePicking,
		TurnUserID: 10,
	}
	for _, id := range []int64{10, 20, 30} {
		g.Players = append(g.Players, User{VkID: id, Name: "Игрок"})
		g.Scores = append(g.Scores, GameScore{GameID: 1, UserVkID: id, UserIsActive: true})
	}
	return g
}

func TestGame_Finished(t *testing.T) {
	g := newTestGame(t)
	assert.False(t, g.Finished())

	g.State = StateFinish
	assert.True(t, g.Finished())
}

func TestGame_ScoreOf(t *testing.T) {
	g := newTestGame(t)

	score := g.ScoreOf(20)
	require.NotNil(t, score)
	assert.Equal(t, int64(20), score.UserVkID)

	// изменение через указатель видно в срезе игры
	score.Points = 5
	assert.Equal(t, int64(5), g.Scores[1].Points)

	assert.Nil(t, g.ScoreOf(999), "unknown player has no score row")
}

func TestGame_ActiveCount(t *testing.T) {
	g := newTestGame(t)
	assert.Equal(t, 3, g.ActiveCount())

	g.Scores[0].UserIsActive = false
	g.Scores[2].UserIsActive = false
	assert.Equal(t, 1, g.ActiveCount())
}

func TestUser_FullName(t *testing.T) {
	u := User{VkID: 1, Name: "Иван", LastName: "Иванов"}
	assert.Equal(t, "Иван Иванов", u.FullName())
}

func TestGameState_RoundTrip(t *testing.T) {
	tests := []struct {
		state GameState
		text  string
	}{
		{StatePicking, "picking"},
		{StateLetter, "letter"},
		{StateWord, "word"},
		{StateFinish, "finish"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.text, tt.state.String())
			assert.Equal(t, tt.state, ParseGameState(tt.text))
		})
	}
}

func TestParseGameState_Unknown(t *testing.T) {
	assert.Equal(t, StatePicking, ParseGameState(""))
	assert.Equal(t, StatePicking, ParseGameState("garbage"))
}
