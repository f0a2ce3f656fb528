package model

// GameState represents the per-chat game state machine position.
type GameState int32

const (
	// StatePicking - ход открыт, действие ещё не выбрано.
	// Начальное состояние новой игры и состояние после неверного ответа.
	StatePicking GameState = iota
	// StateLetter - игрок выбрал "назвать букву"
	StateLetter
	// StateWord - игрок выбрал "назвать слово"
	StateWord
	// StateFinish - игра завершена (победа или досрочная остановка)
	StateFinish
)

// String returns the state name as persisted in the games table.
func (s GameState) String() string {
	switch s {
	case StatePicking:
		return "picking"
	case StateLetter:
		return "letter"
	case StateWord:
		return "word"
	case StateFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// ParseGameState converts a persisted state name back to GameState.
// Unknown values map to StatePicking.
func ParseGameState(s string) GameState {
	switch s {
	case "letter":
		return StateLetter
	case "word":
		return StateWord
	case "finish":
		return StateFinish
	default:
		return StatePicking
	}
}
