package vk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeKeyboard -- хелпер, разбирает сериализованную клавиатуру обратно.
func decodeKeyboard(t *testing.T, raw string) keyboard {
	t.Helper()
	var kb keyboard
	require.NoError(t, json.Unmarshal([]byte(raw), &kb))
	return kb
}

func TestPreviewKeyboard(t *testing.T) {
	kb := decodeKeyboard(t, PreviewKeyboard())

	assert.True(t, kb.Inline)
	require.Len(t, kb.Buttons, 2)
	require.Len(t, kb.Buttons[0], 2)
	assert.Equal(t, ButtonInfo, kb.Buttons[0][0].Action.Label)
	assert.Equal(t, ButtonStart, kb.Buttons[0][1].Action.Label)
	require.Len(t, kb.Buttons[1], 1)
	assert.Equal(t, ButtonLeaderboard, kb.Buttons[1][0].Action.Label)
	for _, row := range kb.Buttons {
		for _, b := range row {
			assert.Equal(t, "positive", b.Color)
			assert.Equal(t, "text", b.Action.Type)
			assert.Equal(t, `{"button": "1"}`, b.Action.Payload)
		}
	}
}

func TestDefaultKeyboard(t *testing.T) {
	kb := decodeKeyboard(t, DefaultKeyboard())

	assert.True(t, kb.Inline)
	// единственная кнопка: промежуточные ответы не предлагают старт
	require.Len(t, kb.Buttons, 1)
	require.Len(t, kb.Buttons[0], 1)
	assert.Equal(t, ButtonBotAnswers, kb.Buttons[0][0].Action.Label)
	assert.Equal(t, "primary", kb.Buttons[0][0].Color)
}

func TestGameKeyboard(t *testing.T) {
	kb := decodeKeyboard(t, GameKeyboard())

	assert.True(t, kb.Inline)
	// три ряда по одной кнопке
	require.Len(t, kb.Buttons, 3)
	for _, row := range kb.Buttons {
		require.Len(t, row, 1)
	}
	assert.Equal(t, ButtonLetter, kb.Buttons[0][0].Action.Label)
	assert.Equal(t, ButtonWord, kb.Buttons[1][0].Action.Label)
	assert.Equal(t, ButtonStop, kb.Buttons[2][0].Action.Label)
	assert.Equal(t, "positive", kb.Buttons[0][0].Color)
	assert.Equal(t, "positive", kb.Buttons[1][0].Color)
	assert.Equal(t, "negative", kb.Buttons[2][0].Color)
}

func TestKeyboards_LabelsPreserveUnicode(t *testing.T) {
	// json.Marshal не должен экранировать кириллицу и эмодзи
	assert.Contains(t, GameKeyboard(), "Выбрать букву 💬")
	assert.Contains(t, PreviewKeyboard(), "Таблица Лидеров 🏆")
}
