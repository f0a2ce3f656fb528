package vk

import "encoding/json"

// Подписи кнопок. Роутер и движок сверяют входящий текст с ними
// побайтово, поэтому они объявлены здесь, рядом с клавиатурами.
const (
	ButtonInfo        = "Инфо 🌍"
	ButtonStart       = "Старт 🚀"
	ButtonLeaderboard = "Таблица Лидеров 🏆"
	ButtonBotAnswers  = "Бот отвечает"
	ButtonLetter      = "Выбрать букву 💬"
	ButtonWord        = "Назвать слово 🗣"
	ButtonStop        = "Остановить игру ⛔"
)

type keyboard struct {
	Inline  bool       `json:"inline"`
	Buttons [][]button `json:"buttons"`
}

type button struct {
	Action buttonAction `json:"action"`
	Color  string       `json:"color"`
}

type buttonAction struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
	Label   string `json:"label"`
}

func textButton(label, color string) button {
	return button{
		Action: buttonAction{
			Type:    "text",
			Payload: `{"button": "1"}`,
			Label:   label,
		},
		Color: color,
	}
}

func mustKeyboard(rows [][]button) string {
	data, err := json.Marshal(keyboard{Inline: true, Buttons: rows})
	if err != nil {
		panic(err) // статические клавиатуры, ошибка невозможна
	}
	return string(data)
}

var (
	previewKeyboard = mustKeyboard([][]button{
		{
			textButton(ButtonInfo, "positive"),
			textButton(ButtonStart, "positive"),
		},
		{
			textButton(ButtonLeaderboard, "positive"),
		},
	})

	defaultKeyboard = mustKeyboard([][]button{
		{
			textButton(ButtonBotAnswers, "primary"),
		},
	})

	gameKeyboard = mustKeyboard([][]button{
		{textButton(ButtonLetter, "positive")},
		{textButton(ButtonWord, "positive")},
		{textButton(ButtonStop, "negative")},
	})
)

// PreviewKeyboard -- клавиатура вне игры: инфо и старт в первом ряду,
// таблица лидеров во втором.
func PreviewKeyboard() string { return previewKeyboard }

// DefaultKeyboard -- единственная кнопка "Бот отвечает", шлётся с
// промежуточными ответами движка.
func DefaultKeyboard() string { return defaultKeyboard }

// GameKeyboard -- игровые действия для владельца хода, по кнопке в ряду.
func GameKeyboard() string { return gameKeyboard }
