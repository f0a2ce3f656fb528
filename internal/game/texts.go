package game

// Тексты исходящих сообщений. VK сворачивает переводы строк в бэкенде
// бесед, поэтому разделитель строк -- литеральный "<br>", как его
// рендерит клиент.
const (
	textRiddle    = "Внимание, загадка! %s?"
	textWantStart = "Хотите начать игру?"
	textAbout     = "Я бот для игры в Поле Чудес 🎡 <br> " +
		"Жми Старт 🚀 -- я загадаю загадку, а участники беседы по очереди " +
		"называют буквы или слово целиком. <br> " +
		"Буква приносит очко за каждое вхождение, отгаданное слово -- 10 очков. " +
		"Неверное слово выбивает из игры!"
	textNoQuestions = "Загадки закончились, новых пока нет. Загляните позже!"

	textNextTurn     = "- твой ход! Выбирай действие 👇"
	textLastPlayer   = "- ты остался в игре один! Называй слово целиком 🗣"
	textActionPrompt = "- напиши свой ответ в чат"
	textChooseAgain  = "Верно! Выбирай следующее действие 👇"

	textChooseOneLetter = "- нужно назвать ровно одну букву!"
	textChoseWord       = "- нужно назвать слово целиком!"
	textLetterExists    = "- эта буква уже открыта!"
	textFailedLetter    = "- увы, такой буквы нет. Ход переходит дальше!"
	textUserKicked      = "- увы, это неверный ответ. Ты выбываешь из игры ⛔"

	textCongrat          = "%s, поздравляю вы выиграли! <br> %s - верный ответ! <br> "
	textGameOver         = "Игра окончена! <br> "
	textGameLeaderboard  = "Итоги игры: <br> "
	textWorldLeaderboard = "Таблица лидеров: <br> "
	textNoonePlayed      = "Никто из участников беседы ещё не играл!"
)
