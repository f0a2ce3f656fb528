package game

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/udisondev/polebot/internal/model"
	"github.com/udisondev/polebot/internal/vk"
)

// winBonus начисляется за отгаданное слово и за последнюю букву,
// закрывшую слово.
const winBonus = 10

// Store -- срез реляционного хранилища, нужный движку.
type Store interface {
	LatestGame(ctx context.Context, chatID int64) (*model.Game, error)
	PickRandomQuestionExcluding(ctx context.Context, used []string) (*model.Question, error)
	UpsertUsers(ctx context.Context, users []model.User) error
	InsertGame(ctx context.Context, g *model.Game) error
	InsertScores(ctx context.Context, scores []model.GameScore) error
	UpdateGameState(ctx context.Context, gameID int64, state model.GameState, lastAction string) error
	UpdateGameTurn(ctx context.Context, gameID, turnUserID int64) error
	UpdateGameLetters(ctx context.Context, gameID int64, letters, lastAction string) error
	AddScorePoints(ctx context.Context, gameID, userVkID, delta int64) error
	DeactivatePlayer(ctx context.Context, gameID, userVkID int64) error
	BulkAddTotalPoints(ctx context.Context, points map[int64]int64) error
	ListUsersByVkIds(ctx context.Context, ids []int64) ([]model.User, error)
}

// Messenger -- исходящая сторона VK, нужная движку.
type Messenger interface {
	SendMessage(ctx context.Context, peerID int64, text, keyboard string) error
	FetchMembers(ctx context.Context, peerID int64) ([]model.User, error)
}

// chatState -- процессные данные одного чата. Живут от старта процесса,
// не переживают рестарт: использованные загадки, позиция курсора хода и
// флаг единственного оставшегося игрока.
type chatState struct {
	mu            sync.Mutex
	usedQuestions []string
	turnCursor    int
	onlyOneLeft   bool
}

// Engine ведёт партии во всех чатах. Вся работа с партией идёт под
// замком её чата, поэтому обработка внутри чата строго последовательна;
// реестр замков защищён собственным мьютексом.
type Engine struct {
	store Store
	msgr  Messenger

	mu    sync.Mutex
	chats map[int64]*chatState
}

// NewEngine создаёт движок поверх хранилища и мессенджера.
func NewEngine(store Store, msgr Messenger) *Engine {
	return &Engine{
		store: store,
		msgr:  msgr,
		chats: make(map[int64]*chatState),
	}
}

// chat возвращает состояние чата, создавая его при первом обращении.
func (e *Engine) chat(chatID int64) *chatState {
	e.mu.Lock()
	defer e.mu.Unlock()
	cs, ok := e.chats[chatID]
	if !ok {
		cs = &chatState{}
		e.chats[chatID] = cs
	}
	return cs
}

// Start создаёт партию в чате и возвращает её вместе с первым ходящим.
// (nil, nil) без ошибки: партия уже идёт, в чате нет участников или
// закончились загадки -- во всех трёх случаях отправлять нечего,
// сообщение про пустой пул загадок движок шлёт сам.
func (e *Engine) Start(ctx context.Context, chatID int64) (*model.Game, *model.User, error) {
	cs := e.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	// повторная проверка под замком: два "Старт" подряд не должны
	// создать две партии
	current, err := e.store.LatestGame(ctx, chatID)
	if err != nil {
		return nil, nil, fmt.Errorf("checking active game: %w", err)
	}
	if current != nil && !current.Finished() {
		return nil, nil, nil
	}

	members, err := e.msgr.FetchMembers(ctx, chatID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching chat members: %w", err)
	}
	if len(members) == 0 {
		return nil, nil, nil
	}

	if err := e.store.UpsertUsers(ctx, members); err != nil {
		return nil, nil, fmt.Errorf("registering players: %w", err)
	}

	question, err := e.store.PickRandomQuestionExcluding(ctx, cs.usedQuestions)
	if err != nil {
		return nil, nil, fmt.Errorf("picking question: %w", err)
	}
	if question == nil {
		if err := e.msgr.SendMessage(ctx, chatID, textNoQuestions, vk.DefaultKeyboard()); err != nil {
			slog.Warn("no-questions notice failed", "chat_id", chatID, "error", err)
		}
		return nil, nil, nil
	}
	cs.usedQuestions = append(cs.usedQuestions, question.Text)

	first := members[0]
	game := &model.Game{
		ChatID:     chatID,
		Question:   *question,
		State:      model.StatePicking,
		TurnUserID: first.VkID,
		Players:    members,
	}
	if err := e.store.InsertGame(ctx, game); err != nil {
		return nil, nil, fmt.Errorf("creating game: %w", err)
	}

	scores := make([]model.GameScore, 0, len(members))
	for _, m := range members {
		scores = append(scores, model.GameScore{GameID: game.ID, UserVkID: m.VkID, UserIsActive: true})
	}
	if err := e.store.InsertScores(ctx, scores); err != nil {
		return nil, nil, fmt.Errorf("creating scores: %w", err)
	}
	game.Scores = scores

	cs.turnCursor = 0
	cs.onlyOneLeft = false

	gamesStarted.Inc()
	slog.Info("game started",
		"chat_id", chatID,
		"game_id", game.ID,
		"question_id", question.ID,
		"players", len(members))
	return game, &first, nil
}

// Process обрабатывает сообщение из чата с активной партией. Снимок
// партии перечитывается под замком чата -- решение роутера могло
// устареть, пока сообщение ждало в очереди.
func (e *Engine) Process(ctx context.Context, chatID int64, text string, fromID int64) error {
	cs := e.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	game, err := e.store.LatestGame(ctx, chatID)
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}
	if game == nil || game.Finished() {
		return nil
	}

	// остановить игру может любой участник беседы
	if text == vk.ButtonStop {
		return e.endGame(ctx, game, nil)
	}

	player := game.PlayerOf(fromID)
	score := game.ScoreOf(fromID)
	if player == nil || score == nil || !score.UserIsActive || game.TurnUserID != fromID {
		return nil // не игрок, выбыл или говорит вне очереди
	}

	// единственному оставшемуся засчитываем любой ввод как слово
	if cs.onlyOneLeft {
		return e.handleWord(ctx, cs, game, player, text)
	}

	if text == vk.ButtonLetter || text == vk.ButtonWord {
		state := model.StateLetter
		if text == vk.ButtonWord {
			state = model.StateWord
		}
		if game.State != state {
			if err := e.store.UpdateGameState(ctx, game.ID, state, text); err != nil {
				return err
			}
			game.State = state
			game.LastAction = text
		}
		return e.send(ctx, game.ChatID, player.Name+" "+textActionPrompt, vk.DefaultKeyboard())
	}

	switch game.State {
	case model.StateLetter:
		return e.handleLetter(ctx, cs, game, player, text)
	case model.StateWord:
		return e.handleWord(ctx, cs, game, player, text)
	default:
		return nil // действие ещё не выбрано
	}
}

// handleLetter разбирает попытку назвать букву.
func (e *Engine) handleLetter(ctx context.Context, cs *chatState, game *model.Game, player *model.User, text string) error {
	if utf8.RuneCountInString(text) != 1 {
		return e.send(ctx, game.ChatID, player.FullName()+" "+textChooseOneLetter, vk.DefaultKeyboard())
	}

	letter := strings.ToLower(text)
	answer := strings.ToLower(game.Question.Answer)

	// буква уже открыта: ход не переходит
	if strings.Contains(game.LettersRevealed, letter) {
		return e.send(ctx, game.ChatID, player.FullName()+" "+textLetterExists, vk.DefaultKeyboard())
	}

	if !strings.Contains(answer, letter) {
		if err := e.send(ctx, game.ChatID, player.Name+" "+textFailedLetter, vk.DefaultKeyboard()); err != nil {
			return err
		}
		if err := e.advanceTurn(ctx, cs, game, 0, textNextTurn); err != nil {
			return err
		}
		if err := e.store.UpdateGameState(ctx, game.ID, model.StatePicking, text); err != nil {
			return err
		}
		game.State = model.StatePicking
		game.LastAction = text
		return nil
	}

	// очко за каждое вхождение буквы
	occurrences := int64(strings.Count(answer, letter))
	if err := e.store.AddScorePoints(ctx, game.ID, player.VkID, occurrences); err != nil {
		return err
	}
	game.ScoreOf(player.VkID).Points += occurrences
	game.LettersRevealed += letter

	if lettersComplete(game.LettersRevealed, answer) {
		if err := e.store.AddScorePoints(ctx, game.ID, player.VkID, winBonus); err != nil {
			return err
		}
		game.ScoreOf(player.VkID).Points += winBonus
		if err := e.store.UpdateGameLetters(ctx, game.ID, game.LettersRevealed, text); err != nil {
			return err
		}
		game.LastAction = text
		return e.endGame(ctx, game, player)
	}

	display := revealAnswer(game.Question.Answer, game.LettersRevealed)
	if err := e.send(ctx, game.ChatID, display+". "+textChooseAgain, vk.GameKeyboard()); err != nil {
		return err
	}
	// состояние остаётся letter: угадавший ходит снова
	if err := e.store.UpdateGameLetters(ctx, game.ID, game.LettersRevealed, text); err != nil {
		return err
	}
	game.LastAction = text
	return nil
}

// handleWord разбирает попытку назвать слово целиком.
func (e *Engine) handleWord(ctx context.Context, cs *chatState, game *model.Game, player *model.User, text string) error {
	if utf8.RuneCountInString(text) == 1 {
		return e.send(ctx, game.ChatID, player.FullName()+" "+textChoseWord, vk.DefaultKeyboard())
	}

	if strings.EqualFold(text, game.Question.Answer) {
		if err := e.store.AddScorePoints(ctx, game.ID, player.VkID, winBonus); err != nil {
			return err
		}
		game.ScoreOf(player.VkID).Points += winBonus
		return e.endGame(ctx, game, player)
	}

	// неверное слово: игрок выбывает
	if err := e.send(ctx, game.ChatID, player.FullName()+" "+textUserKicked, vk.DefaultKeyboard()); err != nil {
		return err
	}
	if err := e.store.DeactivatePlayer(ctx, game.ID, player.VkID); err != nil {
		return err
	}
	game.ScoreOf(player.VkID).UserIsActive = false

	switch k := game.ActiveCount(); {
	case k <= 1:
		return e.endGame(ctx, game, nil)
	case k == 2:
		// состояние не меняем: после рестарта процесса game.State == word
		// снова приведёт последнего игрока к вводу слова
		cs.onlyOneLeft = true
		if err := e.store.UpdateGameState(ctx, game.ID, game.State, text); err != nil {
			return err
		}
		game.LastAction = text
		return e.advanceTurn(ctx, cs, game, player.VkID, textLastPlayer)
	default:
		if err := e.store.UpdateGameState(ctx, game.ID, model.StatePicking, text); err != nil {
			return err
		}
		game.State = model.StatePicking
		game.LastAction = text
		return e.advanceTurn(ctx, cs, game, player.VkID, textNextTurn)
	}
}

// send отправляет сообщение в чат, заворачивая ошибку транспорта.
func (e *Engine) send(ctx context.Context, peerID int64, text, keyboard string) error {
	if err := e.msgr.SendMessage(ctx, peerID, text, keyboard); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// advanceTurn передвигает курсор по кругу, пропуская выбывших и
// excluding, и объявляет ход следующему игроку.
func (e *Engine) advanceTurn(ctx context.Context, cs *chatState, game *model.Game, excluding int64, prompt string) error {
	next := nextPlayer(cs, game, excluding)
	if next == nil {
		return nil // передавать некому, со счётом активных разобрался вызывающий
	}
	if err := e.store.UpdateGameTurn(ctx, game.ID, next.VkID); err != nil {
		return err
	}
	game.TurnUserID = next.VkID
	return e.send(ctx, game.ChatID, next.FullName()+" "+prompt, vk.GameKeyboard())
}

// nextPlayer делает максимум полный круг по списку игроков.
func nextPlayer(cs *chatState, game *model.Game, excluding int64) *model.User {
	n := len(game.Players)
	for range n {
		if cs.turnCursor >= n-1 {
			cs.turnCursor = 0
		} else {
			cs.turnCursor++
		}
		candidate := &game.Players[cs.turnCursor]
		if candidate.VkID == excluding {
			continue
		}
		if s := game.ScoreOf(candidate.VkID); s == nil || !s.UserIsActive {
			continue
		}
		return candidate
	}
	return nil
}

// endGame завершает партию: поздравление или итог без победителя,
// затем терминальное состояние и зачисление очков в total_points.
// Неудачная отправка итога не мешает завершению -- иначе партия
// застрянет активной.
func (e *Engine) endGame(ctx context.Context, game *model.Game, winner *model.User) error {
	var text string
	reason := "aborted"
	if winner != nil {
		reason = "winner"
		text = fmt.Sprintf(textCongrat, winner.FullName(), game.Question.Answer) + gameLeaderboard(game)
	} else {
		text = textGameOver + gameLeaderboard(game)
	}
	if err := e.msgr.SendMessage(ctx, game.ChatID, text, vk.PreviewKeyboard()); err != nil {
		slog.Warn("game summary send failed", "chat_id", game.ChatID, "game_id", game.ID, "error", err)
	}

	if err := e.store.UpdateGameState(ctx, game.ID, model.StateFinish, game.LastAction); err != nil {
		return err
	}
	game.State = model.StateFinish

	totals := make(map[int64]int64, len(game.Scores))
	for _, s := range game.Scores {
		totals[s.UserVkID] = s.Points
	}
	if err := e.store.BulkAddTotalPoints(ctx, totals); err != nil {
		return fmt.Errorf("crediting totals: %w", err)
	}

	gamesFinished.WithLabelValues(reason).Inc()
	slog.Info("game finished",
		"chat_id", game.ChatID,
		"game_id", game.ID,
		"reason", reason)
	return nil
}

// WorldLeaderboard строит таблицу лидеров по total_points для
// участников беседы.
func (e *Engine) WorldLeaderboard(ctx context.Context, chatID int64) (string, error) {
	members, err := e.msgr.FetchMembers(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("fetching chat members: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.VkID)
	}

	users, err := e.store.ListUsersByVkIds(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("listing users: %w", err)
	}
	if len(users) == 0 {
		return textNoonePlayed, nil
	}

	var b strings.Builder
	b.WriteString(textWorldLeaderboard)
	for _, u := range users {
		fmt.Fprintf(&b, "%s - %d <br> ", u.FullName(), u.TotalPoints)
	}
	return strings.TrimSpace(b.String()), nil
}

// gameLeaderboard -- строки "Имя Фамилия - N" по убыванию очков партии.
func gameLeaderboard(game *model.Game) string {
	order := make([]int, len(game.Scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return game.Scores[order[a]].Points > game.Scores[order[b]].Points
	})

	var b strings.Builder
	b.WriteString(textGameLeaderboard)
	for _, i := range order {
		fmt.Fprintf(&b, "%s - %d <br> ", game.Players[i].FullName(), game.Scores[i].Points)
	}
	return strings.TrimSpace(b.String())
}

// lettersComplete reports whether every distinct letter of answer is
// revealed. answer обязан быть в нижнем регистре.
func lettersComplete(revealed, answer string) bool {
	have := make(map[rune]bool, len(revealed))
	for _, r := range revealed {
		have[r] = true
	}
	for _, r := range answer {
		if !have[r] {
			return false
		}
	}
	return true
}

// revealAnswer показывает отгаданные буквы в исходном регистре,
// остальные позиции закрывает дефисом.
func revealAnswer(answer, revealed string) string {
	have := make(map[rune]bool, len(revealed))
	for _, r := range revealed {
		have[r] = true
	}
	out := make([]rune, 0, utf8.RuneCountInString(answer))
	for _, r := range answer {
		if have[unicode.ToLower(r)] {
			out = append(out, r)
		} else {
			out = append(out, '-')
		}
	}
	return string(out)
}

// RiddleText -- текст загадки для объявления новой партии.
func RiddleText(question string) string {
	return fmt.Sprintf(textRiddle, question)
}

// FirstTurnText -- приглашение первому ходящему.
func FirstTurnText(u model.User) string {
	return u.FullName() + " " + textNextTurn
}

// AboutText -- описание бота для кнопки "Инфо".
func AboutText() string { return textAbout }

// WantStartText -- ответ на нераспознанный ввод вне игры.
func WantStartText() string { return textWantStart }
