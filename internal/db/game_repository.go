package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/udisondev/polebot/internal/model"
)

// GameRepository управляет партиями и их счетами в БД.
type GameRepository struct {
	db *pgxpool.Pool
}

// NewGameRepository создаёт новый GameRepository.
func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// InsertGame создаёт партию и проставляет в g.ID и g.CreatedAt значения
// из БД.
func (r *GameRepository) InsertGame(ctx context.Context, g *model.Game) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO games (chat_id, question_id, state, last_action, turn_user_id, letters_revealed)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		g.ChatID, g.Question.ID, g.State.String(), g.LastAction, g.TurnUserID, g.LettersRevealed,
	).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating game for chat %d: %w", g.ChatID, err)
	}
	return nil
}

// InsertScores записывает счёт каждого участника партии.
func (r *GameRepository) InsertScores(ctx context.Context, scores []model.GameScore) error {
	if len(scores) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, s := range scores {
		b.Queue(
			`INSERT INTO game_user (game_id, user_vk_id, points, user_is_active)
			 VALUES ($1, $2, $3, $4)`,
			s.GameID, s.UserVkID, s.Points, s.UserIsActive,
		)
	}

	br := r.db.SendBatch(ctx, b)
	defer br.Close()

	for range scores {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("inserting game scores: %w", err)
		}
	}
	return nil
}

// LatestGame загружает последнюю партию чата вместе с загадкой,
// игроками и счетами. Возвращает nil если партий ещё не было.
// Players и Scores упорядочены по user_vk_id -- курсор хода опирается
// на стабильный порядок между чтениями.
func (r *GameRepository) LatestGame(ctx context.Context, chatID int64) (*model.Game, error) {
	g := model.Game{ChatID: chatID}
	var state string

	err := r.db.QueryRow(ctx,
		`SELECT g.id, g.created_at, g.state, g.last_action, g.turn_user_id, g.letters_revealed,
		        q.id, q.question_text, q.answer_text
		 FROM games g
		 JOIN questions q ON q.id = g.question_id
		 WHERE g.chat_id = $1
		 ORDER BY g.created_at DESC, g.id DESC
		 LIMIT 1`,
		chatID,
	).Scan(
		&g.ID, &g.CreatedAt, &state, &g.LastAction, &g.TurnUserID, &g.LettersRevealed,
		&g.Question.ID, &g.Question.Text, &g.Question.Answer,
	)
	if err == pgx.ErrNoRows {
		return nil, nil // NOT ERROR, just not found
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest game for chat %d: %w", chatID, err)
	}
	g.State = model.ParseGameState(state)

	rows, err := r.db.Query(ctx,
		`SELECT gu.user_vk_id, gu.points, gu.user_is_active,
		        u.name, u.last_name, u.total_points
		 FROM game_user gu
		 JOIN users u ON u.vk_id = gu.user_vk_id
		 WHERE gu.game_id = $1
		 ORDER BY gu.user_vk_id`,
		g.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying scores for game %d: %w", g.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		score := model.GameScore{GameID: g.ID}
		user := model.User{}
		if err := rows.Scan(
			&score.UserVkID, &score.Points, &score.UserIsActive,
			&user.Name, &user.LastName, &user.TotalPoints,
		); err != nil {
			return nil, fmt.Errorf("scanning score row: %w", err)
		}
		user.VkID = score.UserVkID
		g.Scores = append(g.Scores, score)
		g.Players = append(g.Players, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating score rows: %w", err)
	}

	return &g, nil
}

// UpdateGameState переводит машину состояний и пишет аудит последнего
// ввода.
func (r *GameRepository) UpdateGameState(ctx context.Context, gameID int64, state model.GameState, lastAction string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE games SET state = $2, last_action = $3 WHERE id = $1`,
		gameID, state.String(), lastAction,
	)
	if err != nil {
		return fmt.Errorf("updating state for game %d: %w", gameID, err)
	}
	return nil
}

// UpdateGameTurn передаёт ход другому игроку.
func (r *GameRepository) UpdateGameTurn(ctx context.Context, gameID, turnUserID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE games SET turn_user_id = $2 WHERE id = $1`,
		gameID, turnUserID,
	)
	if err != nil {
		return fmt.Errorf("updating turn for game %d: %w", gameID, err)
	}
	return nil
}

// UpdateGameLetters сохраняет накопленные открытые буквы.
func (r *GameRepository) UpdateGameLetters(ctx context.Context, gameID int64, letters, lastAction string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE games SET letters_revealed = $2, last_action = $3 WHERE id = $1`,
		gameID, letters, lastAction,
	)
	if err != nil {
		return fmt.Errorf("updating letters for game %d: %w", gameID, err)
	}
	return nil
}

// AddScorePoints начисляет очки игроку одной командой, без
// read-modify-write.
func (r *GameRepository) AddScorePoints(ctx context.Context, gameID, userVkID, delta int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE game_user SET points = points + $3
		 WHERE game_id = $1 AND user_vk_id = $2`,
		gameID, userVkID, delta,
	)
	if err != nil {
		return fmt.Errorf("adding %d points for user %d in game %d: %w", delta, userVkID, gameID, err)
	}
	return nil
}

// DeactivatePlayer выводит игрока из партии после неверного слова.
func (r *GameRepository) DeactivatePlayer(ctx context.Context, gameID, userVkID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE game_user SET user_is_active = FALSE
		 WHERE game_id = $1 AND user_vk_id = $2`,
		gameID, userVkID,
	)
	if err != nil {
		return fmt.Errorf("deactivating user %d in game %d: %w", userVkID, gameID, err)
	}
	return nil
}
