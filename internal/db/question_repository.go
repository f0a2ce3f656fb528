package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/udisondev/polebot/internal/model"
)

// ErrDuplicateQuestion возвращается при попытке добавить загадку с уже
// существующим текстом.
var ErrDuplicateQuestion = errors.New("question already exists")

// QuestionRepository управляет загадками в БД.
type QuestionRepository struct {
	db *pgxpool.Pool
}

// NewQuestionRepository создаёт новый QuestionRepository.
func NewQuestionRepository(db *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// PickRandomQuestionExcluding выбирает случайную загадку, текст которой
// не входит в used. Возвращает nil если неиспользованных не осталось.
func (r *QuestionRepository) PickRandomQuestionExcluding(ctx context.Context, used []string) (*model.Question, error) {
	if used == nil {
		used = []string{}
	}

	var q model.Question
	err := r.db.QueryRow(ctx,
		`SELECT id, question_text, answer_text
		 FROM questions
		 WHERE NOT (question_text = ANY($1))
		 ORDER BY random()
		 LIMIT 1`,
		used,
	).Scan(&q.ID, &q.Text, &q.Answer)
	if err == pgx.ErrNoRows {
		return nil, nil // NOT ERROR, just not found
	}
	if err != nil {
		return nil, fmt.Errorf("picking random question: %w", err)
	}
	return &q, nil
}

// CreateQuestion добавляет новую загадку.
func (r *QuestionRepository) CreateQuestion(ctx context.Context, text, answer string) (*model.Question, error) {
	q := model.Question{Text: text, Answer: answer}
	err := r.db.QueryRow(ctx,
		`INSERT INTO questions (question_text, answer_text)
		 VALUES ($1, $2)
		 RETURNING id`,
		text, answer,
	).Scan(&q.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateQuestion
		}
		return nil, fmt.Errorf("creating question: %w", err)
	}
	return &q, nil
}
