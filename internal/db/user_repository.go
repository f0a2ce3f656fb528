package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/udisondev/polebot/internal/model"
)

// UserRepository управляет участниками чатов в БД.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository создаёт новый UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertUsers регистрирует участников чата. Существующие строки не
// трогаем -- total_points накоплены прошлыми играми.
func (r *UserRepository) UpsertUsers(ctx context.Context, users []model.User) error {
	if len(users) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, u := range users {
		b.Queue(
			`INSERT INTO users (vk_id, name, last_name)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (vk_id) DO NOTHING`,
			u.VkID, u.Name, u.LastName,
		)
	}

	br := r.db.SendBatch(ctx, b)
	defer br.Close()

	for range users {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upserting users: %w", err)
		}
	}
	return nil
}

// BulkAddTotalPoints прибавляет очки партии к total_points одним
// UPDATE по unnest-таблице.
func (r *UserRepository) BulkAddTotalPoints(ctx context.Context, points map[int64]int64) error {
	if len(points) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(points))
	deltas := make([]int64, 0, len(points))
	for vkID, delta := range points {
		ids = append(ids, vkID)
		deltas = append(deltas, delta)
	}

	_, err := r.db.Exec(ctx,
		`UPDATE users u
		 SET total_points = u.total_points + x.delta
		 FROM unnest($1::bigint[], $2::bigint[]) AS x(vk_id, delta)
		 WHERE u.vk_id = x.vk_id`,
		ids, deltas,
	)
	if err != nil {
		return fmt.Errorf("bulk adding total points: %w", err)
	}
	return nil
}

// ListUsersByVkIds возвращает указанных пользователей по убыванию
// total_points. Неизвестные id молча пропускаются.
func (r *UserRepository) ListUsersByVkIds(ctx context.Context, ids []int64) ([]model.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT vk_id, name, last_name, total_points
		 FROM users
		 WHERE vk_id = ANY($1)
		 ORDER BY total_points DESC, vk_id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("querying users by vk ids: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListAllUsersByPoints возвращает всех пользователей по убыванию
// total_points (глобальная таблица лидеров).
func (r *UserRepository) ListAllUsersByPoints(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT vk_id, name, last_name, total_points
		 FROM users
		 ORDER BY total_points DESC, vk_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying all users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]model.User, error) {
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.VkID, &u.Name, &u.LastName, &u.TotalPoints); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, nil
}
