package db

import "github.com/jackc/pgx/v5/pgxpool"

// Store объединяет репозитории за одним хэндлом: движку и админке
// нужна одна зависимость, а не четыре.
type Store struct {
	*UserRepository
	*QuestionRepository
	*GameRepository
	*AdminRepository
}

// NewStore создаёт Store поверх общего пула.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		UserRepository:     NewUserRepository(pool),
		QuestionRepository: NewQuestionRepository(pool),
		GameRepository:     NewGameRepository(pool),
		AdminRepository:    NewAdminRepository(pool),
	}
}
