package bot

import (
	"sync"

	"golang.org/x/time/rate"
)

// UserLimiter выдаёт каждому отправителю собственный token bucket.
// Лимитеры живут всё время процесса, активных отправителей немного.
type UserLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[int64]*rate.Limiter
}

// NewUserLimiter создаёт реестр лимитеров: perSecond токенов в секунду
// на пользователя, burst -- ёмкость ведра.
func NewUserLimiter(perSecond float64, burst int) *UserLimiter {
	return &UserLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[int64]*rate.Limiter),
	}
}

// Get возвращает лимитер отправителя, создавая его при первом обращении.
func (l *UserLimiter) Get(fromID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[fromID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[fromID] = lim
	}
	return lim
}
