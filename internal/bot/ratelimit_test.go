package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserLimiterBurst(t *testing.T) {
	l := NewUserLimiter(3, 3)

	lim := l.Get(1)
	for i := range 3 {
		assert.True(t, lim.Allow(), "burst token %d", i)
	}
	assert.False(t, lim.Allow(), "ведро пусто")
}

func TestUserLimiterPerUserBuckets(t *testing.T) {
	l := NewUserLimiter(3, 1)

	assert.True(t, l.Get(1).Allow())
	assert.False(t, l.Get(1).Allow())
	assert.True(t, l.Get(2).Allow(), "у второго пользователя своё ведро")
}

func TestUserLimiterReusesLimiter(t *testing.T) {
	l := NewUserLimiter(3, 3)
	assert.Same(t, l.Get(7), l.Get(7))
}
