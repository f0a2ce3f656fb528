package admin

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// TokenIssuer выпускает и проверяет сессионные JWT админки.
// Подпись -- HS256 на session.key из конфига.
type TokenIssuer struct {
	key []byte
}

// NewTokenIssuer создаёт выпускающего с симметричным ключом.
func NewTokenIssuer(key string) *TokenIssuer {
	return &TokenIssuer{key: []byte(key)}
}

// Issue подписывает токен на email сроком в сутки.
func (t *TokenIssuer) Issue(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify возвращает email из валидного токена. Просроченный или
// подписанный чужим ключом токен -- ошибка.
func (t *TokenIssuer) Verify(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}
	return claims.Subject, nil
}

// HashPassword хэширует пароль для хранения в admins.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword сверяет пароль с bcrypt-хэшем.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
