package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/udisondev/polebot/internal/db"
	"github.com/udisondev/polebot/internal/model"
)

// Store -- срез хранилища, нужный админке.
type Store interface {
	AdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	CreateQuestion(ctx context.Context, text, answer string) (*model.Question, error)
	ListAllUsersByPoints(ctx context.Context) ([]model.User, error)
}

// Server -- административный HTTP API плюс /metrics.
type Server struct {
	store  Store
	tokens *TokenIssuer
	http   *http.Server
}

// NewServer собирает gin-приложение, слушающее addr.
func NewServer(addr string, store Store, tokens *TokenIssuer) *Server {
	s := &Server{store: store, tokens: tokens}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/admin.login", s.login)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := r.Group("/", s.requireAuth)
	authed.GET("/admin.current", s.current)
	authed.POST("/add_question", s.addQuestion)
	authed.GET("/leaderboard", s.leaderboard)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run слушает до Shutdown.
func (s *Server) Run() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin http: %w", err)
	}
	return nil
}

// Shutdown мягко гасит сервер.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler отдаёт корневой http.Handler, в тестах сервер не слушает порт.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	adm, err := s.store.AdminByEmail(c.Request.Context(), req.Email)
	if err != nil {
		slog.Error("admin lookup failed", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if adm == nil || !CheckPassword(adm.PasswordHash, req.Password) {
		c.JSON(http.StatusForbidden, gin.H{"error": "wrong email or password"})
		return
	}

	token, err := s.tokens.Issue(adm.Email)
	if err != nil {
		slog.Error("token issue failed", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// requireAuth пускает дальше только с валидным Bearer-токеном.
func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == "" || raw == header {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	email, err := s.tokens.Verify(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Set("admin_email", email)
	c.Next()
}

func (s *Server) current(c *gin.Context) {
	email := c.GetString("admin_email")
	adm, err := s.store.AdminByEmail(c.Request.Context(), email)
	if err != nil {
		slog.Error("admin lookup failed", "email", email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if adm == nil {
		// токен валиден, но учётка уже удалена
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown admin"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": adm.ID, "email": adm.Email})
}

type addQuestionRequest struct {
	QuestionText string `json:"question_text" binding:"required"`
	AnswerText   string `json:"answer_text" binding:"required"`
}

func (s *Server) addQuestion(c *gin.Context) {
	var req addQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question_text and answer_text are required"})
		return
	}

	q, err := s.store.CreateQuestion(c.Request.Context(), req.QuestionText, req.AnswerText)
	switch {
	case errors.Is(err, db.ErrDuplicateQuestion):
		c.JSON(http.StatusConflict, gin.H{"error": "question already exists"})
		return
	case err != nil:
		slog.Error("question create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            q.ID,
		"question_text": q.Text,
		"answer_text":   q.Answer,
	})
}

type leaderboardEntry struct {
	VkID        int64  `json:"vk_id"`
	Name        string `json:"name"`
	LastName    string `json:"last_name"`
	TotalPoints int64  `json:"total_points"`
}

func (s *Server) leaderboard(c *gin.Context) {
	users, err := s.store.ListAllUsersByPoints(c.Request.Context())
	if err != nil {
		slog.Error("leaderboard query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	entries := make([]leaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, leaderboardEntry{
			VkID:        u.VkID,
			Name:        u.Name,
			LastName:    u.LastName,
			TotalPoints: u.TotalPoints,
		})
	}
	c.JSON(http.StatusOK, entries)
}
