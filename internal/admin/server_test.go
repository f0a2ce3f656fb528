package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/udisondev/polebot/internal/db"
	"github.com/udisondev/polebot/internal/model"
)

type fakeStore struct {
	admin     *model.Admin
	adminErr  error
	created   *model.Question
	createErr error
	users     []model.User
}

func (f *fakeStore) AdminByEmail(_ context.Context, _ string) (*model.Admin, error) {
	return f.admin, f.adminErr
}

func (f *fakeStore) CreateQuestion(_ context.Context, text, answer string) (*model.Question, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.created != nil {
		return f.created, nil
	}
	return &model.Question{ID: 1, Text: text, Answer: answer}, nil
}

func (f *fakeStore) ListAllUsersByPoints(_ context.Context) ([]model.User, error) {
	return f.users, nil
}

func seededStore(t *testing.T, password string) *fakeStore {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &fakeStore{admin: &model.Admin{ID: 1, Email: "admin@example.com", PasswordHash: string(hash)}}
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	store := seededStore(t, "secret")
	issuer := NewTokenIssuer("session-key")
	srv := NewServer(":0", store, issuer)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/admin.login", "",
		map[string]string{"email": "admin@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	email, err := issuer.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", email)
}

func TestLoginWrongPassword(t *testing.T) {
	srv := NewServer(":0", seededStore(t, "secret"), NewTokenIssuer("session-key"))

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/admin.login", "",
		map[string]string{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	srv := NewServer(":0", &fakeStore{}, NewTokenIssuer("session-key"))

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/admin.login", "",
		map[string]string{"email": "ghost@example.com", "password": "secret"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginMissingFields(t *testing.T) {
	srv := NewServer(":0", seededStore(t, "secret"), NewTokenIssuer("session-key"))

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/admin.login", "",
		map[string]string{"email": "admin@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCurrent(t *testing.T) {
	store := seededStore(t, "secret")
	issuer := NewTokenIssuer("session-key")
	srv := NewServer(":0", store, issuer)

	token, err := issuer.Issue("admin@example.com")
	require.NoError(t, err)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/admin.current", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.ID)
	assert.Equal(t, "admin@example.com", resp.Email)
}

func TestCurrentRequiresToken(t *testing.T) {
	srv := NewServer(":0", seededStore(t, "secret"), NewTokenIssuer("session-key"))

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/admin.current", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentRejectsForeignToken(t *testing.T) {
	srv := NewServer(":0", seededStore(t, "secret"), NewTokenIssuer("session-key"))

	foreign, err := NewTokenIssuer("other-key").Issue("admin@example.com")
	require.NoError(t, err)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/admin.current", foreign, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddQuestion(t *testing.T) {
	store := seededStore(t, "secret")
	issuer := NewTokenIssuer("session-key")
	srv := NewServer(":0", store, issuer)

	token, err := issuer.Issue("admin@example.com")
	require.NoError(t, err)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/add_question", token,
		map[string]string{"question_text": "Столица России", "answer_text": "Москва"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID           int64  `json:"id"`
		QuestionText string `json:"question_text"`
		AnswerText   string `json:"answer_text"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.ID)
	assert.Equal(t, "Столица России", resp.QuestionText)
	assert.Equal(t, "Москва", resp.AnswerText)
}

func TestAddQuestionDuplicate(t *testing.T) {
	store := seededStore(t, "secret")
	store.createErr = db.ErrDuplicateQuestion
	issuer := NewTokenIssuer("session-key")
	srv := NewServer(":0", store, issuer)

	token, err := issuer.Issue("admin@example.com")
	require.NoError(t, err)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/add_question", token,
		map[string]string{"question_text": "Столица России", "answer_text": "Москва"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLeaderboard(t *testing.T) {
	store := seededStore(t, "secret")
	store.users = []model.User{
		{VkID: 20, Name: "Мария", LastName: "Иванова", TotalPoints: 42},
		{VkID: 10, Name: "Иван", LastName: "Петров", TotalPoints: 17},
	}
	issuer := NewTokenIssuer("session-key")
	srv := NewServer(":0", store, issuer)

	token, err := issuer.Issue("admin@example.com")
	require.NoError(t, err)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/leaderboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []leaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.EqualValues(t, 20, resp[0].VkID)
	assert.EqualValues(t, 42, resp[0].TotalPoints)
	assert.EqualValues(t, 10, resp[1].VkID)
}

func TestMetricsExposed(t *testing.T) {
	srv := NewServer(":0", seededStore(t, "secret"), NewTokenIssuer("session-key"))

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
