package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"masterserver/internal/master/domain/models"
	"masterserver/internal/master/repository/userrepo"
	"masterserver/internal/master/services/authservice"
	"masterserver/internal/master/services/userservice"
	"masterserver/internal/pkg/config"
	"masterserver/internal/pkg/jwtauth"
	"masterserver/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo keeps users in memory and mirrors the postgres repository's
// contract, unique email included.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  []models.User
}

func (f *fakeUserRepo) GetUsers(_ context.Context, filter userrepo.Filter) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.User, 0)

	for _, u := range f.users {
		if filter.UUID != nil && u.UUID != *filter.UUID {
			continue
		}

		if filter.Email != "" && u.Email != filter.Email {
			continue
		}

		out = append(out, u)
	}

	return out, nil
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u models.User) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.Email == u.Email {
			return models.User{}, userrepo.ErrAlreadyExists
		}
	}

	f.nextID++
	u.ID = f.nextID
	f.users = append(f.users, u)

	return u, nil
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, u models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, existing := range f.users {
		if existing.UUID == u.UUID {
			u.ID = existing.ID
			f.users[i] = u

			return nil
		}
	}

	return userrepo.ErrNotFound
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, existing := range f.users {
		if existing.UUID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)

			return nil
		}
	}

	return userrepo.ErrNotFound
}

func (f *fakeUserRepo) Shutdown(_ context.Context) error {
	return nil
}

var testAuthCfg = config.Auth{
	Secret:        "test-secret",
	Algorithm:     "HS256",
	ExpireMinutes: 15,
}

func testServer(t *testing.T) http.Handler {
	t.Helper()

	lg, err := logger.New(config.Logger{
		Level:     "error",
		Output:    []string{"stderr"},
		ErrOutput: []string{"stderr"},
	})
	require.NoError(t, err)

	repo := &fakeUserRepo{}
	us := userservice.New(repo, lg)
	as := authservice.New(repo, testAuthCfg)

	s := New(config.Server{Addr: ":0"}, us, as, lg) //nolint:exhaustruct

	return s.serv.Handler
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func createUser(t *testing.T, h http.Handler, name, email, role, password string) models.User {
	t.Helper()

	w := doJSON(t, h, http.MethodPost, "/api/user/", userservice.CreateUserRequest{
		Name:     name,
		Email:    email,
		Role:     role,
		Password: password,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		ID    int64     `json:"id"`
		UUID  uuid.UUID `json:"uuid"`
		Name  string    `json:"name"`
		Email string    `json:"email"`
		Role  string    `json:"role"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	return models.User{ID: created.ID, UUID: created.UUID, Name: created.Name, Email: created.Email, Role: created.Role}
}

func login(t *testing.T, h http.Handler, username, password string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req := httptest.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func TestIndex(t *testing.T) {
	h := testServer(t)

	w := doJSON(t, h, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message": "Master Server API"}`, w.Body.String())
}

func TestCreateAndListUsers(t *testing.T) {
	h := testServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/user/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())

	created := createUser(t, h, "A", "a@x.com", "user", "p")
	require.NotZero(t, created.ID)
	require.NotEqual(t, uuid.Nil, created.UUID)
	require.Equal(t, "A", created.Name)
	require.Equal(t, "a@x.com", created.Email)
	require.Equal(t, "user", created.Role)

	w = doJSON(t, h, http.MethodGet, "/api/user/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var users []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	require.Equal(t, created.UUID, users[0].UUID)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	h := testServer(t)

	createUser(t, h, "A", "a@x.com", "user", "p")

	w := doJSON(t, h, http.MethodPost, "/api/user/", userservice.CreateUserRequest{
		Name:     "B",
		Email:    "a@x.com",
		Role:     "user",
		Password: "q",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUserPartial(t *testing.T) {
	h := testServer(t)

	created := createUser(t, h, "A", "a@x.com", "user", "p")

	w := doJSON(t, h, http.MethodPut, "/api/user/"+created.UUID.String(),
		userservice.UpdateUserRequest{Name: "B"})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Equal(t, "B", updated.Name)
	require.Equal(t, "a@x.com", updated.Email)
	require.Equal(t, "user", updated.Role)

	// пароль не был затронут, вход по-прежнему возможен
	require.Equal(t, http.StatusOK, login(t, h, "a@x.com", "p").Code)
}

func TestUpdateUserNotFound(t *testing.T) {
	h := testServer(t)

	w := doJSON(t, h, http.MethodPut, "/api/user/"+uuid.NewString(),
		userservice.UpdateUserRequest{Name: "B"})

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUser(t *testing.T) {
	h := testServer(t)

	created := createUser(t, h, "A", "a@x.com", "user", "p")

	w := doJSON(t, h, http.MethodDelete, "/api/user/"+created.UUID.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.String())

	w = doJSON(t, h, http.MethodDelete, "/api/user/"+created.UUID.String(), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUserBadID(t *testing.T) {
	h := testServer(t)

	w := doJSON(t, h, http.MethodDelete, "/api/user/not-a-uuid", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginAndProtectedRoute(t *testing.T) {
	h := testServer(t)

	createUser(t, h, "A", "a@x.com", "user", "p")

	w := login(t, h, "a@x.com", "p")
	require.Equal(t, http.StatusOK, w.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "bearer", resp.TokenType)

	req := httptest.NewRequest(http.MethodGet, "/api/user/protected-route", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)

	wp := httptest.NewRecorder()
	h.ServeHTTP(wp, req)

	require.Equal(t, http.StatusOK, wp.Code)
	require.JSONEq(t, `{"message": "This is a protected route"}`, wp.Body.String())
}

func TestLoginWrongPassword(t *testing.T) {
	h := testServer(t)

	createUser(t, h, "A", "a@x.com", "user", "p")

	w := login(t, h, "a@x.com", "wrong")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	require.NotContains(t, w.Body.String(), "access_token")
}

func TestProtectedRouteUnauthorized(t *testing.T) {
	h := testServer(t)

	createUser(t, h, "A", "a@x.com", "user", "p")

	t.Run("no token", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, "/api/user/protected-route", nil)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	})

	t.Run("tampered token", func(t *testing.T) {
		w := login(t, h, "a@x.com", "p")
		require.Equal(t, http.StatusOK, w.Code)

		var resp TokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		req := httptest.NewRequest(http.MethodGet, "/api/user/protected-route", nil)
		req.Header.Set("Authorization", "Bearer "+resp.AccessToken[:len(resp.AccessToken)-2]+"xx")

		wp := httptest.NewRecorder()
		h.ServeHTTP(wp, req)

		require.Equal(t, http.StatusUnauthorized, wp.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := jwtauth.GetToken("a@x.com", -testAuthCfg.TTL(), testAuthCfg.Secret, testAuthCfg.Algorithm)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/user/protected-route", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		wp := httptest.NewRecorder()
		h.ServeHTTP(wp, req)

		require.Equal(t, http.StatusUnauthorized, wp.Code)
	})

	t.Run("user deleted after issue", func(t *testing.T) {
		other := createUser(t, h, "C", "c@x.com", "user", "p")

		w := login(t, h, "c@x.com", "p")
		require.Equal(t, http.StatusOK, w.Code)

		var resp TokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		wd := doJSON(t, h, http.MethodDelete, "/api/user/"+other.UUID.String(), nil)
		require.Equal(t, http.StatusNoContent, wd.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/user/protected-route", nil)
		req.Header.Set("Authorization", "Bearer "+resp.AccessToken)

		wp := httptest.NewRecorder()
		h.ServeHTTP(wp, req)

		require.Equal(t, http.StatusUnauthorized, wp.Code)
	})
}
