package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"masterserver/internal/master/domain/models"
	"masterserver/internal/master/repository/userrepo"
	"masterserver/internal/master/services/authservice"
	"masterserver/internal/master/services/userservice"
	"masterserver/internal/pkg/config"
	"masterserver/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Server struct {
	serv        *http.Server
	userService UserService
	authService AuthService
}

type UserService interface {
	GetUsers(context.Context, userrepo.Filter) ([]models.User, error)
	AddUser(context.Context, userservice.CreateUserRequest) (models.User, error)
	UpdateUser(context.Context, uuid.UUID, userservice.UpdateUserRequest) (models.User, error)
	DeleteUser(context.Context, uuid.UUID) error
	Shutdown(context.Context) error
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (models.User, error)
}

func New(cfg config.Server, us UserService, authService AuthService, lg logger.Logger) *Server {
	var s Server

	s.userService = us
	s.authService = authService

	r := chi.NewRouter()
	r.Use(loggingMiddleware(lg))

	r.Get("/", s.Index)

	r.Route("/api/user", func(r chi.Router) {
		r.Get("/", s.GetUsers)
		r.Post("/", s.PostUser)
		r.Put("/{userID}", s.PutUser)
		r.Delete("/{userID}", s.DeleteUser)
		r.Post("/login", s.Login)
		r.With(s.authMiddleware).Get("/protected-route", s.ProtectedRoute)
	})

	serv := &http.Server{ //nolint:exhaustruct
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	s.serv = serv

	return &s
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error)

	go func() {
		if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			close(errCh)
		}
	}()

	select {
	case <-ctx.Done():
		ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
		defer cancel()

		if err := s.Shutdown(ctxS); err != nil { //nolint:contextcheck
			return fmt.Errorf("context error: %w server error %w", ctxS.Err(), err)
		}

		if !errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("context cancelled error: %w", ctx.Err())
		}

		return nil
	case err := <-errCh:
		return fmt.Errorf("listen and serve error: %w", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctxS, cancel := context.WithTimeout(ctx, s.serv.IdleTimeout)
	defer cancel()

	if err := s.serv.Shutdown(ctxS); err != nil {
		return fmt.Errorf("shutdown server error: %w", err)
	}

	return nil
}

// Index is the root route.
// (GET /).
func (s *Server) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	enc := json.NewEncoder(w)

	if err := enc.Encode(MessageResponse{Message: "Master Server API"}); err != nil {
		handleError(w, fmt.Errorf("encode error: %w", err), http.StatusInternalServerError)

		return
	}
}

// Получение списка всех пользователей
// (GET /api/user/).
func (s *Server) GetUsers(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	users, err := s.userService.GetUsers(r.Context(), userrepo.Filter{}) //nolint:exhaustruct
	if err != nil {
		handleError(w, fmt.Errorf("get users error: %w", err), http.StatusInternalServerError)

		return
	}

	enc := json.NewEncoder(w)

	if err := enc.Encode(users); err != nil {
		handleError(w, fmt.Errorf("encode error: %w", err), http.StatusInternalServerError)

		return
	}
}

// Создание нового пользователя
// (POST /api/user/).
func (s *Server) PostUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	var req userservice.CreateUserRequest

	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(&req); err != nil {
		handleError(w, fmt.Errorf("decode error: %w", err), http.StatusBadRequest)

		return
	}

	user, err := s.userService.AddUser(r.Context(), req)
	if err != nil {
		if errors.Is(err, userrepo.ErrAlreadyExists) {
			handleError(w, fmt.Errorf("create user error: %w", err), http.StatusBadRequest)

			return
		}

		handleError(w, fmt.Errorf("create user error: %w", err), http.StatusInternalServerError)

		return
	}

	enc := json.NewEncoder(w)

	if err := enc.Encode(user); err != nil {
		handleError(w, fmt.Errorf("encode error: %w", err), http.StatusInternalServerError)

		return
	}
}

// Частичное обновление пользователя по UUID
// (PUT /api/user/{userID}).
func (s *Server) PutUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		handleError(w, fmt.Errorf("parse user id error: %w", err), http.StatusBadRequest)

		return
	}

	var req userservice.UpdateUserRequest

	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(&req); err != nil {
		handleError(w, fmt.Errorf("decode error: %w", err), http.StatusBadRequest)

		return
	}

	user, err := s.userService.UpdateUser(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			handleError(w, fmt.Errorf("user not found"), http.StatusNotFound) //nolint:perfsprint

			return
		}

		handleError(w, fmt.Errorf("failed to update user: %w", err), http.StatusBadRequest)

		return
	}

	enc := json.NewEncoder(w)

	if err := enc.Encode(user); err != nil {
		handleError(w, fmt.Errorf("encode error: %w", err), http.StatusInternalServerError)

		return
	}
}

// Удаление пользователя по UUID
// (DELETE /api/user/{userID}).
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		handleError(w, fmt.Errorf("parse user id error: %w", err), http.StatusBadRequest)

		return
	}

	if err := s.userService.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			handleError(w, fmt.Errorf("user not found"), http.StatusNotFound) //nolint:perfsprint

			return
		}

		handleError(w, fmt.Errorf("failed to delete user: %w", err), http.StatusBadRequest)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Аутентификация пользователя, выдача токена доступа
// (POST /api/user/login).
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	if err := r.ParseForm(); err != nil {
		handleError(w, fmt.Errorf("parse form error: %w", err), http.StatusBadRequest)

		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	token, err := s.authService.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, authservice.ErrInvalidCredentials) {
			handleUnauthorized(w, fmt.Errorf("invalid credentials")) //nolint:perfsprint

			return
		}

		handleError(w, fmt.Errorf("login error: %w", err), http.StatusInternalServerError)

		return
	}

	enc := json.NewEncoder(w)

	if err := enc.Encode(TokenResponse{AccessToken: token, TokenType: "bearer"}); err != nil {
		handleError(w, fmt.Errorf("encode error: %w", err), http.StatusInternalServerError)

		return
	}
}

// Пример защищённого маршрута
// (GET /api/user/protected-route).
func (s *Server) ProtectedRoute(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	if _, ok := currentUserFromContext(r.Context()); !ok {
		handleUnauthorized(w, fmt.Errorf("could not validate credentials")) //nolint:perfsprint

		return
	}

	enc := json.NewEncoder(w)

	if err := enc.Encode(MessageResponse{Message: "This is a protected route"}); err != nil {
		handleError(w, fmt.Errorf("encode error: %w", err), http.StatusInternalServerError)

		return
	}
}

func handleError(w http.ResponseWriter, err error, code int) {
	w.WriteHeader(code)

	e := Error{err.Error()}

	w.Write(e.ToJSON()) //nolint:errcheck
}
