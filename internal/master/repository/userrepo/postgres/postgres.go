package postgres

import (
	"context"
	"errors"
	"fmt"

	"masterserver/internal/master/domain/models"
	"masterserver/internal/master/repository/userrepo"
	"masterserver/internal/pkg/config"
	"masterserver/internal/pkg/pgtools"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersPostgresRepo struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, cfg config.PostgresDB) (UsersPostgresRepo, error) {
	db, err := pgtools.Connect(ctx, cfg.URL)
	if err != nil {
		return UsersPostgresRepo{}, fmt.Errorf("connect to db error: %w", err)
	}

	if err := pgtools.ApplyMigration(cfg); err != nil {
		return UsersPostgresRepo{}, fmt.Errorf("apply migration error: %w", err)
	}

	return UsersPostgresRepo{
		db: db,
	}, nil
}

func (ur UsersPostgresRepo) GetUsers(ctx context.Context, f userrepo.Filter) ([]models.User, error) {
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "get users")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	q := psql.Select("id", "user_uuid", "username", "email", "user_role", "password_hash").
		From("users").
		OrderBy("id")

	if f.UUID != nil {
		q = q.Where(squirrel.Eq{"user_uuid": *f.UUID})
	}

	if f.Email != "" {
		q = q.Where(squirrel.Eq{"email": f.Email})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)

	for rows.Next() {
		var u models.User

		if err := rows.Scan(&u.ID, &u.UUID, &u.Name, &u.Email, &u.Role, &u.PasswordHash); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

func (ur UsersPostgresRepo) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create user")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Insert("users").
		Columns("user_uuid", "username", "email", "user_role", "password_hash").
		Values(u.UUID, u.Name, u.Email, u.Role, u.PasswordHash).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&u.ID); err != nil {
		target := new(pgconn.PgError)
		if errors.As(err, &target) {
			// другие коды будут добавлены по необходимости.
			switch target.Code { //nolint:gocritic
			case "23505":
				return models.User{}, userrepo.ErrAlreadyExists
			}
		}

		return models.User{}, fmt.Errorf("exec error: %w", err)
	}

	return u, nil
}

func (ur UsersPostgresRepo) UpdateUser(ctx context.Context, u models.User) error {
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update user")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Update("users").
		Set("username", u.Name).
		Set("email", u.Email).
		Set("user_role", u.Role).
		Set("password_hash", u.PasswordHash).
		Where(squirrel.Eq{"user_uuid": u.UUID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		target := new(pgconn.PgError)
		if errors.As(err, &target) {
			switch target.Code { //nolint:gocritic
			case "23505":
				return userrepo.ErrAlreadyExists
			}
		}

		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return userrepo.ErrNotFound
	}

	return nil
}

func (ur UsersPostgresRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "delete user")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Delete("users").
		Where(squirrel.Eq{"user_uuid": id}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return userrepo.ErrNotFound
	}

	return nil
}

func (ur UsersPostgresRepo) Shutdown(_ context.Context) error {
	ur.db.Close()

	return nil
}
