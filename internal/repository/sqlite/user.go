package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/repository"
)

// UserRepo is the usuarios table.
type UserRepo struct {
	conn *sql.DB
}

// compile-time check that *UserRepo implements repository.UserRepository
var _ repository.UserRepository = (*UserRepo)(nil)

// userColumns never includes senha_hash; GetByEmail appends it explicitly.
const userColumns = `id, nome, email, id_registro, pontuacao_total, nivel, created_at, updated_at`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner, extra ...any) (*model.User, error) {
	var u model.User
	dest := append([]any{
		&u.ID, &u.Name, &u.Email, &u.ExternalID, &u.PointsTotal, &u.Level, &u.CreatedAt, &u.UpdatedAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts the user and fills in ID and timestamps. Points and level
// take their defaults when zero.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	ts := now()
	user.CreatedAt = ts
	user.UpdatedAt = ts
	if user.Level == 0 {
		user.Level = model.DefaultLevel
	}

	result, err := r.conn.ExecContext(ctx,
		`INSERT INTO usuarios (nome, email, id_registro, senha_hash, pontuacao_total, nivel, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Name,
		user.Email,
		user.ExternalID,
		user.PasswordHash,
		user.PointsTotal,
		user.Level,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user id: %w", err)
	}
	user.ID = id
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Usuário não encontrado.")
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetByEmail is the only read that loads the password digest.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var hash string
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+`, senha_hash FROM usuarios WHERE email = ?`, email)
	u, err := scanUser(row, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Usuário não encontrado.")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	u.PasswordHash = hash
	return u, nil
}

func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id_registro = ?`, externalID)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Usuário não encontrado.")
		}
		return nil, fmt.Errorf("sqlite: getting user by registration id: %w", err)
	}
	return u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT `+userColumns+` FROM usuarios ORDER BY nome ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}
	return users, nil
}

func (r *UserRepo) Update(ctx context.Context, id int64, upd repository.UserUpdate) (*model.User, error) {
	found, err := update(ctx, r.conn, "usuarios", id, upd.Assignments(), true)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: updating user %d: %w", id, err)
	}
	if !found {
		return nil, apperror.NotFound("Usuário não encontrado.")
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM usuarios WHERE id = ?`, id)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("Usuário não encontrado.")
	}
	return nil
}
