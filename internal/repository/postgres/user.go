package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/repository"
)

// UserRepo is the usuarios table.
type UserRepo struct {
	pool *pgxpool.Pool
}

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, nome, email, id_registro, pontuacao_total, nivel, created_at, updated_at`

func scanUser(row pgx.Row, extra ...any) (*model.User, error) {
	var u model.User
	dest := append([]any{
		&u.ID, &u.Name, &u.Email, &u.ExternalID, &u.PointsTotal, &u.Level, &u.CreatedAt, &u.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	ts := now()
	user.CreatedAt = ts
	user.UpdatedAt = ts
	if user.Level == 0 {
		user.Level = model.DefaultLevel
	}

	const query = `INSERT INTO usuarios (nome, email, id_registro, senha_hash, pontuacao_total, nivel, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.ExternalID,
		user.PasswordHash,
		user.PointsTotal,
		user.Level,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("postgres: inserting user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id=$1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var hash string
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+`, senha_hash FROM usuarios WHERE email=$1`, email)
	u, err := scanUser(row, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("Usuário não encontrado.")
		}
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	u.PasswordHash = hash
	return u, nil
}

func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id_registro=$1`, externalID)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("Usuário não encontrado.")
		}
		return nil, fmt.Errorf("postgres: getting user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM usuarios ORDER BY nome ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, id int64, upd repository.UserUpdate) (*model.User, error) {
	found, err := update(ctx, r.pool, "usuarios", id, upd.Assignments(), true)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres: updating user %d: %w", id, err)
	}
	if !found {
		return nil, apperror.NotFound("Usuário não encontrado.")
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM usuarios WHERE id=$1`, id)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("postgres: deleting user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Usuário não encontrado.")
	}
	return nil
}
