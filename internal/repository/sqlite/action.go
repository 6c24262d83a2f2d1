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

// ActionRepo is the acoes_sustentaveis table.
type ActionRepo struct {
	conn *sql.DB
}

var _ repository.ActionRepository = (*ActionRepo)(nil)

const actionColumns = `id, nome, descricao, pontos, categoria, created_at, updated_at`

func scanAction(s scanner) (*model.SustainableAction, error) {
	var a model.SustainableAction
	if err := s.Scan(&a.ID, &a.Name, &a.Description, &a.Points, &a.Category, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ActionRepo) Create(ctx context.Context, action *model.SustainableAction) error {
	ts := now()
	action.CreatedAt = ts
	action.UpdatedAt = ts

	result, err := r.conn.ExecContext(ctx,
		`INSERT INTO acoes_sustentaveis (nome, descricao, pontos, categoria, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		action.Name, action.Description, action.Points, action.Category, action.CreatedAt, action.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting action: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading action id: %w", err)
	}
	action.ID = id
	return nil
}

func (r *ActionRepo) GetByID(ctx context.Context, id int64) (*model.SustainableAction, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM acoes_sustentaveis WHERE id = ?`, id)
	a, err := scanAction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Ação Sustentável não encontrada.")
		}
		return nil, fmt.Errorf("sqlite: getting action %d: %w", id, err)
	}
	return a, nil
}

func (r *ActionRepo) List(ctx context.Context) ([]model.SustainableAction, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT `+actionColumns+` FROM acoes_sustentaveis ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing actions: %w", err)
	}
	defer rows.Close()

	actions := []model.SustainableAction{}
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning action row: %w", err)
		}
		actions = append(actions, *a)
	}
	return actions, rows.Err()
}

func (r *ActionRepo) Update(ctx context.Context, id int64, upd repository.ActionUpdate) (*model.SustainableAction, error) {
	found, err := update(ctx, r.conn, "acoes_sustentaveis", id, upd.Assignments(), true)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating action %d: %w", id, err)
	}
	if !found {
		return nil, apperror.NotFound("Ação Sustentável não encontrada.")
	}
	return r.GetByID(ctx, id)
}

// Delete fails with repository.ErrReferenced while activity records still
// point at the action.
func (r *ActionRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM acoes_sustentaveis WHERE id = ?`, id)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: deleting action %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("Ação Sustentável não encontrada.")
	}
	return nil
}

func (r *ActionRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM acoes_sustentaveis`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting actions: %w", err)
	}
	return n, nil
}
