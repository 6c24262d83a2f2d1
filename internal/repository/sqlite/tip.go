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

// TipRepo is the dicas table.
type TipRepo struct {
	conn *sql.DB
}

var _ repository.TipRepository = (*TipRepo)(nil)

const tipColumns = `id, titulo, conteudo, categoria_dica, created_at, updated_at`

func scanTip(s scanner) (*model.Tip, error) {
	var t model.Tip
	if err := s.Scan(&t.ID, &t.Title, &t.Body, &t.Category, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TipRepo) Create(ctx context.Context, tip *model.Tip) error {
	ts := now()
	tip.CreatedAt = ts
	tip.UpdatedAt = ts

	result, err := r.conn.ExecContext(ctx,
		`INSERT INTO dicas (titulo, conteudo, categoria_dica, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		tip.Title, tip.Body, tip.Category, tip.CreatedAt, tip.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting tip: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading tip id: %w", err)
	}
	tip.ID = id
	return nil
}

func (r *TipRepo) GetByID(ctx context.Context, id int64) (*model.Tip, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+tipColumns+` FROM dicas WHERE id = ?`, id)
	t, err := scanTip(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Dica não encontrada.")
		}
		return nil, fmt.Errorf("sqlite: getting tip %d: %w", id, err)
	}
	return t, nil
}

func (r *TipRepo) List(ctx context.Context) ([]model.Tip, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT `+tipColumns+` FROM dicas ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tips: %w", err)
	}
	defer rows.Close()

	tips := []model.Tip{}
	for rows.Next() {
		t, err := scanTip(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning tip row: %w", err)
		}
		tips = append(tips, *t)
	}
	return tips, rows.Err()
}

func (r *TipRepo) Update(ctx context.Context, id int64, upd repository.TipUpdate) (*model.Tip, error) {
	found, err := update(ctx, r.conn, "dicas", id, upd.Assignments(), true)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating tip %d: %w", id, err)
	}
	if !found {
		return nil, apperror.NotFound("Dica não encontrada.")
	}
	return r.GetByID(ctx, id)
}

func (r *TipRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM dicas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting tip %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("Dica não encontrada.")
	}
	return nil
}
