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

// ActionRepo is the acoes_sustentaveis table.
type ActionRepo struct {
	pool *pgxpool.Pool
}

var _ repository.ActionRepository = (*ActionRepo)(nil)

const actionColumns = `id, nome, descricao, pontos, categoria, created_at, updated_at`

func scanAction(row pgx.Row) (*model.SustainableAction, error) {
	var a model.SustainableAction
	if err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Points, &a.Category, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ActionRepo) Create(ctx context.Context, action *model.SustainableAction) error {
	ts := now()
	action.CreatedAt = ts
	action.UpdatedAt = ts

	const query = `INSERT INTO acoes_sustentaveis (nome, descricao, pontos, categoria, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		action.Name, action.Description, action.Points, action.Category, action.CreatedAt, action.UpdatedAt,
	).Scan(&action.ID)
	if err != nil {
		return fmt.Errorf("postgres: inserting action: %w", err)
	}
	return nil
}

func (r *ActionRepo) GetByID(ctx context.Context, id int64) (*model.SustainableAction, error) {
	a, err := scanAction(r.pool.QueryRow(ctx, `SELECT `+actionColumns+` FROM acoes_sustentaveis WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("Ação Sustentável não encontrada.")
		}
		return nil, fmt.Errorf("postgres: getting action %d: %w", id, err)
	}
	return a, nil
}

func (r *ActionRepo) List(ctx context.Context) ([]model.SustainableAction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+actionColumns+` FROM acoes_sustentaveis ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing actions: %w", err)
	}
	defer rows.Close()

	actions := []model.SustainableAction{}
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning action row: %w", err)
		}
		actions = append(actions, *a)
	}
	return actions, rows.Err()
}

func (r *ActionRepo) Update(ctx context.Context, id int64, upd repository.ActionUpdate) (*model.SustainableAction, error) {
	found, err := update(ctx, r.pool, "acoes_sustentaveis", id, upd.Assignments(), true)
	if err != nil {
		return nil, fmt.Errorf("postgres: updating action %d: %w", id, err)
	}
	if !found {
		return nil, apperror.NotFound("Ação Sustentável não encontrada.")
	}
	return r.GetByID(ctx, id)
}

func (r *ActionRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM acoes_sustentaveis WHERE id=$1`, id)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("postgres: deleting action %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Ação Sustentável não encontrada.")
	}
	return nil
}

func (r *ActionRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM acoes_sustentaveis`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: counting actions: %w", err)
	}
	return n, nil
}

// TipRepo is the dicas table.
type TipRepo struct {
	pool *pgxpool.Pool
}

var _ repository.TipRepository = (*TipRepo)(nil)

const tipColumns = `id, titulo, conteudo, categoria_dica, created_at, updated_at`

func scanTip(row pgx.Row) (*model.Tip, error) {
	var t model.Tip
	if err := row.Scan(&t.ID, &t.Title, &t.Body, &t.Category, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TipRepo) Create(ctx context.Context, tip *model.Tip) error {
	ts := now()
	tip.CreatedAt = ts
	tip.UpdatedAt = ts

	const query = `INSERT INTO dicas (titulo, conteudo, categoria_dica, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5) RETURNING id`
	if err := r.pool.QueryRow(ctx, query, tip.Title, tip.Body, tip.Category, tip.CreatedAt, tip.UpdatedAt).Scan(&tip.ID); err != nil {
		return fmt.Errorf("postgres: inserting tip: %w", err)
	}
	return nil
}

func (r *TipRepo) GetByID(ctx context.Context, id int64) (*model.Tip, error) {
	t, err := scanTip(r.pool.QueryRow(ctx, `SELECT `+tipColumns+` FROM dicas WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("Dica não encontrada.")
		}
		return nil, fmt.Errorf("postgres: getting tip %d: %w", id, err)
	}
	return t, nil
}

func (r *TipRepo) List(ctx context.Context) ([]model.Tip, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tipColumns+` FROM dicas ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing tips: %w", err)
	}
	defer rows.Close()

	tips := []model.Tip{}
	for rows.Next() {
		t, err := scanTip(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning tip row: %w", err)
		}
		tips = append(tips, *t)
	}
	return tips, rows.Err()
}

func (r *TipRepo) Update(ctx context.Context, id int64, upd repository.TipUpdate) (*model.Tip, error) {
	found, err := update(ctx, r.pool, "dicas", id, upd.Assignments(), true)
	if err != nil {
		return nil, fmt.Errorf("postgres: updating tip %d: %w", id, err)
	}
	if !found {
		return nil, apperror.NotFound("Dica não encontrada.")
	}
	return r.GetByID(ctx, id)
}

func (r *TipRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM dicas WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting tip %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Dica não encontrada.")
	}
	return nil
}
