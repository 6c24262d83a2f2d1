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

// ActivityRepo is the registros_atividade table.
type ActivityRepo struct {
	conn *sql.DB
}

var _ repository.ActivityRepository = (*ActivityRepo)(nil)

// JOINED READS:
// Listings embed the action; single reads embed the action and the user.
// Both come back in one query so the single pooled connection is never
// needed twice at once.
const (
	activityColumns = `r.id, r.usuario_id, r.acao_id, r.data_hora, r.observacao`
	activityAction  = `a.id, a.nome, a.descricao, a.pontos, a.categoria, a.created_at, a.updated_at`
	activityUser    = `u.id, u.nome, u.email, u.id_registro, u.pontuacao_total, u.nivel, u.created_at, u.updated_at`
)

func (r *ActivityRepo) Create(ctx context.Context, record *model.ActivityRecord) error {
	if record.OccurredAt.IsZero() {
		record.OccurredAt = now()
	} else {
		record.OccurredAt = record.OccurredAt.UTC()
	}

	result, err := r.conn.ExecContext(ctx,
		`INSERT INTO registros_atividade (usuario_id, acao_id, data_hora, observacao) VALUES (?, ?, ?, ?)`,
		record.UserID, record.ActionID, record.OccurredAt, record.Note,
	)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: inserting activity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading activity id: %w", err)
	}
	record.ID = id
	return nil
}

func (r *ActivityRepo) GetByID(ctx context.Context, id int64) (*model.ActivityRecord, error) {
	query := `SELECT ` + activityColumns + `, ` + activityAction + `, ` + activityUser + `
		FROM registros_atividade r
		JOIN acoes_sustentaveis a ON a.id = r.acao_id
		JOIN usuarios u ON u.id = r.usuario_id
		WHERE r.id = ?`

	var (
		rec    model.ActivityRecord
		action model.SustainableAction
		user   model.User
	)
	err := r.conn.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.UserID, &rec.ActionID, &rec.OccurredAt, &rec.Note,
		&action.ID, &action.Name, &action.Description, &action.Points, &action.Category, &action.CreatedAt, &action.UpdatedAt,
		&user.ID, &user.Name, &user.Email, &user.ExternalID, &user.PointsTotal, &user.Level, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Atividade não encontrada.")
		}
		return nil, fmt.Errorf("sqlite: getting activity %d: %w", id, err)
	}
	rec.Action = &action
	rec.User = &user
	return &rec, nil
}

func (r *ActivityRepo) ListByUser(ctx context.Context, userID int64) ([]model.ActivityRecord, error) {
	query := `SELECT ` + activityColumns + `, ` + activityAction + `
		FROM registros_atividade r
		JOIN acoes_sustentaveis a ON a.id = r.acao_id
		WHERE r.usuario_id = ?
		ORDER BY r.data_hora DESC, r.id DESC`

	rows, err := r.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing activities of user %d: %w", userID, err)
	}
	defer rows.Close()

	records := []model.ActivityRecord{}
	for rows.Next() {
		var (
			rec    model.ActivityRecord
			action model.SustainableAction
		)
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.ActionID, &rec.OccurredAt, &rec.Note,
			&action.ID, &action.Name, &action.Description, &action.Points, &action.Category, &action.CreatedAt, &action.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning activity row: %w", err)
		}
		rec.Action = &action
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *ActivityRepo) Update(ctx context.Context, id int64, upd repository.ActivityUpdate) (*model.ActivityRecord, error) {
	found, err := update(ctx, r.conn, "registros_atividade", id, upd.Assignments(), false)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: updating activity %d: %w", id, err)
	}
	if !found {
		return nil, apperror.NotFound("Atividade não encontrada.")
	}
	return r.GetByID(ctx, id)
}

func (r *ActivityRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM registros_atividade WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting activity %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("Atividade não encontrada.")
	}
	return nil
}
