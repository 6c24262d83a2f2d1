// Package repository defines the storage interfaces used by the service layer.
//
// Services depend only on these interfaces. Two implementations exist:
//   - repository/sqlite   → embedded database for development and tests
//   - repository/postgres → production database (DATABASE_URL=postgres://...)
//
// CONTRACT SHARED BY ALL IMPLEMENTATIONS:
//   - a missing row is reported as an apperror NotFound
//   - a unique-constraint violation is reported as an apperror Conflict whose
//     Field names the offending API field (see UniqueViolation)
//   - a foreign-key violation is reported as ErrReferenced (a Conflict)
//   - any other driver error is returned wrapped, unclassified
package repository

import (
	"context"
	"time"

	"github.com/sakif/plantando/internal/model"
)

// UserRepository persists user accounts.
//
// Only GetByEmail returns the password digest; every other read leaves
// PasswordHash empty.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	// List returns every user ordered by name.
	List(ctx context.Context) ([]model.User, error)
	// Update applies the non-empty fields of upd and returns the stored row.
	Update(ctx context.Context, id int64, upd UserUpdate) (*model.User, error)
	// Delete removes the user; activity records cascade.
	Delete(ctx context.Context, id int64) error
}

// ActionRepository persists the sustainable-action catalog.
type ActionRepository interface {
	Create(ctx context.Context, action *model.SustainableAction) error
	GetByID(ctx context.Context, id int64) (*model.SustainableAction, error)
	List(ctx context.Context) ([]model.SustainableAction, error)
	Update(ctx context.Context, id int64, upd ActionUpdate) (*model.SustainableAction, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// TipRepository persists tips.
type TipRepository interface {
	Create(ctx context.Context, tip *model.Tip) error
	GetByID(ctx context.Context, id int64) (*model.Tip, error)
	List(ctx context.Context) ([]model.Tip, error)
	Update(ctx context.Context, id int64, upd TipUpdate) (*model.Tip, error)
	Delete(ctx context.Context, id int64) error
}

// ActivityRepository persists activity records.
type ActivityRepository interface {
	Create(ctx context.Context, record *model.ActivityRecord) error
	// GetByID embeds both the action and the user (without digest).
	GetByID(ctx context.Context, id int64) (*model.ActivityRecord, error)
	// ListByUser embeds the action, newest first.
	ListByUser(ctx context.Context, userID int64) ([]model.ActivityRecord, error)
	Update(ctx context.Context, id int64, upd ActivityUpdate) (*model.ActivityRecord, error)
	Delete(ctx context.Context, id int64) error
}

// Store groups the repositories of one backend and owns its connection.
type Store interface {
	Users() UserRepository
	Actions() ActionRepository
	Tips() TipRepository
	Activities() ActivityRepository
	Ping(ctx context.Context) error
	Close() error
}

// Assignment is one `column = value` pair of an UPDATE statement. A nil
// Value writes NULL.
type Assignment struct {
	Column string
	Value  any
}

// UserUpdate lists the columns a profile update may touch. Nil pointers
// (and unset patches) are left unchanged.
type UserUpdate struct {
	Name         *string
	Email        *string
	ExternalID   model.Patch[string]
	PasswordHash *string
}

func (u UserUpdate) Assignments() []Assignment {
	var out []Assignment
	if u.Name != nil {
		out = append(out, Assignment{"nome", *u.Name})
	}
	if u.Email != nil {
		out = append(out, Assignment{"email", *u.Email})
	}
	if u.ExternalID.Set {
		out = append(out, Assignment{"id_registro", patchValue(u.ExternalID)})
	}
	if u.PasswordHash != nil {
		out = append(out, Assignment{"senha_hash", *u.PasswordHash})
	}
	return out
}

type ActionUpdate struct {
	Name        *string
	Description model.Patch[string]
	Points      *int
	Category    model.Patch[string]
}

func (u ActionUpdate) Assignments() []Assignment {
	var out []Assignment
	if u.Name != nil {
		out = append(out, Assignment{"nome", *u.Name})
	}
	if u.Description.Set {
		out = append(out, Assignment{"descricao", patchValue(u.Description)})
	}
	if u.Points != nil {
		out = append(out, Assignment{"pontos", *u.Points})
	}
	if u.Category.Set {
		out = append(out, Assignment{"categoria", patchValue(u.Category)})
	}
	return out
}

type TipUpdate struct {
	Title    *string
	Body     *string
	Category model.Patch[string]
}

func (u TipUpdate) Assignments() []Assignment {
	var out []Assignment
	if u.Title != nil {
		out = append(out, Assignment{"titulo", *u.Title})
	}
	if u.Body != nil {
		out = append(out, Assignment{"conteudo", *u.Body})
	}
	if u.Category.Set {
		out = append(out, Assignment{"categoria_dica", patchValue(u.Category)})
	}
	return out
}

type ActivityUpdate struct {
	ActionID   *int64
	Note       model.Patch[string]
	OccurredAt *time.Time
}

func (u ActivityUpdate) Assignments() []Assignment {
	var out []Assignment
	if u.ActionID != nil {
		out = append(out, Assignment{"acao_id", *u.ActionID})
	}
	if u.Note.Set {
		out = append(out, Assignment{"observacao", patchValue(u.Note)})
	}
	if u.OccurredAt != nil {
		out = append(out, Assignment{"data_hora", u.OccurredAt.UTC()})
	}
	return out
}

func patchValue(p model.Patch[string]) any {
	if p.Value == nil {
		return nil
	}
	return *p.Value
}
