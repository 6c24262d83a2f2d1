package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/auth"
	"github.com/sakif/plantando/internal/events"
	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// Hand-written in-memory repositories. Each one honours the repository
// contract (NotFound for missing rows, Conflict on unique fields) and lets a
// test inject a raw driver error through its err field.

type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	err    error // returned by every method when set
	// deleteErr is returned by Delete only.
	deleteErr error
	writes    int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*model.User{}, nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.UniqueViolation("email")
		}
		if user.ExternalID != nil && u.ExternalID != nil && *u.ExternalID == *user.ExternalID {
			return repository.UniqueViolation("id_registro")
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	f.writes++
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("Usuário não encontrado.")
	}
	return u.Public(), nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("Usuário não encontrado.")
}

func (f *fakeUserRepo) GetByExternalID(_ context.Context, externalID string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ExternalID != nil && *u.ExternalID == externalID {
			return u.Public(), nil
		}
	}
	return nil, apperror.NotFound("Usuário não encontrado.")
}

func (f *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeUserRepo) Update(_ context.Context, id int64, upd repository.UserUpdate) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("Usuário não encontrado.")
	}
	for _, a := range upd.Assignments() {
		switch a.Column {
		case "nome":
			u.Name = a.Value.(string)
		case "email":
			u.Email = a.Value.(string)
		case "id_registro":
			if a.Value == nil {
				u.ExternalID = nil
			} else {
				v := a.Value.(string)
				u.ExternalID = &v
			}
		case "senha_hash":
			u.PasswordHash = a.Value.(string)
		}
	}
	u.UpdatedAt = time.Now()
	f.writes++
	return u.Public(), nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("Usuário não encontrado.")
	}
	delete(f.users, id)
	f.writes++
	return nil
}

type fakeActionRepo struct {
	actions   map[int64]*model.SustainableAction
	nextID    int64
	err       error
	deleteErr error
}

func newFakeActionRepo() *fakeActionRepo {
	return &fakeActionRepo{actions: map[int64]*model.SustainableAction{}, nextID: 1}
}

func (f *fakeActionRepo) Create(_ context.Context, action *model.SustainableAction) error {
	if f.err != nil {
		return f.err
	}
	action.ID = f.nextID
	f.nextID++
	stored := *action
	f.actions[action.ID] = &stored
	return nil
}

func (f *fakeActionRepo) GetByID(_ context.Context, id int64) (*model.SustainableAction, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.actions[id]
	if !ok {
		return nil, apperror.NotFound("Ação Sustentável não encontrada.")
	}
	copied := *a
	return &copied, nil
}

func (f *fakeActionRepo) List(_ context.Context) ([]model.SustainableAction, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.SustainableAction{}
	for _, a := range f.actions {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeActionRepo) Update(_ context.Context, id int64, upd repository.ActionUpdate) (*model.SustainableAction, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.actions[id]
	if !ok {
		return nil, apperror.NotFound("Ação Sustentável não encontrada.")
	}
	for _, as := range upd.Assignments() {
		switch as.Column {
		case "nome":
			a.Name = as.Value.(string)
		case "pontos":
			a.Points = as.Value.(int)
		case "descricao":
			a.Description = optionalString(as.Value)
		case "categoria":
			a.Category = optionalString(as.Value)
		}
	}
	copied := *a
	return &copied, nil
}

func (f *fakeActionRepo) Delete(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.actions[id]; !ok {
		return apperror.NotFound("Ação Sustentável não encontrada.")
	}
	delete(f.actions, id)
	return nil
}

func (f *fakeActionRepo) Count(_ context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.actions), nil
}

type fakeTipRepo struct {
	tips   map[int64]*model.Tip
	nextID int64
	err    error
}

func newFakeTipRepo() *fakeTipRepo {
	return &fakeTipRepo{tips: map[int64]*model.Tip{}, nextID: 1}
}

func (f *fakeTipRepo) Create(_ context.Context, tip *model.Tip) error {
	if f.err != nil {
		return f.err
	}
	tip.ID = f.nextID
	f.nextID++
	stored := *tip
	f.tips[tip.ID] = &stored
	return nil
}

func (f *fakeTipRepo) GetByID(_ context.Context, id int64) (*model.Tip, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tips[id]
	if !ok {
		return nil, apperror.NotFound("Dica não encontrada.")
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTipRepo) List(_ context.Context) ([]model.Tip, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Tip{}
	for _, t := range f.tips {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTipRepo) Update(_ context.Context, id int64, upd repository.TipUpdate) (*model.Tip, error) {
	t, ok := f.tips[id]
	if !ok {
		return nil, apperror.NotFound("Dica não encontrada.")
	}
	for _, a := range upd.Assignments() {
		switch a.Column {
		case "titulo":
			t.Title = a.Value.(string)
		case "conteudo":
			t.Body = a.Value.(string)
		case "categoria_dica":
			t.Category = optionalString(a.Value)
		}
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTipRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.tips[id]; !ok {
		return apperror.NotFound("Dica não encontrada.")
	}
	delete(f.tips, id)
	return nil
}

type fakeActivityRepo struct {
	records map[int64]*model.ActivityRecord
	nextID  int64
	err     error
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{records: map[int64]*model.ActivityRecord{}, nextID: 1}
}

func (f *fakeActivityRepo) Create(_ context.Context, record *model.ActivityRecord) error {
	if f.err != nil {
		return f.err
	}
	record.ID = f.nextID
	f.nextID++
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now().UTC()
	}
	stored := *record
	f.records[record.ID] = &stored
	return nil
}

func (f *fakeActivityRepo) GetByID(_ context.Context, id int64) (*model.ActivityRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.records[id]
	if !ok {
		return nil, apperror.NotFound("Atividade não encontrada.")
	}
	copied := *r
	return &copied, nil
}

func (f *fakeActivityRepo) ListByUser(_ context.Context, userID int64) ([]model.ActivityRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.ActivityRecord{}
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out, nil
}

func (f *fakeActivityRepo) Update(_ context.Context, id int64, upd repository.ActivityUpdate) (*model.ActivityRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, apperror.NotFound("Atividade não encontrada.")
	}
	for _, a := range upd.Assignments() {
		switch a.Column {
		case "acao_id":
			r.ActionID = a.Value.(int64)
		case "observacao":
			r.Note = optionalString(a.Value)
		case "data_hora":
			r.OccurredAt = a.Value.(time.Time)
		}
	}
	copied := *r
	return &copied, nil
}

func (f *fakeActivityRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.records[id]; !ok {
		return apperror.NotFound("Atividade não encontrada.")
	}
	delete(f.records, id)
	return nil
}

func optionalString(v any) *string {
	if v == nil {
		return nil
	}
	s := v.(string)
	return &s
}

// recordingPublisher keeps every published event; err makes Publish fail.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Cost 4 is the bcrypt minimum, which keeps tests fast.
func testPasswords() *auth.PasswordService {
	return auth.NewPasswordServiceForTest(4)
}

func strPtr(s string) *string { return &s }

// appErr asserts err is an *apperror.AppError and returns it.
func appErr(t *testing.T, err error) *apperror.AppError {
	t.Helper()
	var ae *apperror.AppError
	if !errors.As(err, &ae) {
		t.Fatalf("error = %#v, want *apperror.AppError", err)
	}
	return ae
}
