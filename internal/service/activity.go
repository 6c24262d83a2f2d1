package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/events"
	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/observability"
	"github.com/sakif/plantando/internal/repository"
)

const (
	msgActivityIDsRequired   = "ID do usuário e ID da ação são obrigatórios."
	msgActivityIDsNotNumeric = "ID do usuário e ID da ação devem ser números."
	msgActivityUserMissing   = "Usuário não encontrado. Verifique o ID do usuário."
	msgActivityActionMissing = "Ação sustentável não encontrada. Verifique o ID da ação."
	msgInvalidActivityUserID = "ID do usuário inválido."
	msgListingUserMissing    = "Usuário não encontrado ao listar atividades."
	msgInvalidActivityID     = "ID da atividade inválido."
	msgActivityNotFound      = "Atividade não encontrada."
	msgActivityNotFoundUpd   = "Atividade não encontrada para atualização."
	msgNullOccurredAt        = "Data e hora da atividade não podem ser nulas."

	msgCreateActivityFailed = "Erro ao criar atividade no banco de dados."
	msgListActivityFailed   = "Erro ao listar atividades."
	msgGetActivityFailed    = "Erro ao buscar atividade."
	msgUpdateActivityFailed = "Erro ao atualizar atividade no banco de dados."
	msgDeleteActivityFailed = "Erro ao deletar atividade no banco de dados."
)

// ActivityService records which sustainable actions users performed.
//
// REFERENCES:
// Creating a record checks that the user and the action exist before the
// insert, so the client gets a NotFound naming the missing side rather than
// a foreign-key conflict. The check and the insert are not atomic; a
// concurrent delete in between surfaces as the repository's Conflict.
type ActivityService struct {
	activities repository.ActivityRepository
	users      repository.UserRepository
	actions    repository.ActionRepository
	events     events.Publisher
	logger     *slog.Logger
}

func NewActivityService(
	activities repository.ActivityRepository,
	users repository.UserRepository,
	actions repository.ActionRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) *ActivityService {
	return &ActivityService{
		activities: activities,
		users:      users,
		actions:    actions,
		events:     publisher,
		logger:     logger,
	}
}

// Create logs an activity. data_hora is set to now by the repository.
func (s *ActivityService) Create(ctx context.Context, in model.NewActivity) (*model.ActivityRecord, error) {
	userID, actionID, err := parseActivityIDs(in.UserID, in.ActionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, lookupError(err, msgActivityUserMissing, msgCreateActivityFailed)
	}
	action, err := s.actions.GetByID(ctx, actionID)
	if err != nil {
		return nil, lookupError(err, msgActivityActionMissing, msgCreateActivityFailed)
	}

	record := &model.ActivityRecord{UserID: userID, ActionID: actionID, Note: in.Note}
	if err := s.activities.Create(ctx, record); err != nil {
		return nil, storageError(err, msgCreateActivityFailed)
	}

	observability.RecordActivityCreated()
	publish(ctx, s.events, s.logger, events.NewActivityRecorded(events.ActivityRecorded{
		ActivityID: record.ID,
		UserID:     record.UserID,
		ActionID:   record.ActionID,
		Points:     action.Points,
		OccurredAt: record.OccurredAt,
	}))
	return record, nil
}

// parseActivityIDs reports non-numeric ids before missing ones.
func parseActivityIDs(rawUser, rawAction model.IDValue) (int64, int64, error) {
	u := strings.TrimSpace(string(rawUser))
	a := strings.TrimSpace(string(rawAction))

	var userID, actionID int64
	var err error
	if u != "" {
		if userID, err = strconv.ParseInt(u, 10, 64); err != nil {
			return 0, 0, apperror.InvalidInput(msgActivityIDsNotNumeric)
		}
	}
	if a != "" {
		if actionID, err = strconv.ParseInt(a, 10, 64); err != nil {
			return 0, 0, apperror.InvalidInput(msgActivityIDsNotNumeric)
		}
	}
	if userID == 0 || actionID == 0 {
		return 0, 0, apperror.InvalidInput(msgActivityIDsRequired)
	}
	return userID, actionID, nil
}

// ListByUser returns the user's records newest first, each with its action.
func (s *ActivityService) ListByUser(ctx context.Context, rawUserID string) ([]model.ActivityRecord, error) {
	userID, err := parseID(rawUserID, msgInvalidActivityUserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, lookupError(err, msgListingUserMissing, msgListActivityFailed)
	}
	records, err := s.activities.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageError(err, msgListActivityFailed)
	}
	return records, nil
}

// Get returns one record with its action and user embedded.
func (s *ActivityService) Get(ctx context.Context, rawID string) (*model.ActivityRecord, error) {
	id, err := parseID(rawID, msgInvalidActivityID)
	if err != nil {
		return nil, err
	}
	record, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgActivityNotFound, msgGetActivityFailed)
	}
	if record.User != nil {
		record.User = record.User.Public()
	}
	return record, nil
}

// Update changes the action, the note or the timestamp of a record.
func (s *ActivityService) Update(ctx context.Context, rawID string, changes model.ActivityChanges) (*model.ActivityRecord, error) {
	id, err := parseID(rawID, msgInvalidActivityID)
	if err != nil {
		return nil, err
	}
	if _, err := s.activities.GetByID(ctx, id); err != nil {
		return nil, lookupError(err, msgActivityNotFoundUpd, msgUpdateActivityFailed)
	}
	if changes.Empty() {
		return nil, apperror.InvalidInput(msgNoChanges)
	}

	var upd repository.ActivityUpdate
	if changes.ActionID.Set {
		var raw string
		if changes.ActionID.Value != nil {
			raw = string(*changes.ActionID.Value)
		}
		actionID, err := parseID(raw, msgInvalidActionID)
		if err != nil {
			return nil, err
		}
		if _, err := s.actions.GetByID(ctx, actionID); err != nil {
			return nil, lookupError(err, msgActivityActionMissing, msgUpdateActivityFailed)
		}
		upd.ActionID = &actionID
	}
	if changes.OccurredAt.Set {
		if changes.OccurredAt.Value == nil {
			return nil, apperror.ValidationFailed("data_hora", msgNullOccurredAt)
		}
		upd.OccurredAt = changes.OccurredAt.Value
	}
	upd.Note = changes.Note

	updated, err := s.activities.Update(ctx, id, upd)
	if err != nil {
		return nil, lookupError(err, msgActivityNotFoundUpd, msgUpdateActivityFailed)
	}
	if updated.User != nil {
		updated.User = updated.User.Public()
	}
	return updated, nil
}

func (s *ActivityService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, msgInvalidActivityID)
	if err != nil {
		return err
	}
	if _, err := s.activities.GetByID(ctx, id); err != nil {
		return lookupError(err, msgActivityNotFound, msgDeleteActivityFailed)
	}
	if err := s.activities.Delete(ctx, id); err != nil {
		return lookupError(err, msgActivityNotFound, msgDeleteActivityFailed)
	}
	return nil
}
