package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/auth"
	"github.com/sakif/plantando/internal/events"
	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/repository"
)

// Minimum password length, in characters.
const MinPasswordLength = 6

const (
	msgUserFieldsRequired  = "Nome, email e senha são obrigatórios."
	msgPasswordTooShort    = "A senha deve ter pelo menos 6 caracteres."
	msgNewPasswordTooShort = "A nova senha deve ter pelo menos 6 caracteres."
	msgEmailTaken          = "Email já cadastrado."
	msgExternalIDTaken     = "ID de Registro já cadastrado."
	msgNewEmailTaken       = "Novo email já está em uso."
	msgNewExternalIDTaken  = "Novo ID de Registro já está em uso."
	msgInvalidUserID       = "ID inválido. Deve ser um número."
	msgUserNotFound        = "Usuário não encontrado."
	msgUserNotFoundUpdate  = "Usuário não encontrado para atualização."
	msgUserNotFoundDelete  = "Usuário não encontrado para deleção."
	msgScoreReadOnly       = "Pontuação e nível não podem ser atualizados diretamente."
	msgNoValidUserChanges  = "Nenhum dado válido fornecido para atualização."
	msgBlankName           = "Nome deve ser uma string não vazia."
	msgBlankExternalID     = "ID de Registro deve ser uma string não vazia."
	msgUserHasDependents   = "Não foi possível deletar o usuário. Verifique registros dependentes."

	msgCreateUserFailed = "Não foi possível criar o usuário."
	msgListUsersFailed  = "Não foi possível listar os usuários."
	msgGetUserFailed    = "Não foi possível buscar o usuário."
	msgUpdateUserFailed = "Não foi possível atualizar o usuário."
	msgDeleteUserFailed = "Não foi possível deletar o usuário."
)

// UserService manages user accounts.
//
// DIGESTS:
// Every *model.User leaving this service has gone through Public(), so the
// bcrypt digest never reaches a handler.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	events    events.Publisher
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	publisher events.Publisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		passwords: passwords,
		events:    publisher,
		logger:    logger,
	}
}

func passwordRules(tooShort string) []validation.Rule {
	return []validation.Rule{
		validation.RuneLength(MinPasswordLength, 0).Error(tooShort),
	}
}

// Create registers a user. An empty idRegistro is stored as null.
func (s *UserService) Create(ctx context.Context, in model.NewUser) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)

	required := validation.Required.Error(msgUserFieldsRequired)
	if err := check("nome", name, required); err != nil {
		return nil, err
	}
	if err := check("email", email, required); err != nil {
		return nil, err
	}
	if err := check("senha", in.Password, required); err != nil {
		return nil, err
	}
	if err := check("senha", in.Password, passwordRules(msgPasswordTooShort)...); err != nil {
		return nil, err
	}

	var externalID *string
	if in.ExternalID != nil {
		if v := strings.TrimSpace(*in.ExternalID); v != "" {
			externalID = &v
		}
	}

	if err := s.ensureEmailFree(ctx, email, msgEmailTaken, msgCreateUserFailed); err != nil {
		return nil, err
	}
	if externalID != nil {
		if err := s.ensureExternalIDFree(ctx, *externalID, msgExternalIDTaken, msgCreateUserFailed); err != nil {
			return nil, err
		}
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.InternalStorage(msgCreateUserFailed, err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		ExternalID:   externalID,
		PasswordHash: hash,
		PointsTotal:  model.DefaultPointsTotal,
		Level:        model.DefaultLevel,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storageError(err, msgCreateUserFailed)
	}

	s.logger.Info("user created", slog.Int64("user_id", user.ID))
	publish(ctx, s.events, s.logger, events.NewUserCreated(events.UserCreated{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	}))
	return user.Public(), nil
}

// List returns every user ordered by name.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storageError(err, msgListUsersFailed)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, rawID string) (*model.User, error) {
	id, err := parseID(rawID, msgInvalidUserID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound, msgGetUserFailed)
	}
	return user.Public(), nil
}

// Update applies a partial profile update.
//
// RULES, in order:
//  1. the id must be numeric
//  2. pontuacao_total and nivel are read-only, even when sent as null
//  3. at least one of nome, email, idRegistro, senha must be present
//  4. the user must exist
//  5. per-field checks; an empty email or senha is ignored
//
// When nothing actually changes the stored record is returned as is.
func (s *UserService) Update(ctx context.Context, rawID string, changes model.UserChanges) (*model.User, error) {
	id, err := parseID(rawID, msgInvalidUserID)
	if err != nil {
		return nil, err
	}
	if changes.PointsTotal.Set || changes.Level.Set {
		return nil, apperror.InvalidInput(msgScoreReadOnly)
	}
	if !changes.Name.Set && !changes.Email.Set && !changes.ExternalID.Set && !changes.Password.Set {
		return nil, apperror.InvalidInput(msgNoValidUserChanges)
	}

	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgUserNotFoundUpdate, msgUpdateUserFailed)
	}

	var upd repository.UserUpdate

	if changes.Name.Set {
		if changes.Name.Value == nil || strings.TrimSpace(*changes.Name.Value) == "" {
			return nil, apperror.ValidationFailed("nome", msgBlankName)
		}
		if name := strings.TrimSpace(*changes.Name.Value); name != current.Name {
			upd.Name = &name
		}
	}

	if changes.Email.Set && changes.Email.Value != nil {
		email := strings.TrimSpace(*changes.Email.Value)
		if email != "" && email != current.Email {
			if err := s.ensureEmailFree(ctx, email, msgNewEmailTaken, msgUpdateUserFailed); err != nil {
				return nil, err
			}
			upd.Email = &email
		}
	}

	if changes.ExternalID.Set {
		switch {
		case changes.ExternalID.IsNull():
			if current.ExternalID != nil {
				upd.ExternalID = model.Null[string]()
			}
		default:
			v := strings.TrimSpace(*changes.ExternalID.Value)
			if current.ExternalID != nil && v == *current.ExternalID {
				break
			}
			if v == "" {
				return nil, apperror.ValidationFailed("idRegistro", msgBlankExternalID)
			}
			if err := s.ensureExternalIDFree(ctx, v, msgNewExternalIDTaken, msgUpdateUserFailed); err != nil {
				return nil, err
			}
			upd.ExternalID = model.Some(v)
		}
	}

	if changes.Password.Set && changes.Password.Value != nil && *changes.Password.Value != "" {
		password := *changes.Password.Value
		if err := check("senha", password, passwordRules(msgNewPasswordTooShort)...); err != nil {
			return nil, err
		}
		hash, err := s.passwords.Hash(password)
		if err != nil {
			return nil, apperror.InternalStorage(msgUpdateUserFailed, err)
		}
		upd.PasswordHash = &hash
	}

	if len(upd.Assignments()) == 0 {
		return current.Public(), nil
	}

	updated, err := s.users.Update(ctx, id, upd)
	if err != nil {
		return nil, lookupError(err, msgUserNotFoundUpdate, msgUpdateUserFailed)
	}
	return updated.Public(), nil
}

// Delete removes the user and, through the foreign key cascade, their
// activity records. It returns the record as it was before deletion.
func (s *UserService) Delete(ctx context.Context, rawID string) (*model.User, error) {
	id, err := parseID(rawID, msgInvalidUserID)
	if err != nil {
		return nil, err
	}
	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgUserNotFoundDelete, msgDeleteUserFailed)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict(msgUserHasDependents)
		}
		return nil, lookupError(err, msgUserNotFoundDelete, msgDeleteUserFailed)
	}

	s.logger.Info("user deleted", slog.Int64("user_id", id))
	return current.Public(), nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email, taken, internal string) error {
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return apperror.ConflictOn("email", taken)
	case errors.Is(err, apperror.ErrNotFound):
		return nil
	default:
		return storageError(err, internal)
	}
}

func (s *UserService) ensureExternalIDFree(ctx context.Context, externalID, taken, internal string) error {
	_, err := s.users.GetByExternalID(ctx, externalID)
	switch {
	case err == nil:
		return apperror.ConflictOn("idRegistro", taken)
	case errors.Is(err, apperror.ErrNotFound):
		return nil
	default:
		return storageError(err, internal)
	}
}
