// AuthService is the login flow:
//
//	AuthHandler (HTTP) → AuthService → UserRepository (digest lookup)
//	                                 ↘ PasswordService (bcrypt compare)
//	                                 ↘ TokenService (JWT)
//
// KEY RESPONSIBILITIES:
//   - Reject unknown emails and wrong passwords with the same 401 message, so
//     a caller cannot probe which emails are registered
//   - Never return the digest
//   - Report a missing signing secret as a server error, logged here and
//     never echoed to the client

package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/auth"
	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/observability"
	"github.com/sakif/plantando/internal/repository"
)

const (
	msgCredentialsRequired = "Email e senha são obrigatórios."
	msgInvalidCredentials  = "Credenciais inválidas."
	msgServerMisconfigured = "Erro na configuração interna do servidor."
	msgLoginFailed         = "Não foi possível autenticar o usuário."
)

// AuthService handles authentication.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → digest lookup by email
//   - tokens     *auth.TokenService        → sign JWTs
//   - passwords  *auth.PasswordService     → bcrypt compare
//   - logger     *slog.Logger
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// LoginResult bundles the user and the signed token.
type LoginResult struct {
	User  *model.User `json:"usuario"`
	Token string      `json:"token"`
}

// Login verifies the credentials and issues a token carrying {id, email}.
func (s *AuthService) Login(ctx context.Context, creds model.Credentials) (*LoginResult, error) {
	email := strings.TrimSpace(creds.Email)
	if email == "" || creds.Password == "" {
		observability.RecordLogin(observability.LoginInvalidInput)
		return nil, apperror.InvalidInput(msgCredentialsRequired)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			observability.RecordLogin(observability.LoginFailure)
			return nil, apperror.Unauthorized(msgInvalidCredentials)
		}
		observability.RecordLogin(observability.LoginError)
		return nil, storageError(err, msgLoginFailed)
	}

	if err := s.passwords.Verify(user.PasswordHash, creds.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			observability.RecordLogin(observability.LoginFailure)
			return nil, apperror.Unauthorized(msgInvalidCredentials)
		}
		// A digest bcrypt cannot parse: corrupt data, not a wrong password.
		observability.RecordLogin(observability.LoginError)
		s.logger.Error("stored password digest is unreadable", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil, apperror.InternalStorage(msgLoginFailed, err)
	}

	if !s.tokens.Configured() {
		observability.RecordLogin(observability.LoginError)
		s.logger.Error("JWT_SECRET is not set; cannot issue tokens")
		return nil, apperror.InternalConfig(msgServerMisconfigured, auth.ErrMissingSecret)
	}
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		observability.RecordLogin(observability.LoginError)
		s.logger.Error("signing token failed", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil, apperror.InternalConfig(msgServerMisconfigured, err)
	}

	observability.RecordLogin(observability.LoginSuccess)
	s.logger.Info("user logged in", slog.Int64("user_id", user.ID))
	return &LoginResult{User: user.Public(), Token: token}, nil
}

// Me returns the record of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound, msgGetUserFailed)
	}
	return user.Public(), nil
}
