package handler

import (
	"net/http"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/auth"
	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/service"
)

// AuthHandler serves the login endpoint and the current-user lookup.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin → POST /api/auth/login, answers {usuario, token}
//   - HandleMe    → GET /api/auth/me, behind RequireAuth
//
// Tokens travel in the Authorization header only; there is no cookie and
// therefore no logout endpoint. A client logs out by dropping its token.
type AuthHandler struct {
	auth *service.AuthService
	errs *ErrorResponder
}

func NewAuthHandler(authService *service.AuthService, errs *ErrorResponder) *AuthHandler {
	return &AuthHandler{auth: authService, errs: errs}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleMe returns the profile of the token's owner.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.errs.Respond(w, r, apperror.Unauthorized(auth.MsgMissingIdentity))
		return
	}

	user, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
