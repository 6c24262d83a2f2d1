package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/plantando/internal/auth"
	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/service"
)

const (
	msgForbiddenUpdate = "Você não tem permissão para atualizar este usuário."
	msgForbiddenDelete = "Você não tem permissão para deletar este usuário."
)

// UserHandler exposes user accounts under /api/usuarios.
//
// ROUTES:
//
//	POST   /api/usuarios       → HandleCreate (public)
//	GET    /api/usuarios       → HandleList
//	GET    /api/usuarios/{id}  → HandleGet
//	PUT    /api/usuarios/{id}  → HandleUpdate (owner only)
//	DELETE /api/usuarios/{id}  → HandleDelete (owner only)
//
// OWNERSHIP:
// PUT and DELETE compare the token's id with {id} before the service runs.
// Another user's id answers 403 even when it is malformed or unknown.
type UserHandler struct {
	users *service.UserService
	errs  *ErrorResponder
}

func NewUserHandler(users *service.UserService, errs *ErrorResponder) *UserHandler {
	return &UserHandler{users: users, errs: errs}
}

func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewUser
	if err := decodeJSON(r, &in); err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	user, err := h.users.Create(r.Context(), in)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := auth.CheckOwnership(r.Context(), id, msgForbiddenUpdate); err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	var changes model.UserChanges
	if err := decodeJSON(r, &changes); err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	user, err := h.users.Update(r.Context(), id, changes)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete answers 204; the service's copy of the deleted record is not
// sent back.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := auth.CheckOwnership(r.Context(), id, msgForbiddenDelete); err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	if _, err := h.users.Delete(r.Context(), id); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
