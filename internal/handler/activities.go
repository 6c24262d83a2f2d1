package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/service"
)

// ActivityHandler exposes activity records under /api/atividades. Every
// route requires a bearer token.
//
// ROUTES:
//
//	POST   /api/atividades                     → HandleCreate
//	GET    /api/atividades/usuario/{usuarioID} → HandleListByUser
//	GET    /api/atividades/{id}                → HandleGet
//	PUT    /api/atividades/{id}                → HandleUpdate
//	DELETE /api/atividades/{id}                → HandleDelete
type ActivityHandler struct {
	activities *service.ActivityService
	errs       *ErrorResponder
}

func NewActivityHandler(activities *service.ActivityService, errs *ErrorResponder) *ActivityHandler {
	return &ActivityHandler{activities: activities, errs: errs}
}

func (h *ActivityHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewActivity
	if err := decodeJSON(r, &in); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	record, err := h.activities.Create(r.Context(), in)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *ActivityHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	records, err := h.activities.ListByUser(r.Context(), chi.URLParam(r, "usuarioID"))
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *ActivityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.activities.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *ActivityHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var changes model.ActivityChanges
	if err := decodeJSON(r, &changes); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	record, err := h.activities.Update(r.Context(), chi.URLParam(r, "id"), changes)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *ActivityHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.activities.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
