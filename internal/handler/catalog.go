package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/service"
)

// ActionHandler exposes the sustainable-action catalog under
// /api/acoes-sustentaveis. Reads are public; writes sit behind RequireAuth.
type ActionHandler struct {
	actions *service.ActionService
	errs    *ErrorResponder
}

func NewActionHandler(actions *service.ActionService, errs *ErrorResponder) *ActionHandler {
	return &ActionHandler{actions: actions, errs: errs}
}

func (h *ActionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewAction
	if err := decodeJSON(r, &in); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	action, err := h.actions.Create(r.Context(), in)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, action)
}

func (h *ActionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actions, err := h.actions.List(r.Context())
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actions)
}

func (h *ActionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	action, err := h.actions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

func (h *ActionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var changes model.ActionChanges
	if err := decodeJSON(r, &changes); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	action, err := h.actions.Update(r.Context(), chi.URLParam(r, "id"), changes)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

func (h *ActionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.actions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TipHandler exposes tips under /api/dicas, with the same access rules as
// the action catalog.
type TipHandler struct {
	tips *service.TipService
	errs *ErrorResponder
}

func NewTipHandler(tips *service.TipService, errs *ErrorResponder) *TipHandler {
	return &TipHandler{tips: tips, errs: errs}
}

func (h *TipHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewTip
	if err := decodeJSON(r, &in); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	tip, err := h.tips.Create(r.Context(), in)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tip)
}

func (h *TipHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tips, err := h.tips.List(r.Context())
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tips)
}

func (h *TipHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tip, err := h.tips.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tip)
}

func (h *TipHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var changes model.TipChanges
	if err := decodeJSON(r, &changes); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	tip, err := h.tips.Update(r.Context(), chi.URLParam(r, "id"), changes)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tip)
}

func (h *TipHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.tips.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
