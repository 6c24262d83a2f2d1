package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sakif/plantando/internal/apperror"
)

// Pinger is satisfied by every repository.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers GET /healthz with the reachability of the store.
type HealthHandler struct {
	store Pinger
	errs  *ErrorResponder
}

func NewHealthHandler(store Pinger, errs *ErrorResponder) *HealthHandler {
	return &HealthHandler{store: store, errs: errs}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.errs.Respond(w, r, apperror.InternalStorage("Banco de dados indisponível.", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
