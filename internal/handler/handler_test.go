package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/auth"
	"github.com/sakif/plantando/internal/events"
	"github.com/sakif/plantando/internal/handler"
	sqliteRepo "github.com/sakif/plantando/internal/repository/sqlite"
	"github.com/sakif/plantando/internal/service"
)

const testSecret = "handler-test-secret"

// testAPI wires real services over an in-memory database behind a router
// shaped like the production one.
type testAPI struct {
	router http.Handler
	tokens *auth.TokenService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	passwords := auth.NewPasswordServiceForTest(4)
	tokens := auth.NewTokenService(testSecret, time.Hour)
	errs := handler.NewErrorResponder(logger, false)

	users := handler.NewUserHandler(service.NewUserService(db.Users(), passwords, events.Nop{}, logger), errs)
	login := handler.NewAuthHandler(service.NewAuthService(db.Users(), tokens, passwords, logger), errs)
	actions := handler.NewActionHandler(service.NewActionService(db.Actions(), logger), errs)
	activities := handler.NewActivityHandler(
		service.NewActivityService(db.Activities(), db.Users(), db.Actions(), events.Nop{}, logger), errs)

	r := chi.NewRouter()
	r.NotFound(errs.NotFound)
	requireAuth := auth.RequireAuth(tokens, errs.Respond)

	r.Post("/api/usuarios", users.HandleCreate)
	r.Post("/api/auth/login", login.HandleLogin)
	r.Get("/api/acoes-sustentaveis", actions.HandleList)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/api/usuarios/{id}", users.HandleGet)
		r.Put("/api/usuarios/{id}", users.HandleUpdate)
		r.Delete("/api/usuarios/{id}", users.HandleDelete)
		r.Get("/api/auth/me", login.HandleMe)
		r.Post("/api/acoes-sustentaveis", actions.HandleCreate)
		r.Post("/api/atividades", activities.HandleCreate)
		r.Get("/api/atividades/usuario/{usuarioID}", activities.HandleListByUser)
	})

	return &testAPI{router: r, tokens: tokens}
}

func (a *testAPI) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// register creates a user and returns its id and a token for it.
func (a *testAPI) register(t *testing.T, name, email string) (int64, string) {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/usuarios",
		`{"nome":"`+name+`","email":"`+email+`","senha":"segredo123"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	token, err := a.tokens.Generate(created.ID, email)
	require.NoError(t, err)
	return created.ID, token
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

// =========================================================================
// ErrorResponder
// =========================================================================

func TestErrorResponder(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		production bool
		err        error
		wantStatus int
		wantKind   string
		wantMsg    string
		wantDetail string
	}{
		{"validation", false, apperror.InvalidInput("ruim"), 400, "validation_error", "ruim", ""},
		{"not found", false, apperror.NotFound("sumiu"), 404, "not_found", "sumiu", ""},
		{"forbidden", false, apperror.Forbidden("não"), 403, "forbidden", "não", ""},
		{"conflict", false, apperror.ConflictOn("email", "já existe"), 409, "conflict", "já existe", ""},
		{"storage with detail", false, apperror.InternalStorage("falhou", errors.New("disk I/O")), 500, "internal_error", "falhou", "disk I/O"},
		{"storage in production", true, apperror.InternalStorage("falhou", errors.New("disk I/O")), 500, "internal_error", "falhou", ""},
		{"unclassified", false, errors.New("panic-ish"), 500, "internal_error", "Ocorreu um erro interno no servidor.", "panic-ish"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.NewErrorResponder(logger, tt.production).
				Respond(rr, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
			body := decodeError(t, rr)
			assert.Equal(t, tt.wantKind, body.Error)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Equal(t, tt.wantDetail, body.Detail)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodGet, "/api/nada", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Rota não encontrada.", decodeError(t, rr).Message)
}

// =========================================================================
// Users
// =========================================================================

func TestCreateUser(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/api/usuarios", `{"nome":"Ana","email":"ana@x.com","senha":"segredo123"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotContains(t, rr.Body.String(), "senha")
	assert.NotContains(t, rr.Body.String(), "$2a$")

	rr = api.do(t, http.MethodPost, "/api/usuarios", `{"nome":"Outra","email":"ana@x.com","senha":"segredo123"}`, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "Email já cadastrado.", decodeError(t, rr).Message)

	rr = api.do(t, http.MethodPost, "/api/usuarios", `{"nome":"Bia","email":"bia@x.com","senha":"123"}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "A senha deve ter pelo menos 6 caracteres.", decodeError(t, rr).Message)
}

func TestMalformedBody(t *testing.T) {
	api := newTestAPI(t)

	for _, body := range []string{`{"nome":`, `[]`, ""} {
		rr := api.do(t, http.MethodPost, "/api/usuarios", body, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, "body %q", body)
		assert.Equal(t, "Corpo da requisição inválido.", decodeError(t, rr).Message)
	}
}

func TestGetUser_RequiresToken(t *testing.T) {
	api := newTestAPI(t)
	id, token := api.register(t, "Ana", "ana@x.com")
	path := "/api/usuarios/" + strconv.FormatInt(id, 10)

	rr := api.do(t, http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = api.do(t, http.MethodGet, path, "", token)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdateUser_OwnershipBeforeLookup(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register(t, "Ana", "ana@x.com")

	for _, target := range []string{"999", "abc"} {
		rr := api.do(t, http.MethodPut, "/api/usuarios/"+target, `{"nome":"X"}`, token)
		assert.Equal(t, http.StatusForbidden, rr.Code, "target %s", target)
		assert.Equal(t, "Você não tem permissão para atualizar este usuário.", decodeError(t, rr).Message)

		rr = api.do(t, http.MethodDelete, "/api/usuarios/"+target, "", token)
		assert.Equal(t, http.StatusForbidden, rr.Code, "target %s", target)
		assert.Equal(t, "Você não tem permissão para deletar este usuário.", decodeError(t, rr).Message)
	}
}

func TestUpdateAndDeleteOwnUser(t *testing.T) {
	api := newTestAPI(t)
	id, token := api.register(t, "Ana", "ana@x.com")
	path := "/api/usuarios/" + strconv.FormatInt(id, 10)

	rr := api.do(t, http.MethodPut, path, `{"pontuacao_total": 500}`, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPut, path, `{"nome":"Ana Maria","idRegistro":null}`, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
	assert.Equal(t, "Ana Maria", updated["nome"])
	assert.Nil(t, updated["idRegistro"])

	rr = api.do(t, http.MethodDelete, path, "", token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

// =========================================================================
// Auth
// =========================================================================

func TestLoginAndMe(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "Ana", "ana@x.com")

	rr := api.do(t, http.MethodPost, "/api/auth/login", `{"email":"ana@x.com","senha":"segredo123"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var result struct {
		Usuario map[string]any `json:"usuario"`
		Token   string         `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "ana@x.com", result.Usuario["email"])

	rr = api.do(t, http.MethodGet, "/api/auth/me", "", result.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"nome":"Ana"`)
}

func TestLogin_LongPassword(t *testing.T) {
	api := newTestAPI(t)
	password := strings.Repeat("é", 40)

	rr := api.do(t, http.MethodPost, "/api/usuarios",
		`{"nome":"Ana","email":"ana@x.com","senha":"`+password+`"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = api.do(t, http.MethodPost, "/api/auth/login", `{"email":"ana@x.com","senha":"`+password+`"}`, "")
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = api.do(t, http.MethodPost, "/api/auth/login", `{"email":"ana@x.com","senha":"`+strings.Repeat("é", 39)+`e"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogin_SameMessageForUnknownEmailAndWrongPassword(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "Ana", "ana@x.com")

	unknown := api.do(t, http.MethodPost, "/api/auth/login", `{"email":"zé@x.com","senha":"segredo123"}`, "")
	wrong := api.do(t, http.MethodPost, "/api/auth/login", `{"email":"ana@x.com","senha":"outra-senha"}`, "")

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, decodeError(t, unknown).Message, decodeError(t, wrong).Message)
}

// =========================================================================
// Catalog and activities
// =========================================================================

func TestCatalogWritesNeedToken(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register(t, "Ana", "ana@x.com")

	rr := api.do(t, http.MethodPost, "/api/acoes-sustentaveis", `{"nome":"Usar bicicleta","pontos":20}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/acoes-sustentaveis", `{"nome":"Usar bicicleta","pontos":20}`, token)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = api.do(t, http.MethodGet, "/api/acoes-sustentaveis", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Usar bicicleta")
}

func TestRecordAndListActivities(t *testing.T) {
	api := newTestAPI(t)
	id, token := api.register(t, "Ana", "ana@x.com")
	userID := strconv.FormatInt(id, 10)

	rr := api.do(t, http.MethodPost, "/api/acoes-sustentaveis", `{"nome":"Levar ecobag","pontos":10}`, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/atividades", `{"usuario_id":`+userID+`,"acao_id":"abc"}`, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "ID do usuário e ID da ação devem ser números.", decodeError(t, rr).Message)

	rr = api.do(t, http.MethodPost, "/api/atividades", `{"usuario_id":`+userID+`,"acao_id":1,"observacao":"mercado"}`, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = api.do(t, http.MethodGet, "/api/atividades/usuario/"+userID, "", token)
	require.Equal(t, http.StatusOK, rr.Code)
	var records []map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "mercado", records[0]["observacao"])
	assert.NotNil(t, records[0]["acao"])
}

// =========================================================================
// Health
// =========================================================================

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errs := handler.NewErrorResponder(logger, true)

	rr := httptest.NewRecorder()
	handler.NewHealthHandler(pingerFunc(func(context.Context) error { return nil }), errs).
		HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	handler.NewHealthHandler(pingerFunc(func(context.Context) error { return errors.New("down") }), errs).
		HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, decodeError(t, rr).Detail)
}
