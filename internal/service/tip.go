package service

import (
	"context"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/repository"
)

const (
	msgTipFieldsRequired = "Título e conteúdo são obrigatórios para criar uma dica."
	msgInvalidTipID      = "ID da dica inválido."
	msgTipNotFound       = "Dica não encontrada."
	msgBlankTipTitle     = "Título deve ser uma string não vazia."
	msgBlankTipBody      = "Conteúdo deve ser uma string não vazia."

	msgListTipsFailed  = "Erro ao buscar dicas."
	msgGetTipFailed    = "Erro ao buscar a dica."
	msgCreateTipFailed = "Erro ao criar dica."
	msgUpdateTipFailed = "Erro ao atualizar dica."
	msgDeleteTipFailed = "Erro ao excluir dica."
)

// TipService manages tips.
type TipService struct {
	tips   repository.TipRepository
	logger *slog.Logger
}

func NewTipService(tips repository.TipRepository, logger *slog.Logger) *TipService {
	return &TipService{tips: tips, logger: logger}
}

func (s *TipService) Create(ctx context.Context, in model.NewTip) (*model.Tip, error) {
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Body)
	required := validation.Required.Error(msgTipFieldsRequired)
	if err := check("titulo", title, required); err != nil {
		return nil, err
	}
	if err := check("conteudo", body, required); err != nil {
		return nil, err
	}

	tip := &model.Tip{Title: title, Body: body, Category: in.Category}
	if err := s.tips.Create(ctx, tip); err != nil {
		return nil, storageError(err, msgCreateTipFailed)
	}
	return tip, nil
}

func (s *TipService) List(ctx context.Context) ([]model.Tip, error) {
	tips, err := s.tips.List(ctx)
	if err != nil {
		return nil, storageError(err, msgListTipsFailed)
	}
	return tips, nil
}

func (s *TipService) Get(ctx context.Context, rawID string) (*model.Tip, error) {
	id, err := parseID(rawID, msgInvalidTipID)
	if err != nil {
		return nil, err
	}
	tip, err := s.tips.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgTipNotFound, msgGetTipFailed)
	}
	return tip, nil
}

// Update is partial: titulo and conteudo must be non-blank when sent.
func (s *TipService) Update(ctx context.Context, rawID string, changes model.TipChanges) (*model.Tip, error) {
	tip, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if changes.Empty() {
		return nil, apperror.InvalidInput(msgNoChanges)
	}

	var upd repository.TipUpdate
	if changes.Title.Set {
		title := trimmed(changes.Title)
		if err := check("titulo", title, validation.Required.Error(msgBlankTipTitle)); err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	if changes.Body.Set {
		body := trimmed(changes.Body)
		if err := check("conteudo", body, validation.Required.Error(msgBlankTipBody)); err != nil {
			return nil, err
		}
		upd.Body = &body
	}
	upd.Category = changes.Category

	updated, err := s.tips.Update(ctx, tip.ID, upd)
	if err != nil {
		return nil, lookupError(err, msgTipNotFound, msgUpdateTipFailed)
	}
	return updated, nil
}

func (s *TipService) Delete(ctx context.Context, rawID string) error {
	tip, err := s.Get(ctx, rawID)
	if err != nil {
		return err
	}
	if err := s.tips.Delete(ctx, tip.ID); err != nil {
		return lookupError(err, msgTipNotFound, msgDeleteTipFailed)
	}
	return nil
}

// trimmed returns the patch value without surrounding space; null is "".
func trimmed(p model.Patch[string]) string {
	if p.Value == nil {
		return ""
	}
	return strings.TrimSpace(*p.Value)
}
