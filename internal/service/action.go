package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/model"
	"github.com/sakif/plantando/internal/repository"
)

const (
	msgActionFieldsRequired = "Nome e pontos são obrigatórios para criar uma ação sustentável."
	msgInvalidActionID      = "ID da ação inválido. Deve ser um número."
	msgActionNotFound       = "Ação Sustentável não encontrada."
	msgBlankActionName      = "Nome da ação deve ser uma string não vazia."
	msgZeroPoints           = "Pontos devem ser um número diferente de zero."
	msgActionInUse          = "Ação sustentável possui atividades registradas."

	msgCreateActionFailed = "Não foi possível criar a ação sustentável."
	msgListActionsFailed  = "Não foi possível listar as ações sustentáveis."
	msgGetActionFailed    = "Não foi possível buscar a ação sustentável."
	msgUpdateActionFailed = "Não foi possível atualizar a ação sustentável."
	msgDeleteActionFailed = "Não foi possível deletar a ação sustentável."
)

// ActionService manages the sustainable-action catalog.
type ActionService struct {
	actions repository.ActionRepository
	logger  *slog.Logger
}

func NewActionService(actions repository.ActionRepository, logger *slog.Logger) *ActionService {
	return &ActionService{actions: actions, logger: logger}
}

// Create requires a name and non-zero points.
func (s *ActionService) Create(ctx context.Context, in model.NewAction) (*model.SustainableAction, error) {
	name := strings.TrimSpace(in.Name)
	required := validation.Required.Error(msgActionFieldsRequired)
	if err := check("nome", name, required); err != nil {
		return nil, err
	}
	if err := check("pontos", in.Points, required); err != nil {
		return nil, err
	}

	action := &model.SustainableAction{
		Name:        name,
		Description: in.Description,
		Points:      in.Points,
		Category:    in.Category,
	}
	if err := s.actions.Create(ctx, action); err != nil {
		return nil, storageError(err, msgCreateActionFailed)
	}
	return action, nil
}

func (s *ActionService) List(ctx context.Context) ([]model.SustainableAction, error) {
	actions, err := s.actions.List(ctx)
	if err != nil {
		return nil, storageError(err, msgListActionsFailed)
	}
	return actions, nil
}

func (s *ActionService) Get(ctx context.Context, rawID string) (*model.SustainableAction, error) {
	id, err := parseID(rawID, msgInvalidActionID)
	if err != nil {
		return nil, err
	}
	action, err := s.actions.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgActionNotFound, msgGetActionFailed)
	}
	return action, nil
}

// Update applies a partial update. descricao and categoria may be cleared
// with null; nome and pontos may not.
func (s *ActionService) Update(ctx context.Context, rawID string, changes model.ActionChanges) (*model.SustainableAction, error) {
	action, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if changes.Empty() {
		return nil, apperror.InvalidInput(msgNoChanges)
	}

	var upd repository.ActionUpdate
	if changes.Name.Set {
		name := trimmed(changes.Name)
		if err := check("nome", name, validation.Required.Error(msgBlankActionName)); err != nil {
			return nil, err
		}
		upd.Name = &name
	}
	if changes.Points.Set {
		var points int
		if changes.Points.Value != nil {
			points = *changes.Points.Value
		}
		if err := check("pontos", points, validation.Required.Error(msgZeroPoints)); err != nil {
			return nil, err
		}
		upd.Points = &points
	}
	upd.Description = changes.Description
	upd.Category = changes.Category

	updated, err := s.actions.Update(ctx, action.ID, upd)
	if err != nil {
		return nil, lookupError(err, msgActionNotFound, msgUpdateActionFailed)
	}
	return updated, nil
}

// Delete refuses while activity records still reference the action.
func (s *ActionService) Delete(ctx context.Context, rawID string) error {
	action, err := s.Get(ctx, rawID)
	if err != nil {
		return err
	}
	if err := s.actions.Delete(ctx, action.ID); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return apperror.Conflict(msgActionInUse)
		}
		return lookupError(err, msgActionNotFound, msgDeleteActionFailed)
	}
	return nil
}

// SeedDefaults fills an empty catalog with DefaultActions and reports how
// many entries were inserted. A non-empty catalog is left untouched.
func (s *ActionService) SeedDefaults(ctx context.Context) (int, error) {
	n, err := s.actions.Count(ctx)
	if err != nil {
		return 0, storageError(err, msgListActionsFailed)
	}
	if n > 0 {
		s.logger.Debug("catalog already populated; skipping seed", slog.Int("actions", n))
		return 0, nil
	}

	inserted := 0
	for _, def := range DefaultActions() {
		action := def
		if err := s.actions.Create(ctx, &action); err != nil {
			return inserted, storageError(err, msgCreateActionFailed)
		}
		inserted++
	}
	s.logger.Info("seeded default sustainable actions", slog.Int("count", inserted))
	return inserted, nil
}

// DefaultActions is the starter catalog.
func DefaultActions() []model.SustainableAction {
	mobility, food, waste := "Mobilidade", "Alimentação", "Residuos"
	entry := func(name, description string, points int, category string) model.SustainableAction {
		return model.SustainableAction{Name: name, Description: &description, Points: points, Category: &category}
	}
	return []model.SustainableAction{
		entry("Usar bicicleta", "Optar por ir ao trabalho ou escola de bicicleta em vez de carro.", 20, mobility),
		entry("Evitar carne por um dia", "Substituir refeições com carne por opções vegetarianas durante um dia.", 15, food),
		entry("Separar recicláveis", "Organizar papel, plástico, vidro e metal para a coleta seletiva.", 25, waste),
		entry("Levar ecobag", "Usar sacolas reutilizáveis em vez de sacolas plásticas ao fazer compras.", 10, waste),
		entry("Usar transporte público", "Utilizar ônibus, metrô ou trem para se locomover ao invés de carro.", 18, mobility),
		entry("Compostar resíduos orgânicos", "Transformar restos de alimentos em adubo através da compostagem.", 22, waste),
		entry("Comprar de produtores locais", "Dar preferência a alimentos produzidos localmente, com menor impacto ambiental.", 14, food),
		entry("Evitar descartáveis", "Utilizar itens reutilizáveis em vez de copos, pratos ou talheres descartáveis.", 12, waste),
		entry("Caminhar até o mercado", "Ir a pé até o mercado em vez de usar um veículo motorizado.", 17, mobility),
		entry("Planejar as refeições", "Planejar as compras e refeições da semana para evitar desperdício de alimentos.", 13, food),
	}
}
