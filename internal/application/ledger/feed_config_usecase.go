package ledger

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// FeedConfigUseCase alta y consulta de configuraciones del origen externo.
type FeedConfigUseCase struct {
	repo repository.FeedConfigRepository
}

// NewFeedConfigUseCase construye el caso de uso.
func NewFeedConfigUseCase(repo repository.FeedConfigRepository) *FeedConfigUseCase {
	return &FeedConfigUseCase{repo: repo}
}

// Save valida y guarda; activar una configuración desactiva las demás.
func (uc *FeedConfigUseCase) Save(ctx context.Context, in dto.FeedConfigRequest) (*dto.FeedConfigResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	cfg := &entity.FeedConfig{
		ID:       in.ID,
		URL:      in.URL,
		Username: in.Username,
		Password: in.Password,
		IsActive: in.IsActive,
	}
	if err := uc.repo.Save(ctx, cfg); err != nil {
		return nil, err
	}
	out := toFeedConfigResponse(*cfg)
	return &out, nil
}

// List todas las configuraciones, sin contraseñas.
func (uc *FeedConfigUseCase) List(ctx context.Context) ([]dto.FeedConfigResponse, error) {
	list, err := uc.repo.ListConfigs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FeedConfigResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toFeedConfigResponse(c))
	}
	return out, nil
}
