package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/interrail/forwarding/internal/territory/domain"
	"github.com/interrail/forwarding/pkg/db"
	"github.com/interrail/forwarding/pkg/db/option"
	"github.com/interrail/forwarding/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[domain.Territory]
}

func New(p ServiceParam) domain.Service {
	return &Service{
		log:   p.Log.Named("territory.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.Territory](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateTerritoryRequest) (domain.Territory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Territory{}, domain.ErrInvalidName
	}

	territory := domain.Territory{
		ID:   s.genID.Generate(),
		Name: name,
	}
	if err := s.repo.Create(ctx, &territory); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Territory{}, domain.ErrDuplicateName
		}
		return domain.Territory{}, err
	}
	return territory, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Territory, error) {
	items, err := s.repo.Find(ctx, &domain.Territory{}, option.WithOrder("name asc"))
	if err != nil {
		return nil, err
	}

	territories := make([]domain.Territory, 0, len(items))
	for _, item := range items {
		territories = append(territories, *item)
	}
	return territories, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Territory, error) {
	territoryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Territory{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindOne(ctx, &domain.Territory{ID: territoryID})
	if err != nil {
		return domain.Territory{}, err
	}
	if item == nil {
		return domain.Territory{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateTerritoryRequest) (domain.Territory, error) {
	territory, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Territory{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Territory{}, domain.ErrInvalidName
		}
		territory.Name = name
	}

	if err := s.repo.Update(ctx, territory.ID.String(), map[string]any{"name": territory.Name}); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Territory{}, domain.ErrDuplicateName
		}
		return domain.Territory{}, err
	}
	return territory, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	territory, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, territory.ID.String())
}
