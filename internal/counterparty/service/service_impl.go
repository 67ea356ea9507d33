package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/interrail/forwarding/internal/counterparty/domain"
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
	repo  repository.Repository[domain.Counterparty]
}

func New(p ServiceParam) domain.Service {
	return &Service{
		log:   p.Log.Named("counterparty.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.Counterparty](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCounterpartyRequest) (domain.Counterparty, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Counterparty{}, domain.ErrInvalidName
	}

	counterparty := domain.Counterparty{
		ID:   s.genID.Generate(),
		Name: name,
	}
	if err := s.repo.Create(ctx, &counterparty); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Counterparty{}, domain.ErrDuplicateName
		}
		return domain.Counterparty{}, err
	}
	return counterparty, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Counterparty, error) {
	items, err := s.repo.Find(ctx, &domain.Counterparty{}, option.WithOrder("name asc"))
	if err != nil {
		return nil, err
	}

	counterparties := make([]domain.Counterparty, 0, len(items))
	for _, item := range items {
		counterparties = append(counterparties, *item)
	}
	return counterparties, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Counterparty, error) {
	counterpartyID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Counterparty{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindOne(ctx, &domain.Counterparty{ID: counterpartyID})
	if err != nil {
		return domain.Counterparty{}, err
	}
	if item == nil {
		return domain.Counterparty{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateCounterpartyRequest) (domain.Counterparty, error) {
	counterparty, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Counterparty{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Counterparty{}, domain.ErrInvalidName
		}
		counterparty.Name = name
	}

	if err := s.repo.Update(ctx, counterparty.ID.String(), map[string]any{"name": counterparty.Name}); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Counterparty{}, domain.ErrDuplicateName
		}
		return domain.Counterparty{}, err
	}
	return counterparty, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	counterparty, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, counterparty.ID.String())
}
