package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/interrail/forwarding/internal/application/document"
	"github.com/interrail/forwarding/internal/application/domain"
	authdomain "github.com/interrail/forwarding/internal/auth/domain"
	counterpartydomain "github.com/interrail/forwarding/internal/counterparty/domain"
	"github.com/interrail/forwarding/internal/storage"
	territorydomain "github.com/interrail/forwarding/internal/territory/domain"
	"github.com/interrail/forwarding/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Generator *document.Generator
	Store     *storage.MediaStore
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	generator *document.Generator
	store     *storage.MediaStore
}

func New(p ServiceParam) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log,
		genID:     p.GenID,
		generator: p.Generator,
		store:     p.Store,
	}
}

// Create inserts the application, then runs the paperwork pipeline.
// The insert commits before generation so the artifact can carry the
// record id; when generation fails the row is deleted again and the
// caller sees a single generation error.
func (s *service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Application, error) {
	app := &domain.Application{
		ID:                   s.genID.Generate(),
		Number:               req.Number,
		SendingType:          req.SendingType,
		Quantity:             req.Quantity,
		Date:                 req.Date,
		ForwarderID:          req.ForwarderID,
		PaidTelegram:         req.PaidTelegram,
		Departure:            req.Departure,
		DepartureCode:        req.DepartureCode,
		Destination:          req.Destination,
		DestinationCode:      req.DestinationCode,
		Cargo:                req.Cargo,
		HSCode:               req.HSCode,
		ETCNG:                req.ETCNG,
		LoadingType:          req.LoadingType,
		Weight:               req.Weight,
		ContainerType:        req.ContainerType,
		RollingStock1:        req.RollingStock1,
		RollingStock2:        req.RollingStock2,
		ConditionsOfCarriage: req.ConditionsOfCarriage,
		AgreedRate:           req.AgreedRate,
		AddCharges:           req.AddCharges,
		BorderCrossing:       req.BorderCrossing,
		ContainersOrWagons:   req.ContainersOrWagons,
		Period:               req.Period,
		Shipper:              req.Shipper,
		Consignee:            req.Consignee,
		DepartureCountry:     req.DepartureCountry,
		DestinationCountry:   req.DestinationCountry,
		ManagerID:            req.ManagerID,
		Comment:              req.Comment,
	}
	if app.Quantity == 0 {
		app.Quantity = 1
	}
	if app.LoadingType == "" {
		app.LoadingType = domain.LoadingTypeWagon
	}

	if err := s.validate(ctx, app, req.TerritoryIDs); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(app).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateNumber
			}
			return err
		}
		return s.replaceTerritories(tx, app, req.TerritoryIDs)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.GetByID(ctx, app.ID)
	if err != nil {
		return nil, err
	}

	artifact, err := s.generator.Generate(ctx, created)
	if err != nil {
		// No record survives without its paperwork. The row was
		// already committed, so compensate by deleting it.
		if delErr := s.db.WithContext(ctx).Select("Territories").Delete(created).Error; delErr != nil {
			s.log.Error("compensating delete failed",
				zap.Int64("application_id", int64(created.ID)),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	created.RequestFile = artifact
	if err := s.db.WithContext(ctx).Model(created).Update("request_file", artifact).Error; err != nil {
		return nil, err
	}

	s.log.Info("application created",
		zap.Int64("application_id", int64(created.ID)),
		zap.String("number", created.Number),
	)
	return created, nil
}

// Update applies the changed fields and regenerates the paperwork in
// one transaction. A generation failure rolls the field changes back,
// so the stored record and its artifact always match. The superseded
// artifact is removed only after the commit.
func (s *service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest) (*domain.Application, error) {
	var oldArtifact, newArtifact string
	var updated *domain.Application

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app domain.Application
		if err := tx.Preload("Territories").Preload("Forwarder").Preload("Manager").
			First(&app, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		oldArtifact = app.RequestFile

		applyUpdate(&app, req)

		territoryIDs := req.TerritoryIDs
		if territoryIDs == nil {
			for _, t := range app.Territories {
				territoryIDs = append(territoryIDs, t.ID)
			}
		}
		if err := s.validate(ctx, &app, territoryIDs); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Save(&app).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateNumber
			}
			return err
		}
		if req.TerritoryIDs != nil {
			if err := s.replaceTerritories(tx, &app, req.TerritoryIDs); err != nil {
				return err
			}
		}

		var fresh domain.Application
		if err := tx.Preload("Territories").Preload("Forwarder").Preload("Manager").
			First(&fresh, "id = ?", app.ID).Error; err != nil {
			return err
		}

		artifact, err := s.generator.Generate(ctx, &fresh)
		if err != nil {
			return err
		}
		newArtifact = artifact
		fresh.RequestFile = artifact
		if err := tx.Model(&fresh).Update("request_file", artifact).Error; err != nil {
			return err
		}
		updated = &fresh
		return nil
	})
	if err != nil {
		// A rollback after generation leaves the fresh PDF on disk
		// with nothing pointing at it.
		if newArtifact != "" {
			if remErr := s.store.Remove(newArtifact); remErr != nil {
				s.log.Warn("orphan artifact cleanup failed",
					zap.String("artifact", newArtifact),
					zap.Error(remErr),
				)
			}
		}
		return nil, err
	}

	if oldArtifact != "" && oldArtifact != updated.RequestFile {
		if err := s.store.Remove(oldArtifact); err != nil {
			s.log.Warn("stale artifact cleanup failed",
				zap.String("artifact", oldArtifact),
				zap.Error(err),
			)
		}
	}

	s.log.Info("application updated", zap.Int64("application_id", int64(updated.ID)))
	return updated, nil
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Application, error) {
	var app domain.Application
	err := s.db.WithContext(ctx).
		Preload("Territories").
		Preload("Forwarder").
		Preload("Manager").
		First(&app, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (s *service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Application, error) {
	query := s.db.WithContext(ctx).
		Preload("Territories").
		Preload("Forwarder").
		Order("created_at desc")
	if filter.Number != "" {
		query = query.Where("number LIKE ?", "%"+filter.Number+"%")
	}
	if filter.ForwarderID != 0 {
		query = query.Where("forwarder_id = ?", filter.ForwarderID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var apps []domain.Application
	if err := query.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// Delete removes the application together with its codes and artifact.
func (s *service) Delete(ctx context.Context, id snowflake.ID) error {
	app, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Select("Territories").Delete(app).Error
	if err != nil {
		return err
	}
	if app.RequestFile != "" {
		if err := s.store.Remove(app.RequestFile); err != nil {
			s.log.Warn("artifact cleanup failed",
				zap.String("artifact", app.RequestFile),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *service) validate(ctx context.Context, app *domain.Application, territoryIDs []snowflake.ID) error {
	if app.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if !domain.ValidSendingType(app.SendingType) {
		return domain.ErrInvalidSendingType
	}
	if !domain.ValidLoadingType(app.LoadingType) {
		return domain.ErrInvalidLoadingType
	}
	if !domain.ValidContainerType(app.ContainerType) {
		return domain.ErrInvalidContainerType
	}

	var forwarder counterpartydomain.Counterparty
	if err := s.db.WithContext(ctx).First(&forwarder, "id = ?", app.ForwarderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrInvalidForwarder
		}
		return err
	}

	if len(territoryIDs) > 0 {
		var count int64
		err := s.db.WithContext(ctx).Model(&territorydomain.Territory{}).
			Where("id IN ?", territoryIDs).Count(&count).Error
		if err != nil {
			return err
		}
		if count != int64(len(dedupe(territoryIDs))) {
			return domain.ErrInvalidTerritory
		}
	}

	if app.ManagerID != nil {
		var manager authdomain.User
		if err := s.db.WithContext(ctx).First(&manager, "id = ?", *app.ManagerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrInvalidManager
			}
			return err
		}
	}
	return nil
}

func (s *service) replaceTerritories(tx *gorm.DB, app *domain.Application, ids []snowflake.ID) error {
	if ids == nil {
		return nil
	}
	territories := make([]territorydomain.Territory, 0, len(ids))
	for _, id := range dedupe(ids) {
		territories = append(territories, territorydomain.Territory{ID: id})
	}
	return tx.Model(app).Association("Territories").Replace(territories)
}

func applyUpdate(app *domain.Application, req domain.UpdateRequest) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&app.Number, req.Number)
	setString(&app.SendingType, req.SendingType)
	setString(&app.Departure, req.Departure)
	setString(&app.DepartureCode, req.DepartureCode)
	setString(&app.Destination, req.Destination)
	setString(&app.DestinationCode, req.DestinationCode)
	setString(&app.Cargo, req.Cargo)
	setString(&app.HSCode, req.HSCode)
	setString(&app.ETCNG, req.ETCNG)
	setString(&app.LoadingType, req.LoadingType)
	setString(&app.ContainerType, req.ContainerType)
	setString(&app.RollingStock1, req.RollingStock1)
	setString(&app.RollingStock2, req.RollingStock2)
	setString(&app.ConditionsOfCarriage, req.ConditionsOfCarriage)
	setString(&app.BorderCrossing, req.BorderCrossing)
	setString(&app.ContainersOrWagons, req.ContainersOrWagons)
	setString(&app.Period, req.Period)
	setString(&app.Shipper, req.Shipper)
	setString(&app.Consignee, req.Consignee)
	setString(&app.DepartureCountry, req.DepartureCountry)
	setString(&app.DestinationCountry, req.DestinationCountry)
	setString(&app.Comment, req.Comment)

	if req.Quantity != nil {
		app.Quantity = *req.Quantity
	}
	if req.Date != nil {
		app.Date = req.Date
	}
	if req.ForwarderID != nil {
		app.ForwarderID = *req.ForwarderID
	}
	if req.PaidTelegram != nil {
		app.PaidTelegram = *req.PaidTelegram
	}
	if req.Weight != nil {
		app.Weight = *req.Weight
	}
	if req.AgreedRate != nil {
		app.AgreedRate = *req.AgreedRate
	}
	if req.AddCharges != nil {
		app.AddCharges = *req.AddCharges
	}
	if req.ClearManager {
		app.ManagerID = nil
	} else if req.ManagerID != nil {
		app.ManagerID = req.ManagerID
	}
	app.UpdatedAt = time.Now()
}

func dedupe(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
