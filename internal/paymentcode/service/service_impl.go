package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	applicationdomain "github.com/interrail/forwarding/internal/application/domain"
	"github.com/interrail/forwarding/internal/paymentcode/domain"
	territorydomain "github.com/interrail/forwarding/internal/territory/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type allocator struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func New(p ServiceParam) domain.Allocator {
	return &allocator{
		db:    p.DB,
		log:   p.Log,
		genID: p.GenID,
	}
}

// Allocate validates the requested range and inserts the whole block in
// one transaction. The application row is locked for the duration, so the
// capacity check and the insert act as a single serialized unit.
func (s *allocator) Allocate(ctx context.Context, req domain.AllocateRequest) ([]domain.PaymentCode, error) {
	start, err := strconv.Atoi(req.StartRange)
	if err != nil {
		return nil, domain.ErrInvalidRange
	}
	end, err := strconv.Atoi(req.EndRange)
	if err != nil {
		return nil, domain.ErrInvalidRange
	}

	var codes []domain.PaymentCode
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var territory territorydomain.Territory
		if err := tx.First(&territory, "id = ?", req.TerritoryID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrTerritoryNotFound
			}
			return err
		}

		// sqlite has a single writer and no row locks; the FOR UPDATE
		// clause would not parse there.
		appQuery := tx
		if name := tx.Dialector.Name(); name == "postgres" || name == "mysql" {
			appQuery = appQuery.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var app applicationdomain.Application
		if err := appQuery.First(&app, "id = ?", req.ApplicationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrApplicationNotFound
			}
			return err
		}

		// Bounds are compared as strings to match how codes sort on
		// paper. "999" > "1000" here even though 999 < 1000.
		if req.StartRange > req.EndRange {
			return domain.ErrRangeOrder
		}

		// "1005".."999" passes the string check but walks no numbers,
		// so there is nothing to insert.
		count := end - start + 1
		if count <= 0 {
			return nil
		}

		var existing int64
		if err := tx.Model(&domain.PaymentCode{}).
			Where("application_id = ?", req.ApplicationID).
			Count(&existing).Error; err != nil {
			return err
		}

		var territories int64
		if err := tx.Table("application_territories").
			Where("application_id = ?", req.ApplicationID).
			Distinct("territory_id").
			Count(&territories).Error; err != nil {
			return err
		}

		capacity := territories * int64(app.Quantity)
		if int64(count)+existing > capacity {
			return domain.ErrCapacityExceeded
		}

		now := time.Now()
		width := len(req.StartRange)
		territoryID := req.TerritoryID
		codes = make([]domain.PaymentCode, 0, count)
		for n := start; n <= end; n++ {
			codes = append(codes, domain.PaymentCode{
				ID:            s.genID.Generate(),
				ApplicationID: app.ID,
				Number:        fmt.Sprintf("%0*d", width, n),
				TerritoryID:   &territoryID,
				CodeStatus:    domain.StatusChecking,
				Date:          app.Date,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}

		return tx.Create(&codes).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment codes allocated",
		zap.Int64("application_id", int64(req.ApplicationID)),
		zap.String("start_range", req.StartRange),
		zap.String("end_range", req.EndRange),
		zap.Int("count", len(codes)),
	)
	return codes, nil
}

func (s *allocator) ListByApplication(ctx context.Context, applicationID snowflake.ID) ([]domain.PaymentCode, error) {
	var codes []domain.PaymentCode
	err := s.db.WithContext(ctx).
		Preload("Territory").
		Where("application_id = ?", applicationID).
		Order("number asc").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}
