package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound             = errors.New("application not found")
	ErrInvalidForwarder     = errors.New("forwarder does not exist")
	ErrInvalidTerritory     = errors.New("territory does not exist")
	ErrInvalidManager       = errors.New("manager does not exist")
	ErrInvalidQuantity      = errors.New("quantity must be a positive integer")
	ErrInvalidSendingType   = errors.New("invalid sending type")
	ErrInvalidLoadingType   = errors.New("invalid loading type")
	ErrInvalidContainerType = errors.New("invalid container type")
	ErrDuplicateNumber      = errors.New("application number already exists")
	ErrDocumentGeneration   = errors.New("document generation failed")
)

// CreateRequest carries the writable fields of an application.
type CreateRequest struct {
	Number               string          `form:"number"`
	SendingType          string          `form:"sending_type"`
	Quantity             int             `form:"quantity"`
	Date                 *time.Time      `form:"-"`
	TerritoryIDs         []snowflake.ID  `form:"-"`
	ForwarderID          snowflake.ID    `form:"-"`
	PaidTelegram         bool            `form:"paid_telegram"`
	Departure            string          `form:"departure"`
	DepartureCode        string          `form:"departure_code"`
	Destination          string          `form:"destination"`
	DestinationCode      string          `form:"destination_code"`
	Cargo                string          `form:"cargo"`
	HSCode               string          `form:"hs_code"`
	ETCNG                string          `form:"etcng"`
	LoadingType          string          `form:"loading_type"`
	Weight               decimal.Decimal `form:"-"`
	ContainerType        string          `form:"container_type"`
	RollingStock1        string          `form:"rolling_stock_1"`
	RollingStock2        string          `form:"rolling_stock_2"`
	ConditionsOfCarriage string          `form:"conditions_of_carriage"`
	AgreedRate           decimal.Decimal `form:"-"`
	AddCharges           decimal.Decimal `form:"-"`
	BorderCrossing       string          `form:"border_crossing"`
	ContainersOrWagons   string          `form:"containers_or_wagons"`
	Period               string          `form:"period"`
	Shipper              string          `form:"shipper"`
	Consignee            string          `form:"consignee"`
	DepartureCountry     string          `form:"departure_country"`
	DestinationCountry   string          `form:"destination_country"`
	ManagerID            *snowflake.ID   `form:"-"`
	Comment              string          `form:"comment"`
}

// UpdateRequest applies only the fields present in the payload.
type UpdateRequest struct {
	Number               *string
	SendingType          *string
	Quantity             *int
	Date                 *time.Time
	TerritoryIDs         []snowflake.ID
	ForwarderID          *snowflake.ID
	PaidTelegram         *bool
	Departure            *string
	DepartureCode        *string
	Destination          *string
	DestinationCode      *string
	Cargo                *string
	HSCode               *string
	ETCNG                *string
	LoadingType          *string
	Weight               *decimal.Decimal
	ContainerType        *string
	RollingStock1        *string
	RollingStock2        *string
	ConditionsOfCarriage *string
	AgreedRate           *decimal.Decimal
	AddCharges           *decimal.Decimal
	BorderCrossing       *string
	ContainersOrWagons   *string
	Period               *string
	Shipper              *string
	Consignee            *string
	DepartureCountry     *string
	DestinationCountry   *string
	ManagerID            *snowflake.ID
	ClearManager         bool
	Comment              *string
}

type ListFilter struct {
	Number      string
	ForwarderID snowflake.ID
	Limit       int
	Offset      int
}

// Service manages the application lifecycle. Create and Update both run
// the paperwork pipeline; neither leaves a record without its artifact.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Application, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest) (*Application, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Application, error)
	List(ctx context.Context, filter ListFilter) ([]Application, error)
	Delete(ctx context.Context, id snowflake.ID) error
}
