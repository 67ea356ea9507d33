package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrTerritoryNotFound   = errors.New("territory does not exist")
	ErrApplicationNotFound = errors.New("application does not exist")
	ErrRangeOrder          = errors.New("start range must be less than or equal to end range")
	ErrCapacityExceeded    = errors.New("requested range exceeds the application code capacity")
	ErrInvalidRange        = errors.New("range bounds must be strings of digits")
)

// AllocateRequest describes one contiguous block of codes to issue.
// Bounds are strings so leading zeros survive the trip.
type AllocateRequest struct {
	ApplicationID snowflake.ID
	StartRange    string `json:"start_range"`
	EndRange      string `json:"end_range"`
	TerritoryID   snowflake.ID
}

// Allocator issues payment codes in bulk against an application.
//
// Capacity invariant: after any successful allocation,
// count(codes) <= count(territories on application) * quantity.
// Validation and insert run as one serialized unit per application,
// so concurrent allocations cannot both pass the capacity check.
type Allocator interface {
	Allocate(ctx context.Context, req AllocateRequest) ([]PaymentCode, error)
	ListByApplication(ctx context.Context, applicationID snowflake.ID) ([]PaymentCode, error)
}
