package domain

import (
	"context"
	"errors"
)

type CreateCounterpartyRequest struct {
	Name string
}

type UpdateCounterpartyRequest struct {
	Name *string
}

type Service interface {
	Create(ctx context.Context, req CreateCounterpartyRequest) (Counterparty, error)
	List(ctx context.Context) ([]Counterparty, error)
	GetByID(ctx context.Context, id string) (Counterparty, error)
	Update(ctx context.Context, id string, req UpdateCounterpartyRequest) (Counterparty, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidName   = errors.New("counterparty name is required")
	ErrDuplicateName = errors.New("counterparty with this name already exists")
	ErrInvalidID     = errors.New("invalid counterparty id")
	ErrNotFound      = errors.New("counterparty not found")
)
