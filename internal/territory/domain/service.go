package domain

import (
	"context"
	"errors"
)

type CreateTerritoryRequest struct {
	Name string
}

type UpdateTerritoryRequest struct {
	Name *string
}

type Service interface {
	Create(ctx context.Context, req CreateTerritoryRequest) (Territory, error)
	List(ctx context.Context) ([]Territory, error)
	GetByID(ctx context.Context, id string) (Territory, error)
	Update(ctx context.Context, id string, req UpdateTerritoryRequest) (Territory, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidName   = errors.New("territory name is required")
	ErrDuplicateName = errors.New("territory with this name already exists")
	ErrInvalidID     = errors.New("invalid territory id")
	ErrNotFound      = errors.New("territory not found")
)
