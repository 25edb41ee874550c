package catalog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("catalog: not found")

// Repository es de solo lectura desde el core: las ediciones de catálogo
// son una operación administrativa fuera de este servicio.
type Repository interface {
	ListServices(ctx context.Context) ([]Service, error)
	GetService(ctx context.Context, id string) (Service, error)

	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)

	FindCategoryByName(ctx context.Context, name string) (Category, error)
}
