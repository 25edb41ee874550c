package memory

import (
	"context"
	"strings"
	"sync"

	"petcare-booking/internal/domain/catalog"
)

type catalogRepo struct {
	mu         sync.RWMutex
	services   map[string]catalog.Service
	products   map[string]catalog.Product
	categories map[string]catalog.Category
}

// NewCatalogRepo arranca con el catálogo veterinario de base.
// Las ediciones de catálogo son administrativas y quedan fuera del core.
func NewCatalogRepo() *catalogRepo {
	r := &catalogRepo{
		services:   make(map[string]catalog.Service),
		products:   make(map[string]catalog.Product),
		categories: make(map[string]catalog.Category),
	}
	r.seed()
	return r
}

func (r *catalogRepo) seed() {
	for _, c := range []catalog.Category{
		{ID: "cat-vaccines", Name: "Vaccines"},
		{ID: "cat-medicine", Name: "Medicine"},
		{ID: "cat-supplies", Name: "Supplies"},
	} {
		r.categories[c.ID] = c
	}

	for _, p := range []catalog.Product{
		{ID: "prod-rabies", Name: "Rabies Vaccine", Price: 350.00, CategoryID: "cat-vaccines"},
		{ID: "prod-5in1", Name: "5-in-1 Vaccine", Price: 550.00, CategoryID: "cat-vaccines"},
		{ID: "prod-kennel", Name: "Kennel Cough Vaccine", Price: 480.00, CategoryID: "cat-vaccines"},
		{ID: "prod-dewormer", Name: "Deworming Tablet", Price: 150.00, CategoryID: "cat-medicine"},
		{ID: "prod-antibiotic", Name: "Amoxicillin 250mg", Price: 200.00, CategoryID: "cat-medicine"},
		{ID: "prod-ecollar", Name: "E-Collar (medium)", Price: 180.00, CategoryID: "cat-supplies"},
	} {
		r.products[p.ID] = p
	}

	for _, s := range []catalog.Service{
		{ID: "svc-checkup", Name: "General Check-up", Price: 500.00},
		{ID: "svc-vaccination", Name: "Vaccination", Price: 300.00},
		{ID: "svc-grooming", Name: "Full Grooming", Price: 450.00},
		{ID: "svc-dental", Name: "Dental Cleaning", Price: 800.00},
	} {
		r.services[s.ID] = s
	}
}

func (r *catalogRepo) ListServices(ctx context.Context) ([]catalog.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Service, 0, len(r.services))
	for _, s := range r.services {
		out = append(out, s)
	}
	return out, nil
}

func (r *catalogRepo) GetService(ctx context.Context, id string) (catalog.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.services[id]
	if !ok {
		return catalog.Service{}, catalog.ErrNotFound
	}
	return s, nil
}

func (r *catalogRepo) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *catalogRepo) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (r *catalogRepo) FindCategoryByName(ctx context.Context, name string) (catalog.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return catalog.Category{}, catalog.ErrNotFound
}

// SetProductPrice existe para simular ediciones de catálogo en dev/tests
// (p.ej. verificar que los consumos conservan el precio snapshot).
func (r *catalogRepo) SetProductPrice(id string, price float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return catalog.ErrNotFound
	}
	p.Price = price
	r.products[id] = p
	return nil
}

var _ catalog.Repository = (*catalogRepo)(nil)
