package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/split-bill/internal/model"
	"github.com/iliyamo/split-bill/internal/money"
	"github.com/iliyamo/split-bill/internal/repository"
)

// MenuService validates catalog edits. Reads go straight to the repo.
type MenuService struct {
	repo  *repository.MenuRepo
	clock func() time.Time
}

func NewMenuService(repo *repository.MenuRepo, clock func() time.Time) *MenuService {
	if clock == nil {
		clock = time.Now
	}
	return &MenuService{repo: repo, clock: clock}
}

// CreateMenuItemInput is the body of a catalog create. Available
// defaults to true.
type CreateMenuItemInput struct {
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Category    string       `json:"category"`
	Price       *money.Money `json:"price"`
	Available   *bool        `json:"available"`
	ImageURL    *string      `json:"imageUrl"`
}

func (s *MenuService) List(ctx context.Context, category string, available *bool) ([]model.MenuItem, error) {
	return s.repo.List(ctx, strings.TrimSpace(category), available)
}

func (s *MenuService) Get(ctx context.Context, id uint64) (*model.MenuItem, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *MenuService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *MenuService) Create(ctx context.Context, in CreateMenuItemInput) (*model.MenuItem, error) {
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	if name == "" || category == "" || in.Price == nil {
		return nil, repository.ValidationError("name, category and price are required")
	}
	if in.Price.IsNegative() {
		return nil, repository.ValidationError("price must not be negative")
	}
	if !in.Price.WithinScale() {
		return nil, repository.ValidationError("price has more than %d decimal places", money.Scale)
	}
	m := &model.MenuItem{
		Name:        name,
		Description: in.Description,
		Category:    category,
		Price:       *in.Price,
		Available:   in.Available == nil || *in.Available,
		ImageURL:    in.ImageURL,
	}
	if err := s.repo.Create(ctx, m, s.clock().UTC()); err != nil {
		return nil, err
	}
	return m, nil
}

// Update applies a merge-patch. Fields absent from the patch are kept;
// null clears description and image URL and is rejected elsewhere.
func (s *MenuService) Update(ctx context.Context, id uint64, patch model.MenuItemPatch) (*model.MenuItem, error) {
	if err := ValidateMenuPatch(patch); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.Update(ctx, id, patch, s.clock().UTC())
}

func (s *MenuService) Delete(ctx context.Context, id uint64) error {
	return s.repo.Delete(ctx, id)
}

// ValidateMenuPatch rejects nulls on required fields and bad values.
func ValidateMenuPatch(p model.MenuItemPatch) error {
	for field, null := range map[string]bool{
		"name":      p.Name.Null,
		"category":  p.Category.Null,
		"price":     p.Price.Null,
		"available": p.Available.Null,
	} {
		if null {
			return repository.ValidationError("%s cannot be null", field)
		}
	}
	if p.Name.Set && strings.TrimSpace(p.Name.Value) == "" {
		return repository.ValidationError("name cannot be empty")
	}
	if p.Category.Set && strings.TrimSpace(p.Category.Value) == "" {
		return repository.ValidationError("category cannot be empty")
	}
	if p.Price.Set && p.Price.Value.IsNegative() {
		return repository.ValidationError("price must not be negative")
	}
	if p.Price.Set && !p.Price.Value.WithinScale() {
		return repository.ValidationError("price has more than %d decimal places", money.Scale)
	}
	return nil
}
