package model

import (
	"time"

	"github.com/iliyamo/split-bill/internal/money"
)

// MenuItem is a catalog entry. Bills never reference it live; see BillItem.
type MenuItem struct {
	ID           uint64      `json:"id"`
	RestaurantID uint64      `json:"restaurant_id"`
	Name         string      `json:"name"`
	Description  *string     `json:"description"`
	Category     string      `json:"category"`
	Price        money.Money `json:"price"`
	Available    bool        `json:"available"`
	ImageURL     *string     `json:"image_url"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// MenuItemPatch carries only the fields a caller wants to change. An
// absent field is left untouched; an explicit null clears a nullable
// field and is rejected for required ones.
type MenuItemPatch struct {
	Name        Optional[string]      `json:"name"`
	Description Optional[string]      `json:"description"`
	Category    Optional[string]      `json:"category"`
	Price       Optional[money.Money] `json:"price"`
	Available   Optional[bool]        `json:"available"`
	ImageURL    Optional[string]      `json:"imageUrl"`
}

// Empty reports whether the patch changes nothing.
func (p MenuItemPatch) Empty() bool {
	return !p.Name.Set && !p.Description.Set && !p.Category.Set &&
		!p.Price.Set && !p.Available.Set && !p.ImageURL.Set
}

// Apply merges the patch into item. Callers validate the patch first.
func (p MenuItemPatch) Apply(item *MenuItem) {
	if p.Name.Set && !p.Name.Null {
		item.Name = p.Name.Value
	}
	if p.Description.Set {
		item.Description = p.Description.Ptr()
	}
	if p.Category.Set && !p.Category.Null {
		item.Category = p.Category.Value
	}
	if p.Price.Set && !p.Price.Null {
		item.Price = p.Price.Value
	}
	if p.Available.Set && !p.Available.Null {
		item.Available = p.Available.Value
	}
	if p.ImageURL.Set {
		item.ImageURL = p.ImageURL.Ptr()
	}
}
