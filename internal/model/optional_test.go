package model

import (
	"encoding/json"
	"testing"

	"github.com/iliyamo/split-bill/internal/money"
)

func TestMenuItemPatchDecode(t *testing.T) {
	var p MenuItemPatch
	body := `{"name":"Soup","description":null,"price":"4,50"}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !p.Name.Set || p.Name.Null || p.Name.Value != "Soup" {
		t.Errorf("name = %+v", p.Name)
	}
	if !p.Description.Set || !p.Description.Null {
		t.Errorf("description should be an explicit null: %+v", p.Description)
	}
	if !p.Price.Set || !p.Price.Value.Equal(money.MustParse("4.50")) {
		t.Errorf("price = %+v", p.Price)
	}
	if p.Category.Set || p.Available.Set || p.ImageURL.Set {
		t.Error("absent fields must stay unset")
	}
	if p.Empty() {
		t.Error("patch should not be empty")
	}
}

func TestMenuItemPatchApply(t *testing.T) {
	desc := "old description"
	img := "http://img/old.png"
	item := MenuItem{
		Name:        "Soup",
		Description: &desc,
		Category:    "starters",
		Price:       money.MustParse("4.00"),
		Available:   true,
		ImageURL:    &img,
	}

	var p MenuItemPatch
	if err := json.Unmarshal([]byte(`{"description":null,"available":false,"price":5}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p.Apply(&item)

	if item.Description != nil {
		t.Errorf("description should be cleared, got %q", *item.Description)
	}
	if item.Available {
		t.Error("available should be false")
	}
	if !item.Price.Equal(money.FromInt(5)) {
		t.Errorf("price = %s", item.Price)
	}
	if item.Name != "Soup" || item.Category != "starters" {
		t.Errorf("untouched fields changed: %+v", item)
	}
	if item.ImageURL == nil || *item.ImageURL != img {
		t.Error("image url should be untouched")
	}
}

func TestEmptyPatch(t *testing.T) {
	var p MenuItemPatch
	if err := json.Unmarshal([]byte(`{}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !p.Empty() {
		t.Error("expected empty patch")
	}
}

func TestOptionalPtr(t *testing.T) {
	if Some(3).Ptr() == nil || *Some(3).Ptr() != 3 {
		t.Error("Some(3).Ptr() should point at 3")
	}
	var absent Optional[int]
	if absent.Ptr() != nil {
		t.Error("absent optional should yield nil")
	}
	null := Optional[int]{Set: true, Null: true}
	if null.Ptr() != nil {
		t.Error("null optional should yield nil")
	}
}
