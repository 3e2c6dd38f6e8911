package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/iliyamo/split-bill/internal/model"
	"github.com/iliyamo/split-bill/internal/repository"
)

func decodePatch(t *testing.T, body string) model.MenuItemPatch {
	t.Helper()
	var p model.MenuItemPatch
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return p
}

func TestValidateMenuPatch(t *testing.T) {
	tests := []struct {
		body    string
		wantErr bool
	}{
		{body: `{}`},
		{body: `{"description":null,"imageUrl":null}`},
		{body: `{"name":"Soup","price":"3,50"}`},
		{body: `{"name":null}`, wantErr: true},
		{body: `{"price":null}`, wantErr: true},
		{body: `{"available":null}`, wantErr: true},
		{body: `{"category":"  "}`, wantErr: true},
		{body: `{"price":-1}`, wantErr: true},
		{body: `{"price":"0.000001"}`},
		{body: `{"price":"0.1234567"}`, wantErr: true},
	}
	for _, tt := range tests {
		err := ValidateMenuPatch(decodePatch(t, tt.body))
		if tt.wantErr != (err != nil) {
			t.Errorf("%s: err = %v", tt.body, err)
		}
		if err != nil && !errors.Is(err, repository.ErrValidation) {
			t.Errorf("%s: error %v is not a validation error", tt.body, err)
		}
	}
}

func TestMenuServiceCreateAndUpdate(t *testing.T) {
	f := newFixture(t, stubQR{})
	ctx := context.Background()
	menu := NewMenuService(f.menu, nil)

	if _, err := menu.Create(ctx, CreateMenuItemInput{Name: "Soup"}); !errors.Is(err, repository.ErrValidation) {
		t.Errorf("missing fields err = %v", err)
	}
	if _, err := menu.Create(ctx, CreateMenuItemInput{Name: "Crumb", Category: "extras", Price: price("0.1234567")}); !errors.Is(err, repository.ErrValidation) {
		t.Errorf("too precise err = %v", err)
	}
	desc := "hot"
	item, err := menu.Create(ctx, CreateMenuItemInput{Name: " Soup ", Category: "starters", Price: price("4.50"), Description: &desc})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Name != "Soup" || !item.Available {
		t.Errorf("created = %+v", item)
	}

	same, err := menu.Update(ctx, item.ID, decodePatch(t, `{}`))
	if err != nil || same.Name != "Soup" {
		t.Errorf("empty patch = %+v, %v", same, err)
	}
	updated, err := menu.Update(ctx, item.ID, decodePatch(t, `{"description":null,"available":false}`))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != nil || updated.Available || updated.Name != "Soup" {
		t.Errorf("updated = %+v", updated)
	}
	if _, err := menu.Update(ctx, item.ID, decodePatch(t, `{"name":null}`)); !errors.Is(err, repository.ErrValidation) {
		t.Errorf("null name err = %v", err)
	}
	if _, err := menu.Update(ctx, 999, decodePatch(t, `{"name":"x"}`)); !errors.Is(err, repository.ErrMenuItemNotFound) {
		t.Errorf("missing item err = %v", err)
	}

	no := false
	list, err := menu.List(ctx, "", &no)
	if err != nil || len(list) != 1 {
		t.Errorf("unavailable list = %+v, %v", list, err)
	}
	if err := menu.Delete(ctx, item.ID); err != nil {
		t.Errorf("delete: %v", err)
	}
}
