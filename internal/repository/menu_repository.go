package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/split-bill/internal/model"
)

// MenuRepo provides access to the menu_items table.
type MenuRepo struct {
	db *sql.DB
}

func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{db: db} }

const menuColumns = `id, restaurant_id, name, description, category, price, available, image_url, created_at, updated_at`

func scanMenuItem(row rowScanner) (*model.MenuItem, error) {
	var (
		m     model.MenuItem
		desc  sql.NullString
		image sql.NullString
	)
	if err := row.Scan(&m.ID, &m.RestaurantID, &m.Name, &desc, &m.Category, &m.Price,
		&m.Available, &image, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Description = stringPtr(desc)
	m.ImageURL = stringPtr(image)
	return &m, nil
}

func getMenuItem(ctx context.Context, q querier, id uint64) (*model.MenuItem, error) {
	m, err := scanMenuItem(q.QueryRowContext(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id = ? AND restaurant_id = ?`, id, model.RestaurantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMenuItemNotFound
	}
	return m, err
}

// List returns the catalog ordered by category then name. An empty
// category and a nil available leave that filter off.
func (r *MenuRepo) List(ctx context.Context, category string, available *bool) ([]model.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE restaurant_id = ?`
	args := []any{model.RestaurantID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if available != nil {
		query += ` AND available = ?`
		args = append(args, *available)
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY category, name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func (r *MenuRepo) GetByID(ctx context.Context, id uint64) (*model.MenuItem, error) {
	return getMenuItem(ctx, r.db, id)
}

// GetByIDTx reads a catalog entry inside a bill transaction so that the
// snapshot taken for an order line is consistent with the order.
func (r *MenuRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.MenuItem, error) {
	return getMenuItem(ctx, tx, id)
}

// Create inserts m and sets its ID and timestamps.
func (r *MenuRepo) Create(ctx context.Context, m *model.MenuItem, now time.Time) error {
	m.RestaurantID = model.RestaurantID
	m.CreatedAt, m.UpdatedAt = now, now
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO menu_items (restaurant_id, name, description, category, price, available, image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RestaurantID, m.Name, nullString(m.Description), m.Category, m.Price, m.Available,
		nullString(m.ImageURL), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Update applies patch to the stored item and returns the result. Fields
// absent from the patch keep their stored values.
func (r *MenuRepo) Update(ctx context.Context, id uint64, patch model.MenuItemPatch, now time.Time) (*model.MenuItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	m, err := getMenuItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(m)
	m.UpdatedAt = now

	if _, err := tx.ExecContext(ctx,
		`UPDATE menu_items SET name = ?, description = ?, category = ?, price = ?, available = ?, image_url = ?, updated_at = ?
		 WHERE id = ?`,
		m.Name, nullString(m.Description), m.Category, m.Price, m.Available, nullString(m.ImageURL), m.UpdatedAt, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return m, nil
}

func (r *MenuRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM menu_items WHERE id = ? AND restaurant_id = ?`, id, model.RestaurantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

// Categories returns the distinct categories in use.
func (r *MenuRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM menu_items WHERE restaurant_id = ? ORDER BY category`, model.RestaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
