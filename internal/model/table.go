package model

import "time"

// RestaurantID scopes tables, menu items and staff. The service runs a
// single restaurant.
const RestaurantID uint64 = 1

// Table occupancy states.
const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
)

// Table is a physical seating unit. It is created the first time a bill
// is opened for an unseen table number and is occupied while that bill
// is open.
//
// Fields:
//
//	ID           – restaurant_tables.id
//	RestaurantID – restaurant_tables.restaurant_id
//	TableNumber  – number printed on the table, unique per restaurant
//	Status       – available or occupied
//	CreatedAt    – restaurant_tables.created_at
type Table struct {
	ID           uint64    `json:"id"`
	RestaurantID uint64    `json:"restaurant_id"`
	TableNumber  int       `json:"table_number"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
