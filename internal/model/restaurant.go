package model

import "time"

type RestaurantStatus string

const (
	RestaurantActive    RestaurantStatus = "active"
	RestaurantSuspended RestaurantStatus = "suspended"
	RestaurantClosed    RestaurantStatus = "closed"
)

func (s RestaurantStatus) Valid() bool {
	switch s {
	case RestaurantActive, RestaurantSuspended, RestaurantClosed:
		return true
	}
	return false
}

type Restaurant struct {
	ID           ID               `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone,omitempty"`
	Siret        string           `json:"siret,omitempty"`
	Address      string           `json:"address,omitempty"`
	Status       RestaurantStatus `json:"status"`
	IsConfigured bool             `json:"is_configured"`
	Settings     map[string]any   `json:"settings,omitempty"`
	Stats        *RestaurantStats `json:"stats,omitempty"`
	CreatedAt    *time.Time       `json:"created_at,omitempty"`
	UpdatedAt    *time.Time       `json:"updated_at,omitempty"`
}

// RestaurantStats is a read-only aggregate computed by the backend.
type RestaurantStats struct {
	Users        int        `json:"users_count"`
	Products     int        `json:"products_count"`
	Recipes      int        `json:"recipes_count"`
	Receptions   int        `json:"receptions_count"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}
