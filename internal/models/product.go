package models

import "time"

// DefaultImageName is the placeholder image assigned to products created
// without an upload. It is never stored in, or deleted from, the image store.
const DefaultImageName = "default.png"

// Product represents a product in the catalog.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(200)"`
	Description string    `json:"description" gorm:"type:varchar(2500)"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	ImageName   string    `json:"image_name" gorm:"type:varchar(255);default:default.png"`
	ImageURL    string    `json:"image_url,omitempty" gorm:"-"` // resolved from ImageName, never persisted
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
