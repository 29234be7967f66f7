package repositories

import (
	"gostore/internal/models"
)

// ProductRepository defines the interface for product data access. GetByID
// returns (nil, nil) when no record matches; List returns newest first.
type ProductRepository interface {
	List(limit, skip int) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	GetByIDs(ids []string) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
