package repositories

import "gostore/internal/models"

// UserRepository defines the interface for user data access. Lookups return
// (nil, nil) when no record matches. Cart entries are embedded in the user
// record; GetByID loads them in insertion order.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByID(id string) (*models.User, error)

	AddCartItem(userID string, item models.CartItem) error
	UpdateCartQuantity(userID, productID string, quantity int) error
	RemoveCartItem(userID, productID string) error
}
