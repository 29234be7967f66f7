package repositories

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"gostore/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*models.User),
	}
}

// Create adds a new user.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.AccessLevel == 0 {
		user.AccessLevel = 1
	}
	stored := *user
	stored.Cart = append([]models.CartItem(nil), user.Cart...)
	r.users[user.ID] = &stored
	return nil
}

func (r *MockUserRepository) findBy(match func(*models.User) bool) *models.User {
	for _, u := range r.users {
		if match(u) {
			copied := *u
			copied.Cart = append([]models.CartItem(nil), u.Cart...)
			return &copied
		}
	}
	return nil
}

// GetByEmail returns the user with the given email, or nil.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findBy(func(u *models.User) bool { return u.Email == email }), nil
}

// GetByUsername returns the user with the given username, or nil.
func (r *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findBy(func(u *models.User) bool { return u.Username == username }), nil
}

// GetByID returns the user with the given ID, or nil.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	copied.Cart = append([]models.CartItem(nil), u.Cart...)
	return &copied, nil
}

// AddCartItem appends a cart entry for the user.
func (r *MockUserRepository) AddCartItem(userID string, item models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user with ID %s not found", userID)
	}
	item.UserID = userID
	u.Cart = append(u.Cart, item)
	return nil
}

// UpdateCartQuantity replaces the quantity of an existing cart entry.
func (r *MockUserRepository) UpdateCartQuantity(userID, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user with ID %s not found", userID)
	}
	for i := range u.Cart {
		if u.Cart[i].ProductID == productID {
			u.Cart[i].Quantity = quantity
			return nil
		}
	}
	return fmt.Errorf("cart entry for user %s, product %s not found", userID, productID)
}

// RemoveCartItem removes a cart entry.
func (r *MockUserRepository) RemoveCartItem(userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user with ID %s not found", userID)
	}
	for i := range u.Cart {
		if u.Cart[i].ProductID == productID {
			u.Cart = append(u.Cart[:i], u.Cart[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("cart entry for user %s, product %s not found", userID, productID)
}
