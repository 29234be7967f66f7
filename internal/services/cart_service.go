package services

import (
	"fmt"

	"gostore/internal/models"
	"gostore/internal/repositories"
	"gostore/pkg/storage"
)

// CartService manages the per-user cart embedded in the user record. Every
// operation requires the acting user to own the target cart or hold admin
// rights. Stock is a validation ceiling only: quantities are checked against
// it but stock is never decremented here.
type CartService struct {
	users    repositories.UserRepository
	products repositories.ProductRepository
	images   storage.ImageStore
}

// NewCartService creates a new CartService.
func NewCartService(users repositories.UserRepository, products repositories.ProductRepository, images storage.ImageStore) *CartService {
	return &CartService{
		users:    users,
		products: products,
		images:   images,
	}
}

// owner loads the cart owner and enforces the ownership gate for the acting
// user.
func (s *CartService) owner(actor *models.User, userID string) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, tagged(ErrNotFound, "Invalid user id")
	}
	if actor.ID != user.ID && !actor.IsAdmin() {
		return nil, tagged(ErrForbidden, "User is unauthorized to access this resource")
	}
	return user, nil
}

// List returns the joined product+quantity view of the user's cart, in cart
// order, with image URLs resolved.
func (s *CartService) List(actor *models.User, userID string) ([]models.CartProduct, error) {
	user, err := s.owner(actor, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(user.Cart))
	for _, item := range user.Cart {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.GetByIDs(ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	view := make([]models.CartProduct, 0, len(user.Cart))
	for _, item := range user.Cart {
		product, ok := byID[item.ProductID]
		if !ok {
			continue // product deleted since it was added
		}
		product.ImageURL = s.images.URL(product.ImageName)
		view = append(view, models.CartProduct{Product: product, Quantity: item.Quantity})
	}
	return view, nil
}

// Add appends a product to the user's cart. The product must exist, the
// quantity may not exceed its stock, and duplicate entries are rejected.
func (s *CartService) Add(actor *models.User, userID, productID string, quantity int) error {
	user, err := s.owner(actor, userID)
	if err != nil {
		return err
	}

	product, err := s.products.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return tagged(ErrNotFound, "Invalid product id")
	}
	if product.Stock < quantity {
		return tagged(ErrBadRequest, "Insufficient stock")
	}
	if user.InCart(productID) != nil {
		return tagged(ErrBadRequest, "Product already in cart")
	}

	return s.users.AddCartItem(userID, models.CartItem{ProductID: productID, Quantity: quantity})
}

// UpdateQuantity replaces the quantity of a product already in the cart.
func (s *CartService) UpdateQuantity(actor *models.User, userID, productID string, quantity int) error {
	user, err := s.owner(actor, userID)
	if err != nil {
		return err
	}

	product, err := s.products.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return tagged(ErrNotFound, "Invalid product id")
	}
	if product.Stock < quantity {
		return tagged(ErrBadRequest, "Insufficient stock")
	}
	if user.InCart(productID) == nil {
		return tagged(ErrNotFound, "Product not in cart")
	}

	return s.users.UpdateCartQuantity(userID, productID, quantity)
}

// Remove deletes a product from the user's cart.
func (s *CartService) Remove(actor *models.User, userID, productID string) error {
	user, err := s.owner(actor, userID)
	if err != nil {
		return err
	}

	if user.InCart(productID) == nil {
		return tagged(ErrNotFound, "Product not in cart")
	}
	return s.users.RemoveCartItem(userID, productID)
}
