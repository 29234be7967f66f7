package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"gostore/internal/middleware"
	"gostore/internal/models"
	"gostore/internal/services"
)

// CartHandler handles HTTP requests for per-user carts. All routes require
// authentication; ownership is enforced in the service.
type CartHandler struct {
	cartService *services.CartService
	validate    *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	cartRoutes := router.Group("/cart", requireAuth)
	cartRoutes.Get("/:user_id", h.HandleList)
	cartRoutes.Post("/:user_id", h.HandleAdd)
	cartRoutes.Put("/:user_id/:product_id", h.HandleUpdateQuantity)
	cartRoutes.Delete("/:user_id/:product_id", h.HandleRemove)
}

// cartAddRequest is the payload for POST /cart/:user_id.
type cartAddRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// cartQuantityRequest is the payload for PUT /cart/:user_id/:product_id.
type cartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

func actingUser(c *fiber.Ctx) *models.User {
	return c.Locals(middleware.UserKey).(*models.User)
}

// HandleList returns the joined product+quantity view of a cart.
func (h *CartHandler) HandleList(c *fiber.Ctx) error {
	view, err := h.cartService.List(actingUser(c), c.Params("user_id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(view)
}

// HandleAdd adds a product to a cart.
func (h *CartHandler) HandleAdd(c *fiber.Ctx) error {
	var req cartAddRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	if err := h.cartService.Add(actingUser(c), c.Params("user_id"), req.ProductID, req.Quantity); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"msg": "Product added to cart"})
}

// HandleUpdateQuantity replaces the quantity of a product in a cart.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var req cartQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	if err := h.cartService.UpdateQuantity(actingUser(c), c.Params("user_id"), c.Params("product_id"), req.Quantity); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"msg": "Product quantity updated"})
}

// HandleRemove removes a product from a cart.
func (h *CartHandler) HandleRemove(c *fiber.Ctx) error {
	if err := h.cartService.Remove(actingUser(c), c.Params("user_id"), c.Params("product_id")); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"msg": "Product removed from cart"})
}
