package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"gostore/internal/middleware"
	"gostore/internal/models"
	"gostore/internal/services"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Post("/register", h.HandleRegister)
	router.Post("/login", h.HandleLogin)
	router.Get("/checkauth", requireAuth, h.HandleCheckAuth)
	router.Post("/logout", requireAuth, h.HandleLogout)
}

// registerRequest is the payload for POST /register.
type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=6,max=50"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// loginRequest is the payload for POST /login.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	id, err := h.authService.Register(req.Email, req.Username, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":  id,
		"msg": "User created successfully",
	})
}

// HandleLogin authenticates a user. The session token is echoed in the
// Authorization response header; the body carries the user without the
// password field.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	token, user, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set("Authorization", token)
	return c.JSON(user)
}

// HandleCheckAuth returns the currently signed-in user.
func (h *AuthHandler) HandleCheckAuth(c *fiber.Ctx) error {
	user := c.Locals(middleware.UserKey).(*models.User)
	return c.JSON(user)
}

// HandleLogout invalidates the current session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	user := c.Locals(middleware.UserKey).(*models.User)
	token := c.Locals(middleware.TokenKey).(string)

	if err := h.authService.Logout(c.UserContext(), token, user.ID); err != nil {
		logrus.WithError(err).Error("failed to log out user")
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"msg": "User logged out successfully"})
}
