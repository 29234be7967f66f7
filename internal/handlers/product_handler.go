package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"gostore/internal/services"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	productService *services.ProductService
	validate       *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app. Reads are
// public; mutations require an authenticated admin.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, requireAuth, requireAdmin fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleList)
	productRoutes.Get("/:id", h.HandleGet)
	productRoutes.Post("/", requireAuth, requireAdmin, h.HandleCreate)
	productRoutes.Put("/:id", requireAuth, requireAdmin, h.HandleUpdate)
	productRoutes.Delete("/:id", requireAuth, requireAdmin, h.HandleDelete)
}

// productRequest is the form payload for creating or updating a product.
type productRequest struct {
	Name        string  `validate:"required,min=5,max=200"`
	Description string  `validate:"max=2500"`
	Price       float64 `validate:"gte=0,lte=99999.99"`
	Stock       int     `validate:"gte=1"`
}

// parseProductForm reads the multipart/urlencoded form fields of a product
// mutation and validates them before any side effect.
func (h *ProductHandler) parseProductForm(c *fiber.Ctx) (*productRequest, error) {
	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil {
		return nil, respondError(c, fiber.StatusBadRequest, "Price must be a number")
	}
	stock, err := strconv.Atoi(c.FormValue("stock"))
	if err != nil {
		return nil, respondError(c, fiber.StatusBadRequest, "Stock must be an integer")
	}

	req := &productRequest{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       price,
		Stock:       stock,
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, respondValidationError(c, err)
	}
	return req, nil
}

var (
	errNotAnImage      = errors.New("Uploaded file must be an image")
	errUnreadableImage = errors.New("Could not read uploaded image")
)

// parseImage extracts the optional image file from the request. Only files
// with an image/* content type are accepted; a non-nil error means the
// request must be rejected before any side effect.
func (h *ProductHandler) parseImage(c *fiber.Ctx) (*services.ImageUpload, func(), error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, func() {}, nil // no image attached
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, func() {}, errNotAnImage
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, func() {}, errUnreadableImage
	}

	upload := &services.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Reader:      file,
	}
	return upload, func() { file.Close() }, nil
}

// HandleList retrieves a page of products.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	skip := c.QueryInt("skip", 0)

	products, err := h.productService.List(limit, skip)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(products)
}

// HandleGet retrieves a single product by its ID.
func (h *ProductHandler) HandleGet(c *fiber.Ctx) error {
	product, err := h.productService.Get(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(product)
}

// HandleCreate creates a new product with an optional image.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	req, err := h.parseProductForm(c)
	if req == nil {
		return err
	}
	img, closeImg, err := h.parseImage(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}
	defer closeImg()

	product, err := h.productService.Create(c.UserContext(), services.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}, img)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdate replaces the mutable fields of a product.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	req, err := h.parseProductForm(c)
	if req == nil {
		return err
	}
	img, closeImg, err := h.parseImage(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}
	defer closeImg()

	product, err := h.productService.Update(c.UserContext(), c.Params("id"), services.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}, img)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(product)
}

// HandleDelete removes a product and its stored image.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.productService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"msg": "Product deleted successfully"})
}
