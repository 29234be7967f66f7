package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"gostore/internal/models"
	"gostore/internal/repositories"
	"gostore/pkg/rabbitmq"
	"gostore/pkg/storage"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// ProductInput carries the mutable fields of a product. Updates are a full
// replace of these fields.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
}

// ImageUpload describes an uploaded product image. A nil *ImageUpload means
// no image was provided.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// ProductService handles business logic related to the product catalog,
// including the image lifecycle and catalog event publishing.
type ProductService struct {
	repo   repositories.ProductRepository
	images storage.ImageStore
	mq     *rabbitmq.Client // nil when no broker is configured
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, images storage.ImageStore, mq *rabbitmq.Client) *ProductService {
	return &ProductService{
		repo:   repo,
		images: images,
		mq:     mq,
	}
}

// List retrieves a page of products, newest first. The limit defaults to 100
// and is capped at 500; negative skip is treated as zero.
func (s *ProductService) List(limit, skip int) ([]models.Product, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if skip < 0 {
		skip = 0
	}

	products, err := s.repo.List(limit, skip)
	if err != nil {
		return nil, err
	}
	for i := range products {
		s.annotate(&products[i])
	}
	return products, nil
}

// Get retrieves a single product by its ID.
func (s *ProductService) Get(id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, tagged(ErrNotFound, "Invalid product id")
	}
	s.annotate(product)
	return product, nil
}

// Create persists a new product, uploading its image first when one is
// provided. Products without an image keep the default placeholder.
func (s *ProductService) Create(ctx context.Context, in ProductInput, img *ImageUpload) (*models.Product, error) {
	imageName := models.DefaultImageName
	if img != nil {
		name, err := s.images.Upload(ctx, img.Filename, img.ContentType, img.Reader, img.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to upload product image: %w", err)
		}
		imageName = name
	}

	product := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		ImageName:   imageName,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}

	s.publish("catalog.product.created", product)
	s.annotate(product)
	return product, nil
}

// Update replaces the mutable fields of a product. A new image replaces the
// stored one, deleting the previous blob unless it is the placeholder.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput, img *ImageUpload) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, tagged(ErrNotFound, "Invalid product id")
	}

	if img != nil {
		name, err := s.images.Upload(ctx, img.Filename, img.ContentType, img.Reader, img.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to upload product image: %w", err)
		}
		if product.ImageName != models.DefaultImageName {
			if err := s.images.Delete(ctx, product.ImageName); err != nil {
				logrus.WithError(err).Warnf("failed to delete replaced image %s", product.ImageName)
			}
		}
		product.ImageName = name
	}

	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Stock = in.Stock

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	s.annotate(product)
	return product, nil
}

// Delete removes a product along with its stored image, unless the image is
// the default placeholder.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return tagged(ErrNotFound, "Invalid product id")
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	if product.ImageName != models.DefaultImageName {
		if err := s.images.Delete(ctx, product.ImageName); err != nil {
			logrus.WithError(err).Warnf("failed to delete image %s", product.ImageName)
		}
	}

	s.publish("catalog.product.deleted", product)
	return nil
}

func (s *ProductService) annotate(product *models.Product) {
	product.ImageURL = s.images.URL(product.ImageName)
}

// publish emits a catalog event. A missing broker or publish failure only
// logs: catalog mutations must not fail because the broker is down.
func (s *ProductService) publish(routingKey string, product *models.Product) {
	if s.mq == nil {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"price":      product.Price,
		"stock":      product.Stock,
	})
	if err != nil {
		logrus.WithError(err).Error("failed to marshal catalog event")
		return
	}
	if err := s.mq.Publish(routingKey, body); err != nil {
		logrus.WithError(err).Warnf("failed to publish %s for product %s", routingKey, product.ID)
	}
}
