package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/sirupsen/logrus"
)

type FileRemover interface {
	Delete(ref string) error
}

type CatalogUseCase struct {
	storage models.CatalogStorage
	images  FileRemover
}

func NewCatalogUseCase(storage models.CatalogStorage, images FileRemover) *CatalogUseCase {
	return &CatalogUseCase{storage: storage, images: images}
}

func validateCoordinates(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return apperrors.Validation("latitude and longitude must be given together")
	}
	if lat != nil && (*lat < -90 || *lat > 90 || *lon < -180 || *lon > 180) {
		return apperrors.Validation("coordinates %v,%v are out of range", *lat, *lon)
	}
	return nil
}

func (uc *CatalogUseCase) CreateStore(ctx context.Context, p models.Principal, store models.Store) (models.Store, error) {
	if err := requireAdmin(p, "creating stores"); err != nil {
		return models.Store{}, err
	}
	store.Name = strings.TrimSpace(store.Name)
	if store.Name == "" {
		return models.Store{}, apperrors.Validation("store name is required")
	}
	if err := validateCoordinates(store.Latitude, store.Longitude); err != nil {
		return models.Store{}, err
	}

	created, err := uc.storage.CreateStore(ctx, store)
	if err != nil {
		return models.Store{}, fmt.Errorf("failed to create store: %w", err)
	}
	logrus.WithField("store_id", created.ID).Info("Store created")
	return created, nil
}

func (uc *CatalogUseCase) ListStores(ctx context.Context) ([]models.Store, error) {
	return uc.storage.ListStores(ctx)
}

// DeleteStore fails with ErrInvalidTransition while products still reference the store.
func (uc *CatalogUseCase) DeleteStore(ctx context.Context, p models.Principal, id int64) error {
	if err := requireAdmin(p, "deleting stores"); err != nil {
		return err
	}
	if err := uc.storage.DeleteStore(ctx, id); err != nil {
		return err
	}
	logrus.WithField("store_id", id).Info("Store deleted")
	return nil
}

func (uc *CatalogUseCase) CreateProduct(ctx context.Context, p models.Principal, product models.Product) (models.Product, error) {
	if err := requireAdmin(p, "creating products"); err != nil {
		return models.Product{}, err
	}
	product.Title = strings.TrimSpace(product.Title)
	if product.Title == "" {
		return models.Product{}, apperrors.Validation("product title is required")
	}
	if product.Price <= 0 {
		return models.Product{}, apperrors.Validation("price must be positive, got %d", product.Price)
	}
	if _, err := uc.storage.GetStore(ctx, product.StoreID); err != nil {
		return models.Product{}, err
	}

	created, err := uc.storage.CreateProduct(ctx, product)
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to create product: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"product_id": created.ID,
		"store_id":   created.StoreID,
		"price":      created.Price,
	}).Info("Product created")
	return created, nil
}

func (uc *CatalogUseCase) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	return uc.storage.GetProduct(ctx, id)
}

// ListProducts lists the whole catalog, or one store's products when storeID is set.
func (uc *CatalogUseCase) ListProducts(ctx context.Context, storeID *int64) ([]models.Product, error) {
	return uc.storage.ListProducts(ctx, storeID)
}

// DeleteProduct removes the product and then its image. Placed orders keep
// their priced line items.
func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, p models.Principal, id int64) error {
	if err := requireAdmin(p, "deleting products"); err != nil {
		return err
	}
	product, err := uc.storage.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.storage.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if product.ImagePath != "" {
		if err := uc.images.Delete(product.ImagePath); err != nil {
			logrus.WithError(err).WithField("product_id", id).Warn("Failed to remove product image")
		}
	}
	logrus.WithField("product_id", id).Info("Product deleted")
	return nil
}
