package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/catalogue/internal/models"
)

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

func (r *GormRepo) GetProduct(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// IncrementViews bumps the counter in a single statement so concurrent
// readers never lose an increment, then returns the stored row.
func (r *GormRepo) IncrementViews(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).
			Where("sku = ?", sku).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("sku = ?", sku).First(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct writes only the given columns. after, when set, runs inside
// the same transaction with the updated row; an error from it rolls back.
func (r *GormRepo) UpdateProduct(ctx context.Context, sku string, changes map[string]any, after func(*models.Product) error) (*models.Product, error) {
	var product models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(changes) > 0 {
			res := tx.Model(&models.Product{}).Where("sku = ?", sku).Updates(changes)
			if res.Error != nil {
				return res.Error
			}
		}
		if err := tx.Where("sku = ?", sku).First(&product).Error; err != nil {
			return err
		}
		if after != nil {
			return after(&product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, sku string) error {
	res := r.DB.WithContext(ctx).Where("sku = ?", sku).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListProducts pages by creation time with sku as tie-breaker so the
// order is stable across requests.
func (r *GormRepo) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Order("created_at ASC").
		Order("sku ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}
