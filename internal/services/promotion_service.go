package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/models"
)

// PromotionService validates promo codes and computes discounts.
type PromotionService struct {
	db *gorm.DB
}

func NewPromotionService(db *gorm.DB) *PromotionService {
	return &PromotionService{db: db}
}

// ValidateCode looks up an active promotion by code (normalized to uppercase)
// and checks its activity window against the current time.
func (s *PromotionService) ValidateCode(ctx context.Context, code string) (*models.Promotion, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, ErrPromotionNotFound
	}

	var promo models.Promotion
	if err := s.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", normalized, true).
		First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromotionNotFound
		}
		return nil, err
	}

	now := time.Now()
	if promo.StartDate != nil && now.Before(*promo.StartDate) {
		return nil, ErrPromotionNotStarted
	}
	if promo.EndDate != nil && now.After(*promo.EndDate) {
		return nil, ErrPromotionExpired
	}

	return &promo, nil
}

// AutomaticForProduct returns code-less promotions currently applicable to the
// given product.
func (s *PromotionService) AutomaticForProduct(ctx context.Context, productID uuid.UUID) ([]models.Promotion, error) {
	return s.automatic(ctx, "promotion_products", "product_id", productID)
}

// AutomaticForService returns code-less promotions currently applicable to the
// given service.
func (s *PromotionService) AutomaticForService(ctx context.Context, serviceID uuid.UUID) ([]models.Promotion, error) {
	return s.automatic(ctx, "promotion_services", "service_id", serviceID)
}

func (s *PromotionService) automatic(ctx context.Context, joinTable, column string, targetID uuid.UUID) ([]models.Promotion, error) {
	now := time.Now()
	var promos []models.Promotion
	err := s.db.WithContext(ctx).
		Joins("JOIN "+joinTable+" jt ON jt.promotion_id = promotions.id").
		Where("jt."+column+" = ?", targetID).
		Where("promotions.code IS NULL AND promotions.is_active = ?", true).
		Where("promotions.start_date IS NULL OR promotions.start_date <= ?", now).
		Where("promotions.end_date IS NULL OR promotions.end_date >= ?", now).
		Find(&promos).Error
	return promos, err
}

// ComputeDiscount returns the discount for the base amount. The result is
// capped at the base amount so a fixed discount can never produce a negative
// total.
func (s *PromotionService) ComputeDiscount(baseAmount float64, promo *models.Promotion) float64 {
	if promo == nil || baseAmount <= 0 {
		return 0
	}

	var discount float64
	switch promo.DiscountType {
	case models.DiscountPercentage:
		discount = baseAmount * promo.DiscountValue / 100
	case models.DiscountFixedAmount:
		discount = promo.DiscountValue
	default:
		return 0
	}

	if discount > baseAmount {
		discount = baseAmount
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// NormalizeCode uppercases a promo code, mapping blank to nil for automatic
// promotions.
func NormalizeCode(code string) *string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil
	}
	upper := strings.ToUpper(trimmed)
	return &upper
}
