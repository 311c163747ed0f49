package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mediatower/internal/models"
)

func TestValidateCodeNormalizesCase(t *testing.T) {
	db := newTestDB(t)
	svc := NewPromotionService(db)

	code := "SUMMER20"
	promo := models.Promotion{
		Code:          &code,
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 20,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&promo).Error)

	found, err := svc.ValidateCode(context.Background(), "  summer20 ")
	require.NoError(t, err)
	assert.Equal(t, promo.ID, found.ID)
}

func TestValidateCodeUnknown(t *testing.T) {
	db := newTestDB(t)
	svc := NewPromotionService(db)

	_, err := svc.ValidateCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrPromotionNotFound)
}

func TestValidateCodeWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewPromotionService(db)

	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	earlyCode := "EARLY"
	require.NoError(t, db.Create(&models.Promotion{
		Code:          &earlyCode,
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		StartDate:     &future,
		IsActive:      true,
	}).Error)

	lateCode := "LATE"
	require.NoError(t, db.Create(&models.Promotion{
		Code:          &lateCode,
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		EndDate:       &past,
		IsActive:      true,
	}).Error)

	_, err := svc.ValidateCode(context.Background(), "EARLY")
	assert.ErrorIs(t, err, ErrPromotionNotStarted)

	_, err = svc.ValidateCode(context.Background(), "LATE")
	assert.ErrorIs(t, err, ErrPromotionExpired)
}

func TestValidateCodeInactive(t *testing.T) {
	db := newTestDB(t)
	svc := NewPromotionService(db)

	code := "DISABLED"
	require.NoError(t, db.Create(&models.Promotion{
		Code:          &code,
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		IsActive:      false,
	}).Error)

	_, err := svc.ValidateCode(context.Background(), "DISABLED")
	assert.ErrorIs(t, err, ErrPromotionNotFound)
}

func TestComputeDiscount(t *testing.T) {
	svc := NewPromotionService(nil)

	percentage := &models.Promotion{DiscountType: models.DiscountPercentage, DiscountValue: 20}
	assert.InDelta(t, 20.0, svc.ComputeDiscount(100, percentage), 0.001)

	fixed := &models.Promotion{DiscountType: models.DiscountFixedAmount, DiscountValue: 30}
	assert.InDelta(t, 30.0, svc.ComputeDiscount(100, fixed), 0.001)

	// A fixed discount larger than the base is capped, never negative.
	oversized := &models.Promotion{DiscountType: models.DiscountFixedAmount, DiscountValue: 150}
	assert.InDelta(t, 100.0, svc.ComputeDiscount(100, oversized), 0.001)

	assert.Zero(t, svc.ComputeDiscount(100, nil))
	assert.Zero(t, svc.ComputeDiscount(0, percentage))
	assert.Zero(t, svc.ComputeDiscount(100, &models.Promotion{DiscountType: "BOGUS", DiscountValue: 5}))
}

func TestAutomaticForProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewPromotionService(db)

	product := createTestProduct(t, db, "Sample Pack", 40)
	other := createTestProduct(t, db, "Other", 10)

	auto := models.Promotion{
		DiscountType:       models.DiscountPercentage,
		DiscountValue:      15,
		IsActive:           true,
		ApplicableProducts: []models.Product{*product},
	}
	require.NoError(t, db.Create(&auto).Error)

	promos, err := svc.AutomaticForProduct(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, auto.ID, promos[0].ID)

	promos, err = svc.AutomaticForProduct(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Empty(t, promos)
}
