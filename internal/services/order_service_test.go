package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mediatower/internal/models"
)

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	db := newTestDB(t)
	orders, _ := newTestStack(t, db)

	user := createTestUser(t, db, "buyer@example.com")
	logoPack := createTestProduct(t, db, "Logo Pack", 50)
	fontSet := createTestProduct(t, db, "Font Set", 30)

	order, err := orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &logoPack.ID, Quantity: 2},
		{ProductID: &fontSet.ID, Quantity: 1},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.InDelta(t, 130.0, order.TotalAmount, 0.001)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Logo Pack", order.Items[0].Name)
	assert.InDelta(t, 100.0, order.Items[0].Subtotal, 0.001)

	// Later price changes must not affect the stored snapshot.
	require.NoError(t, db.Model(logoPack).Update("price", 500).Error)
	var stored models.Order
	require.NoError(t, db.Preload("Items").First(&stored, "id = ?", order.ID).Error)
	assert.InDelta(t, 130.0, stored.TotalAmount, 0.001)
}

func TestCreateOrderAppliesPromoCode(t *testing.T) {
	db := newTestDB(t)
	orders, _ := newTestStack(t, db)

	user := createTestUser(t, db, "buyer@example.com")
	product := createTestProduct(t, db, "Logo Pack", 100)

	code := "WELCOME10"
	require.NoError(t, db.Create(&models.Promotion{
		Code:          &code,
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		IsActive:      true,
	}).Error)

	order, err := orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &product.ID, Quantity: 1},
	}, "welcome10")
	require.NoError(t, err)

	assert.InDelta(t, 10.0, order.DiscountAmount, 0.001)
	assert.InDelta(t, 90.0, order.TotalAmount, 0.001)
	require.NotNil(t, order.PromotionID)
}

func TestCreateOrderValidation(t *testing.T) {
	db := newTestDB(t)
	orders, _ := newTestStack(t, db)
	user := createTestUser(t, db, "buyer@example.com")
	product := createTestProduct(t, db, "Logo Pack", 100)

	_, err := orders.CreateOrder(context.Background(), user.ID, nil, "")
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &product.ID, Quantity: 0},
	}, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	free := createTestProduct(t, db, "Freebie", 0)
	_, err = orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &free.ID, Quantity: 1},
	}, "")
	assert.ErrorIs(t, err, ErrZeroTotal)
}

func TestConfirmOrderGrantsAccessAndDelivers(t *testing.T) {
	db := newTestDB(t)
	orders, _ := newTestStack(t, db)

	user := createTestUser(t, db, "buyer@example.com")
	logoPack := createTestProduct(t, db, "Logo Pack", 50)
	fontSet := createTestProduct(t, db, "Font Set", 30)

	order, err := orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &logoPack.ID, Quantity: 2},
		{ProductID: &fontSet.ID, Quantity: 1},
	}, "")
	require.NoError(t, err)

	confirmed, err := orders.UpdateStatus(context.Background(), order.ID, "CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, confirmed.Status)

	var accesses []models.UserProductAccess
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&accesses).Error)
	assert.Len(t, accesses, 2)
	require.NotNil(t, accesses[0].AccessExpiresAt)
	assert.WithinDuration(t, accesses[0].PurchaseDate.AddDate(2, 0, 0), *accesses[0].AccessExpiresAt, time.Second)
}

func TestConfirmOrderIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	orders, _ := newTestStack(t, db)

	user := createTestUser(t, db, "buyer@example.com")
	product := createTestProduct(t, db, "Logo Pack", 50)

	order, err := orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &product.ID, Quantity: 1},
	}, "")
	require.NoError(t, err)

	_, err = orders.UpdateStatus(context.Background(), order.ID, "CONFIRMED")
	require.NoError(t, err)

	// A redelivered confirmation lands on a DELIVERED order and is a no-op.
	again, err := orders.UpdateStatus(context.Background(), order.ID, "CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, again.Status)

	var count int64
	require.NoError(t, db.Model(&models.UserProductAccess{}).
		Where("user_id = ? AND product_id = ?", user.ID, product.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestConfirmPackOrderGrantsChildProducts(t *testing.T) {
	db := newTestDB(t)
	orders, _ := newTestStack(t, db)

	user := createTestUser(t, db, "buyer@example.com")
	logoPack := createTestProduct(t, db, "Logo Pack", 50)
	fontSet := createTestProduct(t, db, "Font Set", 30)

	bundle := models.ProductPack{
		Names:    models.Translations{"en": "Brand Bundle"},
		Price:    70,
		Products: []models.Product{*logoPack, *fontSet},
	}
	require.NoError(t, db.Create(&bundle).Error)

	order, err := orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{PackID: &bundle.ID, Quantity: 1},
	}, "")
	require.NoError(t, err)
	assert.InDelta(t, 70.0, order.TotalAmount, 0.001)

	_, err = orders.UpdateStatus(context.Background(), order.ID, "CONFIRMED")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.UserProductAccess{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestOrderTransitionRules(t *testing.T) {
	db := newTestDB(t)
	orders, _ := newTestStack(t, db)

	user := createTestUser(t, db, "buyer@example.com")
	product := createTestProduct(t, db, "Logo Pack", 50)

	order, err := orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &product.ID, Quantity: 1},
	}, "")
	require.NoError(t, err)

	_, err = orders.UpdateStatus(context.Background(), order.ID, "banana")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	cancelled, err := orders.UpdateStatus(context.Background(), order.ID, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)

	// Cancelled is terminal.
	_, err = orders.UpdateStatus(context.Background(), order.ID, "SHIPPED")
	var transition *TransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestHasPurchasedProduct(t *testing.T) {
	db := newTestDB(t)
	orders, _ := newTestStack(t, db)

	user := createTestUser(t, db, "buyer@example.com")
	product := createTestProduct(t, db, "Logo Pack", 50)

	has, err := orders.HasPurchasedProduct(context.Background(), user.ID, product.ID)
	require.NoError(t, err)
	assert.False(t, has)

	order, err := orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &product.ID, Quantity: 1},
	}, "")
	require.NoError(t, err)
	_, err = orders.UpdateStatus(context.Background(), order.ID, "CONFIRMED")
	require.NoError(t, err)

	has, err = orders.HasPurchasedProduct(context.Background(), user.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestCreateOrderRejectsFullyDiscountedTotal(t *testing.T) {
	db := newTestDB(t)
	orders, _ := newTestStack(t, db)

	user := createTestUser(t, db, "buyer@example.com")
	product := createTestProduct(t, db, "Logo Pack", 100)

	code := "EVERYTHING"
	require.NoError(t, db.Create(&models.Promotion{
		Code:          &code,
		DiscountType:  models.DiscountFixedAmount,
		DiscountValue: 150,
		IsActive:      true,
	}).Error)

	// The fixed discount is capped at the subtotal, which would leave nothing
	// to charge.
	_, err := orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &product.ID, Quantity: 1},
	}, "everything")
	assert.ErrorIs(t, err, ErrZeroTotal)
}
