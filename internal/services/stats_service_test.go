package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mediatower/internal/models"
)

func TestDashboardSummaryCounts(t *testing.T) {
	db := newTestDB(t)
	orders, _ := newTestStack(t, db)
	stats := NewStatsService(db)

	category := models.Category{Names: models.Translations{"en": "Design"}}
	require.NoError(t, db.Create(&category).Error)

	user := createTestUser(t, db, "buyer@example.com")
	product := createTestProduct(t, db, "Logo Pack", 50)
	require.NoError(t, db.Model(product).Update("category_id", category.ID).Error)

	delivered, err := orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &product.ID, Quantity: 2},
	}, "")
	require.NoError(t, err)
	_, err = orders.UpdateStatus(context.Background(), delivered.ID, "CONFIRMED")
	require.NoError(t, err)

	_, err = orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &product.ID, Quantity: 1},
	}, "")
	require.NoError(t, err)

	summary, err := stats.Dashboard(context.Background(), time.Now())
	require.NoError(t, err)

	assert.EqualValues(t, 2, summary.NewOrders)
	assert.EqualValues(t, 1, summary.NewUsers)
	assert.EqualValues(t, 1, summary.PendingOrders)
	assert.InDelta(t, 100.0, summary.Revenue, 0.001)
	assert.InDelta(t, 50.0, summary.AverageOrderValue, 0.001)

	require.Len(t, summary.SalesByDay, 1)
	assert.InDelta(t, 100.0, summary.SalesByDay[0].Revenue, 0.001)

	require.Len(t, summary.TopProducts, 1)
	assert.Equal(t, "Logo Pack", summary.TopProducts[0].Name)
	assert.EqualValues(t, 3, summary.TopProducts[0].TotalSold)

	require.Len(t, summary.RevenueByCategory, 1)
	assert.Equal(t, "Design", summary.RevenueByCategory[0].Name)
	assert.InDelta(t, 150.0, summary.RevenueByCategory[0].Revenue, 0.001)
}

func TestDashboardTrendAgainstPreviousPeriod(t *testing.T) {
	db := newTestDB(t)
	orders, _ := newTestStack(t, db)
	stats := NewStatsService(db)

	user := createTestUser(t, db, "buyer@example.com")
	product := createTestProduct(t, db, "Logo Pack", 50)

	order, err := orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &product.ID, Quantity: 1},
	}, "")
	require.NoError(t, err)

	// Push the order into the previous 30-day window.
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("ordered_at", time.Now().Add(-40*24*time.Hour)).Error)

	summary, err := stats.Dashboard(context.Background(), time.Now())
	require.NoError(t, err)

	assert.EqualValues(t, 0, summary.NewOrders)
	assert.InDelta(t, -100.0, summary.NewOrdersChangePct, 0.001)
}

func TestUserStats(t *testing.T) {
	db := newTestDB(t)
	orders, bookings := newTestStack(t, db)
	stats := NewStatsService(db)

	user := createTestUser(t, db, "buyer@example.com")
	product := createTestProduct(t, db, "Logo Pack", 80)
	svc := createTestService(t, db, "Logo Design", 200)

	order, err := orders.CreateOrder(context.Background(), user.ID, []OrderLineInput{
		{ProductID: &product.ID, Quantity: 1},
	}, "")
	require.NoError(t, err)
	_, err = orders.UpdateStatus(context.Background(), order.ID, "CONFIRMED")
	require.NoError(t, err)

	_, err = bookings.CreateBooking(context.Background(), user.ID, svc.ID, "")
	require.NoError(t, err)

	mine, err := stats.ForUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, mine.OrderCount)
	assert.InDelta(t, 80.0, mine.TotalSpent, 0.001)
	assert.EqualValues(t, 1, mine.BookingCount)
	assert.EqualValues(t, 1, mine.ProductCount)
}
