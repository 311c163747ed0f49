package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/mediatower/internal/database"
	"github.com/example/mediatower/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := models.User{
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Role:      models.RoleUser,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price float64) *models.Product {
	t.Helper()

	product := models.Product{
		Names:    models.Translations{"en": name},
		Price:    price,
		IsActive: true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func createTestService(t *testing.T, db *gorm.DB, name string, price float64) *models.Service {
	t.Helper()

	svc := models.Service{
		Names:    models.Translations{"en": name},
		Price:    price,
		IsActive: true,
	}
	require.NoError(t, db.Create(&svc).Error)
	return &svc
}

// newTestStack wires the service graph against an in-memory database with an
// unconfigured mailer, which logs and skips instead of sending.
func newTestStack(t *testing.T, db *gorm.DB) (*OrderService, *BookingService) {
	t.Helper()

	mailer := NewEmailService("", "", "test@mediatower.example")
	notifications := NewNotificationService(db)
	promotions := NewPromotionService(db)
	delivery := NewDeliveryService(db, mailer, notifications)
	orders := NewOrderService(db, delivery, promotions)
	bookings := NewBookingService(db, mailer, notifications)
	return orders, bookings
}
