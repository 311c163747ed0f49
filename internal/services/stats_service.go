package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/models"
)

// statsPeriod is the rolling window the dashboard compares against the
// window before it.
const statsPeriod = 30 * 24 * time.Hour

// DashboardSummary is the admin dashboard payload: headline KPIs for the
// last 30 days with trend against the 30 days before, plus chart series.
type DashboardSummary struct {
	NewOrders          int64           `json:"new_orders"`
	NewOrdersChangePct float64         `json:"new_orders_change_pct"`
	NewUsers           int64           `json:"new_users"`
	NewUsersChangePct  float64         `json:"new_users_change_pct"`
	PendingOrders      int64           `json:"pending_orders"`
	Revenue            float64         `json:"revenue"`
	RevenueChangePct   float64         `json:"revenue_change_pct"`
	AverageOrderValue  float64         `json:"average_order_value"`
	SalesByDay         []DailySales    `json:"sales_by_day"`
	TopProducts        []TopProduct    `json:"top_products"`
	RevenueByCategory  []CategorySlice `json:"revenue_by_category"`
}

// DailySales is one point on the revenue chart.
type DailySales struct {
	Day     string  `json:"day"`
	Revenue float64 `json:"revenue"`
}

// TopProduct is a best-seller row.
type TopProduct struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	TotalSold int64     `json:"total_sold"`
}

// CategorySlice is one category's share of revenue.
type CategorySlice struct {
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Revenue    float64   `json:"revenue"`
}

// UserStats summarizes one customer's activity.
type UserStats struct {
	OrderCount   int64   `json:"order_count"`
	TotalSpent   float64 `json:"total_spent"`
	BookingCount int64   `json:"booking_count"`
	ProductCount int64   `json:"product_count"`
}

// StatsService aggregates dashboard and per-user statistics.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// Dashboard computes the admin summary as of now.
func (s *StatsService) Dashboard(ctx context.Context, now time.Time) (*DashboardSummary, error) {
	currentStart := now.Add(-statsPeriod)
	previousStart := currentStart.Add(-statsPeriod)

	summary := &DashboardSummary{}

	ordersCurrent, err := s.countOrdersBetween(ctx, currentStart, now)
	if err != nil {
		return nil, err
	}
	ordersPrevious, err := s.countOrdersBetween(ctx, previousStart, currentStart)
	if err != nil {
		return nil, err
	}
	summary.NewOrders = ordersCurrent
	summary.NewOrdersChangePct = percentageChange(float64(ordersPrevious), float64(ordersCurrent))

	usersCurrent, err := s.countUsersBetween(ctx, currentStart, now)
	if err != nil {
		return nil, err
	}
	usersPrevious, err := s.countUsersBetween(ctx, previousStart, currentStart)
	if err != nil {
		return nil, err
	}
	summary.NewUsers = usersCurrent
	summary.NewUsersChangePct = percentageChange(float64(usersPrevious), float64(usersCurrent))

	if err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ?", models.OrderPending).
		Count(&summary.PendingOrders).Error; err != nil {
		return nil, err
	}

	revenueCurrent, err := s.revenueBetween(ctx, currentStart, now)
	if err != nil {
		return nil, err
	}
	revenuePrevious, err := s.revenueBetween(ctx, previousStart, currentStart)
	if err != nil {
		return nil, err
	}
	summary.Revenue = revenueCurrent
	summary.RevenueChangePct = percentageChange(revenuePrevious, revenueCurrent)
	if ordersCurrent > 0 {
		summary.AverageOrderValue = revenueCurrent / float64(ordersCurrent)
	}

	if summary.SalesByDay, err = s.salesByDay(ctx, currentStart, now); err != nil {
		return nil, err
	}
	if summary.TopProducts, err = s.topProducts(ctx, 5); err != nil {
		return nil, err
	}
	if summary.RevenueByCategory, err = s.revenueByCategory(ctx); err != nil {
		return nil, err
	}

	return summary, nil
}

// ForUser computes one customer's activity summary.
func (s *StatsService) ForUser(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	stats := &UserStats{}

	if err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID).
		Count(&stats.OrderCount).Error; err != nil {
		return nil, err
	}

	var spent *float64
	if err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("sum(total_amount)").
		Where("user_id = ? AND status = ?", userID, models.OrderDelivered).
		Scan(&spent).Error; err != nil {
		return nil, err
	}
	if spent != nil {
		stats.TotalSpent = *spent
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("customer_id = ?", userID).
		Count(&stats.BookingCount).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&models.UserProductAccess{}).
		Where("user_id = ?", userID).
		Count(&stats.ProductCount).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *StatsService) countOrdersBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("ordered_at >= ? AND ordered_at < ?", start, end).
		Count(&count).Error
	return count, err
}

func (s *StatsService) countUsersBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error
	return count, err
}

// revenueBetween sums delivered order totals inside the window.
func (s *StatsService) revenueBetween(ctx context.Context, start, end time.Time) (float64, error) {
	var revenue *float64
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("sum(total_amount)").
		Where("status = ? AND ordered_at >= ? AND ordered_at < ?", models.OrderDelivered, start, end).
		Scan(&revenue).Error
	if err != nil || revenue == nil {
		return 0, err
	}
	return *revenue, nil
}

func (s *StatsService) salesByDay(ctx context.Context, start, end time.Time) ([]DailySales, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Where("status = ? AND ordered_at >= ? AND ordered_at < ?", models.OrderDelivered, start, end).
		Order("ordered_at").
		Find(&orders).Error; err != nil {
		return nil, err
	}

	// Group in memory: day bucketing in SQL is not portable across the
	// drivers we run against.
	byDay := map[string]float64{}
	days := []string{}
	for _, order := range orders {
		day := order.OrderedAt.Format("2006-01-02")
		if _, seen := byDay[day]; !seen {
			days = append(days, day)
		}
		byDay[day] += order.TotalAmount
	}

	series := make([]DailySales, 0, len(days))
	for _, day := range days {
		series = append(series, DailySales{Day: day, Revenue: byDay[day]})
	}
	return series, nil
}

func (s *StatsService) topProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	var rows []struct {
		ProductID uuid.UUID
		TotalSold int64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("product_id, sum(quantity) as total_sold").
		Where("product_id IS NOT NULL").
		Group("product_id").
		Order("total_sold desc").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	top := make([]TopProduct, 0, len(rows))
	for _, row := range rows {
		var product models.Product
		if err := s.db.WithContext(ctx).First(&product, "id = ?", row.ProductID).Error; err != nil {
			continue
		}
		top = append(top, TopProduct{
			ProductID: row.ProductID,
			Name:      product.Names.Get("en"),
			TotalSold: row.TotalSold,
		})
	}
	return top, nil
}

func (s *StatsService) revenueByCategory(ctx context.Context) ([]CategorySlice, error) {
	var rows []struct {
		CategoryID uuid.UUID
		Revenue    float64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("products.category_id as category_id, sum(order_items.subtotal) as revenue").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.category_id IS NOT NULL").
		Group("products.category_id").
		Order("revenue desc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	slices := make([]CategorySlice, 0, len(rows))
	for _, row := range rows {
		var category models.Category
		if err := s.db.WithContext(ctx).First(&category, "id = ?", row.CategoryID).Error; err != nil {
			continue
		}
		slices = append(slices, CategorySlice{
			CategoryID: row.CategoryID,
			Name:       category.Names.Get("en"),
			Revenue:    row.Revenue,
		})
	}
	return slices, nil
}

func percentageChange(previous, current float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}
