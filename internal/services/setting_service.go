package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/mediatower/internal/models"
)

// defaultSettings are seeded at startup so the frontend always finds every
// key it renders. Existing values are never overwritten.
var defaultSettings = map[string]string{
	"site_title":               "Media Tower",
	"site_tagline":             "Your Digital Content Marketplace",
	"site_logo_url":            "/default-logo.png",
	"site_color_primary":       "#a855f7",
	"contact_email":            "contact@example.com",
	"social_facebook_url":      "",
	"social_twitter_url":       "",
	"social_instagram_url":     "",
	"maintenance_mode_enabled": "false",
	"maintenance_mode_message": "Our site is currently down for maintenance. We'll be back shortly!",
	"seo_home_title":           "Media Tower - Home",
	"seo_home_description":     "Discover amazing digital products and services.",
}

// SettingService manages the site's key/value settings.
type SettingService struct {
	db *gorm.DB
}

func NewSettingService(db *gorm.DB) *SettingService {
	return &SettingService{db: db}
}

// EnsureDefaults inserts any missing default setting. Safe to run on every
// startup.
func (s *SettingService) EnsureDefaults(ctx context.Context) error {
	for key, value := range defaultSettings {
		setting := models.Setting{Key: key, Value: value}
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoNothing: true,
			}).
			Create(&setting).Error; err != nil {
			return err
		}
	}
	return nil
}

// List returns all settings ordered by key.
func (s *SettingService) List(ctx context.Context) ([]models.Setting, error) {
	var settings []models.Setting
	if err := s.db.WithContext(ctx).Order("key").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// SettingInput is one key/value pair in a bulk update.
type SettingInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UpdateAll upserts a batch of settings and returns the full list afterwards.
func (s *SettingService) UpdateAll(ctx context.Context, inputs []SettingInput) ([]models.Setting, error) {
	for _, input := range inputs {
		if input.Key == "" {
			continue
		}
		setting := models.Setting{Key: input.Key, Value: input.Value}
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).
			Create(&setting).Error; err != nil {
			return nil, err
		}
	}
	return s.List(ctx)
}
