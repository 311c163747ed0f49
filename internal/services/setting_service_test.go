package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mediatower/internal/models"
)

func TestEnsureDefaultsSeedsOnce(t *testing.T) {
	db := newTestDB(t)
	settings := NewSettingService(db)

	require.NoError(t, settings.EnsureDefaults(context.Background()))

	var total int64
	require.NoError(t, db.Model(&models.Setting{}).Count(&total).Error)
	assert.EqualValues(t, len(defaultSettings), total)

	// An operator-edited value survives the next startup.
	require.NoError(t, db.Model(&models.Setting{}).
		Where("key = ?", "site_title").
		Update("value", "Custom Title").Error)

	require.NoError(t, settings.EnsureDefaults(context.Background()))

	require.NoError(t, db.Model(&models.Setting{}).Count(&total).Error)
	assert.EqualValues(t, len(defaultSettings), total)

	var title models.Setting
	require.NoError(t, db.First(&title, "key = ?", "site_title").Error)
	assert.Equal(t, "Custom Title", title.Value)
}

func TestUpdateAllUpsertsSettings(t *testing.T) {
	db := newTestDB(t)
	settings := NewSettingService(db)
	require.NoError(t, settings.EnsureDefaults(context.Background()))

	updated, err := settings.UpdateAll(context.Background(), []SettingInput{
		{Key: "site_title", Value: "Renamed"},
		{Key: "custom_banner", Value: "hello"},
		{Key: "", Value: "ignored"},
	})
	require.NoError(t, err)
	assert.Len(t, updated, len(defaultSettings)+1)

	var title, banner models.Setting
	require.NoError(t, db.First(&title, "key = ?", "site_title").Error)
	assert.Equal(t, "Renamed", title.Value)
	require.NoError(t, db.First(&banner, "key = ?", "custom_banner").Error)
	assert.Equal(t, "hello", banner.Value)
}

func TestAuditLogRecordAndList(t *testing.T) {
	db := newTestDB(t)
	audit := NewAuditLogService(db)
	user := createTestUser(t, db, "admin@example.com")

	audit.Record(context.Background(), &user.ID, models.AuditLoginSuccess, "10.0.0.1", "")
	audit.Record(context.Background(), nil, models.AuditLoginFailed, "10.0.0.2", "unknown email ghost@example.com")

	entries, total, err := audit.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, entries, 2)

	actions := []string{entries[0].Action, entries[1].Action}
	assert.Contains(t, actions, models.AuditLoginSuccess)
	assert.Contains(t, actions, models.AuditLoginFailed)
}
