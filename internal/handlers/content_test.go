package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/mediatower/internal/database"
	"github.com/example/mediatower/internal/models"
)

func newContentApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	handler := NewContentHandler(db)
	app := fiber.New()
	app.Get("/content/:slug", handler.GetBySlug)
	app.Post("/content", handler.Create)
	return app, db
}

func TestContentCreateRejectsDuplicateSlug(t *testing.T) {
	app, _ := newContentApp(t)

	body := []byte(`{"slug":"About","titles":{"en":"About Us"},"bodies":{"en":"Hello"}}`)

	req := httptest.NewRequest(http.MethodPost, "/content", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/content", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestContentGetBySlug(t *testing.T) {
	app, db := newContentApp(t)

	require.NoError(t, db.Create(&models.Content{
		Slug:   "terms",
		Titles: models.Translations{"en": "Terms of Service"},
		Bodies: models.Translations{"en": "The fine print."},
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/content/TERMS", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/content/missing", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
