package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslationsGetFallsBackToEnglish(t *testing.T) {
	tr := Translations{"en": "Logo Pack", "fr": "Pack Logo"}

	assert.Equal(t, "Pack Logo", tr.Get("fr"))
	assert.Equal(t, "Logo Pack", tr.Get("de"))
	assert.Equal(t, "Logo Pack", tr.Get(""))

	empty := Translations{"en": "Logo Pack", "fr": ""}
	assert.Equal(t, "Logo Pack", empty.Get("fr"))
}

func TestTranslationsScan(t *testing.T) {
	var tr Translations
	require.NoError(t, tr.Scan([]byte(`{"en":"Logo Pack"}`)))
	assert.Equal(t, "Logo Pack", tr.Get("en"))

	require.NoError(t, tr.Scan(`{"en":"Other"}`))
	assert.Equal(t, "Other", tr.Get("en"))

	require.NoError(t, tr.Scan(nil))
	assert.Nil(t, tr)

	assert.Error(t, tr.Scan(42))
}
