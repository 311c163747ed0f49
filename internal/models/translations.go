package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Translations stores localized text keyed by language code ("en", "fr", ...).
type Translations map[string]string

// Get returns the text for lang, falling back to English.
func (t Translations) Get(lang string) string {
	if v, ok := t[lang]; ok && v != "" {
		return v
	}
	return t["en"]
}

func (t Translations) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

func (t *Translations) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*t = nil
		return nil
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported translations column type %T", value)
	}
}
