package models

// Content is an editable site page (about, terms, FAQ) addressed by slug,
// with translated titles and bodies.
type Content struct {
	BaseModel
	Slug   string       `gorm:"size:128;uniqueIndex" json:"slug"`
	Titles Translations `gorm:"type:jsonb" json:"titles"`
	Bodies Translations `gorm:"type:jsonb" json:"bodies"`
}
