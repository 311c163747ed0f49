package models

// Setting is one runtime-tunable site parameter (logo URL, contact email,
// maintenance flag). Keys are fixed strings the frontend knows about.
type Setting struct {
	BaseModel
	Key   string `gorm:"size:64;uniqueIndex" json:"key"`
	Value string `gorm:"size:2000" json:"value"`
}
