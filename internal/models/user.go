package models

// User roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an authenticated account.
type User struct {
	BaseModel
	Email        string `gorm:"uniqueIndex" json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PasswordHash string `json:"-"`
	Role         string `gorm:"default:USER" json:"role"`
	MFASecret    string `gorm:"column:mfa_secret" json:"-"`
	MFAEnabled   bool   `gorm:"column:mfa_enabled" json:"mfa_enabled"`

	Orders   []Order             `json:"orders,omitempty"`
	Bookings []Booking           `gorm:"foreignKey:CustomerID" json:"bookings,omitempty"`
	Accesses []UserProductAccess `json:"accesses,omitempty"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
