package models

import (
	"time"
)

// Form is an operator-owned collection of questions. The id is an opaque
// string assigned at creation so that cloned forms never collide.
type Form struct {
	ID          string     `gorm:"primaryKey;type:text"          json:"id"`
	OwnerID     string     `gorm:"type:text;not null;index"      json:"owner_id"`
	Title       string     `gorm:"type:text;not null"            json:"title"`
	Description string     `gorm:"type:text"                     json:"description"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Active      bool       `gorm:"not null"                      json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Questions []Question `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	Responses []Response `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE" json:"-"`
}

// FillableAt reports whether respondents may submit at the given instant.
func (f *Form) FillableAt(now time.Time) bool {
	if !f.Active {
		return false
	}
	if f.StartsAt != nil && now.Before(*f.StartsAt) {
		return false
	}
	if f.EndsAt != nil && now.After(*f.EndsAt) {
		return false
	}
	return true
}
