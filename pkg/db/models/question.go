package models

import (
	"time"
)

type QuestionType string

const (
	ShortText    QuestionType = "short_text"
	LongText     QuestionType = "long_text"
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	Dropdown     QuestionType = "dropdown"
)

func (t QuestionType) Valid() bool {
	switch t {
	case ShortText, LongText, SingleChoice, MultiChoice, Dropdown:
		return true
	}
	return false
}

// IsChoice reports whether options are meaningful for the type.
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultiChoice || t == Dropdown
}

// Question is one prompt of a form. Position is unique within the form and
// defines display, fill and export order.
type Question struct {
	ID           uint         `gorm:"primaryKey"                                   json:"id"`
	FormID       string       `gorm:"type:text;not null;uniqueIndex:idx_form_position" json:"form_id"`
	Text         string       `gorm:"type:text;not null"                           json:"text"`
	Type         QuestionType `gorm:"type:text;not null"                           json:"type"`
	Required     bool         `gorm:"not null"                                     json:"required"`
	AllowsUpload bool         `gorm:"not null"                                     json:"allows_upload"`
	Position     int          `gorm:"not null;uniqueIndex:idx_form_position"       json:"position"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Options []Option `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

// Option is a free-text label of a choice question
type Option struct {
	ID         uint   `gorm:"primaryKey"          json:"id"`
	QuestionID uint   `gorm:"not null;index"      json:"question_id"`
	Text       string `gorm:"type:text;not null"  json:"text"`
}
