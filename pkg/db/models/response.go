package models

import (
	"time"
)

// Response is one respondent's submission against a form.
type Response struct {
	ID          uint      `gorm:"primaryKey"                       json:"id"`
	FormID      string    `gorm:"type:text;not null;index"         json:"form_id"`
	SubmittedAt time.Time `gorm:"not null;index"                   json:"submitted_at"`

	// Relationships
	Answers []Answer       `gorm:"foreignKey:ResponseID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
	Files   []UploadedFile `gorm:"foreignKey:ResponseID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

// Answer holds the value given for one question within one response.
// Multi-choice answers keep Value empty and list their picks in Selections.
type Answer struct {
	ID         uint   `gorm:"primaryKey"                                     json:"id"`
	ResponseID uint   `gorm:"not null;uniqueIndex:idx_response_question"     json:"response_id"`
	QuestionID uint   `gorm:"not null;uniqueIndex:idx_response_question;index" json:"question_id"`
	Value      string `gorm:"type:text"                                      json:"value"`

	// Relationships
	Selections []AnswerSelection `gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE" json:"selections,omitempty"`
}

// AnswerSelection is one chosen option of a multi-choice answer. The label
// is a snapshot, since editing a question replaces its option rows.
type AnswerSelection struct {
	ID       uint   `gorm:"primaryKey"     json:"id"`
	AnswerID uint   `gorm:"not null;index" json:"answer_id"`
	OptionID uint   `json:"option_id"`
	Label    string `gorm:"type:text;not null" json:"label"`
	Ordinal  int    `gorm:"not null"       json:"ordinal"`
}

// UploadedFile records an attachment stored in the upload area. Path is
// relative to the upload area root.
type UploadedFile struct {
	ID          uint   `gorm:"primaryKey"                                json:"id"`
	ResponseID  uint   `gorm:"not null;index:idx_upload_response_question" json:"response_id"`
	QuestionID  uint   `gorm:"not null;index:idx_upload_response_question" json:"question_id"`
	Path        string `gorm:"type:text;not null;uniqueIndex"            json:"path"`
	ContentType string `gorm:"type:text"                                 json:"content_type"`
	Size        int64  `json:"size"`
}
