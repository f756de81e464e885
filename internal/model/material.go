package model

import "time"

// Material is one ingested file and the model's analysis of it.
// Analysis stays nil until an analysis call completes; it is replaced, never
// appended, on re-analysis.
type Material struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	FileRef   string    `gorm:"size:512;not null" json:"file_ref"`
	FileName  string    `gorm:"size:255" json:"file_name"`
	MimeType  string    `gorm:"size:128" json:"mime_type"`
	TypeTag   string    `gorm:"size:32;not null;index" json:"file_type"`
	SizeBytes int64     `json:"size_bytes"`
	Analysis  *string   `gorm:"type:text" json:"analysis"`
	CreatedAt time.Time `gorm:"index" json:"uploaded_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Material) HasAnalysis() bool {
	return m.Analysis != nil && *m.Analysis != ""
}

func (m *Material) AnalysisText() string {
	if m.Analysis == nil {
		return ""
	}
	return *m.Analysis
}
