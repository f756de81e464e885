package model

import "time"

// ExchangeLog records one completed chat turn for later inspection.
type ExchangeLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:64;not null;index" json:"session_id"`
	Query     string    `gorm:"type:text;not null" json:"query"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	ToolName  string    `gorm:"size:64" json:"tool_name,omitempty"`
	ToolQuery string    `gorm:"size:512" json:"tool_query,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
