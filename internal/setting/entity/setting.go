package entity

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Setting is one key-value configuration record. Records are grouped by
// category (for example "temple" or "flags") and the key is unique within it.
type Setting struct {
	ID        string         `db:"id" json:"id"`
	Category  string         `db:"category" json:"category"`
	Key       string         `db:"key" json:"key"`
	Value     types.JSONText `db:"value" json:"value"`
	Version   int64          `db:"version" json:"version"`
	Status    string         `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// NewSetting creates an active, first-version Setting.
func NewSetting(id, category, key string, value types.JSONText) *Setting {
	return &Setting{ID: id, Category: category, Key: key, Value: value, Version: 1, Status: "active"}
}
