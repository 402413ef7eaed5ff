package models

import "time"

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parent_id"`
	Type      string    `json:"type"`
	Icon      *string   `json:"icon"`
	Color     *string   `json:"color"`
	IsSystem  bool      `json:"is_system"`
	IsDefault bool      `json:"is_default"`
	UserID    *int64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
