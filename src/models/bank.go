package models

import "time"

// API types for banks. Selects which upstream client strategy is used.
const (
	APITypeOpenBanking = "open_banking"
	APITypeDirect      = "direct_api"
)

type Bank struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	APIBaseURL string    `json:"api_base_url"`
	APIType    string    `json:"api_type"`
	IconURL    *string   `json:"icon_url"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}
