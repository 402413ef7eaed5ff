package models

import "time"

type FinancialGoal struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description"`
	TargetAmount  string     `json:"target_amount"`
	CurrentAmount string     `json:"current_amount"`
	StartDate     time.Time  `json:"start_date"`
	TargetDate    *time.Time `json:"target_date"`
	Category      *string    `json:"category"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	CreatedAt     time.Time  `json:"created_at"`
}
