package models

import "time"

type RecurringTransaction struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	BankAccountID     *int64     `json:"bank_account_id"`
	Title             string     `json:"title"`
	Description       *string    `json:"description"`
	Amount            string     `json:"amount"`
	Frequency         string     `json:"frequency"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	DayOfMonth        *int       `json:"day_of_month"`
	DayOfWeek         *int       `json:"day_of_week"`
	Category          *string    `json:"category"`
	Payee             *string    `json:"payee"`
	IsActive          bool       `json:"is_active"`
	LastProcessedDate *time.Time `json:"last_processed_date"`
	NextOccurrence    time.Time  `json:"next_occurrence"`
	CreatedAt         time.Time  `json:"created_at"`
}
