package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type Customer struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	ContactEmail *string    `json:"contact_email"`
	Industry     *string    `json:"industry"`
	Status       string     `json:"status"`
	Address      *string    `json:"address"`
	Phone        *string    `json:"phone"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type ProjectManager struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type Project struct {
	ID             int64      `json:"id"`
	ProjectID      string     `json:"project_id"`
	Name           string     `json:"name"`
	Description    *string    `json:"description"`
	Customer       *string    `json:"customer"`
	ProjectManager *string    `json:"project_manager"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

type TimeEntry struct {
	ID              int64       `json:"id"`
	WeekNumber      int32       `json:"week_number"`
	Month           string      `json:"month"`
	Category        string      `json:"category"`
	Subcategory     string      `json:"subcategory"`
	Customer        *string     `json:"customer"`
	Project         *string     `json:"project"`
	TaskDescription *string     `json:"task_description"`
	Hours           float64     `json:"hours"`
	Date            pgtype.Date `json:"date"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       *time.Time  `json:"updated_at"`
}

// HoursSummaryRow is one (project, customer) group of a date range.
type HoursSummaryRow struct {
	Project    *string `json:"project"`
	Customer   *string `json:"customer"`
	TotalHours float64 `json:"total_hours"`
}
