package domain

import "time"

// StaffRole представляет роль сотрудника CRM
type StaffRole string

// Роли сотрудников
const (
	RoleAdmin StaffRole = "admin"
	RoleStaff StaffRole = "staff"
)

// StaffUser представляет сотрудника, который работает с CRM через REST API
type StaffUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         StaffRole `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
