package database

import (
	"time"
)

// Staff roles and statuses
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"

	StaffActive   = "active"
	StaffInactive = "inactive"
)

// Staff represents an employee of the firm. Active staff count against the
// licensed seat maximum.
type Staff struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	Designation  string     `json:"designation,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	JoinedOn     *time.Time `json:"joined_on,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Client represents a client of the CA firm.
type Client struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	PAN             string    `json:"pan,omitempty"`
	GSTIN           string    `json:"gstin,omitempty"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Address         string    `json:"address,omitempty"`
	AssignedStaffID *string   `json:"assigned_staff_id,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Task statuses and priorities
const (
	TaskOpen       = "open"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskCancelled  = "cancelled"

	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Task represents a work assignment against a client.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ClientID    *string    `json:"client_id,omitempty"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Invoice statuses
const (
	InvoiceUnpaid      = "unpaid"
	InvoicePartiallyPaid = "partially_paid"
	InvoicePaid        = "paid"
	InvoiceCancelled   = "cancelled"
)

// Invoice represents a bill raised against a client.
type Invoice struct {
	ID            string     `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	ClientID      string     `json:"client_id"`
	Description   string     `json:"description,omitempty"`
	Amount        float64    `json:"amount"`
	TaxAmount     float64    `json:"tax_amount"`
	Total         float64    `json:"total"`
	Status        string     `json:"status"`
	IssuedOn      time.Time  `json:"issued_on"`
	DueOn         *time.Time `json:"due_on,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Receipt represents a payment received against an invoice.
type Receipt struct {
	ID            string    `json:"id"`
	ReceiptNumber string    `json:"receipt_number"`
	InvoiceID     string    `json:"invoice_id"`
	Amount        float64   `json:"amount"`
	Mode          string    `json:"mode"`
	ReceivedOn    time.Time `json:"received_on"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Attendance is one staff member's presence record for one day.
type Attendance struct {
	ID        string     `json:"id"`
	StaffID   string     `json:"staff_id"`
	Day       time.Time  `json:"day"`
	CheckIn   *time.Time `json:"check_in,omitempty"`
	CheckOut  *time.Time `json:"check_out,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// AuditLog records who did what to which entity.
type AuditLog struct {
	ID         int64     `json:"id"`
	ActorID    string    `json:"actor_id,omitempty"`
	ActorEmail string    `json:"actor_email,omitempty"`
	Action     string    `json:"action"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entity_id,omitempty"`
	Detail     string    `json:"detail,omitempty"` // JSON blob
	CreatedAt  time.Time `json:"created_at"`
}
