package domain

import "database/sql"

// ReceptionSlip status lifecycle. Transitions only move forward:
// pending/waiting -> repairing -> completed -> paid.
const (
	StatusPending   = "pending"
	StatusWaiting   = "waiting"
	StatusRepairing = "repairing"
	StatusCompleted = "completed"
	StatusPaid      = "paid"
)

type Car struct {
	ID           int64  `db:"id"`
	LicensePlate string `db:"license_plate"`
	OwnerName    string `db:"owner_name"`
	PhoneNumber  string `db:"phone_number"`
	Address      string `db:"address"`
	Email        string `db:"email"`
	VehicleType  string `db:"vehicle_type"`
	Color        string `db:"color"`
}

type ReceptionSlip struct {
	ID            int64  `db:"id"`
	CarID         int64  `db:"car_id"`
	ReceptionDate string `db:"reception_date"`
	Description   string `db:"description"`
	Status        string `db:"status"`
}

type RepairSlip struct {
	ID              int64          `db:"id"`
	ReceptionSlipID int64          `db:"reception_slip_id"`
	TechnicianID    string         `db:"technician_id"`
	StartDate       string         `db:"start_date"`
	EndDate         sql.NullString `db:"end_date"`
}

// RepairDetail is one billable line. ComponentID is NULL for labor-only lines.
// PriceAtTime snapshots the component catalog price at the moment the line was
// added, so later catalog edits never change historical billing.
type RepairDetail struct {
	ID           int64         `db:"id"`
	RepairSlipID int64         `db:"repair_slip_id"`
	ComponentID  sql.NullInt64 `db:"component_id"`
	Quantity     int           `db:"quantity"`
	PriceAtTime  float64       `db:"price_at_time"`
	Category     string        `db:"category"`
	LaborFee     float64       `db:"labor_fee"`
}

type Component struct {
	ID            int64   `db:"id"`
	Name          string  `db:"name"`
	CurrentPrice  float64 `db:"current_price"`
	StockQuantity int     `db:"stock_quantity"`
	IsDeleted     bool    `db:"is_deleted"`
}

type Invoice struct {
	ID           int64   `db:"id"`
	RepairSlipID int64   `db:"repair_slip_id"`
	CashierID    string  `db:"cashier_id"`
	TotalAmount  float64 `db:"total_amount"`
	VATRate      float64 `db:"vat_rate"`
	CreatedAt    string  `db:"created_at"`
}
