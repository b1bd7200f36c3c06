package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type RepairRepo struct{ db *sqlx.DB }

func NewRepairRepo(db *sqlx.DB) *RepairRepo { return &RepairRepo{db: db} }

// Repair header joined with slip + car info, for detail and invoice pages.
type RepairRow struct {
	RepairID      int64          `db:"repair_id"`
	SlipID        int64          `db:"slip_id"`
	Status        string         `db:"status"`
	Description   string         `db:"description"`
	ReceptionDate string         `db:"reception_date"`
	StartDate     string         `db:"start_date"`
	EndDate       sql.NullString `db:"end_date"`
	TechnicianID  string         `db:"technician_id"`
	LicensePlate  string         `db:"license_plate"`
	OwnerName     string         `db:"owner_name"`
	PhoneNumber   string         `db:"phone_number"`
	Address       string         `db:"address"`
	VehicleType   string         `db:"vehicle_type"`
	Color         string         `db:"color"`
}

// One line item with the component name resolved. ComponentName is empty for
// labor-only lines and still resolves for soft-deleted components.
type ItemRow struct {
	ID            int64         `db:"id"`
	ComponentID   sql.NullInt64 `db:"component_id"`
	ComponentName string        `db:"component_name"`
	Quantity      int           `db:"quantity"`
	PriceAtTime   float64       `db:"price_at_time"`
	Category      string        `db:"category"`
	LaborFee      float64       `db:"labor_fee"`
}

// Start moves a queued slip to 'repairing' and opens the repair slip in one
// transaction. The status update is conditional on the current status, and
// repair_slips.reception_slip_id is unique, so a concurrent second start
// observes zero affected rows and gets ErrConflict.
func (r *RepairRepo) Start(slipID int64, technicianID string) (int64, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE reception_slips SET status = 'repairing'
		WHERE id = ? AND status IN ('pending','waiting')
	`, slipID)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.Get(&exists, `SELECT COUNT(*) FROM reception_slips WHERE id = ?`, slipID); err != nil {
			return 0, err
		}
		if exists == 0 {
			return 0, sql.ErrNoRows
		}
		return 0, ErrConflict
	}

	ins, err := tx.Exec(`
		INSERT INTO repair_slips(reception_slip_id, technician_id) VALUES(?, ?)
	`, slipID, technicianID)
	if err != nil {
		return 0, err
	}
	repairID, err := ins.LastInsertId()
	if err != nil {
		return 0, err
	}
	return repairID, tx.Commit()
}

// Finish stamps the end date and moves the slip from 'repairing' to
// 'completed'. Finishing twice yields ErrConflict.
func (r *RepairRepo) Finish(repairID int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var slipID int64
	if err := tx.Get(&slipID, `SELECT reception_slip_id FROM repair_slips WHERE id = ?`, repairID); err != nil {
		return err
	}

	res, err := tx.Exec(`
		UPDATE reception_slips SET status = 'completed'
		WHERE id = ? AND status = 'repairing'
	`, slipID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	if _, err := tx.Exec(`UPDATE repair_slips SET end_date = CURRENT_TIMESTAMP WHERE id = ?`, repairID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *RepairRepo) Get(repairID int64) (RepairRow, error) {
	var row RepairRow
	err := r.db.Get(&row, `
		SELECT r.id AS repair_id, rs.id AS slip_id, rs.status, rs.description, rs.reception_date,
		       r.start_date, r.end_date, r.technician_id,
		       c.license_plate, c.owner_name, c.phone_number, c.address, c.vehicle_type, c.color
		FROM repair_slips r
		JOIN reception_slips rs ON rs.id = r.reception_slip_id
		JOIN cars c ON c.id = rs.car_id
		WHERE r.id = ?
	`, repairID)
	return row, err
}

// BySlip returns the repair bound to a reception slip, if any.
func (r *RepairRepo) BySlip(slipID int64) (RepairRow, error) {
	var row RepairRow
	err := r.db.Get(&row, `
		SELECT r.id AS repair_id, rs.id AS slip_id, rs.status, rs.description, rs.reception_date,
		       r.start_date, r.end_date, r.technician_id,
		       c.license_plate, c.owner_name, c.phone_number, c.address, c.vehicle_type, c.color
		FROM repair_slips r
		JOIN reception_slips rs ON rs.id = r.reception_slip_id
		JOIN cars c ON c.id = rs.car_id
		WHERE rs.id = ?
	`, slipID)
	return row, err
}

// ListByTechnician returns this technician's repairs, optionally narrowed to
// one slip status, newest first.
func (r *RepairRepo) ListByTechnician(technicianID, status string) ([]RepairRow, error) {
	q := `
		SELECT r.id AS repair_id, rs.id AS slip_id, rs.status, rs.description, rs.reception_date,
		       r.start_date, r.end_date, r.technician_id,
		       c.license_plate, c.owner_name, c.phone_number, c.address, c.vehicle_type, c.color
		FROM repair_slips r
		JOIN reception_slips rs ON rs.id = r.reception_slip_id
		JOIN cars c ON c.id = rs.car_id
		WHERE r.technician_id = ?`
	args := []any{technicianID}
	if status != "" {
		q += ` AND rs.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY datetime(r.start_date) DESC`

	var out []RepairRow
	err := r.db.Select(&out, q, args...)
	return out, err
}

func (r *RepairRepo) Items(repairID int64) ([]ItemRow, error) {
	var out []ItemRow
	err := r.db.Select(&out, `
		SELECT rd.id, rd.component_id, COALESCE(co.name,'') AS component_name,
		       rd.quantity, rd.price_at_time, rd.category, rd.labor_fee
		FROM repair_details rd
		LEFT JOIN components co ON co.id = rd.component_id
		WHERE rd.repair_slip_id = ?
		ORDER BY rd.id
	`, repairID)
	return out, err
}

func (r *RepairRepo) AddItem(repairID int64, componentID *int64, qty int, price float64, category string, laborFee float64) (int64, error) {
	var exists int
	if err := r.db.Get(&exists, `SELECT COUNT(*) FROM repair_slips WHERE id = ?`, repairID); err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, sql.ErrNoRows
	}
	res, err := r.db.Exec(`
		INSERT INTO repair_details(repair_slip_id, component_id, quantity, price_at_time, category, labor_fee)
		VALUES(?, ?, ?, ?, ?, ?)
	`, repairID, componentID, qty, price, category, laborFee)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *RepairRepo) UpdateItem(itemID int64, componentID *int64, qty int, price float64, category string, laborFee float64) error {
	res, err := r.db.Exec(`
		UPDATE repair_details
		SET component_id=?, quantity=?, price_at_time=?, category=?, labor_fee=?
		WHERE id=?
	`, componentID, qty, price, category, laborFee, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *RepairRepo) DeleteItem(itemID int64) error {
	res, err := r.db.Exec(`DELETE FROM repair_details WHERE id = ?`, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ItemRepairID resolves which repair a line item belongs to.
func (r *RepairRepo) ItemRepairID(itemID int64) (int64, error) {
	var repairID int64
	err := r.db.Get(&repairID, `SELECT repair_slip_id FROM repair_details WHERE id = ?`, itemID)
	return repairID, err
}

// Row for the cashier queue: finished repairs with their running subtotal.
type CashierRow struct {
	SlipID       int64          `db:"slip_id"`
	RepairID     int64          `db:"repair_id"`
	Status       string         `db:"status"`
	EndDate      sql.NullString `db:"end_date"`
	LicensePlate string         `db:"license_plate"`
	OwnerName    string         `db:"owner_name"`
	PhoneNumber  string         `db:"phone_number"`
	Subtotal     float64        `db:"subtotal"`
}

// ListForCashier returns completed and/or paid repairs, most recently finished
// first. statuses must be non-empty.
func (r *RepairRepo) ListForCashier(statuses []string) ([]CashierRow, error) {
	q, args, err := sqlx.In(`
		SELECT rs.id AS slip_id, r.id AS repair_id, rs.status, r.end_date,
		       c.license_plate, c.owner_name, c.phone_number,
		       COALESCE((
		         SELECT SUM(rd.price_at_time * rd.quantity + rd.labor_fee)
		         FROM repair_details rd WHERE rd.repair_slip_id = r.id
		       ), 0) AS subtotal
		FROM reception_slips rs
		JOIN cars c ON c.id = rs.car_id
		JOIN repair_slips r ON r.reception_slip_id = rs.id
		WHERE rs.status IN (?)
		ORDER BY datetime(r.end_date) DESC
	`, statuses)
	if err != nil {
		return nil, err
	}
	var out []CashierRow
	err = r.db.Select(&out, r.db.Rebind(q), args...)
	return out, err
}

type CategoryCount struct {
	Category string `db:"category"`
	Count    int    `db:"count"`
}

// CategoryCounts groups the month's repair lines by category, joined through
// the reception slip's intake date. Empty categories come back as '' and are
// normalized by the dashboard service. Ordered by category for stable charts.
func (r *RepairRepo) CategoryCounts(month, year int) ([]CategoryCount, error) {
	var out []CategoryCount
	err := r.db.Select(&out, `
		SELECT rd.category, COUNT(*) AS count
		FROM repair_details rd
		JOIN repair_slips r ON r.id = rd.repair_slip_id
		JOIN reception_slips rs ON rs.id = r.reception_slip_id
		WHERE CAST(strftime('%m', rs.reception_date) AS INTEGER) = ?
		  AND CAST(strftime('%Y', rs.reception_date) AS INTEGER) = ?
		GROUP BY rd.category
		ORDER BY rd.category
	`, month, year)
	return out, err
}
