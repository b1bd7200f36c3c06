package repos

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

type InvoiceRepo struct{ db *sqlx.DB }

func NewInvoiceRepo(db *sqlx.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

// PayRepair records the invoice and flips the slip to 'paid' atomically.
// invoices.repair_slip_id is unique and the status update requires
// 'completed', so a duplicate payment attempt fails with ErrConflict and
// leaves exactly one invoice behind.
func (r *InvoiceRepo) PayRepair(repairID int64, cashierID string, totalAmount, vatRate float64) (int64, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var slipID int64
	if err := tx.Get(&slipID, `SELECT reception_slip_id FROM repair_slips WHERE id = ?`, repairID); err != nil {
		return 0, err
	}

	res, err := tx.Exec(`
		UPDATE reception_slips SET status = 'paid'
		WHERE id = ? AND status = 'completed'
	`, slipID)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrConflict
	}

	ins, err := tx.Exec(`
		INSERT INTO invoices(repair_slip_id, cashier_id, total_amount, vat_rate)
		VALUES(?, ?, ?, ?)
	`, repairID, cashierID, totalAmount, vatRate)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return 0, ErrConflict
		}
		return 0, err
	}
	invoiceID, err := ins.LastInsertId()
	if err != nil {
		return 0, err
	}
	return invoiceID, tx.Commit()
}

type InvoiceRow struct {
	ID           int64   `db:"id"`
	RepairSlipID int64   `db:"repair_slip_id"`
	CashierID    string  `db:"cashier_id"`
	TotalAmount  float64 `db:"total_amount"`
	VATRate      float64 `db:"vat_rate"`
	CreatedAt    string  `db:"created_at"`
	LicensePlate string  `db:"license_plate"`
}

// Recent returns the latest invoices with the billed car's plate.
func (r *InvoiceRepo) Recent(limit int) ([]InvoiceRow, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []InvoiceRow
	err := r.db.Select(&out, `
		SELECT i.id, i.repair_slip_id, i.cashier_id, i.total_amount, i.vat_rate, i.created_at,
		       c.license_plate
		FROM invoices i
		JOIN repair_slips r ON r.id = i.repair_slip_id
		JOIN reception_slips rs ON rs.id = r.reception_slip_id
		JOIN cars c ON c.id = rs.car_id
		ORDER BY datetime(i.created_at) DESC
		LIMIT ?
	`, limit)
	return out, err
}

// ForRepair returns the invoice created for a repair, or sql.ErrNoRows.
func (r *InvoiceRepo) ForRepair(repairID int64) (InvoiceRow, error) {
	var row InvoiceRow
	err := r.db.Get(&row, `
		SELECT i.id, i.repair_slip_id, i.cashier_id, i.total_amount, i.vat_rate, i.created_at,
		       c.license_plate
		FROM invoices i
		JOIN repair_slips r ON r.id = i.repair_slip_id
		JOIN reception_slips rs ON rs.id = r.reception_slip_id
		JOIN cars c ON c.id = rs.car_id
		WHERE i.repair_slip_id = ?
	`, repairID)
	return row, err
}

type DayRevenue struct {
	Day   int     `db:"day"`
	Total float64 `db:"total"`
}

// RevenueByDay sums invoice totals per calendar day of the given month.
// Days without invoices are absent; the dashboard service zero-fills them.
func (r *InvoiceRepo) RevenueByDay(month, year int) ([]DayRevenue, error) {
	var out []DayRevenue
	err := r.db.Select(&out, `
		SELECT CAST(strftime('%d', created_at) AS INTEGER) AS day,
		       SUM(total_amount) AS total
		FROM invoices
		WHERE CAST(strftime('%m', created_at) AS INTEGER) = ?
		  AND CAST(strftime('%Y', created_at) AS INTEGER) = ?
		GROUP BY day
		ORDER BY day
	`, month, year)
	return out, err
}
