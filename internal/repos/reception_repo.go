package repos

import (
	"database/sql"

	"garagedesk/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ReceptionRepo struct{ db *sqlx.DB }

func NewReceptionRepo(db *sqlx.DB) *ReceptionRepo { return &ReceptionRepo{db: db} }

// Row for the reception desk list and the technician queue.
type SlipRow struct {
	ID            int64  `db:"id"`
	ReceptionDate string `db:"reception_date"`
	Description   string `db:"description"`
	Status        string `db:"status"`
	LicensePlate  string `db:"license_plate"`
	OwnerName     string `db:"owner_name"`
	PhoneNumber   string `db:"phone_number"`
	VehicleType   string `db:"vehicle_type"`
	Color         string `db:"color"`
}

// Full slip + car detail for the intake edit/detail modal.
type SlipDetail struct {
	ID            int64  `db:"id"`
	CarID         int64  `db:"car_id"`
	ReceptionDate string `db:"reception_date"`
	Description   string `db:"description"`
	Status        string `db:"status"`
	LicensePlate  string `db:"license_plate"`
	OwnerName     string `db:"owner_name"`
	PhoneNumber   string `db:"phone_number"`
	Address       string `db:"address"`
	Email         string `db:"email"`
	VehicleType   string `db:"vehicle_type"`
	Color         string `db:"color"`
}

// CountToday returns how many slips were opened on the current calendar day.
func (r *ReceptionRepo) CountToday() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM reception_slips WHERE DATE(reception_date) = DATE('now')`)
	return n, err
}

// CreateIntake upserts the car by license plate, then opens a reception slip.
// The car's contact and vehicle fields are always overwritten with the latest
// intake data.
func (r *ReceptionRepo) CreateIntake(car domain.Car, description, status string) (int64, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	carID, err := upsertCar(tx, car)
	if err != nil {
		return 0, err
	}

	res, err := tx.Exec(`
		INSERT INTO reception_slips(car_id, description, status)
		VALUES(?, ?, ?)
	`, carID, description, status)
	if err != nil {
		return 0, err
	}
	slipID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return slipID, tx.Commit()
}

// UpdateIntake rewrites an existing slip's car info, description and status.
// Only queued slips may be edited: once a repair has started the slip's status
// belongs to the workflow and must never move backwards, so the update is
// conditional on the current status and a started slip yields ErrConflict.
func (r *ReceptionRepo) UpdateIntake(slipID int64, car domain.Car, description, status string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	carID, err := upsertCar(tx, car)
	if err != nil {
		return err
	}

	res, err := tx.Exec(`
		UPDATE reception_slips SET car_id=?, description=?, status=?
		WHERE id=? AND status IN ('pending','waiting')
	`, carID, description, status, slipID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.Get(&exists, `SELECT COUNT(*) FROM reception_slips WHERE id = ?`, slipID); err != nil {
			return err
		}
		if exists == 0 {
			return sql.ErrNoRows
		}
		return ErrConflict
	}
	return tx.Commit()
}

func upsertCar(tx *sqlx.Tx, car domain.Car) (int64, error) {
	var carID int64
	err := tx.Get(&carID, `SELECT id FROM cars WHERE license_plate = ?`, car.LicensePlate)
	if err == nil {
		_, err = tx.Exec(`
			UPDATE cars SET owner_name=?, phone_number=?, address=?, email=?, vehicle_type=?, color=?
			WHERE id=?
		`, car.OwnerName, car.PhoneNumber, car.Address, car.Email, car.VehicleType, car.Color, carID)
		return carID, err
	}
	res, err := tx.Exec(`
		INSERT INTO cars(license_plate, owner_name, phone_number, address, email, vehicle_type, color)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`, car.LicensePlate, car.OwnerName, car.PhoneNumber, car.Address, car.Email, car.VehicleType, car.Color)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *ReceptionRepo) Get(slipID int64) (SlipDetail, error) {
	var d SlipDetail
	err := r.db.Get(&d, `
		SELECT rs.id, rs.car_id, rs.reception_date, rs.description, rs.status,
		       c.license_plate, c.owner_name, c.phone_number, c.address, c.email, c.vehicle_type, c.color
		FROM reception_slips rs
		JOIN cars c ON c.id = rs.car_id
		WHERE rs.id = ?
	`, slipID)
	return d, err
}

// List returns every slip, newest intake first.
func (r *ReceptionRepo) List() ([]SlipRow, error) {
	var out []SlipRow
	err := r.db.Select(&out, `
		SELECT rs.id, rs.reception_date, rs.description, rs.status,
		       c.license_plate, c.owner_name, c.phone_number, c.vehicle_type, c.color
		FROM reception_slips rs
		JOIN cars c ON c.id = rs.car_id
		ORDER BY datetime(rs.reception_date) DESC
	`)
	return out, err
}

// ListQueued returns slips a technician may pick up, oldest intake first.
func (r *ReceptionRepo) ListQueued() ([]SlipRow, error) {
	var out []SlipRow
	err := r.db.Select(&out, `
		SELECT rs.id, rs.reception_date, rs.description, rs.status,
		       c.license_plate, c.owner_name, c.phone_number, c.vehicle_type, c.color
		FROM reception_slips rs
		JOIN cars c ON c.id = rs.car_id
		WHERE rs.status IN ('pending','waiting')
		ORDER BY datetime(rs.reception_date) ASC
	`)
	return out, err
}

type VehicleTypeCount struct {
	VehicleType string `db:"vehicle_type"`
	Count       int    `db:"count"`
}

// VehicleTypeCounts groups the month's intakes by vehicle type. Ordered by
// type name so chart output is stable between requests.
func (r *ReceptionRepo) VehicleTypeCounts(month, year int) ([]VehicleTypeCount, error) {
	var out []VehicleTypeCount
	err := r.db.Select(&out, `
		SELECT c.vehicle_type, COUNT(*) AS count
		FROM reception_slips rs
		JOIN cars c ON c.id = rs.car_id
		WHERE CAST(strftime('%m', rs.reception_date) AS INTEGER) = ?
		  AND CAST(strftime('%Y', rs.reception_date) AS INTEGER) = ?
		GROUP BY c.vehicle_type
		ORDER BY c.vehicle_type
	`, month, year)
	return out, err
}
