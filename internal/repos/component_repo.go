package repos

import (
	"database/sql"

	"garagedesk/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ComponentRepo struct{ db *sqlx.DB }

func NewComponentRepo(db *sqlx.DB) *ComponentRepo { return &ComponentRepo{db: db} }

// ListActive returns catalog entries offered for new repair lines.
// Soft-deleted components are excluded here but keep resolving in
// historical line items.
func (r *ComponentRepo) ListActive() ([]domain.Component, error) {
	var out []domain.Component
	err := r.db.Select(&out, `
		SELECT id, name, current_price, stock_quantity, is_deleted
		FROM components
		WHERE is_deleted = 0
		ORDER BY name
	`)
	return out, err
}

func (r *ComponentRepo) Get(id int64) (domain.Component, error) {
	var c domain.Component
	err := r.db.Get(&c, `
		SELECT id, name, current_price, stock_quantity, is_deleted
		FROM components WHERE id = ?
	`, id)
	return c, err
}

func (r *ComponentRepo) Add(name string, price float64, stock int) (int64, error) {
	res, err := r.db.Exec(`
		INSERT INTO components(name, current_price, stock_quantity) VALUES(?, ?, ?)
	`, name, price, stock)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *ComponentRepo) Update(id int64, name string, price float64, stock int) error {
	res, err := r.db.Exec(`
		UPDATE components SET name=?, current_price=?, stock_quantity=? WHERE id=?
	`, name, price, stock, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDelete hides the component from active listings without touching the
// repair history that references it.
func (r *ComponentRepo) SoftDelete(id int64) error {
	res, err := r.db.Exec(`UPDATE components SET is_deleted = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
