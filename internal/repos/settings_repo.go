package repos

import (
	"strconv"

	"github.com/jmoiron/sqlx"
)

// Settings the application reads by key.
const (
	SettingMaxCarsPerDay = "max_cars_per_day"
	SettingVATRate       = "vat_rate"
)

const (
	defaultMaxCarsPerDay = 30
	defaultVATRate       = 10.0
)

type SettingsRepo struct{ db *sqlx.DB }

func NewSettingsRepo(db *sqlx.DB) *SettingsRepo { return &SettingsRepo{db: db} }

func (r *SettingsRepo) GetAll() (map[string]string, error) {
	var rows []struct {
		Key   string `db:"setting_key"`
		Value string `db:"setting_value"`
	}
	if err := r.db.Select(&rows, `SELECT setting_key, setting_value FROM system_settings`); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func (r *SettingsRepo) Get(key string) (string, error) {
	var v string
	err := r.db.Get(&v, `SELECT setting_value FROM system_settings WHERE setting_key = ?`, key)
	return v, err
}

func (r *SettingsRepo) Upsert(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO system_settings(setting_key, setting_value) VALUES(?, ?)
		ON CONFLICT(setting_key) DO UPDATE SET setting_value = excluded.setting_value
	`, key, value)
	return err
}

// MaxCarsPerDay returns the daily intake cap, falling back to the default
// when the setting is missing or unparseable.
func (r *SettingsRepo) MaxCarsPerDay() int {
	v, err := r.Get(SettingMaxCarsPerDay)
	if err != nil {
		return defaultMaxCarsPerDay
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultMaxCarsPerDay
	}
	return n
}

// VATRate returns the current VAT percentage, falling back to the default
// when the setting is missing or unparseable.
func (r *SettingsRepo) VATRate() float64 {
	v, err := r.Get(SettingVATRate)
	if err != nil {
		return defaultVATRate
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return defaultVATRate
	}
	return f
}
