package services_test

import (
	"math"
	"testing"

	"github.com/jmoiron/sqlx"

	"garagedesk/internal/repos"
	"garagedesk/internal/services"
)

func newDashboard(db *sqlx.DB) *services.DashboardService {
	return services.NewDashboardService(
		repos.NewInvoiceRepo(db),
		repos.NewReceptionRepo(db),
		repos.NewRepairRepo(db),
	)
}

// seedMonth wires one car -> reception slip -> repair slip chain with the
// given intake date and returns the repair slip id for detail/invoice rows.
func seedMonth(t *testing.T, db *sqlx.DB, plate, vehicleType, receptionDate string) int64 {
	t.Helper()
	res, err := db.Exec(`
		INSERT INTO cars(license_plate, owner_name, vehicle_type) VALUES(?, 'Owner', ?)
	`, plate, vehicleType)
	if err != nil {
		t.Fatal(err)
	}
	carID, _ := res.LastInsertId()

	res, err = db.Exec(`
		INSERT INTO reception_slips(car_id, reception_date, status) VALUES(?, ?, 'repairing')
	`, carID, receptionDate)
	if err != nil {
		t.Fatal(err)
	}
	slipID, _ := res.LastInsertId()

	res, err = db.Exec(`
		INSERT INTO repair_slips(reception_slip_id, technician_id) VALUES(?, 'u-wrench')
	`, slipID)
	if err != nil {
		t.Fatal(err)
	}
	repairID, _ := res.LastInsertId()
	return repairID
}

func addDetail(t *testing.T, db *sqlx.DB, repairID int64, category string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO repair_details(repair_slip_id, quantity, price_at_time, category) VALUES(?, 1, 10, ?)
	`, repairID, category)
	if err != nil {
		t.Fatal(err)
	}
}

func addInvoice(t *testing.T, db *sqlx.DB, repairID int64, total float64, createdAt string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO invoices(repair_slip_id, cashier_id, total_amount, vat_rate, created_at)
		VALUES(?, 'u-till', ?, 10, ?)
	`, repairID, total, createdAt)
	if err != nil {
		t.Fatal(err)
	}
}

func TestDashboardEmptyMonthZeroFills(t *testing.T) {
	db := memdb(t)
	dash := newDashboard(db)

	rep, err := dash.Stats(2024, 6, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.DailyRevenue) != 30 {
		t.Fatalf("June must have 30 points, got %d", len(rep.DailyRevenue))
	}
	for _, p := range rep.DailyRevenue {
		if p.Amount != 0 || p.Percent != 0 {
			t.Fatalf("empty month must be all zero, got %+v", p)
		}
	}
	if rep.TotalRevenue != 0 || rep.TotalVehicles != 0 || rep.TotalItems != 0 {
		t.Fatalf("empty month must have zero totals: %+v", rep)
	}
	if len(rep.Sectors) != 0 || len(rep.Categories) != 0 {
		t.Fatalf("empty month must have no chart rows: %+v", rep)
	}
}

func TestDashboardLeapFebruaryLength(t *testing.T) {
	db := memdb(t)
	dash := newDashboard(db)

	rep, err := dash.Stats(2024, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.DailyRevenue) != 29 {
		t.Fatalf("Feb 2024 must have 29 points, got %d", len(rep.DailyRevenue))
	}
	rep, err = dash.Stats(2023, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.DailyRevenue) != 28 {
		t.Fatalf("Feb 2023 must have 28 points, got %d", len(rep.DailyRevenue))
	}
}

func TestDashboardDailyRevenueSeries(t *testing.T) {
	db := memdb(t)
	dash := newDashboard(db)

	r1 := seedMonth(t, db, "DB-001", "Sedan", "2024-03-05 09:00:00")
	r2 := seedMonth(t, db, "DB-002", "Truck", "2024-03-12 09:00:00")
	r3 := seedMonth(t, db, "DB-003", "Sedan", "2024-04-01 09:00:00")
	addInvoice(t, db, r1, 200, "2024-03-05 15:00:00")
	addInvoice(t, db, r2, 50, "2024-03-12 15:00:00")
	// Outside the queried month, must not leak in.
	addInvoice(t, db, r3, 999, "2024-04-01 15:00:00")

	rep, err := dash.Stats(2024, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.DailyRevenue) != 31 {
		t.Fatalf("March must have 31 points, got %d", len(rep.DailyRevenue))
	}
	if !almostEqual(rep.TotalRevenue, 250) {
		t.Fatalf("total revenue: want 250, got %v", rep.TotalRevenue)
	}

	byDay := make(map[int]services.DayPoint, len(rep.DailyRevenue))
	for _, p := range rep.DailyRevenue {
		byDay[p.Day] = p
	}
	if !almostEqual(byDay[5].Amount, 200) || !almostEqual(byDay[5].Percent, 100) {
		t.Fatalf("day 5: %+v", byDay[5])
	}
	if !almostEqual(byDay[12].Amount, 50) || !almostEqual(byDay[12].Percent, 25) {
		t.Fatalf("day 12: %+v", byDay[12])
	}
	if byDay[6].Amount != 0 || byDay[6].Percent != 0 {
		t.Fatalf("day 6 must be zero-filled: %+v", byDay[6])
	}

	// Day filter picks one day's revenue out of the series.
	rep, err = dash.Stats(2024, 3, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(rep.DayRevenue, 200) {
		t.Fatalf("day filter: want 200, got %v", rep.DayRevenue)
	}
}

func TestDashboardPieSectorsCoverFullCircle(t *testing.T) {
	db := memdb(t)
	dash := newDashboard(db)

	seedMonth(t, db, "DB-101", "Sedan", "2024-03-02 09:00:00")
	seedMonth(t, db, "DB-102", "Sedan", "2024-03-03 09:00:00")
	seedMonth(t, db, "DB-103", "Sedan", "2024-03-04 09:00:00")
	seedMonth(t, db, "DB-104", "Truck", "2024-03-05 09:00:00")

	rep, err := dash.Stats(2024, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rep.TotalVehicles != 4 || len(rep.Sectors) != 2 {
		t.Fatalf("want 4 vehicles in 2 sectors, got %d in %d", rep.TotalVehicles, len(rep.Sectors))
	}

	// Sectors are contiguous, start at 0 and end at 360.
	if rep.Sectors[0].From != 0 {
		t.Fatalf("first sector must start at 0, got %v", rep.Sectors[0].From)
	}
	for i := 1; i < len(rep.Sectors); i++ {
		if !almostEqual(rep.Sectors[i].From, rep.Sectors[i-1].To) {
			t.Fatalf("sectors %d/%d are not contiguous: %+v", i-1, i, rep.Sectors)
		}
	}
	last := rep.Sectors[len(rep.Sectors)-1]
	if math.Abs(last.To-360) > 1e-6 {
		t.Fatalf("sectors must end at 360, got %v", last.To)
	}

	// 3 of 4 sedans is a 270 degree slice.
	if rep.Sectors[0].Label != "Sedan" || !almostEqual(rep.Sectors[0].To-rep.Sectors[0].From, 270) {
		t.Fatalf("sedan sector: %+v", rep.Sectors[0])
	}
}

func TestDashboardCategoriesMergeUncategorized(t *testing.T) {
	db := memdb(t)
	dash := newDashboard(db)

	repairID := seedMonth(t, db, "DB-201", "Sedan", "2024-03-02 09:00:00")
	addDetail(t, db, repairID, "Engine")
	addDetail(t, db, repairID, "Engine")
	addDetail(t, db, repairID, "")
	addDetail(t, db, repairID, "Uncategorized")

	rep, err := dash.Stats(2024, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rep.TotalItems != 4 {
		t.Fatalf("want 4 items, got %d", rep.TotalItems)
	}
	counts := make(map[string]int, len(rep.Categories))
	for _, c := range rep.Categories {
		counts[c.Label] = c.Count
	}
	if counts["Engine"] != 2 {
		t.Fatalf("Engine: want 2, got %d", counts["Engine"])
	}
	// Blank and literal 'Uncategorized' collapse into one bucket.
	if counts["Uncategorized"] != 2 {
		t.Fatalf("Uncategorized: want 2, got %d", counts["Uncategorized"])
	}
	if len(rep.Categories) != 2 {
		t.Fatalf("want 2 category rows, got %+v", rep.Categories)
	}
}

func TestDashboardColorsAreStable(t *testing.T) {
	db := memdb(t)
	dash := newDashboard(db)

	seedMonth(t, db, "DB-301", "Sedan", "2024-03-02 09:00:00")

	first, err := dash.Stats(2024, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := dash.Stats(2024, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Sectors) != 1 || len(second.Sectors) != 1 {
		t.Fatalf("want one sector per report: %d/%d", len(first.Sectors), len(second.Sectors))
	}
	if first.Sectors[0].Color == "" || first.Sectors[0].Color != second.Sectors[0].Color {
		t.Fatalf("colors must be stable between reports: %q vs %q",
			first.Sectors[0].Color, second.Sectors[0].Color)
	}
}
