package services_test

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"garagedesk/internal/domain"
	"garagedesk/internal/repos"
	"garagedesk/internal/services"
)

const (
	techID    = "u-wrench"
	cashierID = "u-till"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func newWorkflow(db *sqlx.DB) (*services.WorkflowService, *repos.SettingsRepo) {
	settings := repos.NewSettingsRepo(db)
	wf := services.NewWorkflowService(
		repos.NewReceptionRepo(db),
		repos.NewRepairRepo(db),
		repos.NewInvoiceRepo(db),
		repos.NewComponentRepo(db),
		settings,
	)
	return wf, settings
}

func intakeReq(plate string) services.IntakeRequest {
	return services.IntakeRequest{
		Car: domain.Car{
			LicensePlate: plate,
			OwnerName:    "Dana Prin",
			PhoneNumber:  "555-0101",
			VehicleType:  "Sedan",
			Color:        "blue",
		},
		Description: "engine noise",
		Status:      domain.StatusPending,
	}
}

func slipStatus(t *testing.T, db *sqlx.DB, slipID int64) string {
	t.Helper()
	var status string
	if err := db.Get(&status, `SELECT status FROM reception_slips WHERE id=?`, slipID); err != nil {
		t.Fatal(err)
	}
	return status
}

func TestWorkflowFullLifecycle(t *testing.T) {
	db := memdb(t)
	wf, _ := newWorkflow(db)

	slipID, err := wf.Intake(intakeReq("GD-100"))
	if err != nil {
		t.Fatal(err)
	}
	if got := slipStatus(t, db, slipID); got != domain.StatusPending {
		t.Fatalf("after intake: want pending, got %s", got)
	}

	repairID, err := wf.StartRepair(slipID, techID)
	if err != nil {
		t.Fatal(err)
	}
	if got := slipStatus(t, db, slipID); got != domain.StatusRepairing {
		t.Fatalf("after start: want repairing, got %s", got)
	}

	// (100 x 2 + 20) + (50 x 1) = 270, +10% VAT = 297
	if _, err := wf.AddItem(repairID, nil, 2, 100, "Engine", 20); err != nil {
		t.Fatal(err)
	}
	if _, err := wf.AddItem(repairID, nil, 1, 50, "", 0); err != nil {
		t.Fatal(err)
	}

	if err := wf.FinishRepair(repairID); err != nil {
		t.Fatal(err)
	}
	if got := slipStatus(t, db, slipID); got != domain.StatusCompleted {
		t.Fatalf("after finish: want completed, got %s", got)
	}

	invoiceID, err := wf.Pay(repairID, cashierID, 297.0)
	if err != nil {
		t.Fatal(err)
	}
	if invoiceID == 0 {
		t.Fatal("no invoice id")
	}
	if got := slipStatus(t, db, slipID); got != domain.StatusPaid {
		t.Fatalf("after pay: want paid, got %s", got)
	}

	// Paying again must fail and must not mint a second invoice.
	if _, err := wf.Pay(repairID, cashierID, 297.0); !errors.Is(err, services.ErrInvalidTransition) {
		t.Fatalf("second pay: want ErrInvalidTransition, got %v", err)
	}
	var invoices int
	if err := db.Get(&invoices, `SELECT COUNT(*) FROM invoices WHERE repair_slip_id=?`, repairID); err != nil {
		t.Fatal(err)
	}
	if invoices != 1 {
		t.Fatalf("want exactly 1 invoice, got %d", invoices)
	}
	if got := slipStatus(t, db, slipID); got != domain.StatusPaid {
		t.Fatalf("slip must stay paid, got %s", got)
	}
}

func TestWorkflowPayRejectsMismatchedTotal(t *testing.T) {
	db := memdb(t)
	wf, _ := newWorkflow(db)

	slipID, err := wf.Intake(intakeReq("GD-101"))
	if err != nil {
		t.Fatal(err)
	}
	repairID, err := wf.StartRepair(slipID, techID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wf.AddItem(repairID, nil, 1, 100, "Brakes", 0); err != nil {
		t.Fatal(err)
	}
	if err := wf.FinishRepair(repairID); err != nil {
		t.Fatal(err)
	}

	// Computed total is 110.00 (10% VAT). A drifted client total is rejected
	// without any state change.
	if _, err := wf.Pay(repairID, cashierID, 99.0); !errors.Is(err, services.ErrTotalMismatch) {
		t.Fatalf("want ErrTotalMismatch, got %v", err)
	}
	if got := slipStatus(t, db, slipID); got != domain.StatusCompleted {
		t.Fatalf("slip must stay completed after rejected pay, got %s", got)
	}

	if _, err := wf.Pay(repairID, cashierID, 110.0); err != nil {
		t.Fatalf("exact total should be accepted: %v", err)
	}
}

func TestWorkflowStartRepairOnlyOnce(t *testing.T) {
	db := memdb(t)
	wf, _ := newWorkflow(db)

	slipID, err := wf.Intake(intakeReq("GD-102"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wf.StartRepair(slipID, techID); err != nil {
		t.Fatal(err)
	}
	if _, err := wf.StartRepair(slipID, techID); !errors.Is(err, services.ErrInvalidTransition) {
		t.Fatalf("second start: want ErrInvalidTransition, got %v", err)
	}
	if _, err := wf.StartRepair(99999, techID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing slip: want ErrNotFound, got %v", err)
	}
}

func TestWorkflowDailyCap(t *testing.T) {
	db := memdb(t)
	wf, settings := newWorkflow(db)

	if err := settings.Upsert(repos.SettingMaxCarsPerDay, "2"); err != nil {
		t.Fatal(err)
	}

	// count 0 and 1 are below the cap of 2
	if _, err := wf.Intake(intakeReq("GD-201")); err != nil {
		t.Fatal(err)
	}
	if _, err := wf.Intake(intakeReq("GD-202")); err != nil {
		t.Fatal(err)
	}
	// count == cap: rejected, nothing written
	if _, err := wf.Intake(intakeReq("GD-203")); !errors.Is(err, services.ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded, got %v", err)
	}
	var slips int
	if err := db.Get(&slips, `SELECT COUNT(*) FROM reception_slips`); err != nil {
		t.Fatal(err)
	}
	if slips != 2 {
		t.Fatalf("rejected intake must not write a slip, got %d slips", slips)
	}
}

func TestWorkflowCapDefaultsWhenUnparseable(t *testing.T) {
	db := memdb(t)
	wf, settings := newWorkflow(db)

	if err := settings.Upsert(repos.SettingMaxCarsPerDay, "lots"); err != nil {
		t.Fatal(err)
	}
	// Falls back to the default cap of 30, so a normal intake passes.
	if _, err := wf.Intake(intakeReq("GD-300")); err != nil {
		t.Fatal(err)
	}
}

func TestWorkflowIntakeUpsertsCarByPlate(t *testing.T) {
	db := memdb(t)
	wf, _ := newWorkflow(db)

	if _, err := wf.Intake(intakeReq("GD-400")); err != nil {
		t.Fatal(err)
	}

	req := intakeReq("GD-400")
	req.Car.OwnerName = "New Owner"
	req.Car.Color = "red"
	if _, err := wf.Intake(req); err != nil {
		t.Fatal(err)
	}

	var cars int
	if err := db.Get(&cars, `SELECT COUNT(*) FROM cars WHERE license_plate='GD-400'`); err != nil {
		t.Fatal(err)
	}
	if cars != 1 {
		t.Fatalf("same plate must reuse the car row, got %d rows", cars)
	}
	var owner string
	if err := db.Get(&owner, `SELECT owner_name FROM cars WHERE license_plate='GD-400'`); err != nil {
		t.Fatal(err)
	}
	if owner != "New Owner" {
		t.Fatalf("car fields must be overwritten on re-intake, got %s", owner)
	}
}

func TestWorkflowComponentSnapshotSurvivesCatalogChanges(t *testing.T) {
	db := memdb(t)
	wf, _ := newWorkflow(db)
	components := repos.NewComponentRepo(db)
	repairs := repos.NewRepairRepo(db)

	compID, err := components.Add("Alternator", 140.0, 3)
	if err != nil {
		t.Fatal(err)
	}

	slipID, err := wf.Intake(intakeReq("GD-500"))
	if err != nil {
		t.Fatal(err)
	}
	repairID, err := wf.StartRepair(slipID, techID)
	if err != nil {
		t.Fatal(err)
	}
	// The catalog price wins over whatever unit price the form posted.
	itemID, err := wf.AddItem(repairID, &compID, 1, 999.0, "Electrical", 25)
	if err != nil {
		t.Fatal(err)
	}

	// Reprice and soft-delete the component afterwards.
	if err := components.Update(compID, "Alternator", 180.0, 3); err != nil {
		t.Fatal(err)
	}
	if err := components.SoftDelete(compID); err != nil {
		t.Fatal(err)
	}

	items, err := repairs.Items(repairID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != itemID {
		t.Fatalf("unexpected items: %+v", items)
	}
	if !almostEqual(items[0].PriceAtTime, 140.0) {
		t.Fatalf("snapshot price: want 140, got %v", items[0].PriceAtTime)
	}
	if items[0].ComponentName != "Alternator" {
		t.Fatalf("soft-deleted component must still resolve, got %q", items[0].ComponentName)
	}

	active, err := components.ListActive()
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range active {
		if c.ID == compID {
			t.Fatal("soft-deleted component must not be listed as active")
		}
	}
}

func TestWorkflowIntakeEditCannotRegressStartedSlip(t *testing.T) {
	db := memdb(t)
	wf, _ := newWorkflow(db)

	slipID, err := wf.Intake(intakeReq("GD-600"))
	if err != nil {
		t.Fatal(err)
	}

	// Before the repair starts the desk may still edit the slip.
	edit := intakeReq("GD-600")
	edit.Description = "also check brakes"
	edit.Status = domain.StatusWaiting
	if err := wf.UpdateIntake(slipID, edit); err != nil {
		t.Fatalf("edit of queued slip: %v", err)
	}
	if got := slipStatus(t, db, slipID); got != domain.StatusWaiting {
		t.Fatalf("queued edit: want waiting, got %s", got)
	}

	repairID, err := wf.StartRepair(slipID, techID)
	if err != nil {
		t.Fatal(err)
	}

	// From repairing through paid the slip status belongs to the workflow;
	// a desk edit must not drag it back to the queue.
	for _, step := range []func() error{
		func() error { return nil },
		func() error { return wf.FinishRepair(repairID) },
		func() error { _, err := wf.Pay(repairID, cashierID, 0); return err },
	} {
		if err := step(); err != nil {
			t.Fatal(err)
		}
		want := slipStatus(t, db, slipID)
		if err := wf.UpdateIntake(slipID, intakeReq("GD-600")); !errors.Is(err, services.ErrInvalidTransition) {
			t.Fatalf("edit of %s slip: want ErrInvalidTransition, got %v", want, err)
		}
		if got := slipStatus(t, db, slipID); got != want {
			t.Fatalf("slip regressed from %s to %s", want, got)
		}
	}

	if err := wf.UpdateIntake(99999, intakeReq("GD-601")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("edit of missing slip: want ErrNotFound, got %v", err)
	}
}

func TestWorkflowPayMissingRepairIsNotFound(t *testing.T) {
	db := memdb(t)
	wf, _ := newWorkflow(db)

	// A nonzero total against an unknown repair must report the missing
	// repair, not a total mismatch against an empty zero bill.
	if _, err := wf.Pay(99999, cashierID, 297.0); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := wf.Pay(99999, cashierID, 0); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("zero total: want ErrNotFound, got %v", err)
	}
}

func TestWorkflowItemEditsRequireExistingRows(t *testing.T) {
	db := memdb(t)
	wf, _ := newWorkflow(db)

	if _, err := wf.AddItem(12345, nil, 1, 10, "", 0); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("add to missing repair: want ErrNotFound, got %v", err)
	}
	if err := wf.UpdateItem(12345, nil, 1, 10, "", 0); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("update missing item: want ErrNotFound, got %v", err)
	}
	if err := wf.DeleteItem(12345); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("delete missing item: want ErrNotFound, got %v", err)
	}
}
