package services

import (
	"database/sql"
	"errors"
	"math"

	"garagedesk/internal/domain"
	"garagedesk/internal/repos"
)

// totalTolerance is how far a client-submitted total may drift from the
// recomputed one before the payment is rejected (display rounding slack).
const totalTolerance = 0.01

// WorkflowService drives a slip through its lifecycle:
// pending/waiting -> repairing -> completed -> paid.
type WorkflowService struct {
	Reception  *repos.ReceptionRepo
	Repairs    *repos.RepairRepo
	Invoices   *repos.InvoiceRepo
	Components *repos.ComponentRepo
	Settings   *repos.SettingsRepo
	Billing    *BillingService
}

func NewWorkflowService(
	reception *repos.ReceptionRepo,
	repairs *repos.RepairRepo,
	invoices *repos.InvoiceRepo,
	components *repos.ComponentRepo,
	settings *repos.SettingsRepo,
) *WorkflowService {
	return &WorkflowService{
		Reception:  reception,
		Repairs:    repairs,
		Invoices:   invoices,
		Components: components,
		Settings:   settings,
		Billing:    NewBillingService(repairs, settings),
	}
}

type IntakeRequest struct {
	Car         domain.Car
	Description string
	Status      string // pending or waiting, caller-selectable
}

func intakeStatus(s string) string {
	if s == domain.StatusWaiting {
		return domain.StatusWaiting
	}
	return domain.StatusPending
}

// Intake registers a vehicle for service. Rejected without any mutation once
// today's slip count has reached the daily cap.
func (s *WorkflowService) Intake(req IntakeRequest) (int64, error) {
	count, err := s.Reception.CountToday()
	if err != nil {
		return 0, err
	}
	if count >= s.Settings.MaxCarsPerDay() {
		return 0, ErrCapacityExceeded
	}
	return s.Reception.CreateIntake(req.Car, req.Description, intakeStatus(req.Status))
}

// UpdateIntake lets the reception desk correct a slip that has not been
// picked up yet.
func (s *WorkflowService) UpdateIntake(slipID int64, req IntakeRequest) error {
	err := s.Reception.UpdateIntake(slipID, req.Car, req.Description, intakeStatus(req.Status))
	return s.mapErr(err)
}

// StartRepair opens a repair slip for a queued reception slip and assigns
// the technician. A slip can only be started once.
func (s *WorkflowService) StartRepair(slipID int64, technicianID string) (int64, error) {
	repairID, err := s.Repairs.Start(slipID, technicianID)
	if err != nil {
		return 0, s.mapErr(err)
	}
	return repairID, nil
}

// FinishRepair closes the work phase and hands the slip to the cashier.
// Zero-item repairs are allowed and bill as a zero subtotal.
func (s *WorkflowService) FinishRepair(repairID int64) error {
	return s.mapErr(s.Repairs.Finish(repairID))
}

// Pay recomputes the bill server-side, checks the client-submitted total
// against it, and commits the invoice with the VAT rate snapshotted.
// A second payment attempt fails and never creates a second invoice.
func (s *WorkflowService) Pay(repairID int64, cashierID string, clientTotal float64) (int64, error) {
	// An unknown repair quotes as an empty zero bill, so existence has to be
	// checked before the total comparison can mean anything.
	if _, err := s.Repairs.Get(repairID); err != nil {
		return 0, s.mapErr(err)
	}
	bill, _, err := s.Billing.Quote(repairID)
	if err != nil {
		return 0, s.mapErr(err)
	}
	if math.Abs(bill.Total-clientTotal) > totalTolerance {
		return 0, ErrTotalMismatch
	}
	invoiceID, err := s.Invoices.PayRepair(repairID, cashierID, bill.Total, bill.VATRate)
	if err != nil {
		return 0, s.mapErr(err)
	}
	return invoiceID, nil
}

// AddItem appends a repair line. When a component is chosen, its current
// catalog price is snapshotted into the line; later catalog edits or
// soft-deletes never change it. Without a component the line is labor-only
// at the caller-supplied unit price.
func (s *WorkflowService) AddItem(repairID int64, componentID *int64, qty int, unitPrice float64, category string, laborFee float64) (int64, error) {
	price, err := s.itemPrice(componentID, unitPrice)
	if err != nil {
		return 0, err
	}
	itemID, err := s.Repairs.AddItem(repairID, componentID, qty, price, category, laborFee)
	if err != nil {
		return 0, s.mapErr(err)
	}
	return itemID, nil
}

func (s *WorkflowService) UpdateItem(itemID int64, componentID *int64, qty int, unitPrice float64, category string, laborFee float64) error {
	price, err := s.itemPrice(componentID, unitPrice)
	if err != nil {
		return err
	}
	return s.mapErr(s.Repairs.UpdateItem(itemID, componentID, qty, price, category, laborFee))
}

func (s *WorkflowService) DeleteItem(itemID int64) error {
	return s.mapErr(s.Repairs.DeleteItem(itemID))
}

func (s *WorkflowService) itemPrice(componentID *int64, unitPrice float64) (float64, error) {
	if componentID == nil {
		return unitPrice, nil
	}
	comp, err := s.Components.Get(*componentID)
	if err != nil {
		return 0, s.mapErr(err)
	}
	return comp.CurrentPrice, nil
}

func (s *WorkflowService) mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, repos.ErrConflict):
		return ErrInvalidTransition
	default:
		return err
	}
}
