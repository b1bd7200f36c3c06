package handlers

import (
	"errors"

	"garagedesk/internal/domain"
	applog "garagedesk/internal/log"
	"garagedesk/internal/repos"
	"garagedesk/internal/services"
	"garagedesk/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CashierHandler struct {
	Workflow *services.WorkflowService
	Repairs  *repos.RepairRepo
	Invoices *repos.InvoiceRepo
	Billing  *services.BillingService
	Settings *repos.SettingsRepo
}

// GET /cashier
// Finished repairs awaiting payment plus recent invoices.
// ?filter=completed|paid narrows the list.
func (h *CashierHandler) Home(c *fiber.Ctx) error {
	filter := c.Query("filter")
	statuses := []string{domain.StatusCompleted, domain.StatusPaid}
	switch filter {
	case domain.StatusCompleted:
		statuses = []string{domain.StatusCompleted}
	case domain.StatusPaid:
		statuses = []string{domain.StatusPaid}
	default:
		filter = ""
	}

	rows, err := h.Repairs.ListForCashier(statuses)
	if err != nil {
		applog.Error(c, "cashier.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load the cashier desk"})
	}
	recent, err := h.Invoices.Recent(10)
	if err != nil {
		applog.Error(c, "cashier.invoices.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load recent invoices"})
	}
	return render(c, "cashier", fiber.Map{
		"Rows":    rows,
		"Recent":  recent,
		"VATRate": h.Settings.VATRate(),
		"Filter":  filter,
	})
}

// GET /cashier/invoice/:repair_id
// Invoice preview priced with the live VAT rate; nothing is committed
// until payment.
func (h *CashierHandler) Invoice(c *fiber.Ctx) error {
	repairID, ok := validate.ID(c.Params("repair_id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Repair not found"})
	}
	repair, err := h.Repairs.Get(repairID)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Repair not found"})
	}
	bill, items, err := h.Billing.Quote(repairID)
	if err != nil {
		applog.Error(c, "cashier.quote.fail", err, map[string]any{"repair_id": repairID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not price this repair"})
	}
	return render(c, "invoice", fiber.Map{
		"Repair": repair,
		"Items":  items,
		"Bill":   bill,
	})
}

// POST /cashier/pay/:repair_id
func (h *CashierHandler) Pay(c *fiber.Ctx) error {
	repairID, ok := validate.ID(c.Params("repair_id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Repair not found"})
	}
	total, ok := validate.Money(c.FormValue("total_amount"))
	if !ok {
		applog.Security(c, "cashier.pay.invalid", map[string]any{"repair_id": repairID})
		return c.Status(400).SendString("total must be a non-negative number")
	}
	u := currentUser(c)

	invoiceID, err := h.Workflow.Pay(repairID, u.ID, total)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(404).Render("notfound", fiber.Map{"Message": "Repair not found"})
		case errors.Is(err, services.ErrTotalMismatch):
			applog.Security(c, "cashier.pay.mismatch", map[string]any{"repair_id": repairID, "submitted": total})
			return c.Status(400).Render("notfound", fiber.Map{"Message": "Submitted total does not match the computed invoice. Please reload and try again."})
		case errors.Is(err, services.ErrInvalidTransition):
			applog.Security(c, "cashier.pay.conflict", map[string]any{"repair_id": repairID})
			return c.Status(409).Render("notfound", fiber.Map{"Message": "This repair has already been paid or is not finished yet"})
		}
		applog.Error(c, "cashier.pay.fail", err, map[string]any{"repair_id": repairID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not process the payment"})
	}
	applog.Audit(c, "cashier.pay", map[string]any{"repair_id": repairID, "invoice_id": invoiceID, "total": total})
	return c.Redirect("/cashier")
}
