package handlers

import (
	"errors"
	"fmt"

	"garagedesk/internal/domain"
	applog "garagedesk/internal/log"
	"garagedesk/internal/repos"
	"garagedesk/internal/services"
	"garagedesk/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type TechnicianHandler struct {
	Workflow   *services.WorkflowService
	Reception  *repos.ReceptionRepo
	Repairs    *repos.RepairRepo
	Components *repos.ComponentRepo
	Billing    *services.BillingService
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// GET /technician
// Intake queue plus this technician's own repairs.
// ?filter= narrows the repair list to one slip status.
func (h *TechnicianHandler) Home(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return c.Redirect("/login")
	}

	filter := c.Query("filter")
	switch filter {
	case domain.StatusRepairing, domain.StatusCompleted, domain.StatusPaid:
	default:
		filter = ""
	}

	queued, err := h.Reception.ListQueued()
	if err != nil {
		applog.Error(c, "technician.queue.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load the work queue"})
	}
	mine, err := h.Repairs.ListByTechnician(u.ID, filter)
	if err != nil {
		applog.Error(c, "technician.repairs.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load your repairs"})
	}
	return render(c, "technician", fiber.Map{
		"Queued":  queued,
		"Repairs": mine,
		"Filter":  filter,
	})
}

// POST /technician/start/:id
func (h *TechnicianHandler) Start(c *fiber.Ctx) error {
	slipID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Reception slip not found"})
	}
	u := currentUser(c)

	repairID, err := h.Workflow.StartRepair(slipID, u.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(404).Render("notfound", fiber.Map{"Message": "Reception slip not found"})
		case errors.Is(err, services.ErrInvalidTransition):
			applog.Security(c, "technician.start.conflict", map[string]any{"slip_id": slipID})
			return c.Status(409).Render("notfound", fiber.Map{"Message": "This slip is already being worked on"})
		}
		applog.Error(c, "technician.start.fail", err, map[string]any{"slip_id": slipID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not start the repair"})
	}
	applog.Audit(c, "technician.start", map[string]any{"slip_id": slipID, "repair_id": repairID})
	return c.Redirect(fmt.Sprintf("/technician/repair/%d", repairID))
}

// GET /technician/repair/:id
// Repair worksheet with line items and a live price quote. ?edit_item=
// preloads one line into the form.
func (h *TechnicianHandler) Repair(c *fiber.Ctx) error {
	repairID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Repair not found"})
	}
	repair, err := h.Repairs.Get(repairID)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Repair not found"})
	}
	bill, items, err := h.Billing.Quote(repairID)
	if err != nil {
		applog.Error(c, "technician.quote.fail", err, map[string]any{"repair_id": repairID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load repair items"})
	}
	components, err := h.Components.ListActive()
	if err != nil {
		applog.Error(c, "technician.components.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load the parts catalog"})
	}

	data := fiber.Map{
		"Repair":     repair,
		"Items":      items,
		"Bill":       bill,
		"Components": components,
	}
	if itemID, ok := validate.ID(c.Query("edit_item")); ok {
		for _, it := range items {
			if it.ID == itemID {
				data["EditItem"] = it
				break
			}
		}
	}
	return render(c, "repair", data)
}

func itemFromForm(c *fiber.Ctx) (componentID *int64, qty int, price float64, category string, labor float64, msg string) {
	if raw := c.FormValue("component_id"); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			return nil, 0, 0, "", 0, "Invalid component"
		}
		componentID = &id
	}
	qty, ok := validate.Qty(c.FormValue("quantity"))
	if !ok {
		return nil, 0, 0, "", 0, "Quantity must be a positive number"
	}
	price, ok = validate.Money(c.FormValue("unit_price"))
	if !ok {
		return nil, 0, 0, "", 0, "Unit price must be a non-negative number"
	}
	labor, ok = validate.Money(c.FormValue("labor_fee"))
	if !ok {
		return nil, 0, 0, "", 0, "Labor fee must be a non-negative number"
	}
	category = validate.FreeText(c.FormValue("category"), 50)
	return componentID, qty, price, category, labor, ""
}

// POST /technician/repair/:id/items
func (h *TechnicianHandler) AddItem(c *fiber.Ctx) error {
	repairID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Repair not found"})
	}
	componentID, qty, price, category, labor, msg := itemFromForm(c)
	if msg != "" {
		applog.Security(c, "technician.item.invalid", map[string]any{"reason": msg})
		return c.Status(400).SendString(msg)
	}

	itemID, err := h.Workflow.AddItem(repairID, componentID, qty, price, category, labor)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(404).Render("notfound", fiber.Map{"Message": "Repair or component not found"})
		}
		applog.Error(c, "technician.item.add.fail", err, map[string]any{"repair_id": repairID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not add the item"})
	}
	applog.Audit(c, "technician.item.add", map[string]any{"repair_id": repairID, "item_id": itemID})
	return c.Redirect(fmt.Sprintf("/technician/repair/%d", repairID))
}

// POST /technician/item/:id/update
func (h *TechnicianHandler) UpdateItem(c *fiber.Ctx) error {
	itemID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Item not found"})
	}
	componentID, qty, price, category, labor, msg := itemFromForm(c)
	if msg != "" {
		applog.Security(c, "technician.item.invalid", map[string]any{"reason": msg})
		return c.Status(400).SendString(msg)
	}

	repairID, err := h.Repairs.ItemRepairID(itemID)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Item not found"})
	}
	if err := h.Workflow.UpdateItem(itemID, componentID, qty, price, category, labor); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(404).Render("notfound", fiber.Map{"Message": "Item not found"})
		}
		applog.Error(c, "technician.item.update.fail", err, map[string]any{"item_id": itemID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not update the item"})
	}
	applog.Audit(c, "technician.item.update", map[string]any{"item_id": itemID})
	return c.Redirect(fmt.Sprintf("/technician/repair/%d", repairID))
}

// POST /technician/item/:id/delete
func (h *TechnicianHandler) DeleteItem(c *fiber.Ctx) error {
	itemID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Item not found"})
	}
	repairID, err := h.Repairs.ItemRepairID(itemID)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Item not found"})
	}
	if err := h.Workflow.DeleteItem(itemID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(404).Render("notfound", fiber.Map{"Message": "Item not found"})
		}
		applog.Error(c, "technician.item.delete.fail", err, map[string]any{"item_id": itemID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not delete the item"})
	}
	applog.Audit(c, "technician.item.delete", map[string]any{"item_id": itemID})
	return c.Redirect(fmt.Sprintf("/technician/repair/%d", repairID))
}

// POST /technician/repair/:id/finish
func (h *TechnicianHandler) Finish(c *fiber.Ctx) error {
	repairID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Repair not found"})
	}
	if err := h.Workflow.FinishRepair(repairID); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(404).Render("notfound", fiber.Map{"Message": "Repair not found"})
		case errors.Is(err, services.ErrInvalidTransition):
			return c.Status(409).Render("notfound", fiber.Map{"Message": "This repair is not in progress"})
		}
		applog.Error(c, "technician.finish.fail", err, map[string]any{"repair_id": repairID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not finish the repair"})
	}
	applog.Audit(c, "technician.finish", map[string]any{"repair_id": repairID})
	return c.Redirect("/technician")
}
