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

type ReceptionHandler struct {
	Workflow  *services.WorkflowService
	Reception *repos.ReceptionRepo
	Settings  *repos.SettingsRepo
}

func (h *ReceptionHandler) homeData() (fiber.Map, error) {
	slips, err := h.Reception.List()
	if err != nil {
		return nil, err
	}
	count, err := h.Reception.CountToday()
	if err != nil {
		return nil, err
	}
	return fiber.Map{
		"Slips":      slips,
		"CarsToday":  count,
		"MaxCars":    h.Settings.MaxCarsPerDay(),
		"Err":        "",
		"Modal":      "",
		"Slip":       nil,
		"StatusList": []string{domain.StatusPending, domain.StatusWaiting},
	}, nil
}

// GET /reception
func (h *ReceptionHandler) Home(c *fiber.Ctx) error {
	data, err := h.homeData()
	if err != nil {
		applog.Error(c, "reception.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load reception desk"})
	}
	return render(c, "reception", data)
}

// GET /reception/detail/:id
func (h *ReceptionHandler) Detail(c *fiber.Ctx) error {
	slipID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Reception slip not found"})
	}
	data, err := h.homeData()
	if err != nil {
		applog.Error(c, "reception.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load reception desk"})
	}
	slip, err := h.Reception.Get(slipID)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Reception slip not found"})
	}
	data["Modal"] = "detail"
	data["Slip"] = slip
	return render(c, "reception", data)
}

// GET /reception/add
// The intake form; ?slip_id= switches it to edit mode.
func (h *ReceptionHandler) IntakeForm(c *fiber.Ctx) error {
	data, err := h.homeData()
	if err != nil {
		applog.Error(c, "reception.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load reception desk"})
	}
	if slipID, ok := validate.ID(c.Query("slip_id")); ok {
		slip, err := h.Reception.Get(slipID)
		if err != nil {
			return c.Status(404).Render("notfound", fiber.Map{"Message": "Reception slip not found"})
		}
		data["Slip"] = slip
	}
	data["Modal"] = "add"
	return render(c, "reception", data)
}

func (h *ReceptionHandler) intakeFromForm(c *fiber.Ctx) (services.IntakeRequest, string) {
	plate, ok := validate.Plate(c.FormValue("license_plate"))
	if !ok {
		return services.IntakeRequest{}, "Invalid license plate"
	}
	owner, ok := validate.Name(c.FormValue("owner_name"), 60)
	if !ok {
		return services.IntakeRequest{}, "Owner name is required"
	}
	phone, ok := validate.Phone(c.FormValue("phone_number"))
	if !ok {
		return services.IntakeRequest{}, "Invalid phone number"
	}
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		return services.IntakeRequest{}, "Invalid email address"
	}
	vehicleType := validate.FreeText(c.FormValue("vehicle_type"), 30)
	if vehicleType == "" {
		vehicleType = "Car"
	}

	return services.IntakeRequest{
		Car: domain.Car{
			LicensePlate: plate,
			OwnerName:    owner,
			PhoneNumber:  phone,
			Address:      validate.FreeText(c.FormValue("address"), 120),
			Email:        email,
			VehicleType:  vehicleType,
			Color:        validate.FreeText(c.FormValue("color"), 30),
		},
		Description: validate.FreeText(c.FormValue("description"), 500),
		Status:      c.FormValue("status"),
	}, ""
}

// POST /reception/add
func (h *ReceptionHandler) Intake(c *fiber.Ctx) error {
	req, msg := h.intakeFromForm(c)
	if msg != "" {
		applog.Security(c, "reception.intake.invalid", map[string]any{"reason": msg})
		return h.renderErr(c, 400, msg)
	}

	if slipID, ok := validate.ID(c.Query("slip_id")); ok {
		if err := h.Workflow.UpdateIntake(slipID, req); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(404).Render("notfound", fiber.Map{"Message": "Reception slip not found"})
			}
			if errors.Is(err, services.ErrInvalidTransition) {
				applog.Security(c, "reception.intake.update.conflict", map[string]any{"slip_id": slipID})
				return h.renderErr(c, 409, "This slip is already in repair and can no longer be edited here.")
			}
			applog.Error(c, "reception.intake.update.fail", err, map[string]any{"slip_id": slipID})
			return h.renderErr(c, 500, "Could not update the reception slip")
		}
		applog.Audit(c, "reception.intake.update", map[string]any{"slip_id": slipID})
		return c.Redirect("/reception")
	}

	slipID, err := h.Workflow.Intake(req)
	if err != nil {
		if errors.Is(err, services.ErrCapacityExceeded) {
			applog.Info(c, "reception.intake.capacity", map[string]any{"plate": req.Car.LicensePlate})
			return h.renderErr(c, 409, "Daily intake limit reached. Cannot receive more cars today.")
		}
		applog.Error(c, "reception.intake.fail", err, nil)
		return h.renderErr(c, 500, "Could not register the car")
	}
	applog.Audit(c, "reception.intake", map[string]any{"slip_id": slipID, "plate": req.Car.LicensePlate})
	return c.Redirect("/reception")
}

func (h *ReceptionHandler) renderErr(c *fiber.Ctx, status int, msg string) error {
	data, err := h.homeData()
	if err != nil {
		return c.Status(500).Render("notfound", fiber.Map{"Message": msg})
	}
	data["Err"] = msg
	c.Status(status)
	return render(c, "reception", data)
}
