package handlers

import (
	"strconv"
	"time"

	applog "garagedesk/internal/log"
	"garagedesk/internal/repos"
	"garagedesk/internal/services"
	"garagedesk/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Dashboard  *services.DashboardService
	Components *repos.ComponentRepo
	Settings   *repos.SettingsRepo
}

// GET /admin/dashboard
// Monthly statistics, settings and the parts catalog.
// ?month=&year= select the reporting window; ?edit_id= preloads a component
// into the edit form.
func (h *AdminHandler) DashboardPage(c *fiber.Ctx) error {
	now := time.Now()
	month, year := validate.MonthYear(c.Query("month"), c.Query("year"), int(now.Month()), now.Year())
	day := 0
	if d, err := strconv.Atoi(c.Query("day")); err == nil && d >= 1 && d <= 31 {
		day = d
	}

	report, err := h.Dashboard.Stats(year, month, day)
	if err != nil {
		applog.Error(c, "admin.stats.fail", err, map[string]any{"month": month, "year": year})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load statistics"})
	}
	settings, err := h.Settings.GetAll()
	if err != nil {
		applog.Error(c, "admin.settings.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load settings"})
	}
	components, err := h.Components.ListActive()
	if err != nil {
		applog.Error(c, "admin.components.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load components"})
	}

	data := fiber.Map{
		"Report":     report,
		"Settings":   settings,
		"Components": components,
	}
	if editID, ok := validate.ID(c.Query("edit_id")); ok {
		if comp, err := h.Components.Get(editID); err == nil {
			data["EditComponent"] = comp
		}
	}
	return render(c, "admin_dashboard", data)
}

// POST /admin/settings
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	maxCars, err := strconv.Atoi(c.FormValue("max_cars"))
	if err != nil || maxCars < 0 {
		return c.Status(400).SendString("max cars must be a non-negative number")
	}
	vatRate, ok := validate.Money(c.FormValue("vat_rate"))
	if !ok {
		return c.Status(400).SendString("VAT rate must be a non-negative number")
	}

	if err := h.Settings.Upsert(repos.SettingMaxCarsPerDay, strconv.Itoa(maxCars)); err != nil {
		applog.Error(c, "admin.settings.save.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not save settings"})
	}
	if err := h.Settings.Upsert(repos.SettingVATRate, strconv.FormatFloat(vatRate, 'f', -1, 64)); err != nil {
		applog.Error(c, "admin.settings.save.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not save settings"})
	}
	applog.Audit(c, "admin.settings.save", map[string]any{"max_cars": maxCars, "vat_rate": vatRate})
	return c.Redirect("/admin/dashboard")
}

func componentFromForm(c *fiber.Ctx) (name string, price float64, stock int, msg string) {
	name, ok := validate.Name(c.FormValue("name"), 60)
	if !ok {
		return "", 0, 0, "component name is required"
	}
	price, ok = validate.Money(c.FormValue("price"))
	if !ok {
		return "", 0, 0, "price must be a non-negative number"
	}
	stock = 0
	if raw := c.FormValue("stock"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return "", 0, 0, "stock must be a non-negative number"
		}
		stock = n
	}
	return name, price, stock, ""
}

// POST /admin/component/add
func (h *AdminHandler) AddComponent(c *fiber.Ctx) error {
	name, price, stock, msg := componentFromForm(c)
	if msg != "" {
		return c.Status(400).SendString(msg)
	}
	id, err := h.Components.Add(name, price, stock)
	if err != nil {
		applog.Error(c, "admin.component.add.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not add the component"})
	}
	applog.Audit(c, "admin.component.add", map[string]any{"component_id": id, "name": name})
	return c.Redirect("/admin/dashboard")
}

// POST /admin/component/update/:id
func (h *AdminHandler) UpdateComponent(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Component not found"})
	}
	name, price, stock, msg := componentFromForm(c)
	if msg != "" {
		return c.Status(400).SendString(msg)
	}
	if err := h.Components.Update(id, name, price, stock); err != nil {
		applog.Error(c, "admin.component.update.fail", err, map[string]any{"component_id": id})
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Component not found"})
	}
	applog.Audit(c, "admin.component.update", map[string]any{"component_id": id})
	return c.Redirect("/admin/dashboard")
}

// POST /admin/component/delete/:id
// Soft delete; the repair history keeps its price snapshots.
func (h *AdminHandler) DeleteComponent(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Component not found"})
	}
	if err := h.Components.SoftDelete(id); err != nil {
		applog.Error(c, "admin.component.delete.fail", err, map[string]any{"component_id": id})
		return c.Status(400).Render("notfound", fiber.Map{"Message": "Cannot delete this component"})
	}
	applog.Audit(c, "admin.component.delete", map[string]any{"component_id": id})
	return c.Redirect("/admin/dashboard")
}
