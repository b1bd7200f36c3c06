package handlers

import (
	"garagedesk/internal/config"
	"garagedesk/internal/repos"
	"garagedesk/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	ReceptionHandler  *ReceptionHandler
	TechnicianHandler *TechnicianHandler
	CashierHandler    *CashierHandler
	AdminHandler      *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	receptionRepo := repos.NewReceptionRepo(db)
	repairRepo := repos.NewRepairRepo(db)
	invoiceRepo := repos.NewInvoiceRepo(db)
	componentRepo := repos.NewComponentRepo(db)
	settingsRepo := repos.NewSettingsRepo(db)

	workflow := services.NewWorkflowService(receptionRepo, repairRepo, invoiceRepo, componentRepo, settingsRepo)
	billing := services.NewBillingService(repairRepo, settingsRepo)
	dashboard := services.NewDashboardService(invoiceRepo, receptionRepo, repairRepo)

	return &Deps{
		ReceptionHandler: &ReceptionHandler{
			Workflow:  workflow,
			Reception: receptionRepo,
			Settings:  settingsRepo,
		},
		TechnicianHandler: &TechnicianHandler{
			Workflow:   workflow,
			Reception:  receptionRepo,
			Repairs:    repairRepo,
			Components: componentRepo,
			Billing:    billing,
		},
		CashierHandler: &CashierHandler{
			Workflow: workflow,
			Repairs:  repairRepo,
			Invoices: invoiceRepo,
			Billing:  billing,
			Settings: settingsRepo,
		},
		AdminHandler: &AdminHandler{
			Dashboard:  dashboard,
			Components: componentRepo,
			Settings:   settingsRepo,
		},
	}
}
