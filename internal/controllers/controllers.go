package controllers

import (
	"roomledger/config"
	"roomledger/internal/database"
	"roomledger/internal/repositories"
	"roomledger/internal/services"

	auditController "roomledger/internal/controllers/audit"
	billingController "roomledger/internal/controllers/billing"
	checkoutController "roomledger/internal/controllers/checkout"
	contractController "roomledger/internal/controllers/contracts"
)

type Controllers struct {
	Contract contractController.ContractControllerInterface
	Billing  billingController.BillingControllerInterface
	Checkout checkoutController.CheckoutControllerInterface
	Audit    auditController.AuditControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		Contract: contractController.New(repos, services, config, db),
		Billing:  billingController.New(repos, services, db),
		Checkout: checkoutController.New(repos, services, db),
		Audit:    auditController.New(repos, db),
	}
}
