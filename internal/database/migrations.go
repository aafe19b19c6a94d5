package database

import (
	"roomledger/internal/logger"
	"roomledger/internal/models"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []interface{}{
		&models.Branch{},
		&models.Room{},
		&models.Tenant{},
		&models.Contract{},
		&models.ServiceCatalogItem{},
		&models.ContractService{},
		&models.Invoice{},
		&models.InvoiceDetail{},
		&models.CheckoutRequest{},
		&models.DamageReport{},
		&models.DamageImage{},
		&models.AuditLog{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			log.Error("Failed to migrate model", "model", model, "error", err)
			return err
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates additional indexes that GORM doesn't create automatically
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_actor_created_at ON audit_logs(actor, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_invoices_status_due_date ON invoices(status, due_date)",
		"CREATE INDEX IF NOT EXISTS idx_contracts_status_end_date ON contracts(status, end_date)",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
			// Continue with other indexes even if one fails
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
