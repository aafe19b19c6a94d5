package initialize

import (
	"roomledger/config"
	. "roomledger/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := initializeServiceCatalog(db, log); err != nil {
		return log.Err("failed to initialize service catalog", err)
	}

	log.Info("Table initialization complete")
	return nil
}

func initializeServiceCatalog(db *gorm.DB, log logger.Logger) error {
	log.Info("Initializing service catalog reference data")

	items := []ServiceCatalogItem{
		{Name: "Electricity", Unit: "kWh", UnitPrice: decimal.NewFromFloat(0.25), Metered: true},
		{Name: "Water", Unit: "m3", UnitPrice: decimal.NewFromFloat(1.80), Metered: true},
		{Name: "Internet", Unit: "month", UnitPrice: decimal.NewFromFloat(12.00), Metered: false},
		{Name: "Parking", Unit: "month", UnitPrice: decimal.NewFromFloat(20.00), Metered: false},
		{Name: "Cleaning", Unit: "month", UnitPrice: decimal.NewFromFloat(15.00), Metered: false},
	}

	for _, item := range items {
		var existing ServiceCatalogItem
		if err := db.First(&existing, "name = ?", item.Name).Error; err == nil {
			log.Debug("Catalog item already exists", "name", item.Name)
			continue
		}
		log.Info("Initializing catalog item", "name", item.Name)
		if err := db.Create(&item).Error; err != nil {
			return log.Err("failed to create catalog item", err, "name", item.Name)
		}
	}

	log.Info("Service catalog initialized", "count", len(items))
	return nil
}
