package seed

import (
	"time"

	"roomledger/config"
	"roomledger/internal/logger"
	. "roomledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	branch := Branch{Name: "Downtown", Address: "12 Main St"}
	if err := db.FirstOrCreate(&branch, Branch{Name: branch.Name}).Error; err != nil {
		return log.Err("failed to seed branch", err)
	}

	rooms := []Room{
		{BranchID: branch.ID, Number: "101", Price: decimal.NewFromInt(450), Status: RoomAvailable},
		{BranchID: branch.ID, Number: "102", Price: decimal.NewFromInt(450), Status: RoomAvailable},
		{BranchID: branch.ID, Number: "201", Price: decimal.NewFromInt(520), Status: RoomAvailable},
	}
	for i := range rooms {
		if err := db.FirstOrCreate(&rooms[i], Room{BranchID: branch.ID, Number: rooms[i].Number}).Error; err != nil {
			return log.Err("failed to seed room", err, "number", rooms[i].Number)
		}
	}

	tenants := []Tenant{
		{FullName: "Ada Lovelace", Email: "ada.lovelace@example.com", Phone: "555-0101"},
		{FullName: "Alan Turing", Email: "alan.turing@example.com", Phone: "555-0102"},
	}
	for i := range tenants {
		if err := db.FirstOrCreate(&tenants[i], Tenant{Email: tenants[i].Email}).Error; err != nil {
			return log.Err("failed to seed tenant", err, "email", tenants[i].Email)
		}
	}

	var existing Contract
	if err := db.First(&existing, "tenant_id = ?", tenants[0].ID).Error; err == nil {
		log.Info("Seed contract already exists")
		return nil
	}

	start := time.Now().UTC().AddDate(0, -2, 0)
	contract := Contract{
		TenantID:      tenants[0].ID,
		RoomID:        rooms[0].ID,
		BranchName:    branch.Name,
		RoomNumber:    rooms[0].Number,
		StartDate:     start,
		EndDate:       start.AddDate(1, 0, 0),
		DepositAmount: rooms[0].Price,
		Status:        ContractPending,
	}
	if err := db.Create(&contract).Error; err != nil {
		return log.Err("failed to seed contract", err)
	}

	log.Info("Development data seeded")
	return nil
}
