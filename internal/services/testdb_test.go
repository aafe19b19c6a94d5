package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"roomledger/config"
	"roomledger/internal/database"
	. "roomledger/internal/models"
	"roomledger/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func testConfig() config.Config {
	return config.Config{NotificationSender: "noreply@roomledger.test"}
}

func newTestDB(t *testing.T) database.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gormDB.AutoMigrate(
		&Branch{},
		&Room{},
		&Tenant{},
		&Contract{},
		&ServiceCatalogItem{},
		&ContractService{},
		&Invoice{},
		&InvoiceDetail{},
		&CheckoutRequest{},
		&DamageReport{},
		&DamageImage{},
		&AuditLog{},
	))

	return database.DB{SQL: gormDB}
}

type fixture struct {
	db       database.DB
	repos    repositories.Repository
	tx       *TransactionService
	branch   *Branch
	room     *Room
	tenant   *Tenant
	contract *Contract
}

// newFixture seeds one branch, room, and tenant, plus a contract in the
// given status (occupying the room when ACTIVE).
func newFixture(t *testing.T, status ContractStatus) *fixture {
	t.Helper()

	db := newTestDB(t)
	repos := repositories.New(db)

	branch := &Branch{Name: "Downtown", Address: "12 Main St"}
	require.NoError(t, db.SQL.Create(branch).Error)

	roomStatus := RoomAvailable
	if status == ContractActive {
		roomStatus = RoomOccupied
	}
	room := &Room{BranchID: branch.ID, Number: "101", Price: decimal.NewFromInt(500), Status: roomStatus}
	require.NoError(t, db.SQL.Create(room).Error)

	tenant := &Tenant{FullName: "Ada Lovelace", Email: "ada@example.com", Phone: "555-0101"}
	require.NoError(t, db.SQL.Create(tenant).Error)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	contract := &Contract{
		TenantID:      tenant.ID,
		RoomID:        room.ID,
		BranchName:    branch.Name,
		RoomNumber:    room.Number,
		StartDate:     start,
		EndDate:       start.AddDate(1, 0, 0),
		DepositAmount: room.Price,
		Status:        status,
	}
	require.NoError(t, db.SQL.Create(contract).Error)

	return &fixture{
		db:       db,
		repos:    repos,
		tx:       NewTransactionService(db),
		branch:   branch,
		room:     room,
		tenant:   tenant,
		contract: contract,
	}
}

func (f *fixture) catalogItem(t *testing.T, name, unit string, price float64, metered bool) *ServiceCatalogItem {
	t.Helper()

	item := &ServiceCatalogItem{
		Name:      name,
		Unit:      unit,
		UnitPrice: decimal.NewFromFloat(price),
		Metered:   metered,
	}
	require.NoError(t, f.db.SQL.Create(item).Error)
	return item
}

func (f *fixture) attachFlat(t *testing.T, item *ServiceCatalogItem, quantity int) *ContractService {
	t.Helper()

	service := &ContractService{
		ContractID:    f.contract.ID,
		CatalogItemID: item.ID,
		Quantity:      quantity,
		StartDate:     f.contract.StartDate,
	}
	require.NoError(t, f.db.SQL.Create(service).Error)
	return service
}

func (f *fixture) attachMetered(t *testing.T, item *ServiceCatalogItem, previous, current int) *ContractService {
	t.Helper()

	service := &ContractService{
		ContractID:      f.contract.ID,
		CatalogItemID:   item.ID,
		Quantity:        1,
		StartDate:       f.contract.StartDate,
		PreviousReading: &previous,
		CurrentReading:  &current,
	}
	require.NoError(t, f.db.SQL.Create(service).Error)
	return service
}

func (f *fixture) reloadContract(t *testing.T) *Contract {
	t.Helper()

	contract, err := f.repos.Contract.GetByID(context.Background(), f.db.SQL, f.contract.ID)
	require.NoError(t, err)
	return contract
}

func (f *fixture) reloadRoom(t *testing.T) *Room {
	t.Helper()

	room, err := f.repos.Room.GetByID(context.Background(), f.db.SQL, f.room.ID)
	require.NoError(t, err)
	return room
}
