package repositories

import (
	"roomledger/internal/database"
)

type Repository struct {
	Contract        ContractRepository
	Room            RoomRepository
	ContractService ContractServiceRepository
	Invoice         InvoiceRepository
	Checkout        CheckoutRepository
	Damage          DamageRepository
	Audit           AuditRepository
}

func New(db database.DB) Repository {
	return Repository{
		Contract:        NewContractRepository(db.Cache.Contracts), // contract reads are cached
		Room:            NewRoomRepository(),
		ContractService: NewContractServiceRepository(),
		Invoice:         NewInvoiceRepository(),
		Checkout:        NewCheckoutRepository(),
		Damage:          NewDamageRepository(),
		Audit:           NewAuditRepository(),
	}
}
