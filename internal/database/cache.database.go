package database

import (
	"fmt"

	"roomledger/config"

	"github.com/valkey-io/valkey-go"
)

// Valkey database indexes, one per cache category.
const (
	// GENERAL_CACHE_INDEX (DB 0) - miscellaneous cache operations
	GENERAL_CACHE_INDEX = iota

	// CONTRACT_CACHE_INDEX (DB 1) - contract aggregates read on every
	// billing and checkout path
	CONTRACT_CACHE_INDEX
)

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")

	address := config.CacheAddress
	port := config.CachePort
	if address == "" || port == 0 {
		// The cache is an accelerator; repositories fall back to the
		// database when no client is configured.
		log.Warn("cache address not configured, running without cache")
		return nil
	}

	var cacheDB Cache

	var err error
	cacheDB.General, err = valkey.NewClient(
		valkey.ClientOption{
			InitAddress: []string{fmt.Sprintf("%s:%d", address, port)},
			SelectDB:    GENERAL_CACHE_INDEX,
		},
	)
	if err != nil {
		return log.Err("failed to create general valkey client", err)
	}

	cacheDB.Contracts, err = valkey.NewClient(
		valkey.ClientOption{
			InitAddress: []string{fmt.Sprintf("%s:%d", address, port)},
			SelectDB:    CONTRACT_CACHE_INDEX,
		},
	)
	if err != nil {
		return log.Err("failed to create contracts valkey client", err)
	}

	s.Cache = cacheDB

	log.Info("Cache database initialized", "address", address, "port", port)
	return nil
}
