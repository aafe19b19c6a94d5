package constants

import "time"

const (
	ContractCachePrefix = "contract" // Single cache by contract ID (CacheBuilder adds colon)
	ContractCacheExpiry = 24 * time.Hour
)
