package model

// MigrationSnapshot is a point-in-time report of linkage between the two
// identity backends. Derived on every query, never cached.
type MigrationSnapshot struct {
	Total                int64   `json:"total"`
	WithLinkageID        int64   `json:"with_linkage_id"`
	WithAccount          int64   `json:"with_account"`
	FullyMigrated        int64   `json:"fully_migrated"`
	Pending              int64   `json:"pending"`
	Percentage           float64 `json:"percentage"`
	CanDisableLegacyAuth bool    `json:"can_disable_legacy_auth"`
}
