package api

// Paging limits of sheet listings.
const (
	DefaultSheetLimit = 50
	MaxSheetLimit     = 500
)

// Cache-Control header values.
const (
	CacheShort   = "public, max-age=60"
	CacheNoStore = "no-cache"
)
