// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort          = "8080"
	DefaultDBPath        = "nowplaying.db"
	DefaultCacheBackend  = CacheBackendSQLite
	DefaultUsername      = "admin"
	DefaultLastfmURL     = "https://ws.audioscrobbler.com/2.0/"
	DefaultCatalogURL    = "https://api.music.apple.com/v1"
	DefaultStorefront    = "us"
	DefaultFallbackFront = "gb"
	DefaultMusicBrainz   = "https://musicbrainz.org/ws/2"
	DefaultHTTPTimeout   = 5 * time.Second
	DefaultCatalogRPS    = 5.0
	DefaultRetryCount    = 2
	DefaultRetryBase     = 500 * time.Millisecond
	DefaultStreamLimit   = 30
	DefaultStreamWindow  = time.Minute
	CatalogTokenLifetime = 12 * time.Hour
	MetadataFetchTimeout = 30 * time.Second
)

// Cache backends
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendBadger = "badger"
)

// Polling
const (
	RecentTrackLimit = 50
	RecentAlbumLimit = 4
)

// Now-playing detection
const (
	BufferTime     = 30 * time.Second
	FallbackWindow = 3 * time.Minute
)

// Adaptive stream interval
const (
	IntervalTrackEnding   = 5 * time.Second
	IntervalTrackClosing  = 10 * time.Second
	IntervalPlaying       = 15 * time.Second
	IntervalUnknown       = 10 * time.Second
	IntervalIdle          = 30 * time.Second
	RemainingEndingBelow  = 20 * time.Second
	RemainingClosingBelow = 60 * time.Second
	IntervalHysteresis    = time.Second
)

// Catalog backoff
const (
	FailureThreshold   = 3
	FailureWindow      = 24 * time.Hour
	RateLimitBaseDelay = time.Second
	RateLimitMaxDelay  = 5 * time.Minute
	RateLimitDecay     = 5 * time.Minute
)

// Cache TTLs
const (
	AlbumInfoTTL    = time.Hour
	CatalogAlbumTTL = 24 * time.Hour
	NotFoundTTL     = time.Hour
)

// Reconnect policy
const (
	MaxReconnectAttempts = 5
	ReconnectBase        = time.Second
	ReconnectMax         = 30 * time.Second
)

// SSE event names
const (
	EventConnected = "connected"
	EventAlbums    = "albums"
	EventHeartbeat = "heartbeat"
)

// Database
const (
	CacheTable          = "cache"
	MaintenanceInterval = 10 * time.Minute
)
