package domain

import "time"

// KeyPrefixLength is the number of leading credential characters stored
// in clear for lookup and logging.
const KeyPrefixLength = 12

// KeyStatus is the lifecycle status of an API key.
type KeyStatus string

const (
	KeyStatusActive  KeyStatus = "active"
	KeyStatusRevoked KeyStatus = "revoked"
)

// APIKey is a tenant-scoped credential record with its quota profile.
// The gateway never mutates it.
type APIKey struct {
	ID             string    `json:"id" db:"id"`
	TenantID       string    `json:"tenant_id" db:"tenant_id"`
	Prefix         string    `json:"prefix" db:"prefix"`
	KeyHash        string    `json:"-" db:"key_hash"`
	Name           string    `json:"name" db:"name"`
	Market         string    `json:"market" db:"market"`
	QuotaPerMinute int64     `json:"quota_per_minute" db:"quota_minute"`
	QuotaPerHour   int64     `json:"quota_per_hour" db:"quota_hour"`
	QuotaPerDay    int64     `json:"quota_per_day" db:"quota_day"`
	Status         KeyStatus `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Quota returns the quota for a window. Zero or negative means unlimited.
func (k *APIKey) Quota(w Window) int64 {
	switch w {
	case WindowMinute:
		return k.QuotaPerMinute
	case WindowHour:
		return k.QuotaPerHour
	case WindowDay:
		return k.QuotaPerDay
	default:
		return 0
	}
}

// IsRevoked reports whether the key can no longer be used.
func (k *APIKey) IsRevoked() bool {
	return k.Status == KeyStatusRevoked
}
