// Package backend selects and opens the slot store named by configuration.
package backend

import (
	"context"

	"caixa/internal/storage"
)

// CleanupFunc releases the resources held by a store.
type CleanupFunc func() error

// Pinger is implemented by stores backed by a server or file that can go
// away. The readiness probe uses it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult contains the opened store and its cleanup function.
type BackendResult struct {
	Store   storage.SlotStore
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	MySQLDSN     string

	SpreadsheetID string
	SheetName     string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	MySQLBackend  BackendType = "mysql"
	SheetsBackend BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, MySQLBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
