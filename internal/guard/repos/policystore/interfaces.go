// Package policystore defines the persistence contract for the policy
// state: settings plus the allow and block lists. Implementations are
// write-through; every save must be durable before it returns so the policy
// service can rebuild filter rules against state that survives a restart.
package policystore

import (
	"context"

	"github.com/haukened/phishguard/internal/guard/domain"
)

// Store persists the policy state.
type Store interface {
	// Load reads the persisted state. A store with no prior state returns
	// default settings and empty lists, not an error.
	Load(ctx context.Context) (domain.Settings, []string, []string, error)

	// SaveSettings durably replaces the persisted settings.
	SaveSettings(ctx context.Context, s domain.Settings) error

	// SaveLists durably replaces both persisted lists.
	SaveLists(ctx context.Context, allow, block []string) error

	// Close releases the underlying resources.
	Close() error
}
