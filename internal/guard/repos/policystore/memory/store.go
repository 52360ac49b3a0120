// Package memory is an in-memory policystore.Store for tests and one-shot
// CLI runs where nothing should touch disk.
package memory

import (
	"context"
	"sync"

	"github.com/haukened/phishguard/internal/guard/domain"
	"github.com/haukened/phishguard/internal/guard/repos/policystore"
)

type memStore struct {
	mu       sync.Mutex
	settings domain.Settings
	allow    []string
	block    []string
}

// New returns an empty store holding default settings.
func New() policystore.Store {
	return &memStore{settings: domain.DefaultSettings()}
}

func (s *memStore) Load(context.Context) (domain.Settings, []string, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, append([]string(nil), s.allow...), append([]string(nil), s.block...), nil
}

func (s *memStore) SaveSettings(_ context.Context, settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

func (s *memStore) SaveLists(_ context.Context, allow, block []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allow = append([]string(nil), allow...)
	s.block = append([]string(nil), block...)
	return nil
}

func (s *memStore) Close() error { return nil }

var _ policystore.Store = (*memStore)(nil)
