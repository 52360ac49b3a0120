// Package policy owns the in-memory policy state: settings plus the allow
// and block lists. It is the single writer; every mutation runs
// mutate → persist → rebuild under one mutex so the persisted lists, the
// in-memory mirror, and the installed filter rules can never diverge
// through interleaving.
package policy

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/haukened/phishguard/internal/guard/common/log"
	"github.com/haukened/phishguard/internal/guard/common/urlx"
	"github.com/haukened/phishguard/internal/guard/domain"
	"github.com/haukened/phishguard/internal/guard/repos/policystore"
)

// Rebuilder receives the full block list after every list mutation.
// Implementations must not return errors; failures are theirs to log.
type Rebuilder interface {
	Rebuild(blocked []string)
}

// Service holds the policy state. Construct with New, which loads the
// persisted state and performs the initial rule rebuild.
type Service struct {
	mu       sync.Mutex
	settings domain.Settings
	allow    map[string]struct{}
	block    map[string]struct{}

	store    policystore.Store
	compiler Rebuilder
	logger   log.Logger
}

// Options carries the Service dependencies.
type Options struct {
	Store    policystore.Store
	Compiler Rebuilder
	Logger   log.Logger
}

// New loads persisted state and installs the initial rule set. A store that
// cannot be read is fatal for construction; a daemon without its policy is
// not worth starting.
func New(ctx context.Context, opts Options) (*Service, error) {
	settings, allow, block, err := opts.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading persisted policy: %w", err)
	}

	s := &Service{
		settings: settings,
		allow:    toSet(allow),
		block:    toSet(block),
		store:    opts.Store,
		compiler: opts.Compiler,
		logger:   opts.Logger,
	}

	// Loaded state may predate the invariant; block wins so enforcement
	// stays conservative.
	for d := range s.block {
		delete(s.allow, d)
	}

	s.compiler.Rebuild(setToSorted(s.block))
	s.logger.Info(map[string]any{
		"allow":     len(s.allow),
		"block":     len(s.block),
		"threshold": s.settings.Threshold,
	}, "policy loaded")
	return s, nil
}

// AddToAllow puts a domain on the allow list, removing it from the block
// list first so the two can never both contain it.
func (s *Service) AddToAllow(ctx context.Context, dom string) error {
	dom, err := normalize(dom)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.block, dom)
	s.allow[dom] = struct{}{}
	return s.persistListsLocked(ctx)
}

// AddToBlock puts a domain on the block list, removing it from the allow
// list first.
func (s *Service) AddToBlock(ctx context.Context, dom string) error {
	dom, err := normalize(dom)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.allow, dom)
	s.block[dom] = struct{}{}
	return s.persistListsLocked(ctx)
}

// RemoveFromList removes a domain from one named list. Removing a domain
// that is not present is a no-op that still succeeds.
func (s *Service) RemoveFromList(ctx context.Context, list domain.ListName, dom string) error {
	dom, err := normalize(dom)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch list {
	case domain.ListAllow:
		delete(s.allow, dom)
	case domain.ListBlock:
		delete(s.block, dom)
	default:
		return fmt.Errorf("unknown list %v", list)
	}
	return s.persistListsLocked(ctx)
}

// ImportBlocked unions a batch of domains into the block list with a single
// persist and a single rebuild. Used by the seed loader; a thousand seeded
// domains must not mean a thousand rebuilds.
func (s *Service) ImportBlocked(ctx context.Context, domains []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, raw := range domains {
		dom, err := normalize(raw)
		if err != nil {
			s.logger.Debug(map[string]any{"domain": raw}, "skipping unusable seed entry")
			continue
		}
		if _, ok := s.block[dom]; ok {
			continue
		}
		delete(s.allow, dom)
		s.block[dom] = struct{}{}
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.persistListsLocked(ctx)
}

// UpdateSettings shallow-merges the patch and persists the result. Settings
// changes never touch the rule set, so no rebuild happens here.
func (s *Service) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := patch.Apply(s.settings)
	if err := s.store.SaveSettings(ctx, next); err != nil {
		return s.settings, fmt.Errorf("persisting settings: %w", err)
	}
	s.settings = next
	return next, nil
}

// Settings returns the current settings.
func (s *Service) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// IsAllowed reports whether a domain is on the allow list.
func (s *Service) IsAllowed(dom string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.allow[urlx.CanonicalHost(dom)]
	return ok
}

// IsBlocked reports whether a domain is on the block list.
func (s *Service) IsBlocked(dom string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.block[urlx.CanonicalHost(dom)]
	return ok
}

// State returns a point-in-time copy of settings and both lists, sorted.
func (s *Service) State() domain.PolicyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.PolicyState{
		Settings:  s.settings,
		AllowList: setToSorted(s.allow),
		BlockList: setToSorted(s.block),
	}
}

// persistListsLocked writes both lists through to the store, then rebuilds
// the filter rules from the block list. Persistence failure aborts before
// the rebuild so the installed rules never get ahead of durable state; the
// in-memory mutation stands either way and the next successful mutation
// persists it. Caller holds s.mu.
func (s *Service) persistListsLocked(ctx context.Context) error {
	if err := s.store.SaveLists(ctx, setToSorted(s.allow), setToSorted(s.block)); err != nil {
		return fmt.Errorf("persisting policy lists: %w", err)
	}
	s.compiler.Rebuild(setToSorted(s.block))
	return nil
}

// normalize reduces arbitrary caller input (hostname, registrable domain,
// stray whitespace and case) to the canonical registrable-domain policy key.
func normalize(dom string) (string, error) {
	d := urlx.RegistrableDomain(dom)
	if d == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDomain, dom)
	}
	return d, nil
}

func toSet(domains []string) map[string]struct{} {
	out := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		if n, err := normalize(d); err == nil {
			out[n] = struct{}{}
		}
	}
	return out
}

func setToSorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
