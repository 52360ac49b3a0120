// Package bolt persists policy state in a bbolt database. Each list lives
// in its own bucket keyed by domain, with the time the entry was added as
// the value; settings are one JSON document. Saves replace whole buckets
// inside a single transaction, so readers never observe a half-written
// list.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/phishguard/internal/guard/common/clock"
	"github.com/haukened/phishguard/internal/guard/domain"
	"github.com/haukened/phishguard/internal/guard/repos/policystore"
)

var (
	bucketSettings = []byte("settings")
	bucketAllow    = []byte("allowlist")
	bucketBlock    = []byte("blocklist")
	bucketMeta     = []byte("meta")

	keySettings = []byte("current")
	keyUpdated  = []byte("updated")
)

// boltStore implements policystore.Store using bbolt.
type boltStore struct {
	db  *bbolt.DB
	clk clock.Clock
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string, clk clock.Clock) (policystore.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening policy database: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSettings, bucketAllow, bucketBlock, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing policy buckets: %w", err)
	}
	return &boltStore{db: db, clk: clk}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

// Load reads settings and both lists. Missing settings fall back to the
// shipped defaults so a fresh database behaves like a fresh install.
func (s *boltStore) Load(_ context.Context) (domain.Settings, []string, []string, error) {
	settings := domain.DefaultSettings()
	var allow, block []string

	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketSettings); b != nil {
			if v := b.Get(keySettings); v != nil {
				if err := json.Unmarshal(v, &settings); err != nil {
					return fmt.Errorf("decoding persisted settings: %w", err)
				}
			}
		}
		var err error
		if allow, err = readDomains(tx.Bucket(bucketAllow)); err != nil {
			return err
		}
		block, err = readDomains(tx.Bucket(bucketBlock))
		return err
	})
	if err != nil {
		return domain.Settings{}, nil, nil, err
	}
	return settings, allow, block, nil
}

// SaveSettings replaces the persisted settings document.
func (s *boltStore) SaveSettings(_ context.Context, settings domain.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketSettings).Put(keySettings, data); err != nil {
			return err
		}
		return s.touchMeta(tx)
	})
}

// SaveLists replaces both list buckets in one transaction. Added-at stamps
// for domains already present are preserved; new domains are stamped now.
func (s *boltStore) SaveLists(_ context.Context, allow, block []string) error {
	now := s.clk.Now().UTC().Format(time.RFC3339)
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := writeDomains(tx.Bucket(bucketAllow), allow, now); err != nil {
			return err
		}
		if err := writeDomains(tx.Bucket(bucketBlock), block, now); err != nil {
			return err
		}
		return s.touchMeta(tx)
	})
}

func (s *boltStore) touchMeta(tx *bbolt.Tx) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(s.clk.Now().Unix()))
	return tx.Bucket(bucketMeta).Put(keyUpdated, buf[:])
}

func readDomains(b *bbolt.Bucket) ([]string, error) {
	if b == nil {
		return nil, nil
	}
	out := make([]string, 0, b.Stats().KeyN)
	err := b.ForEach(func(k, _ []byte) error {
		out = append(out, string(k))
		return nil
	})
	return out, err
}

// writeDomains makes bucket b contain exactly the given domains. Existing
// entries keep their stamp; entries not in the new set are deleted.
func writeDomains(b *bbolt.Bucket, domains []string, stamp string) error {
	want := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		want[d] = struct{}{}
	}

	var drop [][]byte
	if err := b.ForEach(func(k, _ []byte) error {
		if _, ok := want[string(k)]; !ok {
			key := make([]byte, len(k))
			copy(key, k)
			drop = append(drop, key)
		}
		return nil
	}); err != nil {
		return err
	}
	for _, k := range drop {
		if err := b.Delete(k); err != nil {
			return err
		}
	}

	for _, d := range domains {
		if b.Get([]byte(d)) != nil {
			continue
		}
		if err := b.Put([]byte(d), []byte(stamp)); err != nil {
			return err
		}
	}
	return nil
}

var _ policystore.Store = (*boltStore)(nil)
