// Package replica is the host-side persistence layer: it keeps a
// bbolt-backed copy of the Catalog CRDT state and every locally-hosted
// Shard CRDT state on disk, alongside a small manifest describing which
// shards this replica hosts. Every CRDT operation itself stays pure
// (package catalog/shard); this package is the I/O boundary that feeds
// state bytes in and persists the result. Grounded on node/store/db.go.
package replica

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketCatalog = []byte("catalog_state")
	bucketShards  = []byte("shard_state_by_id")
)

const catalogStateKey = "state"

// Store is one node's persisted replica: the catalog state and every
// locally-hosted shard's state.
type Store struct {
	dir      string
	db       *bolt.DB
	manifest *Manifest
}

// Open opens (creating if absent) the bbolt database under dir and loads
// its manifest. Grounded on node/store/db.go::Open.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("replica: dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("replica: create dir: %w", err)
	}

	path := filepath.Join(dir, "replica.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("replica: open bbolt: %w", err)
	}

	s := &Store{dir: dir, db: bdb}

	if err := s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketCatalog, bucketShards} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	m, err := readManifest(dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.manifest = &Manifest{
				SchemaVersion:     SchemaVersionV1,
				LastAntiEntropyAt: make(map[string]int64),
			}
			return s, nil
		}
		_ = bdb.Close()
		return nil, fmt.Errorf("replica: read manifest: %w", err)
	}
	if m.SchemaVersion > SchemaVersionV1 {
		_ = bdb.Close()
		return nil, fmt.Errorf("replica: manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	}
	if m.LastAntiEntropyAt == nil {
		m.LastAntiEntropyAt = make(map[string]int64)
	}
	s.manifest = m
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Manifest returns the replica's own bookkeeping record.
func (s *Store) Manifest() *Manifest {
	if s == nil {
		return nil
	}
	return s.manifest
}

// SetManifest atomically persists m and adopts it as the in-memory manifest.
func (s *Store) SetManifest(m *Manifest) error {
	if s == nil {
		return fmt.Errorf("replica: nil store")
	}
	if err := writeManifestAtomic(s.dir, m); err != nil {
		return err
	}
	s.manifest = m
	return nil
}

// PutCatalogState persists the serialized catalog state.
func (s *Store) PutCatalogState(stateBytes []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCatalog).Put([]byte(catalogStateKey), stateBytes)
	})
}

// GetCatalogState returns the persisted catalog state, or ok=false if none
// has been written yet.
func (s *Store) GetCatalogState() (stateBytes []byte, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketCatalog).Get([]byte(catalogStateKey))
		if v == nil {
			return nil
		}
		stateBytes = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return stateBytes, stateBytes != nil, nil
}

// PutShardState persists the serialized state for one shard.
func (s *Store) PutShardState(shardID uint8, stateBytes []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketShards).Put(shardKey(shardID), stateBytes)
	})
}

// GetShardState returns the persisted state for shardID, or ok=false if
// none has been written yet.
func (s *Store) GetShardState(shardID uint8) (stateBytes []byte, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketShards).Get(shardKey(shardID))
		if v == nil {
			return nil
		}
		stateBytes = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return stateBytes, stateBytes != nil, nil
}

func shardKey(shardID uint8) []byte {
	var buf [1]byte
	buf[0] = shardID
	return buf[:]
}
