// Package store persists campaign registry snapshots in a bbolt database.
//
// Layout: the registry policy lives under a single key in the "registry"
// bucket, campaign vault records in "campaigns" keyed by 8-byte big-endian
// id, and the event journal in "events" keyed by 8-byte big-endian
// sequence number. Events are append-only: saving a snapshot writes only
// journal entries beyond the stored maximum sequence.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/campvaultorg/libcampvault-go/campaign"
)

var (
	bucketRegistry  = []byte("registry")
	bucketCampaigns = []byte("campaigns")
	bucketEvents    = []byte("events")

	registryKey = []byte("policy")
)

// BoltStore wraps a bbolt database holding one deployment's state.
type BoltStore struct {
	db *bbolt.DB
}

// Open opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func Open(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRegistry, bucketCampaigns, bucketEvents} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// idKey encodes an id or sequence number as an 8-byte big-endian key for
// sorted storage.
func idKey(v uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, v)
	return k
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// SaveSnapshot writes the registry policy, every campaign record, and any
// journal events newer than what is already stored.
func (s *BoltStore) SaveSnapshot(snap campaign.Snapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := encodeGob(snap.Registry)
		if err != nil {
			return fmt.Errorf("store: encode registry: %w", err)
		}
		if err := tx.Bucket(bucketRegistry).Put(registryKey, data); err != nil {
			return fmt.Errorf("store: put registry: %w", err)
		}

		cb := tx.Bucket(bucketCampaigns)
		for _, vs := range snap.Vaults {
			data, err := encodeGob(vs)
			if err != nil {
				return fmt.Errorf("store: encode campaign %d: %w", vs.ID, err)
			}
			if err := cb.Put(idKey(vs.ID), data); err != nil {
				return fmt.Errorf("store: put campaign %d: %w", vs.ID, err)
			}
		}

		// The journal is append-only: only sequences beyond the stored
		// maximum are written.
		eb := tx.Bucket(bucketEvents)
		var maxSeq uint64
		if k, _ := eb.Cursor().Last(); k != nil {
			maxSeq = binary.BigEndian.Uint64(k)
		}
		for _, ev := range snap.Events {
			if ev.Seq <= maxSeq {
				continue
			}
			data, err := encodeGob(ev)
			if err != nil {
				return fmt.Errorf("store: encode event %d: %w", ev.Seq, err)
			}
			if err := eb.Put(idKey(ev.Seq), data); err != nil {
				return fmt.Errorf("store: put event %d: %w", ev.Seq, err)
			}
		}
		return nil
	})
}

// LoadSnapshot reads the full stored state. ErrNotFound means the store
// has never been saved to.
func (s *BoltStore) LoadSnapshot() (campaign.Snapshot, error) {
	var snap campaign.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRegistry).Get(registryKey)
		if data == nil {
			return ErrNotFound
		}
		if err := decodeGob(data, &snap.Registry); err != nil {
			return fmt.Errorf("store: decode registry: %w", err)
		}

		// Big-endian keys iterate in id order.
		err := tx.Bucket(bucketCampaigns).ForEach(func(k, v []byte) error {
			var vs campaign.VaultState
			if err := decodeGob(v, &vs); err != nil {
				return fmt.Errorf("store: decode campaign: %w", err)
			}
			snap.Vaults = append(snap.Vaults, vs)
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(bucketEvents).ForEach(func(k, v []byte) error {
			var ev campaign.Event
			if err := decodeGob(v, &ev); err != nil {
				return fmt.Errorf("store: decode event: %w", err)
			}
			snap.Events = append(snap.Events, ev)
			return nil
		})
	})
	if err != nil {
		return campaign.Snapshot{}, err
	}
	return snap, nil
}

// Campaign reads one stored campaign record by id.
func (s *BoltStore) Campaign(id uint64) (campaign.VaultState, error) {
	var vs campaign.VaultState
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketCampaigns).Get(idKey(id))
		if data == nil {
			return ErrNotFound
		}
		if err := decodeGob(data, &vs); err != nil {
			return fmt.Errorf("store: decode campaign: %w", err)
		}
		return nil
	})
	if err != nil {
		return campaign.VaultState{}, err
	}
	return vs, nil
}

// EventsSince reads the stored journal entries with sequence numbers
// greater than afterSeq, in sequence order.
func (s *BoltStore) EventsSince(afterSeq uint64) ([]campaign.Event, error) {
	// No sequence exceeds the maximum, and the seek below needs afterSeq+1.
	if afterSeq == math.MaxUint64 {
		return nil, nil
	}
	var events []campaign.Event
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Seek(idKey(afterSeq + 1)); k != nil; k, v = c.Next() {
			var ev campaign.Event
			if err := decodeGob(v, &ev); err != nil {
				return fmt.Errorf("store: decode event: %w", err)
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
