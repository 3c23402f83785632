// Package store persists card documents in an embedded badger database.
// Every card lives under the key "card/<id>" wrapped in an envelope that
// records the schema version it was written with, a revision string, the
// save time, and a content hash. Saving a card whose content hash matches
// the stored one is a no-op that keeps the existing revision.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/merge"
)

const keyPrefix = "card/"

// Config controls where and how the database runs.
type Config struct {
	// Path is the database directory. It is created if missing and
	// required unless InMemory is set.
	Path string
	// InMemory keeps the database in RAM, for tests and throwaway runs.
	InMemory bool
	// SyncWrites fsyncs every write.
	SyncWrites bool
	// GCInterval is how often the value log garbage collector runs. Zero
	// picks the default of five minutes; a negative interval disables the
	// loop. In-memory stores never run GC.
	GCInterval time.Duration
	// GCDiscardRatio is the rewrite threshold handed to badger's GC.
	// Zero picks the default of 0.5.
	GCDiscardRatio float64
	// Logger receives badger's internal logging and store warnings.
	Logger *zap.Logger
}

func (cfg *Config) applyDefaults() {
	if cfg.GCInterval == 0 {
		cfg.GCInterval = 5 * time.Minute
	}
	if cfg.GCDiscardRatio == 0 {
		cfg.GCDiscardRatio = 0.5
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}

// Meta describes the stored state of a card after a Save or Load.
type Meta struct {
	// Revision rotates on every write that changed content.
	Revision string
	// SavedAt is when the envelope was last written.
	SavedAt time.Time
	// Hash is the content hash the envelope was written with.
	Hash uint64
	// Unchanged is set by Save when the card matched the stored hash and
	// nothing was written.
	Unchanged bool
}

// Summary is one row of List.
type Summary struct {
	ID       string
	Title    string
	Type     card.CardType
	SavedAt  time.Time
	Revision string
	// Stale marks envelopes written under a different schema version.
	Stale bool
}

type envelope struct {
	SchemaVersion string     `json:"schemaVersion"`
	Revision      string     `json:"revision"`
	SavedAt       time.Time  `json:"savedAt"`
	Hash          uint64     `json:"hash"`
	Card          *card.Card `json:"card"`
}

// Store is a card database. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
	stopGC    chan struct{}
	doneGC    chan struct{}
}

// Open opens, creating if needed, the database described by cfg. On-disk
// stores also get a background value log GC loop; Close stops it.
func Open(cfg Config) (*Store, error) {
	cfg.applyDefaults()
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("store: path is required unless InMemory is set")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("store: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{logger: cfg.Logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	s := &Store{db: db, logger: cfg.Logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.doneGC = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

// Save writes c under "card/<id>", stamping UpdatedAt and rotating the
// revision. When the content hash matches the stored envelope the write is
// skipped, the existing revision survives, and the returned Meta has
// Unchanged set.
func (s *Store) Save(ctx context.Context, c *card.Card) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	if c == nil {
		return Meta{}, errors.New("store: save: nil card")
	}
	if strings.TrimSpace(c.ID) == "" {
		return Meta{}, errors.New("store: save: card has no id")
	}

	hash := merge.CardHash(c)
	var meta Meta
	err := s.db.Update(func(txn *badger.Txn) error {
		if prev, ok := readEnvelope(txn, c.ID); ok &&
			prev.Hash == hash && prev.SchemaVersion == card.SchemaVersion {
			meta = Meta{Revision: prev.Revision, SavedAt: prev.SavedAt, Hash: hash, Unchanged: true}
			return nil
		}

		now := time.Now().UTC()
		c.UpdatedAt = now
		env := envelope{
			SchemaVersion: card.SchemaVersion,
			Revision:      uuid.NewString(),
			SavedAt:       now,
			Hash:          hash,
			Card:          c,
		}
		raw, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("encode envelope: %w", err)
		}
		meta = Meta{Revision: env.Revision, SavedAt: now, Hash: hash}
		return txn.Set(keyFor(c.ID), raw)
	})
	if err != nil {
		return Meta{}, fmt.Errorf("store: save %q: %w", c.ID, err)
	}
	return meta, nil
}

// Load returns the card stored under id. A schema version mismatch returns
// the decoded card together with a *SchemaVersionError, leaving the decision
// to use, migrate, or discard the stale document to the caller.
func (s *Store) Load(ctx context.Context, id string) (*card.Card, Meta, error) {
	if err := ctx.Err(); err != nil {
		return nil, Meta{}, err
	}

	var env envelope
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFor(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &env)
		})
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, Meta{}, fmt.Errorf("store: load %q: %w", id, ErrNotFound)
	case err != nil:
		return nil, Meta{}, fmt.Errorf("store: load %q: %w", id, err)
	case env.Card == nil:
		return nil, Meta{}, fmt.Errorf("store: load %q: envelope has no card", id)
	}

	meta := Meta{Revision: env.Revision, SavedAt: env.SavedAt, Hash: env.Hash}
	if env.SchemaVersion != card.SchemaVersion {
		return env.Card, meta, &SchemaVersionError{ID: id, Found: env.SchemaVersion, Want: card.SchemaVersion}
	}
	return env.Card, meta, nil
}

// List returns one summary per stored card, ordered by ID. Envelopes
// written under another schema version are included with Stale set; entries
// that fail to decode are skipped with a warning.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Summary
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var env envelope
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			})
			if err == nil && env.Card == nil {
				err = errors.New("envelope has no card")
			}
			if err != nil {
				s.logger.Warn("skipping corrupt card entry",
					zap.ByteString("key", item.KeyCopy(nil)),
					zap.Error(err))
				continue
			}
			out = append(out, Summary{
				ID:       env.Card.ID,
				Title:    env.Card.Title,
				Type:     env.Card.Type,
				SavedAt:  env.SavedAt,
				Revision: env.Revision,
				Stale:    env.SchemaVersion != card.SchemaVersion,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return out, nil
}

// Delete removes the card stored under id. Deleting an absent card returns
// ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(keyFor(id)); err != nil {
			return err
		}
		return txn.Delete(keyFor(id))
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return fmt.Errorf("store: delete %q: %w", id, ErrNotFound)
	case err != nil:
		return fmt.Errorf("store: delete %q: %w", id, err)
	}
	return nil
}

// Close stops the GC loop and closes the database. Safe to call more than
// once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.stopGC != nil {
			close(s.stopGC)
			<-s.doneGC
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer close(s.doneGC)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing worth collecting.
			err := s.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn("value log GC failed", zap.Error(err))
			}
		}
	}
}

func readEnvelope(txn *badger.Txn, id string) (envelope, bool) {
	item, err := txn.Get(keyFor(id))
	if err != nil {
		return envelope{}, false
	}
	var env envelope
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &env)
	})
	if err != nil || env.Card == nil {
		return envelope{}, false
	}
	return env, true
}

func keyFor(id string) []byte {
	return []byte(keyPrefix + id)
}
