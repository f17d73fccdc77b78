// Package cache stores per-program analysis records so repeated runs over
// an unchanged program can skip re-analysis. Records are keyed by the
// SHA-256 digest of the program's canonical CFG dump, held in an in-memory
// LRU, and persisted with msgpack.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/NickCao/ebpf-verifier/pkg/cfg"
)

// ErrNotFound is returned when a digest has no cached record.
var ErrNotFound = errors.New("record not found")

// Record is one cached analysis outcome.
type Record struct {
	Digest     string             `msgpack:"digest"`
	Blocks     int                `msgpack:"blocks"`
	Stats      cfg.Stats          `msgpack:"stats"`
	Simplify   cfg.SimplifyResult `msgpack:"simplify"`
	AnalyzedAt time.Time          `msgpack:"analyzed_at"`
}

// Digest computes the cache key for a CFG: the SHA-256 of a canonical dump
// covering every block in insertion order plus the entry and exit
// designations. CFG.String is not usable here: it walks only blocks
// reachable from the entry and never mentions the exit, so programs
// differing in unreachable blocks or in exit choice would collide.
func Digest(c *cfg.CFG) string {
	h := sha256.New()
	fmt.Fprintf(h, "entry=%s\n", c.Entry())
	if exit, err := c.Exit(); err == nil {
		fmt.Fprintf(h, "exit=%s\n", exit)
	}
	for _, label := range c.Labels() {
		if b, err := c.GetNode(label); err == nil {
			io.WriteString(h, b.String())
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Store is an LRU of analysis records. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	items   map[string]*listItem
	head    *listItem // most recently used
	tail    *listItem
	maxSize int
}

type listItem struct {
	rec  Record
	prev *listItem
	next *listItem
}

// NewStore creates a store holding at most maxSize records; zero means
// unlimited.
func NewStore(maxSize int) *Store {
	return &Store{
		items:   make(map[string]*listItem),
		maxSize: maxSize,
	}
}

// Len returns the number of cached records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get returns the record for digest, refreshing its recency.
func (s *Store) Get(digest string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[digest]
	if !ok {
		return Record{}, false
	}
	s.moveToFront(item)
	return item.rec, true
}

// Put stores a record, evicting the least recently used one when over
// capacity.
func (s *Store) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.items[rec.Digest]; ok {
		item.rec = rec
		s.moveToFront(item)
		return
	}

	item := &listItem{rec: rec}
	s.items[rec.Digest] = item
	s.pushFront(item)

	for s.maxSize > 0 && len(s.items) > s.maxSize {
		last := s.tail
		if last == nil {
			break
		}
		s.unlink(last)
		delete(s.items, last.rec.Digest)
	}
}

// Delete removes a record.
func (s *Store) Delete(digest string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[digest]
	if !ok {
		return
	}
	s.unlink(item)
	delete(s.items, digest)
}

// Clear drops all records.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*listItem)
	s.head = nil
	s.tail = nil
}

func (s *Store) pushFront(item *listItem) {
	item.prev = nil
	item.next = s.head
	if s.head != nil {
		s.head.prev = item
	}
	s.head = item
	if s.tail == nil {
		s.tail = item
	}
}

func (s *Store) unlink(item *listItem) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		s.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		s.tail = item.prev
	}
	item.prev = nil
	item.next = nil
}

func (s *Store) moveToFront(item *listItem) {
	if item == s.head {
		return
	}
	s.unlink(item)
	s.pushFront(item)
}

// Save persists the records to w with msgpack, most recent first.
func (s *Store) Save(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]Record, 0, len(s.items))
	for item := s.head; item != nil; item = item.next {
		records = append(records, item.rec)
	}
	return msgpack.NewEncoder(w).Encode(records)
}

// Load replaces the store's contents with records read from r.
func (s *Store) Load(r io.Reader) error {
	var records []Record
	if err := msgpack.NewDecoder(r).Decode(&records); err != nil {
		return fmt.Errorf("decoding cache: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*listItem, len(records))
	s.head = nil
	s.tail = nil
	// records were saved most recent first; insert back to front so
	// recency survives the round trip
	for i := len(records) - 1; i >= 0; i-- {
		item := &listItem{rec: records[i]}
		s.items[records[i].Digest] = item
		s.pushFront(item)
	}
	return nil
}

// PersistToFile saves the store to path.
func PersistToFile(s *Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()
	return s.Save(f)
}

// LoadFromFile loads the store from path. A missing file is not an error.
func LoadFromFile(s *Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()
	return s.Load(f)
}
