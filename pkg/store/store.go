// Package store persists the plan snapshots and the absence overlay as
// one JSON document. The document is the sole unit of durability: every
// write rewrites the whole file through a temp file and an atomic
// rename, so a failed persist never truncates existing data.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mfroehlich/roster-api-go/pkg/models"
)

// Document is the on-disk shape. The JSON keys match the files written
// by the previous version of this service.
type Document struct {
	Snapshots []models.PlanSnapshot  `json:"plans"`
	Absences  []models.AbsenceRecord `json:"absences"`
}

// Store is a file-backed snapshot store. All access goes through its
// mutex; writers within one process are serialized, concurrent edits to
// the same cell remain last-write-wins.
type Store struct {
	mu   sync.Mutex
	path string
	doc  Document
}

// Open loads the document at path, creating an empty store if the file
// does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	return s, nil
}

// Snapshots returns the plan snapshots in insertion order (oldest
// first), the order the aggregator folds in. The slice is a copy; the
// snapshots' inner maps are shared and must only be mutated through
// Mutate.
func (s *Store) Snapshots() []models.PlanSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PlanSnapshot, len(s.doc.Snapshots))
	copy(out, s.doc.Snapshots)
	return out
}

// Absences returns a copy of the absence overlay.
func (s *Store) Absences() []models.AbsenceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AbsenceRecord, len(s.doc.Absences))
	copy(out, s.doc.Absences)
	return out
}

// Append adds a snapshot as the newest entry and persists.
func (s *Store) Append(snap models.PlanSnapshot) error {
	return s.Mutate(func(doc *Document) error {
		doc.Snapshots = append(doc.Snapshots, snap)
		return nil
	})
}

// Mutate runs fn against the document under the store lock and persists
// the result. If fn returns an error the document is left untouched and
// nothing is written.
func (s *Store) Mutate(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Work on a deep copy so a failing fn cannot leave half-applied
	// changes behind.
	work, err := cloneDocument(s.doc)
	if err != nil {
		return err
	}
	if err := fn(&work); err != nil {
		return err
	}
	if err := s.persistLocked(work); err != nil {
		return err
	}
	s.doc = work
	return nil
}

func cloneDocument(doc Document) (Document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return Document{}, fmt.Errorf("clone store document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return Document{}, fmt.Errorf("clone store document: %w", err)
	}
	return out, nil
}

// persistLocked writes the document to a temp file in the same
// directory and renames it over the store file.
func (s *Store) persistLocked(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close store temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
