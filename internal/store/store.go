// Package store persists the project collection as a single JSON document in
// a storage medium. Every save rewrites the whole collection.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/internpm/internal/domain/project"
	"github.com/rpggio/internpm/internal/medium"
)

// Store implements project.Store on a medium.Medium.
type Store struct {
	medium medium.Medium
	logger *slog.Logger
}

// New creates a Store.
func New(m medium.Medium, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{medium: m, logger: logger}
}

// Load reads the collection. A missing document yields an empty collection.
// An unreadable document yields a *CorruptError and no projects; unreadable
// records yield the readable projects together with a *CorruptError listing
// the rest.
func (s *Store) Load(ctx context.Context) (project.Collection, error) {
	doc, ok, err := s.medium.Get(ctx, medium.ProjectsKey)
	if err != nil {
		return nil, fmt.Errorf("reading collection: %w", err)
	}
	if !ok {
		return project.Collection{}, nil
	}

	projects, quarantined, err := parseCollection(doc)
	if err != nil {
		return nil, &CorruptError{Cause: err}
	}
	if len(quarantined) > 0 {
		return projects, &CorruptError{Quarantined: quarantined}
	}
	return projects, nil
}

// Save validates id uniqueness and replaces the stored collection. On failure
// the previously stored collection is unchanged.
func (s *Store) Save(ctx context.Context, projects project.Collection) error {
	seen := make(map[string]bool, len(projects))
	for i := range projects {
		if seen[projects[i].ID] {
			return fmt.Errorf("%w %q", ErrDuplicateID, projects[i].ID)
		}
		seen[projects[i].ID] = true
	}

	if projects == nil {
		projects = project.Collection{}
	}
	doc, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("encoding collection: %w", err)
	}

	if err := s.medium.Set(ctx, medium.ProjectsKey, string(doc)); err != nil {
		return fmt.Errorf("writing collection: %w", err)
	}
	return nil
}

// maxQuarantineEntries bounds the quarantine history; older entries are
// dropped first.
const maxQuarantineEntries = 10

// Repair rewrites the collection with only its readable records. The stored
// document is first appended to the quarantine so nothing is lost silently.
func (s *Store) Repair(ctx context.Context) ([]project.QuarantinedRecord, error) {
	doc, ok, err := s.medium.Get(ctx, medium.ProjectsKey)
	if err != nil {
		return nil, fmt.Errorf("reading collection: %w", err)
	}
	if !ok {
		return nil, nil
	}

	projects, quarantined, err := parseCollection(doc)
	if err != nil {
		return nil, &CorruptError{Cause: err}
	}
	if len(quarantined) == 0 {
		return nil, nil
	}

	entry := project.QuarantineEntry{Operation: project.OperationRepair, Dropped: quarantined, Raw: doc}
	if err := s.appendQuarantine(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, projects); err != nil {
		return nil, err
	}

	s.logger.Warn("quarantined unreadable projects", "count", len(quarantined), "key", medium.ProjectsQuarantineKey)
	return quarantined, nil
}

// Reset replaces the collection with an empty one, first appending the stored
// document to the quarantine.
func (s *Store) Reset(ctx context.Context) error {
	doc, ok, err := s.medium.Get(ctx, medium.ProjectsKey)
	if err != nil {
		return fmt.Errorf("reading collection: %w", err)
	}
	if ok {
		entry := project.QuarantineEntry{Operation: project.OperationReset, Raw: doc}
		if err := s.appendQuarantine(ctx, entry); err != nil {
			return err
		}
	}
	if err := s.Save(ctx, project.Collection{}); err != nil {
		return err
	}

	s.logger.Warn("project store reset", "backed_up", ok, "bytes", len(doc), "key", medium.ProjectsQuarantineKey)
	return nil
}

// Quarantine returns the documents set aside by Repair and Reset, oldest
// first. A quarantine in an unrecognized shape is returned as one entry.
func (s *Store) Quarantine(ctx context.Context) ([]project.QuarantineEntry, error) {
	doc, ok, err := s.medium.Get(ctx, medium.ProjectsQuarantineKey)
	if err != nil {
		return nil, fmt.Errorf("reading quarantine: %w", err)
	}
	if !ok {
		return []project.QuarantineEntry{}, nil
	}

	var entries []project.QuarantineEntry
	if err := json.Unmarshal([]byte(doc), &entries); err != nil {
		return []project.QuarantineEntry{{Operation: project.OperationUnknown, Raw: doc}}, nil
	}
	if entries == nil {
		entries = []project.QuarantineEntry{}
	}
	return entries, nil
}

// DiscardQuarantine deletes the quarantine history.
func (s *Store) DiscardQuarantine(ctx context.Context) error {
	if err := s.medium.Delete(ctx, medium.ProjectsQuarantineKey); err != nil {
		return fmt.Errorf("deleting quarantine: %w", err)
	}
	return nil
}

// appendQuarantine stashes the history outside the quota so recovery works
// on a full medium.
func (s *Store) appendQuarantine(ctx context.Context, entry project.QuarantineEntry) error {
	entries, err := s.Quarantine(ctx)
	if err != nil {
		return err
	}

	entry.SavedAt = time.Now().UTC()
	entries = append(entries, entry)
	if n := len(entries) - maxQuarantineEntries; n > 0 {
		s.logger.Warn("dropping oldest quarantine entries", "count", n)
		entries = entries[n:]
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding quarantine: %w", err)
	}
	if err := s.medium.Stash(ctx, medium.ProjectsQuarantineKey, string(data)); err != nil {
		return fmt.Errorf("writing quarantine: %w", err)
	}
	return nil
}
