package project

import (
	"context"
	"fmt"
	"time"
)

// QuarantinedRecord is a stored record that failed to parse.
type QuarantinedRecord struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
	Raw    string `json:"raw"`
}

// Quarantine operations recorded on a QuarantineEntry.
const (
	OperationRepair  = "repair"
	OperationReset   = "reset"
	OperationUnknown = "unknown"
)

// QuarantineEntry is a stored document set aside by a recovery operation.
// Raw is the whole document as it was before the operation rewrote it.
type QuarantineEntry struct {
	SavedAt   time.Time           `json:"saved_at"`
	Operation string              `json:"operation"`
	Dropped   []QuarantinedRecord `json:"dropped,omitempty"`
	Raw       string              `json:"raw"`
}

// Maintenance is implemented by stores that can recover from an unreadable
// collection. Quarantine returns entries oldest first.
type Maintenance interface {
	Repair(ctx context.Context) ([]QuarantinedRecord, error)
	Reset(ctx context.Context) error
	Quarantine(ctx context.Context) ([]QuarantineEntry, error)
	DiscardQuarantine(ctx context.Context) error
}

// Repair drops unreadable records from the stored collection, keeping the
// original document in the quarantine.
func (s *Service) Repair(ctx context.Context) ([]QuarantinedRecord, error) {
	m, err := s.maintenance()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped, err := m.Repair(ctx)
	if err != nil {
		return nil, fmt.Errorf("repairing projects: %w", err)
	}
	return dropped, nil
}

// Reset empties the stored collection, keeping the original document in the
// quarantine.
func (s *Service) Reset(ctx context.Context) error {
	m, err := s.maintenance()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := m.Reset(ctx); err != nil {
		return fmt.Errorf("resetting projects: %w", err)
	}
	return nil
}

// Quarantine lists the documents set aside by Repair and Reset.
func (s *Service) Quarantine(ctx context.Context) ([]QuarantineEntry, error) {
	m, err := s.maintenance()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := m.Quarantine(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading quarantine: %w", err)
	}
	return entries, nil
}

// DiscardQuarantine deletes every quarantined document.
func (s *Service) DiscardQuarantine(ctx context.Context) error {
	m, err := s.maintenance()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := m.DiscardQuarantine(ctx); err != nil {
		return fmt.Errorf("discarding quarantine: %w", err)
	}
	s.logger.Info("quarantine discarded")
	return nil
}

func (s *Service) maintenance() (Maintenance, error) {
	m, ok := s.store.(Maintenance)
	if !ok {
		return nil, ErrRecoveryUnsupported
	}
	return m, nil
}
