// Package export builds point-in-time backups of the profile and projects.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rpggio/internpm/internal/domain/project"
	"github.com/rpggio/internpm/internal/domain/session"
)

// ProjectLister lists projects.
type ProjectLister interface {
	List(ctx context.Context, query string) ([]project.Project, error)
}

// ProfileSource supplies the profile included in a backup.
type ProfileSource interface {
	Profile(ctx context.Context) (session.Profile, error)
}

// Document is the backup file contents.
type Document struct {
	Profile  session.Profile   `json:"profile"`
	Projects []project.Project `json:"projects"`
}

// Service handles export operations.
type Service struct {
	projects ProjectLister
	profiles ProfileSource
	logger   *slog.Logger
}

// NewService creates a new export service.
func NewService(projects ProjectLister, profiles ProfileSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{projects: projects, profiles: profiles, logger: logger}
}

// Snapshot returns the profile and the result of a single unfiltered list.
// A partially readable collection is not exported.
func (s *Service) Snapshot(ctx context.Context) (*Document, error) {
	profile, err := s.profiles.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	projects, err := s.projects.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return &Document{Profile: profile, Projects: projects}, nil
}

// Write encodes a snapshot to w as indented JSON.
func (s *Service) Write(ctx context.Context, w io.Writer) (*Document, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("writing export: %w", err)
	}
	s.logger.Info("projects exported", "projects", len(doc.Projects))
	return doc, nil
}

// FileName is the suggested download name for a backup taken at now.
func FileName(now time.Time) string {
	return "intern-projects-backup-" + now.UTC().Format("2006-01-02T15-04-05Z") + ".json"
}
