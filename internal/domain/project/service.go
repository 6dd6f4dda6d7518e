package project

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/internpm/internal/codec"
	"golang.org/x/sync/errgroup"
)

const (
	maxIDAttempts   = 8
	defaultMimeType = "application/octet-stream"
)

// Service handles project operations. Every operation holds mu from load to
// save so concurrent callers cannot lose each other's writes.
type Service struct {
	mu     sync.Mutex
	store  Store
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator overrides the project id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new project service.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		store:  store,
		logger: logger,
		newID:  NewID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Title       string
	Description string
	Files       []RawFile
}

// UpdateRequest defines project update inputs. Nil or empty Files keeps the
// existing attachments; otherwise they are replaced.
type UpdateRequest struct {
	ID          string
	Title       string
	Description string
	Files       []RawFile
}

// Create encodes the files, prepends a new project and persists the collection.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	title, description, err := normalizeText(req.Title, req.Description)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	attachments, err := s.encodeFiles(ctx, req.Files)
	if err != nil {
		return nil, err
	}

	projects, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}

	id, err := s.allocateID(projects)
	if err != nil {
		return nil, err
	}

	proj := Project{
		ID:          id,
		Title:       title,
		Description: description,
		CreatedAt:   s.now().UTC(),
		Attachments: attachments,
	}

	next := make(Collection, 0, len(projects)+1)
	next = append(next, proj)
	next = append(next, projects...)

	if err := s.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("saving projects: %w", err)
	}

	s.logger.Info("project created", "project_id", proj.ID, "attachments", len(attachments))
	return &proj, nil
}

// Update replaces the title and description of a project and, when files are
// supplied, its attachments.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Project, error) {
	title, description, err := normalizeText(req.Title, req.Description)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var attachments []Attachment
	if len(req.Files) > 0 {
		attachments, err = s.encodeFiles(ctx, req.Files)
		if err != nil {
			return nil, err
		}
	}

	projects, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}

	idx := projects.IndexOf(req.ID)
	if idx < 0 {
		return nil, ErrProjectNotFound
	}

	proj := projects[idx]
	proj.Title = title
	proj.Description = description
	if attachments != nil {
		proj.Attachments = attachments
	}
	updatedAt := s.now().UTC()
	proj.UpdatedAt = &updatedAt

	next := make(Collection, len(projects))
	copy(next, projects)
	next[idx] = proj

	if err := s.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("saving projects: %w", err)
	}

	s.logger.Info("project updated", "project_id", proj.ID, "replaced_attachments", attachments != nil)
	return &proj, nil
}

// Delete removes a project and its attachments.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading projects: %w", err)
	}

	idx := projects.IndexOf(id)
	if idx < 0 {
		return ErrProjectNotFound
	}

	next := make(Collection, 0, len(projects)-1)
	next = append(next, projects[:idx]...)
	next = append(next, projects[idx+1:]...)

	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("saving projects: %w", err)
	}

	s.logger.Info("project deleted", "project_id", id)
	return nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}

	idx := projects.IndexOf(id)
	if idx < 0 {
		return nil, ErrProjectNotFound
	}
	proj := projects[idx]
	return &proj, nil
}

// List returns the projects whose title or description contains query,
// newest first. When the store could only partially parse the collection the
// readable projects are returned together with the load error.
func (s *Service) List(ctx context.Context, query string) ([]Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, loadErr := s.store.Load(ctx)
	if loadErr != nil {
		loadErr = fmt.Errorf("loading projects: %w", loadErr)
		if projects == nil {
			return nil, loadErr
		}
		s.logger.Warn("listing partially loaded projects", "error", loadErr)
	}

	matched := make([]Project, 0, len(projects))
	for i := range projects {
		if projects[i].Matches(query) {
			matched = append(matched, projects[i])
		}
	}
	return matched, loadErr
}

// AttachmentBlob decodes one attachment of p, returning its bytes and mime
// type. An empty mime type is reported as application/octet-stream.
func (s *Service) AttachmentBlob(p *Project, index int) ([]byte, string, error) {
	if p == nil || index < 0 || index >= len(p.Attachments) {
		return nil, "", ErrIndexOutOfRange
	}
	att := p.Attachments[index]

	data, err := codec.Decode(att.Payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding attachment %q: %w", att.Name, err)
	}

	mimeType := att.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	return data, mimeType, nil
}

// encodeFiles converts files concurrently, preserving their order. The first
// failure cancels the remaining conversions and fails the whole batch.
func (s *Service) encodeFiles(ctx context.Context, files []RawFile) ([]Attachment, error) {
	attachments := make([]Attachment, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			att, err := encodeFile(gctx, f)
			if err != nil {
				return fmt.Errorf("encoding file %q: %w", f.Name(), err)
			}
			attachments[i] = att
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return attachments, nil
}

func encodeFile(ctx context.Context, f RawFile) (Attachment, error) {
	rc, err := f.Open()
	if err != nil {
		return Attachment{}, err
	}
	defer rc.Close()

	payload, size, err := codec.EncodeReader(ctx, rc)
	if err != nil {
		return Attachment{}, err
	}
	return Attachment{
		Name:         f.Name(),
		MimeType:     f.MimeType(),
		SizeBytes:    size,
		LastModified: f.LastModified(),
		Payload:      payload,
	}, nil
}

func (s *Service) allocateID(projects Collection) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if id != "" && !projects.HasID(id) {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}
