package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/internpm/internal/medium"
)

const loggedInValue = "true"

// Service handles login state and the theme preference.
type Service struct {
	storage Storage
	profile Profile
	logger  *slog.Logger
}

// NewService creates a new session service. profile supplies the defaults
// used when no username has been stored.
func NewService(storage Storage, profile Profile, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{storage: storage, profile: profile, logger: logger}
}

// Login remembers username and marks the session logged in. An empty
// username falls back to the default profile name.
func (s *Service) Login(ctx context.Context, username string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = s.profile.Name
	}

	if err := s.storage.Set(ctx, medium.UsernameKey, username); err != nil {
		return nil, fmt.Errorf("saving username: %w", err)
	}
	if err := s.storage.Set(ctx, medium.LoggedInKey, loggedInValue); err != nil {
		return nil, fmt.Errorf("saving login: %w", err)
	}

	s.logger.Info("logged in", "username", username)
	return &Session{Username: username, LoggedIn: true}, nil
}

// Logout clears the login flag. The username is kept for the next login form.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.storage.Delete(ctx, medium.LoggedInKey); err != nil {
		return fmt.Errorf("clearing login: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

// Current returns the stored login state.
func (s *Service) Current(ctx context.Context) (*Session, error) {
	flag, _, err := s.storage.Get(ctx, medium.LoggedInKey)
	if err != nil {
		return nil, fmt.Errorf("reading login: %w", err)
	}
	username, ok, err := s.storage.Get(ctx, medium.UsernameKey)
	if err != nil {
		return nil, fmt.Errorf("reading username: %w", err)
	}
	if !ok || username == "" {
		username = s.profile.Name
	}
	return &Session{Username: username, LoggedIn: flag == loggedInValue}, nil
}

// RequireLogin returns ErrNotLoggedIn unless a login is stored.
func (s *Service) RequireLogin(ctx context.Context) error {
	sess, err := s.Current(ctx)
	if err != nil {
		return err
	}
	if !sess.LoggedIn {
		return ErrNotLoggedIn
	}
	return nil
}

// Profile returns the default profile with the stored username as its name.
func (s *Service) Profile(ctx context.Context) (Profile, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return Profile{}, err
	}
	profile := s.profile
	profile.Name = sess.Username
	return profile, nil
}

// Theme returns the stored theme, light when unset or unrecognized.
func (s *Service) Theme(ctx context.Context) (Theme, error) {
	value, ok, err := s.storage.Get(ctx, medium.ThemeKey)
	if err != nil {
		return "", fmt.Errorf("reading theme: %w", err)
	}
	theme := Theme(value)
	if !ok || !theme.Valid() {
		return ThemeLight, nil
	}
	return theme, nil
}

// SetTheme stores theme.
func (s *Service) SetTheme(ctx context.Context, theme Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	if err := s.storage.Set(ctx, medium.ThemeKey, string(theme)); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	return nil
}

// ToggleTheme switches between light and dark and returns the new theme.
func (s *Service) ToggleTheme(ctx context.Context) (Theme, error) {
	current, err := s.Theme(ctx)
	if err != nil {
		return "", err
	}
	next := current.Opposite()
	if err := s.SetTheme(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
