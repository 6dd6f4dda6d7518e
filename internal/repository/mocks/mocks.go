package mocks

import (
	"context"

	"github.com/rpggio/internpm/internal/domain/project"
	"github.com/stretchr/testify/mock"
)

// ProjectStore is a mock for project.Store.
type ProjectStore struct {
	mock.Mock
}

func (m *ProjectStore) Load(ctx context.Context) (project.Collection, error) {
	args := m.Called(ctx)
	if projects, ok := args.Get(0).(project.Collection); ok {
		return projects, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectStore) Save(ctx context.Context, projects project.Collection) error {
	args := m.Called(ctx, projects)
	return args.Error(0)
}

// Medium is a mock for medium.Medium.
type Medium struct {
	mock.Mock
}

func (m *Medium) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *Medium) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *Medium) Stash(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *Medium) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
