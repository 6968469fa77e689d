package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docsentry/internal/entity"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *entity.DocumentRecord) (*entity.DocumentRecord, error) {
	args := m.Called(ctx, doc)
	if f, ok := args.Get(0).(func(context.Context, *entity.DocumentRecord) *entity.DocumentRecord); ok {
		return f(ctx, doc), args.Error(1)
	}
	if doc, ok := args.Get(0).(*entity.DocumentRecord); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, error) {
	args := m.Called(ctx, id)
	if doc, ok := args.Get(0).(*entity.DocumentRecord); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) GetByContentHash(ctx context.Context, hash string) (*entity.DocumentRecord, error) {
	args := m.Called(ctx, hash)
	if doc, ok := args.Get(0).(*entity.DocumentRecord); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, id uuid.UUID, upd entity.DocumentUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) List(ctx context.Context, limit, offset int) ([]entity.DocumentRecord, error) {
	args := m.Called(ctx, limit, offset)
	if docs, ok := args.Get(0).([]entity.DocumentRecord); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}
