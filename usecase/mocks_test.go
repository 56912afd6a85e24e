package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"crosspost/domain/dto"
	"crosspost/domain/model"
)

// Mock implementations
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) FindExpiring(ctx context.Context, before time.Time) ([]*model.SocialAccount, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SocialAccount), args.Error(1)
}

func (m *MockAccountStore) GetByID(ctx context.Context, id int64) (*model.SocialAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialAccount), args.Error(1)
}

func (m *MockAccountStore) UpdateTokens(ctx context.Context, id int64, ts *model.TokenSet) error {
	args := m.Called(ctx, id, ts)
	return args.Error(0)
}

type MockPostStore struct {
	mock.Mock
}

func (m *MockPostStore) FindDue(ctx context.Context, now time.Time) ([]*model.Post, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Post), args.Error(1)
}

func (m *MockPostStore) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostStore) CompareAndSetStatus(ctx context.Context, id int64, expected, next model.PostStatus, fields *model.PostStateFields) (bool, error) {
	args := m.Called(ctx, id, expected, next, fields)
	return args.Bool(0), args.Error(1)
}

type MockVideoStore struct {
	mock.Mock
}

func (m *MockVideoStore) GetByID(ctx context.Context, id string) (*model.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Video), args.Error(1)
}

type MockBlobStorage struct {
	mock.Mock
}

func (m *MockBlobStorage) GetSignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Error(1)
}

type MockPlatformClient struct {
	mock.Mock
}

func (m *MockPlatformClient) RefreshAccessToken(ctx context.Context, refreshToken string) (*model.TokenSet, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenSet), args.Error(1)
}

func (m *MockPlatformClient) InitiateUpload(ctx context.Context, accessToken, sourceURL string) (string, error) {
	args := m.Called(ctx, accessToken, sourceURL)
	return args.String(0), args.Error(1)
}

func (m *MockPlatformClient) GetPublishStatus(ctx context.Context, accessToken, publishID string) (*dto.PublishStatus, error) {
	args := m.Called(ctx, accessToken, publishID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PublishStatus), args.Error(1)
}

type MockPostEvents struct {
	mock.Mock
}

func (m *MockPostEvents) PublishPostEvent(ctx context.Context, evt *model.PostEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}
