package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"skillswap/server/internal/models"
	"skillswap/server/internal/services"
	"skillswap/server/internal/utils"
)

// --- Mocks ---

// MockTradeService
type MockTradeService struct {
	mock.Mock
}

func (m *MockTradeService) Create(ctx context.Context, senderID, receiverID, senderSkillID, receiverSkillID utils.SixID, message string) (*models.TradeRequest, error) {
	args := m.Called(ctx, senderID, receiverID, senderSkillID, receiverSkillID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TradeRequest), args.Error(1)
}

func (m *MockTradeService) UpdateStatus(ctx context.Context, tradeID, actingUserID utils.SixID, status models.TradeStatus) (*models.TradeRequest, error) {
	args := m.Called(ctx, tradeID, actingUserID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TradeRequest), args.Error(1)
}

func (m *MockTradeService) FindByID(ctx context.Context, tradeID utils.SixID) (*models.TradeRequest, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TradeRequest), args.Error(1)
}

func (m *MockTradeService) ListForUser(ctx context.Context, userID utils.SixID) ([]models.TradeRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TradeRequest), args.Error(1)
}

// MockReviewService
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Submit(ctx context.Context, tradeID, reviewerID, revieweeID utils.SixID, rating int, reviewText string) (*models.Review, error) {
	args := m.Called(ctx, tradeID, reviewerID, revieweeID, rating, reviewText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) ListForUser(ctx context.Context, userID utils.SixID, page, pageSize int) (*services.ReviewPage, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReviewPage), args.Error(1)
}

func (m *MockReviewService) ListForTrade(ctx context.Context, tradeID, callerID utils.SixID) ([]models.Review, error) {
	args := m.Called(ctx, tradeID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *MockReviewService) RecomputeAllAggregates(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) SaveMessage(ctx context.Context, senderID, receiverID, tradeID utils.SixID, text, attachment string) (*models.Message, error) {
	args := m.Called(ctx, senderID, receiverID, tradeID, text, attachment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, tradeID, requestingUserID utils.SixID) ([]models.Message, error) {
	args := m.Called(ctx, tradeID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockChatService) UnreadCount(ctx context.Context, userID utils.SixID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChatService) UnreadBySender(ctx context.Context, userID utils.SixID) ([]services.UnreadConversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.UnreadConversation), args.Error(1)
}

// MockMatchService
type MockMatchService struct {
	mock.Mock
}

func (m *MockMatchService) Compatibility(ctx context.Context, requesterID, counterpartID utils.SixID) (*services.MatchResult, error) {
	args := m.Called(ctx, requesterID, counterpartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MatchResult), args.Error(1)
}

// MockS3Storage
type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) GeneratePresignedPutURL(ctx context.Context, userID, tradeID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, userID, tradeID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockS3Storage) GetObject(ctx context.Context, key string) ([]byte, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockS3Storage) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}
