package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/domain"
	"github.com/kitbuilder587/score-lookup/internal/ratelimit"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []string
	actions  int
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg := c.(type) {
	case tgbotapi.MessageConfig:
		s.messages = append(s.messages, msg.Text)
	case tgbotapi.ChatActionConfig:
		s.actions++
	}
	return tgbotapi.Message{}, nil
}

func (s *recordingSender) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

type MockLookupService struct {
	SearchFunc func(ctx context.Context, req *domain.LookupRequest) (*domain.SearchResponse, error)
	CheckFunc  func(ctx context.Context, req *domain.LookupRequest) (*domain.CheckResponse, error)

	LastRequest *domain.LookupRequest
	CallCount   int
}

func (m *MockLookupService) Search(ctx context.Context, req *domain.LookupRequest) (*domain.SearchResponse, error) {
	m.CallCount++
	m.LastRequest = req
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, req)
	}
	return &domain.SearchResponse{Query: req.Text}, nil
}

func (m *MockLookupService) CheckPublicDomain(ctx context.Context, req *domain.LookupRequest) (*domain.CheckResponse, error) {
	m.CallCount++
	m.LastRequest = req
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, req)
	}
	return &domain.CheckResponse{Query: req.Text}, nil
}

func (m *MockLookupService) History(ctx context.Context, limit int) ([]domain.LookupRecord, error) {
	return []domain.LookupRecord{}, nil
}

func (m *MockLookupService) OracleEnabled() bool { return false }

func createTestBot(svc *MockLookupService, requestsPerMinute int) (*Bot, *recordingSender) {
	out := &recordingSender{}
	bot := &Bot{
		sender:      out,
		svc:         svc,
		logger:      zap.NewNop(),
		rateLimiter: ratelimit.New(ratelimit.Config{RequestsPerMinute: requestsPerMinute}),
	}
	bot.handler = NewHandler(bot)
	return bot, out
}

func createTestMessage(userID int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{
			ID:       userID,
			UserName: "testuser",
		},
		Chat: &tgbotapi.Chat{
			ID: userID,
		},
		Text: text,
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return msg
}
