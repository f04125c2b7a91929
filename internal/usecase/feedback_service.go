package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mealsignal/backend/internal/domain"
)

// FeedbackService forwards user feedback to the team's channel
type FeedbackService struct {
	sink   domain.FeedbackSink
	logger *zap.Logger
}

// NewFeedbackService creates a feedback service; sink may be nil when no channel is configured
func NewFeedbackService(sink domain.FeedbackSink, logger *zap.Logger) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{sink: sink, logger: logger.Named("feedback")}
}

// Submit sends trimmed feedback; an empty message is rejected before any delivery
func (s *FeedbackService) Submit(ctx context.Context, fb domain.Feedback) error {
	fb.Message = strings.TrimSpace(fb.Message)
	if fb.Message == "" {
		return domain.ErrInvalidRequest
	}
	if s.sink == nil {
		return domain.ErrFeedbackUnavailable
	}
	if err := s.sink.Send(ctx, fb); err != nil {
		s.logger.Warn("feedback delivery failed", zap.String("user_id", fb.UserID), zap.Error(err))
		return err
	}
	return nil
}
