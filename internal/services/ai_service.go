package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clarify/internal/core"
	"clarify/internal/log"
	"clarify/internal/metrics"
	"clarify/internal/storage"

	"github.com/google/uuid"
)

// aiQuotaWindow is the rolling window the free-plan AI limit applies to.
const aiQuotaWindow = 24 * time.Hour

// MovementParser turns free text into suggested movements.
type MovementParser interface {
	ParseMovements(ctx context.Context, text string, today core.Date) ([]core.ParsedMovement, error)
}

// AIService fronts the movement parser with the free-plan usage quota.
// Suggestions are returned to the caller and never stored.
type AIService struct {
	store      *storage.SQLiteRepository
	plans      *PlanService
	parser     MovementParser
	dailyLimit int
	metrics    *metrics.Metrics
	logger     *log.Logger
	now        func() time.Time
}

func NewAIService(store *storage.SQLiteRepository, plans *PlanService, parser MovementParser, dailyLimit int, m *metrics.Metrics, logger *log.Logger) *AIService {
	return &AIService{
		store:      store,
		plans:      plans,
		parser:     parser,
		dailyLimit: dailyLimit,
		metrics:    m,
		logger:     componentLogger(logger, log.ComponentAI),
		now:        time.Now,
	}
}

// Parse suggests movements for text. Free groups get dailyLimit successful
// parses per rolling 24 hours; premium groups are unlimited and not recorded.
func (s *AIService) Parse(ctx context.Context, groupID, userID, text string) ([]core.ParsedMovement, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, core.ErrEmptyDescription
	}
	if s.parser == nil {
		s.metrics.AIRequest("unavailable")
		return nil, ErrAIUnavailable
	}

	now := s.now().UTC()
	premium, err := s.plans.IsPremium(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !premium {
		used, err := s.store.CountAIUsageSince(ctx, groupID, now.Add(-aiQuotaWindow))
		if err != nil {
			return nil, err
		}
		if used >= s.dailyLimit {
			s.metrics.AIRequest("quota_exceeded")
			return nil, core.ErrAIQuotaExceeded
		}
	}

	suggestions, err := s.parser.ParseMovements(ctx, text, core.DateOf(now))
	if err != nil {
		s.metrics.AIRequest("error")
		s.logger.ErrorContext(ctx, "Movement parsing failed",
			log.FieldGroupID, groupID,
			log.FieldOperation, log.OpParse,
			log.FieldError, err)
		return nil, fmt.Errorf("parse movements: %w", err)
	}

	if !premium {
		if err := s.store.RecordAIUsage(ctx, uuid.NewString(), groupID, userID, now); err != nil {
			return nil, err
		}
	}
	s.metrics.AIRequest("parsed")
	s.logger.InfoContext(ctx, "Movements parsed",
		log.FieldGroupID, groupID,
		"suggestions", len(suggestions),
		"premium", premium)
	return suggestions, nil
}
