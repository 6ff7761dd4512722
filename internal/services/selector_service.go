package services

import (
	"context"
	"sort"

	"tutorapp/internal/models"
	"tutorapp/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// SelectorServiceInterface turns a topic distribution into a concrete,
// duplicate-free list of question IDs
type SelectorServiceInterface interface {
	SelectQuestions(ctx context.Context, plan *models.DistributionPlan, requiredIDs, excludeIDs []int) ([]int, error)
}

// SelectorService draws catalog questions to satisfy a distribution plan
type SelectorService struct {
	questionService QuestionServiceInterface
	logger          *observability.Logger
}

// NewSelectorService creates a new question selector
func NewSelectorService(questionService QuestionServiceInterface, logger *observability.Logger) *SelectorService {
	return &SelectorService{questionService: questionService, logger: logger}
}

// SelectQuestions walks the plan's topics in sorted order and pulls up to the
// planned count of questions per topic, never repeating an ID, never
// re-selecting a required question, and never touching an excluded one.
// Topics short on inventory contribute what they have; a shortfall is logged,
// not fatal. Required IDs lead the result in their given order.
func (s *SelectorService) SelectQuestions(ctx context.Context, plan *models.DistributionPlan, requiredIDs, excludeIDs []int) (result0 []int, err error) {
	ctx, span := observability.TraceSelectorFunction(ctx, "select_questions",
		attribute.Int("plan.topics", len(plan.Topics)),
		attribute.Int("required.count", len(requiredIDs)),
		attribute.Int("exclude.count", len(excludeIDs)),
	)
	defer observability.FinishSpan(span, &err)

	selected := make([]int, 0, len(requiredIDs)+plan.Sum())
	excluded := make(map[int]bool, len(requiredIDs)+len(excludeIDs))
	for _, id := range requiredIDs {
		if excluded[id] {
			continue
		}
		excluded[id] = true
		selected = append(selected, id)
	}
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	topics := make([]string, 0, len(plan.Topics))
	for topic := range plan.Topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	for _, topic := range topics {
		count := plan.Topics[topic]
		if count <= 0 {
			continue
		}

		excludeIDs := make([]int, 0, len(excluded))
		for id := range excluded {
			excludeIDs = append(excludeIDs, id)
		}

		questions, err := s.questionService.GetQuestionsByTopic(ctx, topic, excludeIDs, count)
		if err != nil {
			return nil, err
		}

		for _, q := range questions {
			excluded[q.ID] = true
			selected = append(selected, q.ID)
		}

		if len(questions) < count {
			s.logger.Warn(ctx, "Topic has fewer available questions than planned", map[string]interface{}{
				"topic":     topic,
				"requested": count,
				"available": len(questions),
			})
		}
	}

	span.SetAttributes(attribute.Int("selected.count", len(selected)))
	return selected, nil
}
