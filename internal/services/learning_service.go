package services

import (
	"context"
	"database/sql"
	"encoding/json"

	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

// LearningServiceInterface aggregates a student's answer history into
// per-topic performance statistics
type LearningServiceInterface interface {
	GetStudentPerformance(ctx context.Context, studentID int) (map[string]*models.TopicPerformance, error)
}

// LearningService computes correctness statistics from raw answer records
type LearningService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewLearningService creates a new learning analytics service
func NewLearningService(db *sql.DB, logger *observability.Logger) *LearningService {
	return &LearningService{db: db, logger: logger}
}

// GetStudentPerformance replays every answer the student has ever submitted
// and groups correctness by topic. Answers whose question no longer exists
// are skipped. Extended-response answers never count toward the totals.
// A student with no history yields an empty map, not an error.
func (s *LearningService) GetStudentPerformance(ctx context.Context, studentID int) (result0 map[string]*models.TopicPerformance, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "get_student_performance",
		observability.AttributeStudentID(studentID),
	)
	defer observability.FinishSpan(span, &err)

	// INNER JOIN drops answers to deleted questions
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.topic, q.subject, q.question_type, q.correct_answers, a.answer
		FROM answer_records a
		JOIN questions q ON q.id = a.question_id
		WHERE a.student_id = $1
		ORDER BY a.id`, studentID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	performance := make(map[string]*models.TopicPerformance)
	var answered, skipped int

	for rows.Next() {
		var topic, subject, answer string
		var questionType models.QuestionType
		var correctAnswers pq.StringArray
		if err := rows.Scan(&topic, &subject, &questionType, &correctAnswers, &answer); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
		}

		if questionType == models.ExtendedResponse {
			skipped++
			continue
		}

		tp, ok := performance[topic]
		if !ok {
			tp = &models.TopicPerformance{Subject: subject}
			performance[topic] = tp
		}
		tp.Total++
		if isAnswerCorrect(questionType, []string(correctAnswers), answer) {
			tp.Correct++
		}
		answered++
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}

	s.logger.Debug(ctx, "Computed student performance", map[string]interface{}{
		"student_id":     studentID,
		"topics":         len(performance),
		"answers_scored": answered,
		"answers_skipped": skipped,
	})
	span.SetAttributes(
		attribute.Int("performance.topics", len(performance)),
		attribute.Int("performance.answers", answered),
	)

	return performance, nil
}

// isAnswerCorrect applies the per-type comparison policy. Drag-and-drop
// answers are a JSON array compared element by element against the ordered
// key; anything that fails to parse or differs in length is wrong. All other
// scored types compare the stored answer string against the single key.
func isAnswerCorrect(questionType models.QuestionType, correctAnswers []string, answer string) bool {
	switch questionType {
	case models.DragDropMatch:
		var submitted []string
		if err := json.Unmarshal([]byte(answer), &submitted); err != nil {
			return false
		}
		if len(submitted) != len(correctAnswers) {
			return false
		}
		for i, item := range submitted {
			if item != correctAnswers[i] {
				return false
			}
		}
		return true
	case models.ExtendedResponse:
		return false
	default:
		if len(correctAnswers) == 0 {
			return false
		}
		return answer == correctAnswers[0]
	}
}
