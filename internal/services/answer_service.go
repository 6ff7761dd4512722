package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"

	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// AnswerServiceInterface records answers and feedback for quiz questions
type AnswerServiceInterface interface {
	SubmitAnswer(ctx context.Context, studentID int, req *models.SubmitAnswerRequest) (*models.AnswerRecord, error)
	UpdateFeedback(ctx context.Context, answerID int, feedback string) error
	ListQuizAnswers(ctx context.Context, quizID int) ([]*models.AnswerRecord, error)
}

// AnswerService persists student answers
type AnswerService struct {
	db          *sql.DB
	quizService QuizServiceInterface
	logger      *observability.Logger
}

// NewAnswerService creates a new answer service
func NewAnswerService(db *sql.DB, quizService QuizServiceInterface, logger *observability.Logger) *AnswerService {
	return &AnswerService{db: db, quizService: quizService, logger: logger}
}

// SubmitAnswer normalizes and stores one answer. The question must belong to
// the quiz; the quiz must belong to the student and still be open.
func (s *AnswerService) SubmitAnswer(ctx context.Context, studentID int, req *models.SubmitAnswerRequest) (result0 *models.AnswerRecord, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "submit_answer",
		observability.AttributeStudentID(studentID),
		observability.AttributeQuizID(req.QuizID),
		observability.AttributeQuestionID(req.QuestionID),
	)
	defer observability.FinishSpan(span, &err)

	quiz, err := s.quizService.GetQuiz(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}
	if quiz.StudentID != studentID {
		return nil, contextutils.WrapErrorf(contextutils.ErrForbidden, "quiz %d does not belong to student %d", req.QuizID, studentID)
	}
	if quiz.SubmittedAt.Valid {
		return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed, "quiz %d is already submitted", req.QuizID)
	}

	inQuiz := false
	for _, id := range quiz.QuestionIDs {
		if id == req.QuestionID {
			inQuiz = true
			break
		}
	}
	if !inQuiz {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "question %d is not part of quiz %d", req.QuestionID, req.QuizID)
	}

	answer, err := normalizeAnswer(req.Answer)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error())
	}

	record := &models.AnswerRecord{
		StudentID:  studentID,
		QuizID:     req.QuizID,
		QuestionID: req.QuestionID,
		Answer:     answer,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO answer_records (student_id, quiz_id, question_id, answer)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		studentID, req.QuizID, req.QuestionID, answer,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}

	span.SetAttributes(attribute.Int("answer.id", record.ID))
	return record, nil
}

// UpdateFeedback attaches generated feedback to an existing answer
func (s *AnswerService) UpdateFeedback(ctx context.Context, answerID int, feedback string) (err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "update_feedback",
		attribute.Int("answer.id", answerID),
	)
	defer observability.FinishSpan(span, &err)

	res, err := s.db.ExecContext(ctx,
		`UPDATE answer_records SET feedback = $1 WHERE id = $2`, feedback, answerID)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "no answer with id %d", answerID)
	}
	return nil
}

// ListQuizAnswers returns all answers recorded for a quiz in submission order
func (s *AnswerService) ListQuizAnswers(ctx context.Context, quizID int) (result0 []*models.AnswerRecord, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "list_quiz_answers",
		observability.AttributeQuizID(quizID),
	)
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, quiz_id, question_id, answer, feedback, created_at
		FROM answer_records WHERE quiz_id = $1 ORDER BY id`, quizID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var records []*models.AnswerRecord
	for rows.Next() {
		var r models.AnswerRecord
		if err := rows.Scan(&r.ID, &r.StudentID, &r.QuizID, &r.QuestionID, &r.Answer, &r.Feedback, &r.CreatedAt); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}

	return records, nil
}

// normalizeAnswer converts a raw JSON answer into its stored string form.
// JSON strings are stored unquoted so a client sending "42" matches a key of
// 42; every other JSON value is stored compacted, preserving array order for
// drag-and-drop answers.
func normalizeAnswer(raw json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", contextutils.WrapError(contextutils.ErrMissingRequired, "answer is required")
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", err
	}
	return compact.String(), nil
}
