package services

import (
	"context"
	"database/sql"

	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

// QuizServiceInterface covers quiz persistence and lifecycle
type QuizServiceInterface interface {
	CreateQuiz(ctx context.Context, educatorID, studentID int, questionIDs []int) (*models.Quiz, error)
	GetQuiz(ctx context.Context, id int) (*models.Quiz, error)
	ListStudentQuizzes(ctx context.Context, studentID int) ([]*models.Quiz, error)
	StartQuiz(ctx context.Context, id int) (*models.Quiz, error)
	SubmitQuiz(ctx context.Context, id int) (*models.Quiz, error)
}

// QuizService persists assembled quizzes and tracks their lifecycle
type QuizService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewQuizService creates a new quiz service
func NewQuizService(db *sql.DB, logger *observability.Logger) *QuizService {
	return &QuizService{db: db, logger: logger}
}

const quizColumns = `id, educator_id, student_id, question_ids, started_at, ended_at, submitted_at, created_at`

func scanQuiz(scanner interface{ Scan(...interface{}) error }) (*models.Quiz, error) {
	var quiz models.Quiz
	var questionIDs pq.Int64Array

	err := scanner.Scan(&quiz.ID, &quiz.EducatorID, &quiz.StudentID, &questionIDs,
		&quiz.StartedAt, &quiz.EndedAt, &quiz.SubmittedAt, &quiz.CreatedAt)
	if err != nil {
		return nil, err
	}

	quiz.QuestionIDs = make([]int, len(questionIDs))
	for i, id := range questionIDs {
		quiz.QuestionIDs[i] = int(id)
	}
	return &quiz, nil
}

// CreateQuiz persists a quiz with its ordered question list. A quiz with no
// questions is rejected; selection shortfalls must surface before this point.
func (s *QuizService) CreateQuiz(ctx context.Context, educatorID, studentID int, questionIDs []int) (result0 *models.Quiz, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "create_quiz",
		observability.AttributeStudentID(studentID),
		attribute.Int("question.count", len(questionIDs)),
	)
	defer observability.FinishSpan(span, &err)

	if len(questionIDs) == 0 {
		return nil, contextutils.ErrEmptyQuiz
	}

	quiz := &models.Quiz{
		EducatorID:  educatorID,
		StudentID:   studentID,
		QuestionIDs: questionIDs,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO quizzes (educator_id, student_id, question_ids)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		educatorID, studentID, pq.Array(intSlice(questionIDs)),
	).Scan(&quiz.ID, &quiz.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, contextutils.WrapError(contextutils.ErrForeignKeyViolation, "educator or student does not exist")
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}

	s.logger.Info(ctx, "Quiz created", map[string]interface{}{
		"quiz_id":    quiz.ID,
		"student_id": studentID,
		"questions":  len(questionIDs),
	})
	return quiz, nil
}

// GetQuiz fetches a quiz by ID
func (s *QuizService) GetQuiz(ctx context.Context, id int) (result0 *models.Quiz, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "get_quiz",
		observability.AttributeQuizID(id),
	)
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id)
	quiz, err := scanQuiz(row)
	if err == sql.ErrNoRows {
		return nil, contextutils.ErrQuizNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	return quiz, nil
}

// ListStudentQuizzes returns the student's quizzes, newest first
func (s *QuizService) ListStudentQuizzes(ctx context.Context, studentID int) (result0 []*models.Quiz, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "list_student_quizzes",
		observability.AttributeStudentID(studentID),
	)
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE student_id = $1 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var quizzes []*models.Quiz
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}

	return quizzes, nil
}

// StartQuiz stamps started_at the first time the student opens the quiz
func (s *QuizService) StartQuiz(ctx context.Context, id int) (result0 *models.Quiz, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "start_quiz",
		observability.AttributeQuizID(id),
	)
	defer observability.FinishSpan(span, &err)

	res, err := s.db.ExecContext(ctx,
		`UPDATE quizzes SET started_at = now() WHERE id = $1 AND started_at IS NULL`, id)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// already started or missing; GetQuiz distinguishes the two
		s.logger.Debug(ctx, "Quiz already started", map[string]interface{}{"quiz_id": id})
	}

	return s.GetQuiz(ctx, id)
}

// SubmitQuiz stamps submitted_at and ended_at, closing the quiz
func (s *QuizService) SubmitQuiz(ctx context.Context, id int) (result0 *models.Quiz, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "submit_quiz",
		observability.AttributeQuizID(id),
	)
	defer observability.FinishSpan(span, &err)

	res, err := s.db.ExecContext(ctx, `
		UPDATE quizzes
		SET submitted_at = now(), ended_at = COALESCE(ended_at, now())
		WHERE id = $1 AND submitted_at IS NULL`, id)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		quiz, getErr := s.GetQuiz(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if quiz.SubmittedAt.Valid {
			return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed, "quiz %d is already submitted", id)
		}
		return nil, contextutils.ErrQuizNotFound
	}

	return s.GetQuiz(ctx, id)
}
