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

// TopicEntry pairs a topic with its parent subject
type TopicEntry struct {
	Topic   string `json:"topic"`
	Subject string `json:"subject"`
}

// QuestionServiceInterface defines the question catalog accessor
type QuestionServiceInterface interface {
	GetQuestion(ctx context.Context, id int) (*models.Question, error)
	GetQuestionsByTopic(ctx context.Context, topic string, excludeIDs []int, limit int) ([]*models.Question, error)
	GetQuestionsByIDs(ctx context.Context, ids []int) ([]*models.Question, error)
	ListTopics(ctx context.Context) ([]TopicEntry, error)
	CountQuestions(ctx context.Context) (int, error)
	CreateQuestion(ctx context.Context, question *models.Question) (*models.Question, error)
	ListQuestions(ctx context.Context, topic string, limit, offset int) ([]*models.Question, error)
}

// QuestionService reads and writes catalog questions
type QuestionService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewQuestionService creates a new question catalog service
func NewQuestionService(db *sql.DB, logger *observability.Logger) *QuestionService {
	return &QuestionService{db: db, logger: logger}
}

const questionColumns = `id, subject, topic, question_type, content, correct_answers, created_at`

func scanQuestion(scanner interface{ Scan(...interface{}) error }) (*models.Question, error) {
	var q models.Question
	var contentJSON string
	var correctAnswers pq.StringArray

	err := scanner.Scan(&q.ID, &q.Subject, &q.Topic, &q.Type, &contentJSON, &correctAnswers, &q.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := q.UnmarshalContentFromJSON(contentJSON); err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to decode question %d content", q.ID)
	}
	q.CorrectAnswers = []string(correctAnswers)

	return &q, nil
}

// GetQuestion fetches a single question by ID
func (s *QuestionService) GetQuestion(ctx context.Context, id int) (result0 *models.Question, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "get_question",
		observability.AttributeQuestionID(id),
	)
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, contextutils.ErrQuestionNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}

	return q, nil
}

// GetQuestionsByTopic returns up to limit questions of the given topic whose
// IDs are not in excludeIDs, in catalog order. limit <= 0 means no limit.
func (s *QuestionService) GetQuestionsByTopic(ctx context.Context, topic string, excludeIDs []int, limit int) (result0 []*models.Question, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "get_questions_by_topic",
		observability.AttributeTopic(topic),
		attribute.Int("exclude.count", len(excludeIDs)),
		attribute.Int("limit", limit),
	)
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + questionColumns + ` FROM questions WHERE topic = $1 AND NOT (id = ANY($2)) ORDER BY id`
	args := []interface{}{topic, pq.Array(intSlice(excludeIDs))}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	return s.queryQuestions(ctx, query, args...)
}

// GetQuestionsByIDs fetches the questions with the given identifiers. Missing
// IDs are simply absent from the result; no error is raised for them.
func (s *QuestionService) GetQuestionsByIDs(ctx context.Context, ids []int) (result0 []*models.Question, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "get_questions_by_ids",
		attribute.Int("ids.count", len(ids)),
	)
	defer observability.FinishSpan(span, &err)

	if len(ids) == 0 {
		return nil, nil
	}

	return s.queryQuestions(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1) ORDER BY id`,
		pq.Array(intSlice(ids)))
}

// ListTopics returns the distinct topic/subject pairs present in the catalog
func (s *QuestionService) ListTopics(ctx context.Context) (result0 []TopicEntry, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "list_topics")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT topic, subject FROM questions ORDER BY subject, topic`)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var topics []TopicEntry
	for rows.Next() {
		var entry TopicEntry
		if err := rows.Scan(&entry.Topic, &entry.Subject); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
		}
		topics = append(topics, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}

	return topics, nil
}

// CountQuestions returns the total number of catalog rows
func (s *QuestionService) CountQuestions(ctx context.Context) (result0 int, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "count_questions")
	defer observability.FinishSpan(span, &err)

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return 0, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	return count, nil
}

// CreateQuestion inserts a new catalog question and returns it with its ID
func (s *QuestionService) CreateQuestion(ctx context.Context, question *models.Question) (result0 *models.Question, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "create_question",
		observability.AttributeTopic(question.Topic),
		observability.AttributeSubject(question.Subject),
	)
	defer observability.FinishSpan(span, &err)

	contentJSON, err := question.MarshalContentToJSON()
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error())
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO questions (subject, topic, question_type, content, correct_answers)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		question.Subject, question.Topic, question.Type, contentJSON, pq.Array(question.CorrectAnswers),
	).Scan(&question.ID, &question.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}

	return question, nil
}

// ListQuestions pages through the catalog, optionally filtered by topic
func (s *QuestionService) ListQuestions(ctx context.Context, topic string, limit, offset int) (result0 []*models.Question, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "list_questions",
		observability.AttributeTopic(topic),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)
	defer observability.FinishSpan(span, &err)

	if topic != "" {
		return s.queryQuestions(ctx,
			`SELECT `+questionColumns+` FROM questions WHERE topic = $1 ORDER BY id LIMIT $2 OFFSET $3`,
			topic, limit, offset)
	}
	return s.queryQuestions(ctx,
		`SELECT `+questionColumns+` FROM questions ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
}

func (s *QuestionService) queryQuestions(ctx context.Context, query string, args ...interface{}) ([]*models.Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var questions []*models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}

	return questions, nil
}

// intSlice converts []int to []int64 for pq.Array
func intSlice(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
