package services

import (
	"context"
	"database/sql"
	"strings"

	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceInterface defines account, learning-style and self-assessment operations
type UserServiceInterface interface {
	CreateUser(ctx context.Context, name, email string, role models.UserRole, password string) (*models.User, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*models.User, error)
	GetStudent(ctx context.Context, id int) (*models.User, error)
	GetLearningStyle(ctx context.Context, userID int) (*models.LearningStyle, error)
	UpsertLearningStyle(ctx context.Context, style *models.LearningStyle) (*models.LearningStyle, error)
	GetSelfAssessment(ctx context.Context, userID int) (*models.SelfAssessment, error)
	UpsertSelfAssessment(ctx context.Context, assessment *models.SelfAssessment) (*models.SelfAssessment, error)
}

// UserService handles user accounts and student profile records
type UserService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewUserService creates a new user service
func NewUserService(db *sql.DB, logger *observability.Logger) *UserService {
	return &UserService{db: db, logger: logger}
}

// CreateUser creates a new account. Password may be empty for accounts that
// only exist as quiz subjects.
func (s *UserService) CreateUser(ctx context.Context, name, email string, role models.UserRole, password string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "create_user",
		attribute.String("user.role", string(role)),
	)
	defer observability.FinishSpan(span, &err)

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "name and email are required")
	}
	if role != models.RoleStudent && role != models.RoleEducator {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown role '%s'", role)
	}

	var passwordHash sql.NullString
	if password != "" {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, contextutils.WrapError(hashErr, "failed to hash password")
		}
		passwordHash = sql.NullString{String: string(hash), Valid: true}
	}

	user := &models.User{Name: name, Email: email, Role: role, PasswordHash: passwordHash}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		name, email, role, passwordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordExists, "user with email '%s' already exists", email)
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}

	s.logger.Info(ctx, "User created", map[string]interface{}{
		"user_id": user.ID,
		"role":    string(role),
	})
	return user, nil
}

// GetUser fetches a user by ID
func (s *UserService) GetUser(ctx context.Context, id int) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user",
		observability.AttributeStudentID(id),
	)
	defer observability.FinishSpan(span, &err)

	return s.getUserWhere(ctx, `id = $1`, id)
}

// GetUserByEmail fetches a user by email address
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_email")
	defer observability.FinishSpan(span, &err)

	return s.getUserWhere(ctx, `email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

// AuthenticateUser verifies an email/password pair
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "authenticate_user")
	defer observability.FinishSpan(span, &err)

	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			return nil, contextutils.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.PasswordHash.Valid {
		return nil, contextutils.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(password)); err != nil {
		return nil, contextutils.ErrInvalidCredentials
	}

	return user, nil
}

// GetStudent fetches a user and verifies the student role. Used by the
// generation pipeline, which must reject non-student subjects.
func (s *UserService) GetStudent(ctx context.Context, id int) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_student",
		observability.AttributeStudentID(id),
	)
	defer observability.FinishSpan(span, &err)

	user, err := s.getUserWhere(ctx, `id = $1`, id)
	if err != nil {
		if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			return nil, contextutils.ErrStudentNotFound
		}
		return nil, err
	}
	if user.Role != models.RoleStudent {
		return nil, contextutils.WrapErrorf(contextutils.ErrStudentNotFound, "user %d is not a student", id)
	}
	return user, nil
}

func (s *UserService) getUserWhere(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, password_hash, created_at, updated_at FROM users WHERE `+where,
		arg,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, contextutils.ErrRecordNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	return &user, nil
}

// GetLearningStyle returns the student's survey record, or nil when the
// student never completed the survey. Absence is not an error.
func (s *UserService) GetLearningStyle(ctx context.Context, userID int) (result0 *models.LearningStyle, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_learning_style",
		observability.AttributeStudentID(userID),
	)
	defer observability.FinishSpan(span, &err)

	var style models.LearningStyle
	var factors pq.StringArray
	err = s.db.QueryRowContext(ctx, `
		SELECT id, user_id, modality, wrong_answer_action, worried_subject, difficulty_factors, notes, created_at, updated_at
		FROM learning_styles WHERE user_id = $1`, userID,
	).Scan(&style.ID, &style.UserID, &style.Modality, &style.WrongAnswerAction,
		&style.WorriedSubject, &factors, &style.Notes, &style.CreatedAt, &style.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	style.DifficultyFactors = []string(factors)

	return &style, nil
}

// UpsertLearningStyle creates or replaces the student's survey record
func (s *UserService) UpsertLearningStyle(ctx context.Context, style *models.LearningStyle) (result0 *models.LearningStyle, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "upsert_learning_style",
		observability.AttributeStudentID(style.UserID),
	)
	defer observability.FinishSpan(span, &err)

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO learning_styles (user_id, modality, wrong_answer_action, worried_subject, difficulty_factors, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			modality = EXCLUDED.modality,
			wrong_answer_action = EXCLUDED.wrong_answer_action,
			worried_subject = EXCLUDED.worried_subject,
			difficulty_factors = EXCLUDED.difficulty_factors,
			notes = EXCLUDED.notes,
			updated_at = now()
		RETURNING id, created_at, updated_at`,
		style.UserID, style.Modality, style.WrongAnswerAction, style.WorriedSubject,
		pq.Array(style.DifficultyFactors), style.Notes,
	).Scan(&style.ID, &style.CreatedAt, &style.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, contextutils.WrapErrorf(contextutils.ErrStudentNotFound, "no user with id %d", style.UserID)
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}

	return style, nil
}

// GetSelfAssessment returns the student's self-reported strengths and
// weaknesses, or nil when none exist.
func (s *UserService) GetSelfAssessment(ctx context.Context, userID int) (result0 *models.SelfAssessment, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_self_assessment",
		observability.AttributeStudentID(userID),
	)
	defer observability.FinishSpan(span, &err)

	var sa models.SelfAssessment
	var strengths, weaknesses pq.StringArray
	err = s.db.QueryRowContext(ctx, `
		SELECT id, user_id, strengths, weaknesses, updated_at
		FROM self_assessments WHERE user_id = $1`, userID,
	).Scan(&sa.ID, &sa.UserID, &strengths, &weaknesses, &sa.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}
	sa.Strengths = []string(strengths)
	sa.Weaknesses = []string(weaknesses)

	return &sa, nil
}

// UpsertSelfAssessment creates or replaces the student's self-assessment
func (s *UserService) UpsertSelfAssessment(ctx context.Context, assessment *models.SelfAssessment) (result0 *models.SelfAssessment, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "upsert_self_assessment",
		observability.AttributeStudentID(assessment.UserID),
	)
	defer observability.FinishSpan(span, &err)

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO self_assessments (user_id, strengths, weaknesses)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			strengths = EXCLUDED.strengths,
			weaknesses = EXCLUDED.weaknesses,
			updated_at = now()
		RETURNING id, updated_at`,
		assessment.UserID, pq.Array(assessment.Strengths), pq.Array(assessment.Weaknesses),
	).Scan(&assessment.ID, &assessment.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, contextutils.WrapErrorf(contextutils.ErrStudentNotFound, "no user with id %d", assessment.UserID)
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, err.Error())
	}

	return assessment, nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23503"
	}
	return false
}
