package services

import (
	"context"

	"tutorapp/internal/models"
)

// mockQuestionService implements QuestionServiceInterface with function fields
type mockQuestionService struct {
	getQuestionFn         func(ctx context.Context, id int) (*models.Question, error)
	getQuestionsByTopicFn func(ctx context.Context, topic string, excludeIDs []int, limit int) ([]*models.Question, error)
	getQuestionsByIDsFn   func(ctx context.Context, ids []int) ([]*models.Question, error)
	listTopicsFn          func(ctx context.Context) ([]TopicEntry, error)
	countQuestionsFn      func(ctx context.Context) (int, error)
	createQuestionFn      func(ctx context.Context, question *models.Question) (*models.Question, error)
	listQuestionsFn       func(ctx context.Context, topic string, limit, offset int) ([]*models.Question, error)
}

func (m *mockQuestionService) GetQuestion(ctx context.Context, id int) (*models.Question, error) {
	return m.getQuestionFn(ctx, id)
}

func (m *mockQuestionService) GetQuestionsByTopic(ctx context.Context, topic string, excludeIDs []int, limit int) ([]*models.Question, error) {
	return m.getQuestionsByTopicFn(ctx, topic, excludeIDs, limit)
}

func (m *mockQuestionService) GetQuestionsByIDs(ctx context.Context, ids []int) ([]*models.Question, error) {
	return m.getQuestionsByIDsFn(ctx, ids)
}

func (m *mockQuestionService) ListTopics(ctx context.Context) ([]TopicEntry, error) {
	return m.listTopicsFn(ctx)
}

func (m *mockQuestionService) CountQuestions(ctx context.Context) (int, error) {
	return m.countQuestionsFn(ctx)
}

func (m *mockQuestionService) CreateQuestion(ctx context.Context, question *models.Question) (*models.Question, error) {
	return m.createQuestionFn(ctx, question)
}

func (m *mockQuestionService) ListQuestions(ctx context.Context, topic string, limit, offset int) ([]*models.Question, error) {
	return m.listQuestionsFn(ctx, topic, limit, offset)
}

// mockUserService implements UserServiceInterface
type mockUserService struct {
	createUserFn           func(ctx context.Context, name, email string, role models.UserRole, password string) (*models.User, error)
	getUserFn              func(ctx context.Context, id int) (*models.User, error)
	getUserByEmailFn       func(ctx context.Context, email string) (*models.User, error)
	authenticateUserFn     func(ctx context.Context, email, password string) (*models.User, error)
	getStudentFn           func(ctx context.Context, id int) (*models.User, error)
	getLearningStyleFn     func(ctx context.Context, userID int) (*models.LearningStyle, error)
	upsertLearningStyleFn  func(ctx context.Context, style *models.LearningStyle) (*models.LearningStyle, error)
	getSelfAssessmentFn    func(ctx context.Context, userID int) (*models.SelfAssessment, error)
	upsertSelfAssessmentFn func(ctx context.Context, assessment *models.SelfAssessment) (*models.SelfAssessment, error)
}

func (m *mockUserService) CreateUser(ctx context.Context, name, email string, role models.UserRole, password string) (*models.User, error) {
	return m.createUserFn(ctx, name, email, role, password)
}

func (m *mockUserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return m.getUserFn(ctx, id)
}

func (m *mockUserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.getUserByEmailFn(ctx, email)
}

func (m *mockUserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	return m.authenticateUserFn(ctx, email, password)
}

func (m *mockUserService) GetStudent(ctx context.Context, id int) (*models.User, error) {
	return m.getStudentFn(ctx, id)
}

func (m *mockUserService) GetLearningStyle(ctx context.Context, userID int) (*models.LearningStyle, error) {
	if m.getLearningStyleFn == nil {
		return nil, nil
	}
	return m.getLearningStyleFn(ctx, userID)
}

func (m *mockUserService) UpsertLearningStyle(ctx context.Context, style *models.LearningStyle) (*models.LearningStyle, error) {
	return m.upsertLearningStyleFn(ctx, style)
}

func (m *mockUserService) GetSelfAssessment(ctx context.Context, userID int) (*models.SelfAssessment, error) {
	if m.getSelfAssessmentFn == nil {
		return nil, nil
	}
	return m.getSelfAssessmentFn(ctx, userID)
}

func (m *mockUserService) UpsertSelfAssessment(ctx context.Context, assessment *models.SelfAssessment) (*models.SelfAssessment, error) {
	return m.upsertSelfAssessmentFn(ctx, assessment)
}

// mockLearningService implements LearningServiceInterface
type mockLearningService struct {
	getStudentPerformanceFn func(ctx context.Context, studentID int) (map[string]*models.TopicPerformance, error)
}

func (m *mockLearningService) GetStudentPerformance(ctx context.Context, studentID int) (map[string]*models.TopicPerformance, error) {
	return m.getStudentPerformanceFn(ctx, studentID)
}

// mockAIClient implements AIClientInterface
type mockAIClient struct {
	invokeFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockAIClient) Invoke(ctx context.Context, prompt string) (string, error) {
	return m.invokeFn(ctx, prompt)
}

func (m *mockAIClient) Stream(ctx context.Context, prompt string, chunks chan<- string) error {
	response, err := m.invokeFn(ctx, prompt)
	if err != nil {
		return err
	}
	select {
	case chunks <- response:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// mockPlannerService implements PlannerServiceInterface
type mockPlannerService struct {
	planDistributionFn func(ctx context.Context, studentID, totalQuestions int, focusAreas, feedback []string) (*models.DistributionPlan, error)
}

func (m *mockPlannerService) PlanDistribution(ctx context.Context, studentID, totalQuestions int, focusAreas, feedback []string) (*models.DistributionPlan, error) {
	return m.planDistributionFn(ctx, studentID, totalQuestions, focusAreas, feedback)
}

// mockAnswerService implements AnswerServiceInterface
type mockAnswerService struct {
	submitAnswerFn    func(ctx context.Context, studentID int, req *models.SubmitAnswerRequest) (*models.AnswerRecord, error)
	updateFeedbackFn  func(ctx context.Context, answerID int, feedback string) error
	listQuizAnswersFn func(ctx context.Context, quizID int) ([]*models.AnswerRecord, error)
}

func (m *mockAnswerService) SubmitAnswer(ctx context.Context, studentID int, req *models.SubmitAnswerRequest) (*models.AnswerRecord, error) {
	return m.submitAnswerFn(ctx, studentID, req)
}

func (m *mockAnswerService) UpdateFeedback(ctx context.Context, answerID int, feedback string) error {
	return m.updateFeedbackFn(ctx, answerID, feedback)
}

func (m *mockAnswerService) ListQuizAnswers(ctx context.Context, quizID int) ([]*models.AnswerRecord, error) {
	if m.listQuizAnswersFn == nil {
		return nil, nil
	}
	return m.listQuizAnswersFn(ctx, quizID)
}

// mockSelectorService implements SelectorServiceInterface
type mockSelectorService struct {
	selectQuestionsFn func(ctx context.Context, plan *models.DistributionPlan, requiredIDs, excludeIDs []int) ([]int, error)
}

func (m *mockSelectorService) SelectQuestions(ctx context.Context, plan *models.DistributionPlan, requiredIDs, excludeIDs []int) ([]int, error) {
	return m.selectQuestionsFn(ctx, plan, requiredIDs, excludeIDs)
}

// mockQuizService implements QuizServiceInterface
type mockQuizService struct {
	createQuizFn         func(ctx context.Context, educatorID, studentID int, questionIDs []int) (*models.Quiz, error)
	getQuizFn            func(ctx context.Context, id int) (*models.Quiz, error)
	listStudentQuizzesFn func(ctx context.Context, studentID int) ([]*models.Quiz, error)
	startQuizFn          func(ctx context.Context, id int) (*models.Quiz, error)
	submitQuizFn         func(ctx context.Context, id int) (*models.Quiz, error)
}

func (m *mockQuizService) CreateQuiz(ctx context.Context, educatorID, studentID int, questionIDs []int) (*models.Quiz, error) {
	return m.createQuizFn(ctx, educatorID, studentID, questionIDs)
}

func (m *mockQuizService) GetQuiz(ctx context.Context, id int) (*models.Quiz, error) {
	return m.getQuizFn(ctx, id)
}

func (m *mockQuizService) ListStudentQuizzes(ctx context.Context, studentID int) ([]*models.Quiz, error) {
	return m.listStudentQuizzesFn(ctx, studentID)
}

func (m *mockQuizService) StartQuiz(ctx context.Context, id int) (*models.Quiz, error) {
	return m.startQuizFn(ctx, id)
}

func (m *mockQuizService) SubmitQuiz(ctx context.Context, id int) (*models.Quiz, error) {
	return m.submitQuizFn(ctx, id)
}
