package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tutorapp/internal/config"
	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGenerationService struct {
	generateQuizFn   func(ctx context.Context, req *models.GenerateQuizRequest) (*models.GenerateQuizResponse, error)
	regenerateQuizFn func(ctx context.Context, quizID int) (*models.GenerateQuizResponse, error)
	assembleQuizFn   func(ctx context.Context, req *models.AssembleQuizRequest) (*models.GenerateQuizResponse, error)
}

func (m *mockGenerationService) GenerateQuiz(ctx context.Context, req *models.GenerateQuizRequest) (*models.GenerateQuizResponse, error) {
	return m.generateQuizFn(ctx, req)
}

func (m *mockGenerationService) RegenerateQuiz(ctx context.Context, quizID int) (*models.GenerateQuizResponse, error) {
	return m.regenerateQuizFn(ctx, quizID)
}

func (m *mockGenerationService) AssembleQuiz(ctx context.Context, req *models.AssembleQuizRequest) (*models.GenerateQuizResponse, error) {
	return m.assembleQuizFn(ctx, req)
}

func generationRouter(svc *mockGenerationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewGenerationHandler(svc, &config.Config{}, observability.NewLogger(nil))

	router := gin.New()
	router.POST("/v1/quizzes/generate", handler.GenerateQuiz)
	router.POST("/v1/quizzes/:id/regenerate", handler.RegenerateQuiz)
	router.POST("/v1/quizzes", handler.AssembleQuiz)
	return router
}

func TestGenerateQuizHandler_Success(t *testing.T) {
	svc := &mockGenerationService{
		generateQuizFn: func(_ context.Context, req *models.GenerateQuizRequest) (*models.GenerateQuizResponse, error) {
			return &models.GenerateQuizResponse{
				Quiz:                &models.Quiz{ID: 9, StudentID: req.StudentID, EducatorID: req.EducatorID, QuestionIDs: []int{1, 2}},
				TopicDistribution:   map[string]int{"fractions": 2},
				Reasoning:           "needs fractions practice",
				SelectedQuestionIDs: []int{1, 2},
				Fulfilled:           true,
			}, nil
		},
	}
	router := generationRouter(svc)

	body := `{"student_id": 1, "educator_id": 2, "total_questions": 2}`
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/quizzes/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var resp models.GenerateQuizResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, 9, resp.Quiz.ID)
	assert.Equal(t, []int{1, 2}, resp.SelectedQuestionIDs)
	assert.True(t, resp.Fulfilled)
}

func TestGenerateQuizHandler_BindingValidation(t *testing.T) {
	svc := &mockGenerationService{
		generateQuizFn: func(_ context.Context, _ *models.GenerateQuizRequest) (*models.GenerateQuizResponse, error) {
			t.Fatal("service must not be called on invalid input")
			return nil, nil
		},
	}
	router := generationRouter(svc)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing total", body: `{"student_id": 1, "educator_id": 2}`},
		{name: "zero total", body: `{"student_id": 1, "educator_id": 2, "total_questions": 0}`},
		{name: "negative total", body: `{"student_id": 1, "educator_id": 2, "total_questions": -3}`},
		{name: "not JSON", body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/quizzes/generate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(recorder, req)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestGenerateQuizHandler_StudentNotFound(t *testing.T) {
	svc := &mockGenerationService{
		generateQuizFn: func(_ context.Context, _ *models.GenerateQuizRequest) (*models.GenerateQuizResponse, error) {
			return nil, contextutils.ErrStudentNotFound
		},
	}
	router := generationRouter(svc)

	body := `{"student_id": 99, "educator_id": 2, "total_questions": 5}`
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/quizzes/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRegenerateQuizHandler_BadID(t *testing.T) {
	svc := &mockGenerationService{
		regenerateQuizFn: func(_ context.Context, _ int) (*models.GenerateQuizResponse, error) {
			t.Fatal("service must not be called for a bad id")
			return nil, nil
		},
	}
	router := generationRouter(svc)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/quizzes/abc/regenerate", nil)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAssembleQuizHandler_Success(t *testing.T) {
	var gotReq *models.AssembleQuizRequest
	svc := &mockGenerationService{
		assembleQuizFn: func(_ context.Context, req *models.AssembleQuizRequest) (*models.GenerateQuizResponse, error) {
			gotReq = req
			return &models.GenerateQuizResponse{
				Quiz:                &models.Quiz{ID: 3},
				TopicDistribution:   req.TopicQuestionDistribution,
				SelectedQuestionIDs: []int{5},
				Fulfilled:           true,
			}, nil
		},
	}
	router := generationRouter(svc)

	body := `{"topic_question_distribution": {"fractions": 1}, "educator_id": 2, "student_id": 1}`
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/quizzes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusCreated, recorder.Code)
	require.NotNil(t, gotReq)
	assert.Equal(t, map[string]int{"fractions": 1}, gotReq.TopicQuestionDistribution)
}
