package services

import (
	"testing"

	"tutorapp/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestIsAnswerCorrect_ScalarTypes(t *testing.T) {
	tests := []struct {
		name           string
		questionType   models.QuestionType
		correctAnswers []string
		answer         string
		want           bool
	}{
		{
			name:           "multiple choice exact match",
			questionType:   models.MultipleChoice,
			correctAnswers: []string{"B"},
			answer:         "B",
			want:           true,
		},
		{
			name:           "multiple choice wrong option",
			questionType:   models.MultipleChoice,
			correctAnswers: []string{"B"},
			answer:         "C",
			want:           false,
		},
		{
			name:           "free response exact match",
			questionType:   models.FreeResponse,
			correctAnswers: []string{"42"},
			answer:         "42",
			want:           true,
		},
		{
			name:           "free response trailing space is wrong",
			questionType:   models.FreeResponse,
			correctAnswers: []string{"42"},
			answer:         "42 ",
			want:           false,
		},
		{
			name:           "free response case sensitive",
			questionType:   models.FreeResponse,
			correctAnswers: []string{"Paris"},
			answer:         "paris",
			want:           false,
		},
		{
			name:           "only first key counts",
			questionType:   models.FreeResponse,
			correctAnswers: []string{"alpha", "beta"},
			answer:         "beta",
			want:           false,
		},
		{
			name:           "no answer key means incorrect",
			questionType:   models.FreeResponse,
			correctAnswers: nil,
			answer:         "anything",
			want:           false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAnswerCorrect(tt.questionType, tt.correctAnswers, tt.answer)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAnswerCorrect_DragDropMatch(t *testing.T) {
	key := []string{"mercury", "venus", "earth"}

	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{
			name:   "exact ordered match",
			answer: `["mercury","venus","earth"]`,
			want:   true,
		},
		{
			name:   "wrong order",
			answer: `["venus","mercury","earth"]`,
			want:   false,
		},
		{
			name:   "length mismatch short",
			answer: `["mercury","venus"]`,
			want:   false,
		},
		{
			name:   "length mismatch long",
			answer: `["mercury","venus","earth","mars"]`,
			want:   false,
		},
		{
			name:   "not valid JSON",
			answer: `mercury, venus, earth`,
			want:   false,
		},
		{
			name:   "JSON but not an array",
			answer: `{"order": ["mercury","venus","earth"]}`,
			want:   false,
		},
		{
			name:   "empty string",
			answer: "",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAnswerCorrect(models.DragDropMatch, key, tt.answer)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAnswerCorrect_ExtendedResponseNeverScores(t *testing.T) {
	assert.False(t, isAnswerCorrect(models.ExtendedResponse, []string{"essay"}, "essay"))
	assert.False(t, isAnswerCorrect(models.ExtendedResponse, nil, "anything at all"))
}

func TestTopicPerformance_AccuracyRate(t *testing.T) {
	tp := &models.TopicPerformance{Subject: "Math", Correct: 3, Total: 4}
	assert.InDelta(t, 75.0, tp.AccuracyRate(), 0.001)

	empty := &models.TopicPerformance{Subject: "Math"}
	assert.Zero(t, empty.AccuracyRate())
}
