// Package models defines data structures used throughout the tutoring application.
package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// UserRole distinguishes students from educators
type UserRole string

const (
	// RoleStudent marks a student account
	RoleStudent UserRole = "student"
	// RoleEducator marks an educator account
	RoleEducator UserRole = "educator"
)

// User represents a student or educator account
type User struct {
	ID           int            `json:"id" yaml:"id"`
	Name         string         `json:"name" yaml:"name"`
	Email        string         `json:"email" yaml:"email"`
	Role         UserRole       `json:"role" yaml:"role"`
	PasswordHash sql.NullString `json:"-" yaml:"-"`
	CreatedAt    time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" yaml:"updated_at"`
}

// LearningStyle is a student's self-reported survey record. Read-only to the
// generation pipeline; mutated by onboarding/survey routes.
type LearningStyle struct {
	ID                int       `json:"id" db:"id"`
	UserID            int       `json:"user_id" db:"user_id"`
	Modality          string    `json:"modality" db:"modality"`                       // visual, auditory, reading, kinesthetic
	WrongAnswerAction string    `json:"wrong_answer_action" db:"wrong_answer_action"` // preferred remediation on a miss
	WorriedSubject    string    `json:"worried_subject" db:"worried_subject"`
	DifficultyFactors []string  `json:"difficulty_factors" db:"difficulty_factors"`
	Notes             string    `json:"notes" db:"notes"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// SelfAssessment holds a student's self-reported strengths and weaknesses
type SelfAssessment struct {
	ID         int       `json:"id" db:"id"`
	UserID     int       `json:"user_id" db:"user_id"`
	Strengths  []string  `json:"strengths" db:"strengths"`
	Weaknesses []string  `json:"weaknesses" db:"weaknesses"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// QuestionType represents the type of question
type QuestionType string

// Question types supported by the system
const (
	// FreeResponse represents short free-response questions
	FreeResponse QuestionType = "free_response"
	// MultipleChoice represents multiple-choice questions
	MultipleChoice QuestionType = "multiple_choice"
	// DragDropMatch represents ordered drag-and-drop matching questions
	DragDropMatch QuestionType = "drag_drop_match"
	// ExtendedResponse represents rubric-graded long-form questions; these
	// never contribute to correctness statistics.
	ExtendedResponse QuestionType = "extended_response"
)

// Question represents a catalog question. Immutable once created.
type Question struct {
	ID      int          `json:"id" yaml:"id"`
	Subject string       `json:"subject" yaml:"subject"`
	Topic   string       `json:"topic" yaml:"topic"`
	Type    QuestionType `json:"type" yaml:"type"`
	// Content holds the type-specific details payload (prompt, options, ...)
	Content map[string]interface{} `json:"content" yaml:"content"`
	// CorrectAnswers is ordered for drag_drop_match; single-element for the
	// scalar-compared types; empty for extended_response.
	CorrectAnswers []string  `json:"correct_answers,omitempty" yaml:"correct_answers,omitempty"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// MarshalContentToJSON serializes the question content to a JSON string
func (q *Question) MarshalContentToJSON() (result0 string, err error) {
	data, err := json.Marshal(q.Content)
	return string(data), err
}

// UnmarshalContentFromJSON deserializes a JSON string into question content
func (q *Question) UnmarshalContentFromJSON(data string) error {
	return json.Unmarshal([]byte(data), &q.Content)
}

// AnswerRecord represents a student's submitted answer to one quiz question.
// The Feedback field is filled in asynchronously after creation.
type AnswerRecord struct {
	ID         int `json:"id" yaml:"id"`
	StudentID  int `json:"student_id" yaml:"student_id"`
	QuizID     int `json:"quiz_id" yaml:"quiz_id"`
	QuestionID int `json:"question_id" yaml:"question_id"`
	// Answer is the normalized submitted answer: a plain string for scalar
	// question types, a JSON array string for drag_drop_match.
	Answer    string         `json:"answer" yaml:"answer"`
	Feedback  sql.NullString `json:"feedback" yaml:"feedback"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
}

// MarshalJSON customizes JSON marshaling for AnswerRecord to handle sql.NullString
func (a AnswerRecord) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID         int       `json:"id"`
		StudentID  int       `json:"student_id"`
		QuizID     int       `json:"quiz_id"`
		QuestionID int       `json:"question_id"`
		Answer     string    `json:"answer"`
		Feedback   *string   `json:"feedback"`
		CreatedAt  time.Time `json:"created_at"`
	}{
		ID:         a.ID,
		StudentID:  a.StudentID,
		QuizID:     a.QuizID,
		QuestionID: a.QuestionID,
		Answer:     a.Answer,
		Feedback:   nullStringToPointer(a.Feedback),
		CreatedAt:  a.CreatedAt,
	})
}

// TopicPerformance tracks a student's correctness within one topic
type TopicPerformance struct {
	Subject string `json:"subject"`
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
}

// AccuracyRate calculates the accuracy percentage
func (tp *TopicPerformance) AccuracyRate() float64 {
	if tp.Total == 0 {
		return 0.0
	}
	return float64(tp.Correct) / float64(tp.Total) * 100
}

// DistributionPlan is the validated topic→count mapping produced by the
// planner, plus the model's reasoning. Transient; never persisted.
type DistributionPlan struct {
	Topics    map[string]int `json:"distribution"`
	Reasoning string         `json:"reasoning"`
	// Fulfilled is false when the plan's counts do not sum to the requested
	// total. Callers can inspect it; the pipeline only logs the discrepancy.
	Fulfilled bool `json:"fulfilled"`
}

// Sum returns the total question count the plan asks for
func (p *DistributionPlan) Sum() int {
	total := 0
	for _, n := range p.Topics {
		total += n
	}
	return total
}

// Quiz represents an assembled quiz bound to an educator and a student
type Quiz struct {
	ID          int          `json:"id" yaml:"id"`
	EducatorID  int          `json:"educator_id" yaml:"educator_id"`
	StudentID   int          `json:"student_id" yaml:"student_id"`
	QuestionIDs []int        `json:"question_ids" yaml:"question_ids"`
	StartedAt   sql.NullTime `json:"started_at" yaml:"started_at"`
	EndedAt     sql.NullTime `json:"ended_at" yaml:"ended_at"`
	SubmittedAt sql.NullTime `json:"submitted_at" yaml:"submitted_at"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at"`
}

// MarshalJSON customizes JSON marshaling for Quiz to handle sql.NullTime
func (q Quiz) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID          int        `json:"id"`
		EducatorID  int        `json:"educator_id"`
		StudentID   int        `json:"student_id"`
		QuestionIDs []int      `json:"question_ids"`
		StartedAt   *time.Time `json:"started_at"`
		EndedAt     *time.Time `json:"ended_at"`
		SubmittedAt *time.Time `json:"submitted_at"`
		CreatedAt   time.Time  `json:"created_at"`
	}{
		ID:          q.ID,
		EducatorID:  q.EducatorID,
		StudentID:   q.StudentID,
		QuestionIDs: q.QuestionIDs,
		StartedAt:   nullTimeToPointer(q.StartedAt),
		EndedAt:     nullTimeToPointer(q.EndedAt),
		SubmittedAt: nullTimeToPointer(q.SubmittedAt),
		CreatedAt:   q.CreatedAt,
	})
}

// GenerateQuizRequest is the caller contract for adaptive quiz generation
type GenerateQuizRequest struct {
	StudentID           int      `json:"student_id" binding:"required"`
	EducatorID          int      `json:"educator_id" binding:"required"`
	TotalQuestions      int      `json:"total_questions" binding:"required,gt=0"`
	FocusAreas          []string `json:"focus_areas,omitempty"`
	RequiredQuestionIDs []int    `json:"required_question_ids,omitempty"`
}

// GenerateQuizResponse returns the plan, the selection and the created quiz
type GenerateQuizResponse struct {
	Quiz                *Quiz          `json:"quiz"`
	TopicDistribution   map[string]int `json:"topic_distribution"`
	Reasoning           string         `json:"reasoning"`
	SelectedQuestionIDs []int          `json:"selected_question_ids"`
	Fulfilled           bool           `json:"fulfilled"`
}

// AssembleQuizRequest is the direct-assembly contract: an explicit
// topic→count mapping with no model involvement
type AssembleQuizRequest struct {
	TopicQuestionDistribution map[string]int `json:"topic_question_distribution" binding:"required"`
	EducatorID                int            `json:"educator_id" binding:"required"`
	StudentID                 int            `json:"student_id" binding:"required"`
}

// SubmitAnswerRequest records one question-answer event within a quiz
type SubmitAnswerRequest struct {
	QuizID     int             `json:"quiz_id" binding:"required"`
	QuestionID int             `json:"question_id" binding:"required"`
	Answer     json.RawMessage `json:"answer" binding:"required"`
}

// Helper functions for converting sql.Null types to pointers
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func nullTimeToPointer(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}
