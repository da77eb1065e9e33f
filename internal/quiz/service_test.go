package quiz

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quizhub/internal/apperr"
	"quizhub/internal/database/databasetest"
	"quizhub/internal/model"
	"quizhub/internal/validation"
)

func setupService() (*Service, *databasetest.MockQuizStore) {
	store := new(databasetest.MockQuizStore)
	return NewService(store, validation.New()), store
}

func assertAppErr(t *testing.T, err error, code string, status int) *apperr.Error {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.HTTPStatus())
	return appErr
}

func planetsQuiz() *model.Quiz {
	return &model.Quiz{
		ID:    "q-1",
		Title: "Planets",
		Questions: []model.Question{
			{
				ID:   "qu-1",
				Body: "<p>Pick the <strong>largest</strong> planet</p>",
				Options: []model.Option{
					{ID: "o-1", Text: "Mars"},
					{ID: "o-2", Text: "Jupiter", Correct: true},
				},
			},
			{
				ID:   "qu-2",
				Body: "<p>Closest to the sun</p>",
				Options: []model.Option{
					{ID: "o-3", Text: "Mercury", Correct: true},
					{ID: "o-4", Text: "Venus"},
				},
			},
		},
	}
}

func intPtr(n int) *int {
	return &n
}

func TestList(t *testing.T) {
	tests := []struct {
		name        string
		limit       *int
		offset      int
		setupMocks  func(s *databasetest.MockQuizStore)
		expectedErr bool
	}{
		{
			name: "Default limit",
			setupMocks: func(s *databasetest.MockQuizStore) {
				s.On("ListQuizzes", mock.Anything, DefaultLimit, 0).Return([]model.Quiz{{ID: "q-1"}}, nil)
			},
		},
		{
			name:  "Explicit page",
			limit: intPtr(5), offset: 10,
			setupMocks: func(s *databasetest.MockQuizStore) {
				s.On("ListQuizzes", mock.Anything, 5, 10).Return([]model.Quiz{}, nil)
			},
		},
		{
			name:        "Explicit zero limit",
			limit:       intPtr(0),
			setupMocks:  func(s *databasetest.MockQuizStore) {},
			expectedErr: true,
		},
		{
			name:        "Limit too large",
			limit:       intPtr(101),
			setupMocks:  func(s *databasetest.MockQuizStore) {},
			expectedErr: true,
		},
		{
			name:        "Negative offset",
			limit:       intPtr(10),
			offset:      -1,
			setupMocks:  func(s *databasetest.MockQuizStore) {},
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := setupService()
			tt.setupMocks(store)

			_, err := svc.List(t.Context(), tt.limit, tt.offset)
			if tt.expectedErr {
				assertAppErr(t, err, apperr.CodeValidationFailed, http.StatusBadRequest)
			} else {
				require.NoError(t, err)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestGet(t *testing.T) {
	t.Run("HTML is returned as stored", func(t *testing.T) {
		svc, store := setupService()
		store.On("GetQuiz", mock.Anything, "q-1").Return(planetsQuiz(), nil)

		q, err := svc.Get(t.Context(), "q-1", "")

		require.NoError(t, err)
		assert.Equal(t, "<p>Pick the <strong>largest</strong> planet</p>", q.Questions[0].Body)
	})

	t.Run("Markdown", func(t *testing.T) {
		svc, store := setupService()
		store.On("GetQuiz", mock.Anything, "q-1").Return(planetsQuiz(), nil)

		q, err := svc.Get(t.Context(), "q-1", FormatMarkdown)

		require.NoError(t, err)
		assert.Equal(t, "Pick the **largest** planet", q.Questions[0].Body)
		assert.Equal(t, "Closest to the sun", q.Questions[1].Body)
	})

	t.Run("Unknown format", func(t *testing.T) {
		svc, store := setupService()

		_, err := svc.Get(t.Context(), "q-1", "pdf")

		appErr := assertAppErr(t, err, apperr.CodeValidationFailed, http.StatusBadRequest)
		assert.Equal(t, map[string]string{"format": validation.ReasonInvalid}, appErr.Details)
		store.AssertNotCalled(t, "GetQuiz", mock.Anything, mock.Anything)
	})

	t.Run("Not found", func(t *testing.T) {
		svc, store := setupService()
		store.On("GetQuiz", mock.Anything, "missing").Return(nil, nil)

		_, err := svc.Get(t.Context(), "missing", "")

		assertAppErr(t, err, apperr.CodeNotFound, http.StatusNotFound)
	})
}

func validInput() CreateInput {
	return CreateInput{
		Title: "  Planets  ",
		Questions: []QuestionInput{
			{
				Body: "<p>Largest planet?</p>",
				Options: []OptionInput{
					{Text: "Mars"},
					{Text: "Jupiter", Correct: true},
				},
			},
		},
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name            string
		input           func() CreateInput
		setupMocks      func(s *databasetest.MockQuizStore)
		expectedDetails map[string]string
	}{
		{
			name:  "Success",
			input: validInput,
			setupMocks: func(s *databasetest.MockQuizStore) {
				s.On("CreateQuiz", mock.Anything, mock.MatchedBy(func(q *model.Quiz) bool {
					return q.Title == "Planets" && q.AuthorID == "admin-1" &&
						len(q.Questions) == 1 && q.Questions[0].Options[1].Correct
				})).Return(&model.Quiz{ID: "q-1", Title: "Planets"}, nil)
			},
		},
		{
			name: "Title too short",
			input: func() CreateInput {
				in := validInput()
				in.Title = "ab"
				return in
			},
			setupMocks:      func(s *databasetest.MockQuizStore) {},
			expectedDetails: map[string]string{"title": validation.ReasonTooShort},
		},
		{
			name: "No questions",
			input: func() CreateInput {
				in := validInput()
				in.Questions = nil
				return in
			},
			setupMocks:      func(s *databasetest.MockQuizStore) {},
			expectedDetails: map[string]string{"questions": validation.ReasonRequired},
		},
		{
			name: "Single option",
			input: func() CreateInput {
				in := validInput()
				in.Questions[0].Options = in.Questions[0].Options[:1]
				return in
			},
			setupMocks:      func(s *databasetest.MockQuizStore) {},
			expectedDetails: map[string]string{"questions[0].options": validation.ReasonTooShort},
		},
		{
			name: "Two correct options",
			input: func() CreateInput {
				in := validInput()
				in.Questions[0].Options[0].Correct = true
				return in
			},
			setupMocks:      func(s *databasetest.MockQuizStore) {},
			expectedDetails: map[string]string{"questions[0].options": "exactly_one_correct"},
		},
		{
			name: "No correct option",
			input: func() CreateInput {
				in := validInput()
				in.Questions[0].Options[1].Correct = false
				return in
			},
			setupMocks:      func(s *databasetest.MockQuizStore) {},
			expectedDetails: map[string]string{"questions[0].options": "exactly_one_correct"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := setupService()
			tt.setupMocks(store)

			q, err := svc.Create(t.Context(), "admin-1", tt.input())

			if tt.expectedDetails != nil {
				appErr := assertAppErr(t, err, apperr.CodeValidationFailed, http.StatusBadRequest)
				assert.Equal(t, tt.expectedDetails, appErr.Details)
				store.AssertNotCalled(t, "CreateQuiz", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "q-1", q.ID)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name            string
		answers         map[string]string
		setupMocks      func(s *databasetest.MockQuizStore)
		expectedScore   int
		expectedCode    string
		expectedDetails map[string]string
	}{
		{
			name:    "All correct",
			answers: map[string]string{"qu-1": "o-2", "qu-2": "o-3"},
			setupMocks: func(s *databasetest.MockQuizStore) {
				s.On("GetQuiz", mock.Anything, "q-1").Return(planetsQuiz(), nil)
				s.On("CreateSubmission", mock.Anything, mock.MatchedBy(func(sub *model.Submission) bool {
					return sub.UserID == "u-1" && sub.Score == 2 && sub.Total == 2
				})).Return(nil)
			},
			expectedScore: 2,
		},
		{
			name:    "Unanswered counts as wrong",
			answers: map[string]string{"qu-2": "o-3"},
			setupMocks: func(s *databasetest.MockQuizStore) {
				s.On("GetQuiz", mock.Anything, "q-1").Return(planetsQuiz(), nil)
				s.On("CreateSubmission", mock.Anything, mock.Anything).Return(nil)
			},
			expectedScore: 1,
		},
		{
			name: "Empty submission",
			setupMocks: func(s *databasetest.MockQuizStore) {
				s.On("GetQuiz", mock.Anything, "q-1").Return(planetsQuiz(), nil)
				s.On("CreateSubmission", mock.Anything, mock.MatchedBy(func(sub *model.Submission) bool {
					return sub.Answers != nil && sub.Score == 0
				})).Return(nil)
			},
		},
		{
			name:    "Option from another question",
			answers: map[string]string{"qu-1": "o-3"},
			setupMocks: func(s *databasetest.MockQuizStore) {
				s.On("GetQuiz", mock.Anything, "q-1").Return(planetsQuiz(), nil)
			},
			expectedCode:    apperr.CodeInvalidAnswer,
			expectedDetails: map[string]string{"answers.qu-1": "unknown_option"},
		},
		{
			name:    "Unknown question",
			answers: map[string]string{"nope": "o-1"},
			setupMocks: func(s *databasetest.MockQuizStore) {
				s.On("GetQuiz", mock.Anything, "q-1").Return(planetsQuiz(), nil)
			},
			expectedCode:    apperr.CodeInvalidAnswer,
			expectedDetails: map[string]string{"answers.nope": "unknown_question"},
		},
		{
			name: "Quiz not found",
			setupMocks: func(s *databasetest.MockQuizStore) {
				s.On("GetQuiz", mock.Anything, "q-1").Return(nil, nil)
			},
			expectedCode: apperr.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := setupService()
			tt.setupMocks(store)

			sub, err := svc.Submit(t.Context(), "u-1", "q-1", SubmitInput{Answers: tt.answers})

			if tt.expectedCode != "" {
				appErr, ok := apperr.As(err)
				require.True(t, ok)
				assert.Equal(t, tt.expectedCode, appErr.Code)
				assert.Equal(t, tt.expectedDetails, appErr.Details)
				store.AssertNotCalled(t, "CreateSubmission", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedScore, sub.Score)
				assert.Equal(t, 2, sub.Total)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestSubmitStoreError(t *testing.T) {
	svc, store := setupService()
	store.On("GetQuiz", mock.Anything, "q-1").Return(planetsQuiz(), nil)
	store.On("CreateSubmission", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.Submit(t.Context(), "u-1", "q-1", SubmitInput{Answers: map[string]string{"qu-1": "o-2"}})

	assert.ErrorContains(t, err, "db down")
}
