// Package quiz serves quiz content and scores submissions.
package quiz

import (
	"context"
	"fmt"
	"quizhub/internal/apperr"
	"quizhub/internal/database"
	"quizhub/internal/model"
	"quizhub/internal/validation"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

type CreateInput struct {
	Title       string          `json:"title" validate:"required,min=3,max=120"`
	Description string          `json:"description" validate:"max=1000"`
	Questions   []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

type QuestionInput struct {
	Body    string        `json:"body" validate:"required,max=5000"`
	Options []OptionInput `json:"options" validate:"required,min=2,max=6,dive"`
}

type OptionInput struct {
	Text    string `json:"text" validate:"required,max=500"`
	Correct bool   `json:"correct"`
}

type SubmitInput struct {
	// Answers maps a question id to the chosen option id.
	Answers map[string]string `json:"answers"`
}

type Service struct {
	store     database.QuizStore
	validator *validation.Validator
	converter *md.Converter
}

func NewService(store database.QuizStore, v *validation.Validator) *Service {
	return &Service{
		store:     store,
		validator: v,
		converter: md.NewConverter("", true, nil),
	}
}

// List pages through quizzes, newest first. A nil limit means DefaultLimit.
func (s *Service) List(ctx context.Context, limit *int, offset int) ([]model.Quiz, error) {
	n := DefaultLimit
	if limit != nil {
		n = *limit
	}

	details := map[string]string{}
	if n < 1 || n > MaxLimit {
		details["limit"] = validation.ReasonInvalid
	}
	if offset < 0 {
		details["offset"] = validation.ReasonInvalid
	}
	if len(details) > 0 {
		return nil, apperr.Validation(details)
	}

	return s.store.ListQuizzes(ctx, n, offset)
}

// Get returns a quiz with its questions. With FormatMarkdown the question
// bodies, stored as HTML, are converted to Markdown.
func (s *Service) Get(ctx context.Context, id, format string) (*model.Quiz, error) {
	switch format {
	case "", FormatHTML, FormatMarkdown:
	default:
		return nil, apperr.Validation(map[string]string{"format": validation.ReasonInvalid})
	}

	q, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperr.NotFound("quiz not found")
	}

	if format == FormatMarkdown {
		for i := range q.Questions {
			body, err := s.converter.ConvertString(q.Questions[i].Body)
			if err != nil {
				return nil, fmt.Errorf("converting question %s: %w", q.Questions[i].ID, err)
			}
			q.Questions[i].Body = body
		}
	}

	return q, nil
}

func (s *Service) Create(ctx context.Context, authorID string, in CreateInput) (*model.Quiz, error) {
	in.Title = strings.TrimSpace(in.Title)

	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	details := map[string]string{}
	for i, q := range in.Questions {
		correct := 0
		for _, o := range q.Options {
			if o.Correct {
				correct++
			}
		}
		if correct != 1 {
			details[fmt.Sprintf("questions[%d].options", i)] = "exactly_one_correct"
		}
	}
	if len(details) > 0 {
		return nil, apperr.Validation(details)
	}

	quiz := &model.Quiz{
		Title:       in.Title,
		Description: in.Description,
		AuthorID:    authorID,
	}
	for _, q := range in.Questions {
		question := model.Question{Body: q.Body}
		for _, o := range q.Options {
			question.Options = append(question.Options, model.Option{Text: o.Text, Correct: o.Correct})
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	return s.store.CreateQuiz(ctx, quiz)
}

// Submit scores the answers against the quiz and stores the result.
// Unanswered questions count as wrong.
func (s *Service) Submit(ctx context.Context, userID, quizID string, in SubmitInput) (*model.Submission, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperr.NotFound("quiz not found")
	}

	score, details := Score(q, in.Answers)
	if len(details) > 0 {
		return nil, &apperr.Error{
			Kind:    apperr.KindValidation,
			Code:    apperr.CodeInvalidAnswer,
			Message: "answers reference unknown questions or options",
			Details: details,
		}
	}

	answers := in.Answers
	if answers == nil {
		answers = map[string]string{}
	}

	sub := &model.Submission{
		QuizID:  q.ID,
		UserID:  userID,
		Answers: answers,
		Score:   score,
		Total:   len(q.Questions),
	}
	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Score counts correct answers. Answers naming a question outside the quiz,
// or an option outside its question, are returned as details.
func Score(q *model.Quiz, answers map[string]string) (int, map[string]string) {
	type question struct {
		options map[string]bool
	}

	questions := make(map[string]question, len(q.Questions))
	for _, qu := range q.Questions {
		opts := make(map[string]bool, len(qu.Options))
		for _, o := range qu.Options {
			opts[o.ID] = o.Correct
		}
		questions[qu.ID] = question{options: opts}
	}

	score := 0
	details := map[string]string{}
	for questionID, optionID := range answers {
		qu, ok := questions[questionID]
		if !ok {
			details["answers."+questionID] = "unknown_question"
			continue
		}
		correct, ok := qu.options[optionID]
		if !ok {
			details["answers."+questionID] = "unknown_option"
			continue
		}
		if correct {
			score++
		}
	}

	return score, details
}

func (s *Service) ListSubmissions(ctx context.Context, userID string) ([]model.Submission, error) {
	return s.store.ListSubmissionsByUser(ctx, userID)
}
