package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"quizhub/internal/model"
	"time"

	"github.com/google/uuid"
)

type QuizStore interface {
	ListQuizzes(ctx context.Context, limit, offset int) ([]model.Quiz, error)
	// GetQuiz loads a quiz with its questions and options ordered by position.
	GetQuiz(ctx context.Context, id string) (*model.Quiz, error)
	CreateQuiz(ctx context.Context, quiz *model.Quiz) (*model.Quiz, error)
	CreateSubmission(ctx context.Context, s *model.Submission) error
	ListSubmissionsByUser(ctx context.Context, userID string) ([]model.Submission, error)
}

type quizStore struct {
	db *sql.DB
}

func NewQuizStore(db *sql.DB) QuizStore {
	return &quizStore{db: db}
}

func (s *quizStore) ListQuizzes(ctx context.Context, limit, offset int) ([]model.Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT q.id, q.title, q.description, q.author_id, q.created_at,
			(SELECT COUNT(*) FROM questions WHERE quiz_id = q.id)
		FROM quizzes q
		ORDER BY q.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := []model.Quiz{}
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.AuthorID, &q.CreatedAt, &q.QuestionCount); err != nil {
			return nil, fmt.Errorf("scanning quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (s *quizStore) GetQuiz(ctx context.Context, id string) (*model.Quiz, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	q := &model.Quiz{}
	err := s.db.QueryRowContext(ctx, "SELECT id, title, description, author_id, created_at FROM quizzes WHERE id = $1", id).
		Scan(&q.ID, &q.Title, &q.Description, &q.AuthorID, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("selecting quiz: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT qu.id, qu.position, qu.body, o.id, o.position, o.text, o.correct
		FROM questions qu
		JOIN options o ON o.question_id = qu.id
		WHERE qu.quiz_id = $1
		ORDER BY qu.position, o.position`, id)
	if err != nil {
		return nil, fmt.Errorf("selecting questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var question model.Question
		var opt model.Option
		if err := rows.Scan(&question.ID, &question.Position, &question.Body, &opt.ID, &opt.Position, &opt.Text, &opt.Correct); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}

		n := len(q.Questions)
		if n == 0 || q.Questions[n-1].ID != question.ID {
			question.QuizID = q.ID
			q.Questions = append(q.Questions, question)
			n++
		}
		opt.QuestionID = question.ID
		q.Questions[n-1].Options = append(q.Questions[n-1].Options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	q.QuestionCount = len(q.Questions)
	return q, nil
}

func (s *quizStore) CreateQuiz(ctx context.Context, quiz *model.Quiz) (*model.Quiz, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	quiz.ID = uuid.New().String()
	quiz.CreatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx, "INSERT INTO quizzes (id, title, description, author_id, created_at) VALUES ($1, $2, $3, $4, $5)",
		quiz.ID, quiz.Title, quiz.Description, quiz.AuthorID, quiz.CreatedAt); err != nil {
		return nil, fmt.Errorf("inserting quiz: %w", err)
	}

	for i := range quiz.Questions {
		question := &quiz.Questions[i]
		question.ID = uuid.New().String()
		question.QuizID = quiz.ID
		question.Position = i + 1

		if _, err := tx.ExecContext(ctx, "INSERT INTO questions (id, quiz_id, position, body) VALUES ($1, $2, $3, $4)",
			question.ID, question.QuizID, question.Position, question.Body); err != nil {
			return nil, fmt.Errorf("inserting question: %w", err)
		}

		for j := range question.Options {
			opt := &question.Options[j]
			opt.ID = uuid.New().String()
			opt.QuestionID = question.ID
			opt.Position = j + 1

			if _, err := tx.ExecContext(ctx, "INSERT INTO options (id, question_id, position, text, correct) VALUES ($1, $2, $3, $4, $5)",
				opt.ID, opt.QuestionID, opt.Position, opt.Text, opt.Correct); err != nil {
				return nil, fmt.Errorf("inserting option: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing quiz: %w", err)
	}

	quiz.QuestionCount = len(quiz.Questions)
	return quiz, nil
}

func (s *quizStore) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("encoding answers: %w", err)
	}

	sub.ID = uuid.New().String()
	sub.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `INSERT INTO submissions (id, quiz_id, user_id, answers, score, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.QuizID, sub.UserID, answers, sub.Score, sub.Total, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting submission: %w", err)
	}
	return nil
}

func (s *quizStore) ListSubmissionsByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, quiz_id, user_id, answers, score, total, created_at
		FROM submissions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var sub model.Submission
		var answers []byte
		if err := rows.Scan(&sub.ID, &sub.QuizID, &sub.UserID, &answers, &sub.Score, &sub.Total, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		if err := json.Unmarshal(answers, &sub.Answers); err != nil {
			return nil, fmt.Errorf("decoding answers: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
