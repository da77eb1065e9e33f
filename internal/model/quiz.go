package model

import "time"

type Quiz struct {
	ID            string     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	AuthorID      string     `db:"author_id" json:"author_id"`
	QuestionCount int        `db:"question_count" json:"question_count"`
	Questions     []Question `json:"questions,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

type Question struct {
	ID       string   `db:"id" json:"id"`
	QuizID   string   `db:"quiz_id" json:"-"`
	Position int      `db:"position" json:"position"`
	Body     string   `db:"body" json:"body"`
	Options  []Option `json:"options"`
}

type Option struct {
	ID         string `db:"id" json:"id"`
	QuestionID string `db:"question_id" json:"-"`
	Position   int    `db:"position" json:"position"`
	Text       string `db:"text" json:"text"`
	Correct    bool   `db:"correct" json:"-"`
}

type Submission struct {
	ID        string            `db:"id" json:"id"`
	QuizID    string            `db:"quiz_id" json:"quiz_id"`
	UserID    string            `db:"user_id" json:"user_id"`
	Answers   map[string]string `json:"answers"`
	Score     int               `db:"score" json:"score"`
	Total     int               `db:"total" json:"total"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}
