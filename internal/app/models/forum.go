package models

import "time"

// Role represents the role of a platform user
type Role string

const (
	RoleStudent Role = "student"
	RoleSchool  Role = "school"
)

// User represents a platform user referenced by forum entities.
// Users are referenced by id, never owned.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// Asset represents an image attached to a question, answer or reply.
// An asset belongs to exactly one entity and is immutable once attached.
type Asset struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
}

// Reply represents a reply in a discussion thread. Replies nest
// arbitrarily deep through Children. A reply with an empty
// ParentReplyID hangs directly off its question (AnswerID empty) or
// off its answer (AnswerID set); otherwise it must live inside the
// Children of the reply identified by ParentReplyID.
type Reply struct {
	ID            string    `json:"id"`
	QuestionID    string    `json:"questionId"`
	AnswerID      string    `json:"answerId,omitempty"`
	ParentReplyID string    `json:"parentReplyId,omitempty"`
	Text          string    `json:"text"`
	Author        User      `json:"author"`
	Assets        []Asset   `json:"assets,omitempty"`
	Children      []Reply   `json:"children,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Answer represents an answer to a question. Owned by exactly one question.
type Answer struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"questionId"`
	Text       string    `json:"text"`
	Author     User      `json:"author"`
	Assets     []Asset   `json:"assets,omitempty"`
	Replies    []Reply   `json:"replies,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Question is the top-level forum entity. It owns its answers and its
// own direct replies. Questions are soft-deleted (IsDeleted), while
// answers and replies are removed outright together with their subtree.
type Question struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    User      `json:"author"`
	Assets    []Asset   `json:"assets,omitempty"`
	Category  string    `json:"category"`
	Answers   []Answer  `json:"answers,omitempty"`
	Replies   []Reply   `json:"replies,omitempty"`
	IsDeleted bool      `json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
}
