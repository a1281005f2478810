// Package gateway defines the request/response contract against the
// forum backend and its HTTP implementation. The backend's storage is a
// black box; this is the only read/write path besides the push channel.
package gateway

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/apperrors"
)

// CreateQuestionInput carries a question submission
type CreateQuestionInput struct {
	Text      string   `json:"text" validate:"required"`
	AuthorID  string   `json:"authorId" validate:"required"`
	Category  string   `json:"category" validate:"required"`
	AssetURLs []string `json:"assetUrls,omitempty"`
}

// CreateAnswerInput carries an answer submission
type CreateAnswerInput struct {
	QuestionID string   `json:"questionId" validate:"required"`
	Text       string   `json:"text" validate:"required"`
	AuthorID   string   `json:"authorId" validate:"required"`
	AssetURLs  []string `json:"assetUrls,omitempty"`
}

// CreateReplyInput carries a reply submission. AnswerID and
// ParentReplyID are optional: both empty addresses the question's own
// reply list, ParentReplyID set nests under an existing reply.
type CreateReplyInput struct {
	QuestionID    string   `json:"questionId" validate:"required"`
	AnswerID      string   `json:"answerId,omitempty"`
	ParentReplyID string   `json:"parentReplyId,omitempty"`
	Text          string   `json:"text" validate:"required"`
	AuthorID      string   `json:"authorId" validate:"required"`
	AssetURLs     []string `json:"assetUrls,omitempty"`
}

// CreateResult is the server's acknowledgement of a create call
type CreateResult struct {
	ID string `json:"id"`
}

// RequestGateway is the request/response contract against the backend.
// Delete calls are fire-and-confirm: state converges through the push
// event the caller emits after the call returns, not through the call
// itself.
type RequestGateway interface {
	ListQuestions(ctx context.Context) ([]models.Question, error)
	FetchQuestion(ctx context.Context, id string) (models.Question, error)
	CreateQuestion(ctx context.Context, in CreateQuestionInput) (CreateResult, error)
	CreateAnswer(ctx context.Context, in CreateAnswerInput) (CreateResult, error)
	CreateReply(ctx context.Context, in CreateReplyInput) (CreateResult, error)
	DeleteQuestion(ctx context.Context, id string) error
	DeleteAnswer(ctx context.Context, id string) error
	DeleteReply(ctx context.Context, id string) error
}

var validate = validator.New()

// validateInput checks a create input's required fields before it goes
// on the wire
func validateInput(in any) error {
	if err := validate.Struct(in); err != nil {
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, err.Error())
	}
	return nil
}
