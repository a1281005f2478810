package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/apperrors"
)

const defaultTimeout = 15 * time.Second

// httpGateway implements RequestGateway over JSON/HTTP
type httpGateway struct {
	baseURL string
	token   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPGateway creates a RequestGateway that talks JSON to the forum
// REST API at baseURL. token, when non-empty, is sent as a bearer
// credential; the gateway does not interpret it.
func NewHTTPGateway(baseURL, token string, logger zerolog.Logger) RequestGateway {
	return &httpGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// ListQuestions retrieves the full question list, newest first
func (g *httpGateway) ListQuestions(ctx context.Context) ([]models.Question, error) {
	var out []models.Question
	if err := g.do(ctx, http.MethodGet, "/api/v1/questions", nil, &out); err != nil {
		return nil, apperrors.NewFetchError("failed to list questions", err)
	}
	return out, nil
}

// FetchQuestion retrieves one question with its full answer/reply tree
// and assets
func (g *httpGateway) FetchQuestion(ctx context.Context, id string) (models.Question, error) {
	var out models.Question
	if err := g.do(ctx, http.MethodGet, "/api/v1/questions/"+id, nil, &out); err != nil {
		return models.Question{}, apperrors.NewFetchError("failed to fetch question "+id, err)
	}
	return out, nil
}

// CreateQuestion submits a new question and returns its server-assigned id
func (g *httpGateway) CreateQuestion(ctx context.Context, in CreateQuestionInput) (CreateResult, error) {
	if err := validateInput(in); err != nil {
		return CreateResult{}, err
	}
	var out CreateResult
	if err := g.do(ctx, http.MethodPost, "/api/v1/questions", in, &out); err != nil {
		return CreateResult{}, apperrors.NewWriteError("create question", err)
	}
	return out, nil
}

// CreateAnswer submits a new answer and returns its server-assigned id
func (g *httpGateway) CreateAnswer(ctx context.Context, in CreateAnswerInput) (CreateResult, error) {
	if err := validateInput(in); err != nil {
		return CreateResult{}, err
	}
	var out CreateResult
	if err := g.do(ctx, http.MethodPost, "/api/v1/answers", in, &out); err != nil {
		return CreateResult{}, apperrors.NewWriteError("create answer", err)
	}
	return out, nil
}

// CreateReply submits a new reply and returns its server-assigned id
func (g *httpGateway) CreateReply(ctx context.Context, in CreateReplyInput) (CreateResult, error) {
	if err := validateInput(in); err != nil {
		return CreateResult{}, err
	}
	var out CreateResult
	if err := g.do(ctx, http.MethodPost, "/api/v1/replies", in, &out); err != nil {
		return CreateResult{}, apperrors.NewWriteError("create reply", err)
	}
	return out, nil
}

// DeleteQuestion asks the backend to delete a question
func (g *httpGateway) DeleteQuestion(ctx context.Context, id string) error {
	if err := g.do(ctx, http.MethodDelete, "/api/v1/questions/"+id, nil, nil); err != nil {
		return apperrors.NewWriteError("delete question", err)
	}
	return nil
}

// DeleteAnswer asks the backend to delete an answer
func (g *httpGateway) DeleteAnswer(ctx context.Context, id string) error {
	if err := g.do(ctx, http.MethodDelete, "/api/v1/answers/"+id, nil, nil); err != nil {
		return apperrors.NewWriteError("delete answer", err)
	}
	return nil
}

// DeleteReply asks the backend to delete a reply
func (g *httpGateway) DeleteReply(ctx context.Context, id string) error {
	if err := g.do(ctx, http.MethodDelete, "/api/v1/replies/"+id, nil, nil); err != nil {
		return apperrors.NewWriteError("delete reply", err)
	}
	return nil
}

// do runs one JSON request/response exchange against the API
func (g *httpGateway) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	g.logger.Debug().Str("method", method).Str("path", path).Msg("Gateway request")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("Gateway request rejected")
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
