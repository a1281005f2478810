// Package store holds the in-memory authoritative question collection
// and the current thread selection. Every mutation is copy-on-write:
// nested slices handed out earlier are never changed in place, so
// snapshots taken by observers stay valid and reference comparisons
// detect updates.
package store

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/apperrors"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/replytree"
)

// ReplyMutation transforms a reply tree; used with MutateReplies to
// apply replytree operations at the right nesting point.
type ReplyMutation func(replies []models.Reply) []models.Reply

// EntityStore is the single shared mutable resource of the engine. At
// most one question is selected ("open") at a time.
type EntityStore struct {
	mu        sync.RWMutex
	questions []models.Question
	selected  string // id of the open question, empty when none
	logger    zerolog.Logger
}

// NewEntityStore creates an empty store
func NewEntityStore(logger zerolog.Logger) *EntityStore {
	return &EntityStore{logger: logger}
}

// SetQuestions replaces the whole collection, used after the initial
// list fetch. The input slice is copied.
func (s *EntityStore) SetQuestions(list []models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = make([]models.Question, len(list))
	copy(s.questions, list)
}

// Questions returns a snapshot of the collection, newest first
func (s *EntityStore) Questions() []models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Question returns the question with the given id
func (s *EntityStore) Question(id string) (models.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.questions {
		if s.questions[i].ID == id {
			return s.questions[i], true
		}
	}
	return models.Question{}, false
}

// UpsertQuestion structurally replaces the question if its id exists,
// otherwise prepends it (newest-first ordering). Idempotent by id.
func (s *EntityStore) UpsertQuestion(q models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.questions {
		if s.questions[i].ID == q.ID {
			out := make([]models.Question, len(s.questions))
			copy(out, s.questions)
			out[i] = q
			s.questions = out
			return
		}
	}

	out := make([]models.Question, 0, len(s.questions)+1)
	out = append(out, q)
	out = append(out, s.questions...)
	s.questions = out
}

// RemoveQuestion drops the question by id. Removing the selected
// question clears the selection.
func (s *EntityStore) RemoveQuestion(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if q.ID == id {
			continue
		}
		out = append(out, q)
	}
	s.questions = out

	if s.selected == id {
		s.selected = ""
		s.logger.Debug().Str("questionID", id).Msg("Selection cleared by removal")
	}
}

// Select marks a question as the open thread
func (s *EntityStore) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

// ClearSelection closes the open thread
func (s *EntityStore) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
}

// Selected returns the open question, if any
func (s *EntityStore) Selected() (models.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selected == "" {
		return models.Question{}, false
	}
	for i := range s.questions {
		if s.questions[i].ID == s.selected {
			return s.questions[i], true
		}
	}
	return models.Question{}, false
}

// IsSelected reports whether the question with the given id is the
// open thread
func (s *EntityStore) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return id != "" && s.selected == id
}

// AppendAnswer appends an answer to a question's answer list. Callers
// must not use this for the open thread; the open thread mirrors the
// server through a full refetch instead.
func (s *EntityStore) AppendAnswer(questionID string, answer models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.replaceQuestion(questionID, func(q models.Question) models.Question {
		answers := make([]models.Answer, len(q.Answers), len(q.Answers)+1)
		copy(answers, q.Answers)
		q.Answers = append(answers, answer)
		return q
	})
}

// RemoveAnswer drops an answer node, cascading to its reply subtree
func (s *EntityStore) RemoveAnswer(questionID, answerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.replaceQuestion(questionID, func(q models.Question) models.Question {
		answers := make([]models.Answer, 0, len(q.Answers))
		for _, a := range q.Answers {
			if a.ID == answerID {
				continue
			}
			answers = append(answers, a)
		}
		q.Answers = answers
		return q
	})
}

// ContainsAnswer reports whether a question already holds an answer
// with the given id
func (s *EntityStore) ContainsAnswer(questionID, answerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.questions {
		if s.questions[i].ID != questionID {
			continue
		}
		for _, a := range s.questions[i].Answers {
			if a.ID == answerID {
				return true
			}
		}
		return false
	}
	return false
}

// MutateReplies applies a tree mutation to the addressed reply list:
// the question's own replies when answerID is empty, otherwise the
// replies of that answer. The result is written back copy-on-write.
func (s *EntityStore) MutateReplies(questionID, answerID string, fn ReplyMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if answerID == "" {
		return s.replaceQuestion(questionID, func(q models.Question) models.Question {
			q.Replies = fn(q.Replies)
			return q
		})
	}

	found := false
	err := s.replaceQuestion(questionID, func(q models.Question) models.Question {
		answers := make([]models.Answer, len(q.Answers))
		copy(answers, q.Answers)
		for i := range answers {
			if answers[i].ID == answerID {
				answers[i].Replies = fn(answers[i].Replies)
				found = true
				break
			}
		}
		q.Answers = answers
		return q
	})
	if err != nil {
		return err
	}
	if !found {
		return apperrors.ErrAnswerNotFound
	}
	return nil
}

// ContainsReply reports whether a reply exists in the addressed reply
// tree of a question
func (s *EntityStore) ContainsReply(questionID, answerID, replyID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.questions {
		if s.questions[i].ID != questionID {
			continue
		}
		if answerID == "" {
			return replytree.Contains(s.questions[i].Replies, replyID)
		}
		for _, a := range s.questions[i].Answers {
			if a.ID == answerID {
				return replytree.Contains(a.Replies, replyID)
			}
		}
		return false
	}
	return false
}

// replaceQuestion swaps the question with the given id for the value
// returned by fn, copying the collection. Callers hold the lock.
func (s *EntityStore) replaceQuestion(id string, fn func(models.Question) models.Question) error {
	for i := range s.questions {
		if s.questions[i].ID == id {
			out := make([]models.Question, len(s.questions))
			copy(out, s.questions)
			out[i] = fn(out[i])
			s.questions = out
			return nil
		}
	}
	return apperrors.ErrQuestionNotFound
}
