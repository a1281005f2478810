package devserver

import (
	"sync"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/apperrors"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/replytree"
)

// memoryStore is the dev server's authoritative state, newest question
// first. Questions are soft-deleted; answers and replies are removed
// outright with their subtree.
type memoryStore struct {
	mu        sync.RWMutex
	questions []models.Question
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (s *memoryStore) List() []models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

func (s *memoryStore) Get(id string) (models.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.questions {
		if s.questions[i].ID == id {
			return s.questions[i], true
		}
	}
	return models.Question{}, false
}

func (s *memoryStore) AddQuestion(q models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Question, 0, len(s.questions)+1)
	out = append(out, q)
	out = append(out, s.questions...)
	s.questions = out
}

func (s *memoryStore) AddAnswer(a models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(a.QuestionID, func(q models.Question) (models.Question, error) {
		answers := make([]models.Answer, len(q.Answers), len(q.Answers)+1)
		copy(answers, q.Answers)
		q.Answers = append(answers, a)
		return q, nil
	})
}

// AddReply inserts a reply at its nesting point. A reply addressing a
// missing answer or parent is rejected rather than silently dropped.
func (s *memoryStore) AddReply(r models.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(r.QuestionID, func(q models.Question) (models.Question, error) {
		if r.AnswerID == "" {
			if r.ParentReplyID != "" && !replytree.Contains(q.Replies, r.ParentReplyID) {
				return q, apperrors.ErrReplyNotFound
			}
			q.Replies = replytree.Insert(q.Replies, r)
			return q, nil
		}

		answers := make([]models.Answer, len(q.Answers))
		copy(answers, q.Answers)
		for i := range answers {
			if answers[i].ID != r.AnswerID {
				continue
			}
			if r.ParentReplyID != "" && !replytree.Contains(answers[i].Replies, r.ParentReplyID) {
				return q, apperrors.ErrReplyNotFound
			}
			answers[i].Replies = replytree.Insert(answers[i].Replies, r)
			q.Answers = answers
			return q, nil
		}
		return q, apperrors.ErrAnswerNotFound
	})
}

// DeleteQuestion soft-deletes; the entity stays fetchable so late
// readers do not 404
func (s *memoryStore) DeleteQuestion(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.update(id, func(q models.Question) (models.Question, error) {
		q.IsDeleted = true
		return q, nil
	})
}

// DeleteAnswer removes the answer node together with its reply subtree
func (s *memoryStore) DeleteAnswer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for qi := range s.questions {
		for ai, a := range s.questions[qi].Answers {
			if a.ID != id {
				continue
			}
			q := s.questions[qi]
			answers := make([]models.Answer, 0, len(q.Answers)-1)
			answers = append(answers, q.Answers[:ai]...)
			answers = append(answers, q.Answers[ai+1:]...)
			q.Answers = answers
			s.replace(qi, q)
			return
		}
	}
}

// DeleteReply removes the reply and its subtree wherever it nests
func (s *memoryStore) DeleteReply(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for qi := range s.questions {
		q := s.questions[qi]
		if replytree.Contains(q.Replies, id) {
			q.Replies = replytree.Remove(q.Replies, id)
			s.replace(qi, q)
			return
		}
		for ai, a := range q.Answers {
			if !replytree.Contains(a.Replies, id) {
				continue
			}
			answers := make([]models.Answer, len(q.Answers))
			copy(answers, q.Answers)
			answers[ai].Replies = replytree.Remove(answers[ai].Replies, id)
			q.Answers = answers
			s.replace(qi, q)
			return
		}
	}
}

// update swaps the question with the given id for the value returned by
// fn. Callers hold the lock.
func (s *memoryStore) update(id string, fn func(models.Question) (models.Question, error)) error {
	for i := range s.questions {
		if s.questions[i].ID == id {
			q, err := fn(s.questions[i])
			if err != nil {
				return err
			}
			s.replace(i, q)
			return nil
		}
	}
	return apperrors.ErrQuestionNotFound
}

// replace writes a question back copy-on-write. Callers hold the lock.
func (s *memoryStore) replace(i int, q models.Question) {
	out := make([]models.Question, len(s.questions))
	copy(out, s.questions)
	out[i] = q
	s.questions = out
}
