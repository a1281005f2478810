package store

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/apperrors"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/replytree"
)

func newStore() *EntityStore {
	return NewEntityStore(zerolog.Nop())
}

func question(id string) models.Question {
	return models.Question{ID: id, Text: "question " + id}
}

func TestUpsertPrependsNew(t *testing.T) {
	s := newStore()
	s.UpsertQuestion(question("q1"))
	s.UpsertQuestion(question("q2"))

	qs := s.Questions()
	require.Len(t, qs, 2)
	assert.Equal(t, "q2", qs[0].ID, "newest first")
	assert.Equal(t, "q1", qs[1].ID)
}

func TestUpsertIsIdempotent(t *testing.T) {
	s := newStore()
	q := question("q1")
	s.UpsertQuestion(q)
	s.UpsertQuestion(q)

	require.Len(t, s.Questions(), 1)
}

func TestUpsertReplacesInPlace(t *testing.T) {
	s := newStore()
	s.UpsertQuestion(question("q1"))
	s.UpsertQuestion(question("q2"))

	updated := question("q1")
	updated.Text = "edited"
	s.UpsertQuestion(updated)

	qs := s.Questions()
	require.Len(t, qs, 2)
	assert.Equal(t, "q2", qs[0].ID, "replacement keeps position")
	assert.Equal(t, "edited", qs[1].Text)
}

func TestRemoveQuestionClearsSelection(t *testing.T) {
	s := newStore()
	s.UpsertQuestion(question("q1"))
	s.Select("q1")

	s.RemoveQuestion("q1")

	assert.Empty(t, s.Questions())
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestRemoveQuestionKeepsOtherSelection(t *testing.T) {
	s := newStore()
	s.UpsertQuestion(question("q1"))
	s.UpsertQuestion(question("q2"))
	s.Select("q1")

	s.RemoveQuestion("q2")

	assert.True(t, s.IsSelected("q1"))
}

func TestAppendAnswer(t *testing.T) {
	s := newStore()
	s.UpsertQuestion(question("q1"))

	err := s.AppendAnswer("q1", models.Answer{ID: "a1", QuestionID: "q1"})
	require.NoError(t, err)

	q, ok := s.Question("q1")
	require.True(t, ok)
	require.Len(t, q.Answers, 1)
	assert.Equal(t, "a1", q.Answers[0].ID)
}

func TestAppendAnswerMissingQuestion(t *testing.T) {
	s := newStore()
	err := s.AppendAnswer("nope", models.Answer{ID: "a1"})
	assert.ErrorIs(t, err, apperrors.ErrQuestionNotFound)
}

func TestMutateRepliesQuestionLevel(t *testing.T) {
	s := newStore()
	s.UpsertQuestion(question("q1"))

	err := s.MutateReplies("q1", "", func(rs []models.Reply) []models.Reply {
		return replytree.Insert(rs, models.Reply{ID: "r1", QuestionID: "q1"})
	})
	require.NoError(t, err)

	q, _ := s.Question("q1")
	require.Len(t, q.Replies, 1)
	assert.Empty(t, q.Answers)
}

func TestMutateRepliesAnswerLevel(t *testing.T) {
	s := newStore()
	q := question("q1")
	q.Answers = []models.Answer{{ID: "a1", QuestionID: "q1"}}
	s.UpsertQuestion(q)

	err := s.MutateReplies("q1", "a1", func(rs []models.Reply) []models.Reply {
		return replytree.Insert(rs, models.Reply{ID: "r1", QuestionID: "q1", AnswerID: "a1"})
	})
	require.NoError(t, err)

	got, _ := s.Question("q1")
	require.Len(t, got.Answers[0].Replies, 1)
	assert.Equal(t, "r1", got.Answers[0].Replies[0].ID)
}

func TestMutateRepliesMissingAnswer(t *testing.T) {
	s := newStore()
	s.UpsertQuestion(question("q1"))

	err := s.MutateReplies("q1", "missing", func(rs []models.Reply) []models.Reply { return rs })
	assert.ErrorIs(t, err, apperrors.ErrAnswerNotFound)
}

func TestSnapshotsSurviveMutation(t *testing.T) {
	s := newStore()
	q := question("q1")
	q.Answers = []models.Answer{{ID: "a1", QuestionID: "q1"}}
	s.UpsertQuestion(q)

	before, _ := s.Question("q1")
	err := s.MutateReplies("q1", "a1", func(rs []models.Reply) []models.Reply {
		return replytree.Insert(rs, models.Reply{ID: "r1"})
	})
	require.NoError(t, err)

	assert.Empty(t, before.Answers[0].Replies, "earlier snapshot must not see the write")
}

func TestRemoveAnswerCascades(t *testing.T) {
	s := newStore()
	q := question("q1")
	q.Answers = []models.Answer{{
		ID:      "a1",
		Replies: []models.Reply{{ID: "r1", Children: []models.Reply{{ID: "r2"}}}},
	}}
	s.UpsertQuestion(q)

	require.NoError(t, s.RemoveAnswer("q1", "a1"))

	got, _ := s.Question("q1")
	assert.Empty(t, got.Answers)
}

func TestContainsAnswer(t *testing.T) {
	s := newStore()
	q := question("q1")
	q.Answers = []models.Answer{{ID: "a1"}}
	s.UpsertQuestion(q)

	assert.True(t, s.ContainsAnswer("q1", "a1"))
	assert.False(t, s.ContainsAnswer("q1", "a2"))
	assert.False(t, s.ContainsAnswer("q2", "a1"))
}

func TestContainsReply(t *testing.T) {
	s := newStore()
	q := question("q1")
	q.Replies = []models.Reply{{ID: "r1", Children: []models.Reply{{ID: "r2"}}}}
	q.Answers = []models.Answer{{ID: "a1", Replies: []models.Reply{{ID: "r3"}}}}
	s.UpsertQuestion(q)

	assert.True(t, s.ContainsReply("q1", "", "r2"))
	assert.True(t, s.ContainsReply("q1", "a1", "r3"))
	assert.False(t, s.ContainsReply("q1", "", "r3"))
	assert.False(t, s.ContainsReply("q1", "a1", "r2"))
	assert.False(t, s.ContainsReply("q2", "", "r1"))
}
