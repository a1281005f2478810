package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/gateway"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/store"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/apperrors"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/channel"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/replytree"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/toast"
)

// SyncService keeps the local question collection consistent across
// local submissions, gateway responses and push-channel deliveries.
// The open thread always mirrors the server through a full refetch;
// background threads are patched in place.
type SyncService interface {
	// Run consumes push events until the context is cancelled or the
	// channel closes
	Run(ctx context.Context)

	// HandleEvent applies one push event. Exposed so hosts with their own
	// delivery loop can drive the engine directly.
	HandleEvent(ctx context.Context, ev channel.Event)

	// LoadQuestions performs the initial full list fetch
	LoadQuestions(ctx context.Context) error

	// SelectQuestion opens a thread, fetching its full tree. A no-op when
	// the thread is already open, unless force is set.
	SelectQuestion(ctx context.Context, id string, force bool) error

	SubmitQuestion(ctx context.Context, text, category string, assetURLs []string) error
	SubmitAnswer(ctx context.Context, questionID, text string, assetURLs []string) error
	SubmitReply(ctx context.Context, questionID, answerID, parentReplyID, text string, assetURLs []string) error

	DeleteQuestion(ctx context.Context, id string) error
	DeleteAnswer(ctx context.Context, id, questionID string) error
	DeleteReply(ctx context.Context, id, questionID, answerID string) error
}

// syncServiceImpl implements SyncService
type syncServiceImpl struct {
	store     *store.EntityStore
	gateway   gateway.RequestGateway
	channel   channel.EventChannel
	presence  PresenceService
	toasts    *toast.Queue
	localUser models.User
	logger    zerolog.Logger

	// selectGen orders overlapping SelectQuestion fetches so only the
	// latest request can commit to the selection
	selectGen atomic.Int64

	// orphans holds replies whose parent was not present locally when
	// they arrived, keyed by question id. Each is retried once after the
	// next full fetch of that question.
	orphanMu sync.Mutex
	orphans  map[string][]models.Reply
}

// NewSyncService creates a new SyncService
func NewSyncService(
	entityStore *store.EntityStore,
	gw gateway.RequestGateway,
	ch channel.EventChannel,
	presence PresenceService,
	toasts *toast.Queue,
	localUser models.User,
	logger zerolog.Logger,
) SyncService {
	return &syncServiceImpl{
		store:     entityStore,
		gateway:   gw,
		channel:   ch,
		presence:  presence,
		toasts:    toasts,
		localUser: localUser,
		logger:    logger,
		orphans:   make(map[string][]models.Reply),
	}
}

// Run consumes push events until the context is cancelled or the
// channel closes. Channel failure is surfaced through a ConnectError
// event before the close, so the close itself is silent.
func (s *syncServiceImpl) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.channel.Events():
			if !ok {
				s.logger.Info().Msg("Push channel stream ended")
				return
			}
			s.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent applies one push event to the engine
func (s *syncServiceImpl) HandleEvent(ctx context.Context, ev channel.Event) {
	switch e := ev.(type) {
	case channel.NewQuestion:
		s.handleNewQuestion(ctx, e.Question)
	case channel.NewAnswer:
		s.handleNewAnswer(ctx, e.Answer)
	case channel.NewRemoteReply:
		s.handleNewReply(ctx, e.Reply)
	case channel.QuestionDeleted:
		s.handleQuestionDeleted(e.ID)
	case channel.AnswerDeleted:
		s.handleAnswerDeleted(ctx, e)
	case channel.ReplyDeleted:
		s.handleReplyDeleted(ctx, e)
	case channel.Typing:
		s.presence.HandleRemoteTyping(e.ThreadID, e.UserName)
	case channel.StopTyping:
		s.presence.HandleRemoteStopTyping(e.ThreadID, e.UserName)
	case channel.Connected:
		s.logger.Info().Msg("Push channel ready")
	case channel.ConnectError:
		s.logger.Error().Str("reason", e.Message).Msg("Push channel failed")
		s.toasts.PushSticky(toast.KindError, "Live updates disconnected, refresh the page")
	default:
		s.logger.Debug().Str("event", ev.EventName()).Msg("Ignoring event")
	}
}

// handleNewQuestion reconciles a pushed question. The push payload may
// be partial, so the full entity is fetched first; when that fetch
// fails the partial payload is inserted rather than dropping the event.
func (s *syncServiceImpl) handleNewQuestion(ctx context.Context, partial models.Question) {
	q := partial
	full, err := s.gateway.FetchQuestion(ctx, partial.ID)
	if err != nil {
		fallback := apperrors.NewReconciliationFallback("inserting partial question "+partial.ID, err)
		s.logger.Warn().Err(fallback).Msg("Full fetch failed, applying partial payload")
	} else {
		q = full
	}

	s.store.UpsertQuestion(q)
	s.retryOrphans(q.ID)

	if q.Author.ID != s.localUser.ID {
		s.toasts.Push(toast.KindInfo, "New question from "+q.Author.DisplayName)
	}
}

// handleNewAnswer patches a background question with a pushed answer.
// An answer already present is an echo of a local submit that has
// reconciled, so the append is skipped to keep one entry per id.
func (s *syncServiceImpl) handleNewAnswer(ctx context.Context, answer models.Answer) {
	if s.store.IsSelected(answer.QuestionID) {
		s.refetchSelected(ctx, answer.QuestionID)
		return
	}
	if s.store.ContainsAnswer(answer.QuestionID, answer.ID) {
		return
	}
	if err := s.store.AppendAnswer(answer.QuestionID, answer); err != nil {
		s.logger.Warn().Err(err).
			Str("questionID", answer.QuestionID).
			Str("answerID", answer.ID).
			Msg("Dropped answer for unknown question")
	}
}

func (s *syncServiceImpl) handleNewReply(ctx context.Context, reply models.Reply) {
	if s.store.IsSelected(reply.QuestionID) {
		s.refetchSelected(ctx, reply.QuestionID)
		return
	}

	// an echo of a reply that a reconcile fetch already brought in
	if s.store.ContainsReply(reply.QuestionID, reply.AnswerID, reply.ID) {
		return
	}

	if reply.ParentReplyID != "" && !s.store.ContainsReply(reply.QuestionID, reply.AnswerID, reply.ParentReplyID) {
		s.queueOrphan(reply)
		return
	}

	err := s.store.MutateReplies(reply.QuestionID, reply.AnswerID, func(rs []models.Reply) []models.Reply {
		return replytree.Insert(rs, reply)
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("questionID", reply.QuestionID).
			Str("replyID", reply.ID).
			Msg("Dropped reply for unknown target")
	}
}

func (s *syncServiceImpl) handleQuestionDeleted(id string) {
	s.store.RemoveQuestion(id)
	s.toasts.Push(toast.KindInfo, "Question deleted")
}

func (s *syncServiceImpl) handleAnswerDeleted(ctx context.Context, e channel.AnswerDeleted) {
	if s.store.IsSelected(e.QuestionID) {
		s.refetchSelected(ctx, e.QuestionID)
		return
	}
	if err := s.store.RemoveAnswer(e.QuestionID, e.ID); err != nil {
		s.logger.Debug().Err(err).Str("answerID", e.ID).Msg("Answer already gone")
	}
}

func (s *syncServiceImpl) handleReplyDeleted(ctx context.Context, e channel.ReplyDeleted) {
	if s.store.IsSelected(e.QuestionID) {
		s.refetchSelected(ctx, e.QuestionID)
		return
	}
	err := s.store.MutateReplies(e.QuestionID, e.AnswerID, func(rs []models.Reply) []models.Reply {
		return replytree.Remove(rs, e.ID)
	})
	if err != nil {
		s.logger.Debug().Err(err).Str("replyID", e.ID).Msg("Reply already gone")
	}
}

// LoadQuestions performs the initial full list fetch
func (s *syncServiceImpl) LoadQuestions(ctx context.Context) error {
	questions, err := s.gateway.ListQuestions(ctx)
	if err != nil {
		s.toasts.Push(toast.KindError, "Failed to load questions")
		return err
	}
	s.store.SetQuestions(questions)
	s.logger.Info().Int("count", len(questions)).Msg("Question list loaded")
	return nil
}

// SelectQuestion opens a thread. The fetch is guarded by a generation
// counter: when selections overlap, only the response belonging to the
// latest request commits, a stale response is discarded. On fetch
// failure the prior selection is left untouched.
func (s *syncServiceImpl) SelectQuestion(ctx context.Context, id string, force bool) error {
	if !force && s.store.IsSelected(id) {
		return nil
	}

	gen := s.selectGen.Add(1)

	q, err := s.gateway.FetchQuestion(ctx, id)
	if err != nil {
		s.toasts.Push(toast.KindError, "Failed to load question")
		return err
	}

	if s.selectGen.Load() != gen {
		s.logger.Debug().Str("questionID", id).Msg("Discarding stale selection fetch")
		return nil
	}

	s.store.UpsertQuestion(q)
	s.store.Select(id)
	s.presence.SetThread(id)
	s.retryOrphans(id)
	return nil
}

// refetchSelected force-refreshes the open thread after a push touched
// it. Patching a rendered deep tree in place is error-prone; one thread
// is open at a time, so a full refetch is cheap enough.
func (s *syncServiceImpl) refetchSelected(ctx context.Context, id string) {
	if err := s.SelectQuestion(ctx, id, true); err != nil {
		s.logger.Warn().Err(err).Str("questionID", id).Msg("Failed to refetch open thread")
	}
}

// SubmitQuestion creates a question, then fetches and upserts the full
// entity. The upsert is idempotent by id, so the echoed push event may
// arrive before or after without creating a duplicate.
func (s *syncServiceImpl) SubmitQuestion(ctx context.Context, text, category string, assetURLs []string) error {
	res, err := s.gateway.CreateQuestion(ctx, gateway.CreateQuestionInput{
		Text:      text,
		AuthorID:  s.localUser.ID,
		Category:  category,
		AssetURLs: assetURLs,
	})
	if err != nil {
		s.toasts.Push(toast.KindError, "Failed to post question")
		return err
	}

	full, err := s.gateway.FetchQuestion(ctx, res.ID)
	if err != nil {
		// The echoed push event will retry the fetch
		s.toasts.Push(toast.KindError, "Failed to load posted question")
		return err
	}
	s.store.UpsertQuestion(full)
	return nil
}

// SubmitAnswer creates an answer and reconciles the owning question
func (s *syncServiceImpl) SubmitAnswer(ctx context.Context, questionID, text string, assetURLs []string) error {
	_, err := s.gateway.CreateAnswer(ctx, gateway.CreateAnswerInput{
		QuestionID: questionID,
		Text:       text,
		AuthorID:   s.localUser.ID,
		AssetURLs:  assetURLs,
	})
	if err != nil {
		s.toasts.Push(toast.KindError, "Failed to post answer")
		return err
	}
	return s.reconcileQuestion(ctx, questionID)
}

// SubmitReply creates a reply and reconciles the owning question
func (s *syncServiceImpl) SubmitReply(ctx context.Context, questionID, answerID, parentReplyID, text string, assetURLs []string) error {
	_, err := s.gateway.CreateReply(ctx, gateway.CreateReplyInput{
		QuestionID:    questionID,
		AnswerID:      answerID,
		ParentReplyID: parentReplyID,
		Text:          text,
		AuthorID:      s.localUser.ID,
		AssetURLs:     assetURLs,
	})
	if err != nil {
		s.toasts.Push(toast.KindError, "Failed to post reply")
		return err
	}
	return s.reconcileQuestion(ctx, questionID)
}

// DeleteQuestion is fire-and-confirm: the gateway call deletes, then a
// channel event is emitted so every client, this one included,
// converges through the same reconciliation path.
func (s *syncServiceImpl) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.gateway.DeleteQuestion(ctx, id); err != nil {
		s.toasts.Push(toast.KindError, "Failed to delete question")
		return err
	}
	if err := s.channel.Emit(channel.DeleteQuestion{ID: id}); err != nil {
		s.logger.Warn().Err(err).Str("questionID", id).Msg("Failed to emit delete confirmation")
	}
	return nil
}

// DeleteAnswer is fire-and-confirm, like DeleteQuestion
func (s *syncServiceImpl) DeleteAnswer(ctx context.Context, id, questionID string) error {
	if err := s.gateway.DeleteAnswer(ctx, id); err != nil {
		s.toasts.Push(toast.KindError, "Failed to delete answer")
		return err
	}
	if err := s.channel.Emit(channel.DeleteAnswer{ID: id, QuestionID: questionID}); err != nil {
		s.logger.Warn().Err(err).Str("answerID", id).Msg("Failed to emit delete confirmation")
	}
	return nil
}

// DeleteReply is fire-and-confirm, like DeleteQuestion
func (s *syncServiceImpl) DeleteReply(ctx context.Context, id, questionID, answerID string) error {
	if err := s.gateway.DeleteReply(ctx, id); err != nil {
		s.toasts.Push(toast.KindError, "Failed to delete reply")
		return err
	}
	if err := s.channel.Emit(channel.DeleteReply{ID: id, QuestionID: questionID, AnswerID: answerID}); err != nil {
		s.logger.Warn().Err(err).Str("replyID", id).Msg("Failed to emit delete confirmation")
	}
	return nil
}

// reconcileQuestion brings one question in line with the server after a
// local write: full refetch when it is the open thread, fetch and
// idempotent upsert otherwise.
func (s *syncServiceImpl) reconcileQuestion(ctx context.Context, questionID string) error {
	if s.store.IsSelected(questionID) {
		return s.SelectQuestion(ctx, questionID, true)
	}

	full, err := s.gateway.FetchQuestion(ctx, questionID)
	if err != nil {
		s.toasts.Push(toast.KindError, "Failed to refresh question")
		return err
	}
	s.store.UpsertQuestion(full)
	s.retryOrphans(questionID)
	return nil
}

// queueOrphan parks a reply whose parent is missing locally until the
// next full fetch of its question. Without this the reply would be
// silently lost.
func (s *syncServiceImpl) queueOrphan(reply models.Reply) {
	s.orphanMu.Lock()
	s.orphans[reply.QuestionID] = append(s.orphans[reply.QuestionID], reply)
	s.orphanMu.Unlock()

	fallback := apperrors.NewReconciliationFallback("reply "+reply.ID+" arrived before its parent", nil)
	s.logger.Warn().Err(fallback).
		Str("questionID", reply.QuestionID).
		Str("parentReplyID", reply.ParentReplyID).
		Msg("Queued orphan reply")
	s.toasts.Push(toast.KindInfo, "A reply will appear after the thread refreshes")
}

// retryOrphans re-applies parked replies once after a full fetch of
// their question. A reply whose parent is still missing is dropped.
func (s *syncServiceImpl) retryOrphans(questionID string) {
	s.orphanMu.Lock()
	pending := s.orphans[questionID]
	delete(s.orphans, questionID)
	s.orphanMu.Unlock()

	for _, reply := range pending {
		if s.store.ContainsReply(reply.QuestionID, reply.AnswerID, reply.ID) {
			continue // the fetch already included it
		}
		if reply.ParentReplyID != "" && !s.store.ContainsReply(reply.QuestionID, reply.AnswerID, reply.ParentReplyID) {
			s.logger.Warn().
				Str("replyID", reply.ID).
				Str("parentReplyID", reply.ParentReplyID).
				Msg("Dropping orphan reply, parent still missing")
			continue
		}
		err := s.store.MutateReplies(reply.QuestionID, reply.AnswerID, func(rs []models.Reply) []models.Reply {
			return replytree.Insert(rs, reply)
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("replyID", reply.ID).Msg("Failed to replay orphan reply")
		}
	}
}
