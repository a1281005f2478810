package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	events := []Event{
		NewQuestion{Question: models.Question{ID: "q1", Text: "Why?", Category: "math"}},
		NewAnswer{Answer: models.Answer{ID: "a1", QuestionID: "q1", Text: "Because."}},
		NewRemoteReply{Reply: models.Reply{ID: "r1", QuestionID: "q1", AnswerID: "a1", Text: "Thanks"}},
		QuestionDeleted{ID: "q1"},
		AnswerDeleted{ID: "a1", QuestionID: "q1"},
		ReplyDeleted{ID: "r1", QuestionID: "q1", AnswerID: "a1"},
		Typing{ThreadID: "q1", UserName: "alice"},
		StopTyping{ThreadID: "q1", UserName: "alice"},
		JoinThread{ThreadID: "q1"},
		DeleteQuestion{ID: "q1"},
		DeleteAnswer{ID: "a1", QuestionID: "q1"},
		DeleteReply{ID: "r1", QuestionID: "q1"},
	}

	for _, ev := range events {
		t.Run(ev.EventName(), func(t *testing.T) {
			raw, err := Encode(ev)
			require.NoError(t, err)

			decoded, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, ev, decoded)
		})
	}
}

func TestDecodeUnknownEvent(t *testing.T) {
	_, err := Decode([]byte(`{"event":"unknown_thing","data":{}}`))
	assert.Error(t, err)
}

func TestDecodeMalformedEnvelope(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeEmptyPayload(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"question_deleted"}`))
	require.NoError(t, err)
	assert.Equal(t, QuestionDeleted{}, ev)
}
