// Package channel defines the persistent push-channel contract between
// the forum engine and the backend, together with the wire codec and a
// gorilla/websocket implementation. The set of event kinds is closed:
// every event is a concrete type implementing Event, and consumers
// switch over those types rather than over wire names.
package channel

import (
	"encoding/json"
	"fmt"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"
)

// Event is a message delivered over or emitted onto the push channel.
// The interface is sealed; only the types in this package implement it.
type Event interface {
	// EventName returns the wire name of the event
	EventName() string

	isEvent()
}

// Server -> client events

// NewQuestion announces a question created by some client. The payload
// may be partial (assets omitted); receivers fetch the full entity.
type NewQuestion struct {
	Question models.Question `json:"question"`
}

// NewAnswer announces an answer created by some client
type NewAnswer struct {
	Answer models.Answer `json:"answer"`
}

// NewRemoteReply announces a reply created by some client
type NewRemoteReply struct {
	Reply models.Reply `json:"reply"`
}

// QuestionDeleted announces a confirmed question deletion
type QuestionDeleted struct {
	ID string `json:"id"`
}

// AnswerDeleted announces a confirmed answer deletion
type AnswerDeleted struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
}

// ReplyDeleted announces a confirmed reply deletion
type ReplyDeleted struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId,omitempty"`
}

// Typing signals that a user started composing in a thread. Sent in
// both directions: emitted locally on the first keystroke, delivered
// remotely for peers.
type Typing struct {
	ThreadID string `json:"threadId"`
	UserName string `json:"userName"`
}

// StopTyping signals that a user stopped composing in a thread
type StopTyping struct {
	ThreadID string `json:"threadId"`
	UserName string `json:"userName"`
}

// Connected is synthesized locally when the channel connection is
// established. It never crosses the wire.
type Connected struct{}

// ConnectError is synthesized locally when the connection fails or
// drops. It never crosses the wire.
type ConnectError struct {
	Message string `json:"message"`
}

// Client -> server events

// JoinThread tells the server which thread this client is viewing
type JoinThread struct {
	ThreadID string `json:"threadId"`
}

// DeleteQuestion asks the server to confirm a question deletion to all
// clients. Emitted after the REST delete succeeded.
type DeleteQuestion struct {
	ID string `json:"id"`
}

// DeleteAnswer asks the server to confirm an answer deletion to all clients
type DeleteAnswer struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
}

// DeleteReply asks the server to confirm a reply deletion to all clients
type DeleteReply struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId,omitempty"`
}

// EventName implementations double as the wire names.

func (NewQuestion) EventName() string     { return "new_question" }
func (NewAnswer) EventName() string       { return "new_answer" }
func (NewRemoteReply) EventName() string  { return "new_reply" }
func (QuestionDeleted) EventName() string { return "question_deleted" }
func (AnswerDeleted) EventName() string   { return "answer_deleted" }
func (ReplyDeleted) EventName() string    { return "reply_deleted" }
func (Typing) EventName() string          { return "typing" }
func (StopTyping) EventName() string      { return "stop_typing" }
func (Connected) EventName() string       { return "connect" }
func (ConnectError) EventName() string    { return "connect_error" }
func (JoinThread) EventName() string      { return "join_thread" }
func (DeleteQuestion) EventName() string  { return "delete_question" }
func (DeleteAnswer) EventName() string    { return "delete_answer" }
func (DeleteReply) EventName() string     { return "delete_reply" }

func (NewQuestion) isEvent()     {}
func (NewAnswer) isEvent()       {}
func (NewRemoteReply) isEvent()  {}
func (QuestionDeleted) isEvent() {}
func (AnswerDeleted) isEvent()   {}
func (ReplyDeleted) isEvent()    {}
func (Typing) isEvent()          {}
func (StopTyping) isEvent()      {}
func (Connected) isEvent()       {}
func (ConnectError) isEvent()    {}
func (JoinThread) isEvent()      {}
func (DeleteQuestion) isEvent()  {}
func (DeleteAnswer) isEvent()    {}
func (DeleteReply) isEvent()     {}

// envelope is the wire framing: an event name plus its JSON payload
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode serializes an event into its wire envelope
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", ev.EventName(), err)
	}
	return json.Marshal(envelope{Event: ev.EventName(), Data: data})
}

// Decode parses a wire envelope into its typed event. Unknown event
// names are an error; the event set is closed.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	switch env.Event {
	case "new_question":
		return payload[NewQuestion](env)
	case "new_answer":
		return payload[NewAnswer](env)
	case "new_reply":
		return payload[NewRemoteReply](env)
	case "question_deleted":
		return payload[QuestionDeleted](env)
	case "answer_deleted":
		return payload[AnswerDeleted](env)
	case "reply_deleted":
		return payload[ReplyDeleted](env)
	case "typing":
		return payload[Typing](env)
	case "stop_typing":
		return payload[StopTyping](env)
	case "join_thread":
		return payload[JoinThread](env)
	case "delete_question":
		return payload[DeleteQuestion](env)
	case "delete_answer":
		return payload[DeleteAnswer](env)
	case "delete_reply":
		return payload[DeleteReply](env)
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
}

// payload unmarshals an envelope's data into a concrete event type
func payload[T Event](env envelope) (Event, error) {
	var ev T
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", env.Event, err)
		}
	}
	return ev, nil
}
