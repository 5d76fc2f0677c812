package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrMissingKind = errors.New("event missing kind tag")
)

// Student is the student record carried by student_* events.
type Student struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Teacher is the teacher record carried by teacher_* events.
type Teacher struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Lesson is the lesson record carried by lesson_* events.
type Lesson struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	StudentName string `json:"student_name"`
	TeacherName string `json:"teacher_name"`
	StartsAt    string `json:"starts_at"`
}

// Series is the recurring-series record carried by recurring_series_* events.
type Series struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Payload is the closed union of kind-specific event payloads.
type Payload interface {
	isPayload()
}

// LessonPayload carries a lesson for lesson_* kinds.
type LessonPayload struct {
	Lesson Lesson `json:"lesson"`
}

// StudentPayload carries a student for student_* kinds.
type StudentPayload struct {
	Student Student `json:"student"`
}

// TeacherPayload carries a teacher for teacher_* kinds.
type TeacherPayload struct {
	Teacher Teacher `json:"teacher"`
}

// SeriesPayload carries a series for recurring_series_* kinds.
type SeriesPayload struct {
	Series Series `json:"series"`
}

// ConnectionPayload carries a synthesized connection status change.
type ConnectionPayload struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// UnknownPayload preserves the raw data of an unrecognized kind.
// Unknown kinds must not fail dispatch.
type UnknownPayload struct {
	Raw json.RawMessage
}

func (LessonPayload) isPayload()     {}
func (StudentPayload) isPayload()    {}
func (TeacherPayload) isPayload()    {}
func (SeriesPayload) isPayload()     {}
func (ConnectionPayload) isPayload() {}
func (UnknownPayload) isPayload()    {}

// Message is a decoded event from the realtime channel.
type Message struct {
	Kind       Kind
	Payload    Payload
	EmittedBy  string    // Actor name from the envelope
	EmittedAt  time.Time // Server timestamp (zero if absent or malformed)
	ReceivedAt time.Time // Local timestamp when the frame arrived
}

// envelope is the wire format of a channel frame.
type envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	UserName  string          `json:"user_name"`
	Timestamp string          `json:"timestamp"`
}

// Parse decodes a raw frame into a Message.
//
// The kind tag is required. Unknown kinds decode to UnknownPayload rather
// than erroring; only structurally invalid frames fail.
func Parse(data []byte, receivedAt time.Time) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Message{}, ErrMissingKind
	}

	kind := Kind(env.Type)
	payload, err := decodePayload(kind, env.Data)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		Kind:       kind,
		Payload:    payload,
		EmittedBy:  env.UserName,
		ReceivedAt: receivedAt,
	}

	// A malformed timestamp is not worth dropping the message over.
	if env.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, env.Timestamp); err == nil {
			msg.EmittedAt = ts
		}
	}

	return msg, nil
}

// decodePayload maps a kind to its typed payload. The switch is exhaustive
// over the known kinds; anything else lands in UnknownPayload.
func decodePayload(kind Kind, data json.RawMessage) (Payload, error) {
	switch kind {
	case KindLessonUpdated, KindLessonDeleted, KindLessonAttended:
		var p LessonPayload
		if err := unmarshalData(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return p, nil

	case KindStudentCreated, KindStudentUpdated, KindStudentDeleted:
		var p StudentPayload
		if err := unmarshalData(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return p, nil

	case KindTeacherCreated, KindTeacherDeleted:
		var p TeacherPayload
		if err := unmarshalData(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return p, nil

	case KindSeriesCreated, KindSeriesCancelled:
		var p SeriesPayload
		if err := unmarshalData(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return p, nil

	case KindConnection:
		var p ConnectionPayload
		if err := unmarshalData(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return p, nil

	default:
		return UnknownPayload{Raw: data}, nil
	}
}

// unmarshalData tolerates an absent data field.
func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
