package notify

import (
	"fmt"

	"github.com/ivylane/studio-live/internal/event"
)

// RenderText produces the user-visible line for a message. Unrecognized
// kinds fall back to a generic line; rendering never fails.
func RenderText(m event.Message) string {
	actor := m.EmittedBy
	if actor == "" {
		actor = "Someone"
	}

	switch p := m.Payload.(type) {
	case event.StudentPayload:
		name := p.Student.Name
		if name == "" {
			name = "a student"
		}
		switch m.Kind {
		case event.KindStudentCreated:
			return fmt.Sprintf("%s added new student: %s", actor, name)
		case event.KindStudentUpdated:
			return fmt.Sprintf("%s updated student: %s", actor, name)
		case event.KindStudentDeleted:
			return fmt.Sprintf("%s removed student: %s", actor, name)
		}

	case event.TeacherPayload:
		name := p.Teacher.Name
		if name == "" {
			name = "a teacher"
		}
		switch m.Kind {
		case event.KindTeacherCreated:
			return fmt.Sprintf("%s added new teacher: %s", actor, name)
		case event.KindTeacherDeleted:
			return fmt.Sprintf("%s removed teacher: %s", actor, name)
		}

	case event.LessonPayload:
		switch m.Kind {
		case event.KindLessonUpdated:
			return fmt.Sprintf("%s updated a lesson", actor)
		case event.KindLessonDeleted:
			return fmt.Sprintf("%s removed a lesson", actor)
		case event.KindLessonAttended:
			return fmt.Sprintf("%s marked a lesson attended", actor)
		}

	case event.SeriesPayload:
		switch m.Kind {
		case event.KindSeriesCreated:
			return fmt.Sprintf("%s created a recurring lesson series", actor)
		case event.KindSeriesCancelled:
			return fmt.Sprintf("%s cancelled a recurring lesson series", actor)
		}

	case event.ConnectionPayload:
		switch p.Status {
		case event.StatusConnecting:
			return "Connecting to live updates"
		case event.StatusOpen:
			return "Live updates connected"
		case event.StatusReconnecting:
			return "Live updates interrupted, reconnecting"
		case event.StatusFailed:
			return "Live updates unavailable, switching to periodic refresh"
		case event.StatusClosed:
			return "Live updates disconnected"
		}
	}

	return fmt.Sprintf("%s made a change", actor)
}
