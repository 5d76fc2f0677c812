package event

// Kind is the string tag carried in the wire envelope's "type" field.
type Kind string

const (
	KindLessonUpdated   Kind = "lesson_updated"
	KindLessonDeleted   Kind = "lesson_deleted"
	KindLessonAttended  Kind = "lesson_attended"
	KindStudentCreated  Kind = "student_created"
	KindStudentUpdated  Kind = "student_updated"
	KindStudentDeleted  Kind = "student_deleted"
	KindTeacherCreated  Kind = "teacher_created"
	KindTeacherDeleted  Kind = "teacher_deleted"
	KindSeriesCreated   Kind = "recurring_series_created"
	KindSeriesCancelled Kind = "recurring_series_cancelled"

	// KindConnection is synthesized locally for connection state changes.
	// It is never received from the wire.
	KindConnection Kind = "connection"

	// KindAny is the wildcard used for listener registration only.
	KindAny Kind = "*"
)

// Reserved bare-text control frames that bypass the envelope entirely.
const (
	PingFrame = "ping"
	PongFrame = "pong"
)

// knownKinds is every kind the dispatcher can classify.
var knownKinds = map[Kind]struct{}{
	KindLessonUpdated:   {},
	KindLessonDeleted:   {},
	KindLessonAttended:  {},
	KindStudentCreated:  {},
	KindStudentUpdated:  {},
	KindStudentDeleted:  {},
	KindTeacherCreated:  {},
	KindTeacherDeleted:  {},
	KindSeriesCreated:   {},
	KindSeriesCancelled: {},
	KindConnection:      {},
}

// refreshKinds is the set of kinds after which views should refetch
// from the REST API. Everything on the wire except series cancellation;
// connection status changes never force a refetch by themselves.
var refreshKinds = map[Kind]struct{}{
	KindLessonUpdated:  {},
	KindLessonDeleted:  {},
	KindLessonAttended: {},
	KindStudentCreated: {},
	KindStudentUpdated: {},
	KindStudentDeleted: {},
	KindTeacherCreated: {},
	KindTeacherDeleted: {},
	KindSeriesCreated:  {},
}

// Known returns true if k is a recognized event kind.
func (k Kind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}

// TriggersRefresh returns true if consumers should refetch after this kind.
func (k Kind) TriggersRefresh() bool {
	_, ok := refreshKinds[k]
	return ok
}

// Category groups kinds for notification display.
func (k Kind) Category() string {
	switch k {
	case KindLessonUpdated, KindLessonDeleted, KindLessonAttended:
		return "lesson"
	case KindStudentCreated, KindStudentUpdated, KindStudentDeleted:
		return "student"
	case KindTeacherCreated, KindTeacherDeleted:
		return "teacher"
	case KindSeriesCreated, KindSeriesCancelled:
		return "schedule"
	case KindConnection:
		return "connection"
	default:
		return "update"
	}
}
