package browser

import "github.com/damacus/iron-explorer/internal/logger"

// NotificationKind is the severity of a Notification.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)

// Notification is an event for the user. Display is up to the Notifier.
type Notification struct {
	Kind    NotificationKind
	Title   string
	Message string
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

// LogNotifier writes notifications as structured log events.
type LogNotifier struct {
	Logger *logger.Logger
}

func (n *LogNotifier) Notify(note Notification) {
	l := n.Logger
	if l == nil {
		return
	}
	ev := l.Info()
	if note.Kind == NotifyError {
		ev = l.Error()
	}
	ev.Str("kind", string(note.Kind)).Str("title", note.Title).Msg(note.Message)
}
