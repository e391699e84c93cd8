// Package notify carries user-visible notices (the storefront's toasts)
// from the session, cart and checkout cores to whatever renders them.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notice is a transient message for the user.
type Notice struct {
	Level   Level
	Message string
}

// Notifier receives notices. Implementations must not block.
type Notifier interface {
	Notify(Notice)
}

// Func adapts a function to Notifier.
type Func func(Notice)

// Notify calls f.
func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// Success emits a success notice.
func Success(n Notifier, msg string) { n.Notify(Notice{Level: LevelSuccess, Message: msg}) }

// Error emits an error notice.
func Error(n Notifier, msg string) { n.Notify(Notice{Level: LevelError, Message: msg}) }

// Warning emits a warning notice.
func Warning(n Notifier, msg string) { n.Notify(Notice{Level: LevelWarning, Message: msg}) }

// LogNotifier writes notices to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a notifier backed by logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n at a level matching its severity.
func (l *LogNotifier) Notify(n Notice) {
	switch n.Level {
	case LevelError:
		l.logger.Error(n.Message, zap.String("notice", string(n.Level)))
	case LevelWarning:
		l.logger.Warn(n.Message, zap.String("notice", string(n.Level)))
	default:
		l.logger.Info(n.Message, zap.String("notice", string(n.Level)))
	}
}

// Recorder keeps every notice it receives. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify records n.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Last returns the most recent notice, if any.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}
