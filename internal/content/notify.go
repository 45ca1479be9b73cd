package content

import "sync"

// Level is the severity of a toast.
type Level string

// Toast levels.
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Toast is a transient user-facing message.
type Toast struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier shows toasts.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type discard struct{}

func (discard) Success(string) {}
func (discard) Error(string)   {}

// Discard is a Notifier that drops every toast.
var Discard Notifier = discard{}

// Recorder keeps toasts in memory.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

// Success records a success toast.
func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }

// Error records an error toast.
func (r *Recorder) Error(msg string) { r.add(LevelError, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Level: level, Message: msg})
}

// Toasts returns the recorded toasts in order.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Last returns the most recent toast.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}

type multi []Notifier

func (m multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

// Notifiers fans toasts out to every non-nil notifier.
func Notifiers(ns ...Notifier) Notifier {
	var out multi
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
