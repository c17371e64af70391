package services

import (
	"fmt"
	"io"
	"sync"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Notifier shows short transient messages to the user.
type Notifier interface {
	Notify(level Level, msg string)
}

// WriterNotifier prints one line per message.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

var levelPrefix = map[Level]string{
	LevelInfo:    "[i]",
	LevelSuccess: "[ok]",
	LevelWarn:    "[!]",
	LevelError:   "[x]",
}

func (n *WriterNotifier) Notify(level Level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	prefix, ok := levelPrefix[level]
	if !ok {
		prefix = "[i]"
	}
	fmt.Fprintf(n.w, "%s %s\n", prefix, msg)
}

// Toast is one recorded notification.
type Toast struct {
	Level   Level
	Message string
}

// RecordingNotifier keeps every notification in memory.
type RecordingNotifier struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *RecordingNotifier) Notify(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Level: level, Message: msg})
}

func (r *RecordingNotifier) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}
