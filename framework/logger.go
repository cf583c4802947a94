package framework

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the minimal logging interface used by test code. *log.Logger implements it.
type Logger interface {
	Println(args ...interface{})
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (nullLogger) Println(...interface{})        {}
func (nullLogger) Printf(string, ...interface{}) {}

// NullLogger returns a Logger that discards everything.
func NullLogger() Logger { return nullLogger{} }

// CapturedMessage is one line of CapturedOutput.
type CapturedMessage struct {
	Time    time.Time
	Message string
}

// CapturedOutput is what a CapturingLogger recorded, oldest first.
type CapturedOutput []CapturedMessage

// ToString renders the output one message per line, each starting with prefix and a timestamp.
func (output CapturedOutput) ToString(prefix string) string {
	lines := make([]string, len(output))
	for i, m := range output {
		lines[i] = prefix + "[" + m.Time.Format(timestampFormat) + "] " + m.Message
	}
	return strings.Join(lines, "\n")
}

// CapturingLogger keeps the debug output of a test scope. While it has child loggers, messages
// go to the children instead of being kept; geotest.T.DebugLogger describes why.
type CapturingLogger struct {
	lock     sync.Mutex
	output   CapturedOutput
	children []*CapturingLogger
}

func (l *CapturingLogger) Println(args ...interface{}) {
	l.capture(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.capture(fmt.Sprintf(message, args...))
}

func (l *CapturingLogger) capture(message string) {
	l.deliver(CapturedMessage{Time: time.Now(), Message: message})
}

func (l *CapturingLogger) deliver(m CapturedMessage) {
	l.lock.Lock()
	children := l.children
	if len(children) == 0 {
		l.output = append(l.output, m)
	}
	l.lock.Unlock()
	for _, c := range children {
		c.deliver(m)
	}
}

// Output returns a copy of what has been captured so far.
func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append(CapturedOutput(nil), l.output...)
}

// AddChildLogger starts redirecting messages to child, which is first given a copy of the
// output captured here so far.
func (l *CapturingLogger) AddChildLogger(child *CapturingLogger) {
	inherited := l.Output()
	l.lock.Lock()
	l.children = append(l.children[:len(l.children):len(l.children)], child)
	l.lock.Unlock()

	child.lock.Lock()
	child.output = append(inherited, child.output...)
	child.lock.Unlock()
}

// RemoveChildLogger stops redirecting messages to child.
func (l *CapturingLogger) RemoveChildLogger(child *CapturingLogger) {
	l.lock.Lock()
	defer l.lock.Unlock()
	kept := make([]*CapturingLogger, 0, len(l.children))
	for _, c := range l.children {
		if c != child {
			kept = append(kept, c)
		}
	}
	l.children = kept
}

type prefixedLogger struct {
	base   Logger
	prefix string
}

// LoggerWithPrefix prepends prefix to every message.
func LoggerWithPrefix(baseLogger Logger, prefix string) Logger {
	return prefixedLogger{baseLogger, prefix}
}

func (p prefixedLogger) Println(args ...interface{}) {
	p.base.Println(append([]interface{}{p.prefix}, args...)...)
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.base.Printf(p.prefix+message, args...)
}

type slogLogger struct {
	base  *slog.Logger
	level slog.Level
}

// SlogLogger adapts a structured logger to the Logger interface. Every message is written at
// the given level.
func SlogLogger(base *slog.Logger, level slog.Level) Logger {
	if base == nil {
		base = slog.Default()
	}
	return slogLogger{base: base, level: level}
}

func (s slogLogger) Println(args ...interface{}) {
	s.base.Log(context.Background(), s.level, strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

func (s slogLogger) Printf(message string, args ...interface{}) {
	s.base.Log(context.Background(), s.level, fmt.Sprintf(message, args...))
}
