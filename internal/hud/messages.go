// Package hud keeps the status lines the host prints over the map.
package hud

import (
	"image/color"
	"strings"
	"sync"

	"github.com/spacehole-rogue/starview/internal/palette"
)

// Priority controls the color of a message.
type Priority uint8

const (
	Info     Priority = iota // cyan
	Warning                  // yellow
	Critical                 // red
	Selected                 // green
)

// Color returns the palette color a message of priority p is drawn in.
func (p Priority) Color() color.RGBA {
	switch p {
	case Critical:
		return palette.CGA[palette.LightRed]
	case Warning:
		return palette.CGA[palette.Yellow]
	case Selected:
		return palette.CGA[palette.LightGreen]
	default:
		return palette.CGA[palette.Cyan]
	}
}

// Message is a single line of the log.
type Message struct {
	Text     string
	Priority Priority
}

// Log is a bounded FIFO of messages. It is safe for concurrent use;
// transitions report from their own goroutines.
type Log struct {
	mu       sync.Mutex
	messages []Message
	maxSize  int
	width    int
}

// NewLog keeps the most recent maxSize lines, wrapping at width
// characters.
func NewLog(maxSize, width int) *Log {
	return &Log{
		messages: make([]Message, 0, maxSize),
		maxSize:  maxSize,
		width:    width,
	}
}

// Add appends a message, evicting the oldest lines if full.
func (l *Log) Add(text string, priority Priority) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range wrapText(text, l.width) {
		msg := Message{Text: line, Priority: priority}
		if len(l.messages) >= l.maxSize {
			copy(l.messages, l.messages[1:])
			l.messages[len(l.messages)-1] = msg
		} else {
			l.messages = append(l.messages, msg)
		}
	}
}

// Recent returns a copy of the last n lines (or fewer if the log is
// shorter).
func (l *Log) Recent(n int) []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	n = min(n, len(l.messages))
	out := make([]Message, n)
	copy(out, l.messages[len(l.messages)-n:])
	return out
}

// wrapText splits text into lines no longer than maxWidth. Words longer
// than a line are kept whole.
func wrapText(s string, maxWidth int) []string {
	if maxWidth <= 0 || len(s) <= maxWidth {
		return []string{s}
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var result []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > maxWidth {
			result = append(result, line)
			line = w
		} else {
			line += " " + w
		}
	}
	return append(result, line)
}
