// Package logging is the leveled, structured event emission used by every
// component. Components depend on the Log interface only; the zap backed
// Logger and Nop are the two implementations.
package logging

import (
	"time"
)

// Log is leveled structured event emission.
type Log interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Log
}

// Level is the minimum severity emitted.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown strings map to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is one typed key/value attached to an event.
type Field struct {
	Key   string
	Type  FieldType
	Value any
}

// A FieldType indicates how Value should be serialized.
type FieldType uint8

const (
	UnknownType FieldType = iota
	BoolType
	DurationType
	Float64Type
	IntType
	StringType
	ErrorType
)

func Any(key string, val any) Field {
	return Field{Key: key, Type: UnknownType, Value: val}
}

func Bool(key string, val bool) Field {
	return Field{Key: key, Type: BoolType, Value: val}
}

func Duration(key string, val time.Duration) Field {
	return Field{Key: key, Type: DurationType, Value: val}
}

func Float64(key string, val float64) Field {
	return Field{Key: key, Type: Float64Type, Value: val}
}

func Int(key string, val int) Field {
	return Field{Key: key, Type: IntType, Value: val}
}

func String(key string, val string) Field {
	return Field{Key: key, Type: StringType, Value: val}
}

// Err attaches err under the "error" key. A nil err is kept as an Any field.
func Err(err error) Field {
	if err == nil {
		return Any("error", nil)
	}
	return Field{Key: "error", Type: ErrorType, Value: err}
}

// Component tags every event of a logger with the emitting component.
func Component(name string) Field {
	return String("component", name)
}

type nop struct{}

// Nop returns a Log that discards everything.
func Nop() Log { return nop{} }

func (nop) Debug(string, ...Field) {}
func (nop) Info(string, ...Field)  {}
func (nop) Warn(string, ...Field)  {}
func (nop) Error(string, ...Field) {}
func (n nop) With(...Field) Log    { return n }

// OrNop returns l, or Nop when l is nil.
func OrNop(l Log) Log {
	if l == nil {
		return Nop()
	}
	return l
}
