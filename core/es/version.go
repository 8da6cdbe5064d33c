package es

import "log/slog"

// Version is the 1-based position of an event within its stream, and,
// on an aggregate, the number of events applied so far. Expected-vs-actual
// version comparison is the sole write-conflict guard.
type Version uint64

func (v Version) Uint64() uint64 { return uint64(v) }

func (v Version) SlogAttr() slog.Attr { return v.SlogAttrWithKey("version") }

func (v Version) SlogAttrWithKey(key string) slog.Attr { return slog.Uint64(key, uint64(v)) }
