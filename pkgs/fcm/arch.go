// Package fcm models the inputs of FCM-driven Fortran builds: the arch file
// describing compilers and libraries, and the CPP key set toggled per build.
package fcm

import (
	"bytes"
	"fmt"
	"strings"
)

// Entry is one "%KEY value" line of an arch file.
type Entry struct {
	Key   string
	Value string
}

// Arch is an ordered arch file. Setting an existing key replaces its value
// in place.
type Arch struct {
	entries []Entry
	extra   []string
}

// Set assigns value to key.
func (a *Arch) Set(key, value string) *Arch {
	for i := range a.entries {
		if a.entries[i].Key == key {
			a.entries[i].Value = value
			return a
		}
	}
	a.entries = append(a.entries, Entry{Key: key, Value: value})
	return a
}

// Get returns the value of key.
func (a *Arch) Get(key string) (string, bool) {
	for _, e := range a.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Raw appends a verbatim line after the entries. Empty lines are dropped.
func (a *Arch) Raw(line string) *Arch {
	if line != "" {
		a.extra = append(a.extra, line)
	}
	return a
}

// Entries returns the entries in order.
func (a *Arch) Entries() []Entry {
	return append([]Entry(nil), a.entries...)
}

// Ref returns the placeholder FCM substitutes with the value of key.
func Ref(key string) string {
	return "%" + key
}

// Refs returns the placeholders of keys joined by spaces.
func Refs(keys ...string) string {
	refs := make([]string, len(keys))
	for i, k := range keys {
		refs[i] = Ref(k)
	}
	return strings.Join(refs, " ")
}

// Render formats the arch file. Keys are padded to a common column; lines
// never carry trailing blanks.
func (a *Arch) Render() []byte {
	var buf bytes.Buffer
	for _, e := range a.entries {
		line := fmt.Sprintf("%-20s %s", Ref(e.Key), e.Value)
		buf.WriteString(strings.TrimRight(line, " "))
		buf.WriteByte('\n')
	}
	for _, line := range a.extra {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
