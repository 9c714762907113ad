// Package events defines the discrete safety and mode events reported by
// the control cycle. Events never act on their own: an arbitration layer
// reads their tags and decides whether control may engage or must stop.
package events

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Tag classifies how an event affects enablement.
type Tag int

const (
	NoEntry Tag = iota + 1
	UserDisable
	Enable
	Warning
)

var tagNames = map[Tag]string{
	NoEntry:     "NO_ENTRY",
	UserDisable: "USER_DISABLE",
	Enable:      "ENABLE",
	Warning:     "WARNING",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// MarshalText encodes the tag by name.
func (t Tag) MarshalText() ([]byte, error) {
	if _, ok := tagNames[t]; !ok {
		return nil, fmt.Errorf("unknown event tag %d", int(t))
	}
	return []byte(t.String()), nil
}

// ParseTag maps a tag name such as "NO_ENTRY" back to its Tag.
func ParseTag(name string) (Tag, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for tag, s := range tagNames {
		if s == upper {
			return tag, nil
		}
	}
	return 0, fmt.Errorf("unknown event tag %q", name)
}

// Event names emitted by the cycle.
const (
	WrongCarMode   = "wrongCarMode"
	PCMEnable      = "pcmEnable"
	PCMDisable     = "pcmDisable"
	SpeedTooLow    = "speedTooLow"
	ParkBrake      = "parkBrake"
	ResumeRequired = "resumeRequired"
	CanError       = "canError"
)

// Event is a named occurrence with a set of tags.
type Event struct {
	Name string `json:"name"`
	Tags []Tag  `json:"tags"`
}

// New builds an event. Duplicate tags are dropped and the rest sorted so
// equal events compare equal regardless of argument order.
func New(name string, tags ...Tag) Event {
	seen := make(map[Tag]bool, len(tags))
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return Event{Name: name, Tags: out}
}

// Has reports whether the event carries tag.
func (e Event) Has(tag Tag) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (e Event) String() string {
	tags := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		tags[i] = t.String()
	}
	return fmt.Sprintf("%s[%s]", e.Name, strings.Join(tags, ","))
}

// Set is the ordered list of events for one cycle. Order is display
// priority only.
type Set []Event

// Add appends events and returns the extended set.
func (s Set) Add(evs ...Event) Set {
	return append(s, evs...)
}

// Any reports whether some event carries tag.
func (s Set) Any(tag Tag) bool {
	for _, e := range s {
		if e.Has(tag) {
			return true
		}
	}
	return false
}

// Contains reports whether an event with the given name is present.
func (s Set) Contains(name string) bool {
	for _, e := range s {
		if e.Name == name {
			return true
		}
	}
	return false
}

// Names returns the event names in emission order.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, e := range s {
		names[i] = e.Name
	}
	return names
}

// WithTag returns the events carrying tag, preserving order.
func (s Set) WithTag(tag Tag) Set {
	var out Set
	for _, e := range s {
		if e.Has(tag) {
			out = append(out, e)
		}
	}
	return out
}

// MarshalJSON always encodes an empty set as [] rather than null.
func (s Set) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Event(s))
}
