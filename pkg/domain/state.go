package domain

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Key names a slot in the state bag. The set is closed.
type Key string

const (
	KeyUnit         Key = "unit"
	KeyUnitLesson   Key = "unitLesson"
	KeyLiveSession  Key = "liveSession"
	KeyLiveQuestion Key = "liveQuestion"
	KeyTitle        Key = "title"
)

// stateKeys maps each recognized key to the entity kind its id refers to.
// An empty kind means the value is a plain string.
var stateKeys = map[Key]EntityKind{
	KeyUnit:         KindUnit,
	KeyUnitLesson:   KindUnitLesson,
	KeyLiveSession:  KindLiveSession,
	KeyLiveQuestion: KindLiveQuestion,
	KeyTitle:        "",
}

// Keys returns the recognized state keys in stable order.
func Keys() []Key {
	keys := make([]Key, 0, len(stateKeys))
	for k := range stateKeys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// KindOf returns the entity kind a key refers to. ok is false for unknown keys;
// kind is empty for plain string keys.
func KindOf(key Key) (kind EntityKind, ok bool) {
	kind, ok = stateKeys[key]
	return kind, ok
}

func checkKey(key Key) error {
	if _, ok := stateKeys[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStateKey, key)
	}
	return nil
}

// State is the per-instance bag. Only ids (and the title) are persisted;
// entities are resolved again after every rehydration.
type State struct {
	values   map[Key]string
	entities map[Key]any
}

// NewState returns an empty bag.
func NewState() *State {
	return &State{
		values:   make(map[Key]string),
		entities: make(map[Key]any),
	}
}

// Set stores a raw value and drops any entity previously bound to key.
func (s *State) Set(key Key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.values[key] = value
	delete(s.entities, key)
	return nil
}

// Bind stores an entity together with its id.
func (s *State) Bind(key Key, id string, entity any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.values[key] = id
	if entity != nil {
		s.entities[key] = entity
	} else {
		delete(s.entities, key)
	}
	return nil
}

// Get returns the raw value stored at key.
func (s *State) Get(key Key) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Entity returns the resolved entity at key, if any.
func (s *State) Entity(key Key) (any, bool) {
	if s == nil {
		return nil, false
	}
	e, ok := s.entities[key]
	return e, ok
}

// Delete clears key.
func (s *State) Delete(key Key) {
	delete(s.values, key)
	delete(s.entities, key)
}

// Len returns the number of stored keys.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Clone copies the bag. Entities are shared, not copied.
func (s *State) Clone() *State {
	c := NewState()
	if s == nil {
		return c
	}
	for k, v := range s.values {
		c.values[k] = v
	}
	for k, e := range s.entities {
		c.entities[k] = e
	}
	return c
}

// Values returns a copy of the raw values.
func (s *State) Values() map[Key]string {
	out := make(map[Key]string, s.Len())
	if s == nil {
		return out
	}
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Params renders the raw values as route parameters.
func (s *State) Params() map[string]string {
	out := make(map[string]string, s.Len())
	if s == nil {
		return out
	}
	for k, v := range s.values {
		out[string(k)] = v
	}
	return out
}

// Title returns the display title, if set.
func (s *State) Title() string {
	v, _ := s.Get(KeyTitle)
	return v
}

// Unit returns the bound unit.
func (s *State) Unit() (*Unit, bool) {
	e, _ := s.Entity(KeyUnit)
	u, ok := e.(*Unit)
	return u, ok
}

// UnitLesson returns the bound unit lesson.
func (s *State) UnitLesson() (*UnitLesson, bool) {
	e, _ := s.Entity(KeyUnitLesson)
	ul, ok := e.(*UnitLesson)
	return ul, ok
}

// LiveSession returns the bound live session.
func (s *State) LiveSession() (*LiveSession, bool) {
	e, _ := s.Entity(KeyLiveSession)
	ls, ok := e.(*LiveSession)
	return ls, ok
}

// LiveQuestion returns the bound (last seen) live question.
func (s *State) LiveQuestion() (*LiveQuestion, bool) {
	e, _ := s.Entity(KeyLiveQuestion)
	q, ok := e.(*LiveQuestion)
	return q, ok
}

// MarshalJSON persists the raw values only.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON rejects unknown keys.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw map[Key]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = *NewState()
	for k, v := range raw {
		if err := s.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Seed is the wire shape of request-supplied initial state.
type Seed struct {
	Unit         string `mapstructure:"unit" json:"unit,omitempty"`
	UnitLesson   string `mapstructure:"unitLesson" json:"unitLesson,omitempty"`
	LiveSession  string `mapstructure:"liveSession" json:"liveSession,omitempty"`
	LiveQuestion string `mapstructure:"liveQuestion" json:"liveQuestion,omitempty"`
	Title        string `mapstructure:"title" json:"title,omitempty"`
}

// State converts the seed into a bag, skipping empty fields.
func (sd Seed) State() *State {
	s := NewState()
	for k, v := range map[Key]string{
		KeyUnit:         sd.Unit,
		KeyUnitLesson:   sd.UnitLesson,
		KeyLiveSession:  sd.LiveSession,
		KeyLiveQuestion: sd.LiveQuestion,
		KeyTitle:        sd.Title,
	} {
		if v != "" {
			s.values[k] = v
		}
	}
	return s
}

// SeedFromMap decodes loosely typed input (JSON bodies, tool arguments) into a bag.
// Numeric ids are accepted; unrecognized keys fail with ErrUnknownStateKey.
func SeedFromMap(m map[string]any) (*State, error) {
	if len(m) == 0 {
		return NewState(), nil
	}
	var seed Seed
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &seed,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		for k := range m {
			if _, ok := stateKeys[Key(k)]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownStateKey, k)
			}
		}
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return seed.State(), nil
}
