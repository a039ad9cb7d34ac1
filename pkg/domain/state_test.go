package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_ClosedKeys(t *testing.T) {
	s := domain.NewState()
	err := s.Set("color", "red")
	assert.ErrorIs(t, err, domain.ErrUnknownStateKey)

	err = s.Bind("color", "1", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownStateKey)
	assert.Equal(t, 0, s.Len())
}

func TestState_BindAndSet(t *testing.T) {
	s := domain.NewState()
	u := &domain.Unit{ID: "u1", Title: "Forces"}
	require.NoError(t, s.Bind(domain.KeyUnit, "u1", u))

	got, ok := s.Unit()
	require.True(t, ok)
	assert.Same(t, u, got)

	require.NoError(t, s.Set(domain.KeyUnit, "u2"))
	_, ok = s.Unit()
	assert.False(t, ok, "Set drops the stale entity")
	id, _ := s.Get(domain.KeyUnit)
	assert.Equal(t, "u2", id)

	s.Delete(domain.KeyUnit)
	_, ok = s.Get(domain.KeyUnit)
	assert.False(t, ok)
}

func TestState_CloneIsIndependent(t *testing.T) {
	s := domain.NewState()
	require.NoError(t, s.Set(domain.KeyTitle, "a"))
	c := s.Clone()
	require.NoError(t, c.Set(domain.KeyTitle, "b"))
	assert.Equal(t, "a", s.Title())
	assert.Equal(t, "b", c.Title())
}

func TestState_JSONPersistsIDsOnly(t *testing.T) {
	s := domain.NewState()
	require.NoError(t, s.Bind(domain.KeyLiveSession, "ls", &domain.LiveSession{ID: "ls"}))
	require.NoError(t, s.Set(domain.KeyTitle, "Live"))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"liveSession":"ls","title":"Live"}`, string(data))

	var back domain.State
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.Values(), back.Values())
	_, bound := back.LiveSession()
	assert.False(t, bound)

	err = json.Unmarshal([]byte(`{"bogus":"1"}`), &back)
	assert.ErrorIs(t, err, domain.ErrUnknownStateKey)
}

func TestSeedFromMap(t *testing.T) {
	s, err := domain.SeedFromMap(map[string]any{"unit": 42, "title": "Intro"})
	require.NoError(t, err)
	id, _ := s.Get(domain.KeyUnit)
	assert.Equal(t, "42", id)
	assert.Equal(t, "Intro", s.Title())
	_, ok := s.Get(domain.KeyLiveSession)
	assert.False(t, ok, "empty fields are not stored")

	_, err = domain.SeedFromMap(map[string]any{"unit": "1", "nope": true})
	assert.ErrorIs(t, err, domain.ErrUnknownStateKey)

	s, err = domain.SeedFromMap(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []domain.Key{"liveQuestion", "liveSession", "title", "unit", "unitLesson"}, domain.Keys())

	kind, ok := domain.KindOf(domain.KeyUnitLesson)
	assert.True(t, ok)
	assert.Equal(t, domain.KindUnitLesson, kind)

	kind, ok = domain.KindOf(domain.KeyTitle)
	assert.True(t, ok)
	assert.Empty(t, kind)
}
