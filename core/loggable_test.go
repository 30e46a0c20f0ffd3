package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoggable struct {
	params  Params
	metrics Metrics
}

func (f *fakeLoggable) Name() string     { return "fake" }
func (f *fakeLoggable) Params() Params   { return f.params }
func (f *fakeLoggable) Metrics() Metrics { return f.metrics }

func TestTakeSnapshot_CopiesMappings(t *testing.T) {
	src := &fakeLoggable{params: Params{"alpha": 0.1}, metrics: Metrics{"loss": 0.5}}

	snap := TakeSnapshot(src)
	snap.Params["alpha"] = 99
	snap.Metrics["loss"] = 99

	assert.Equal(t, "fake", snap.Name)
	assert.Equal(t, 0.1, src.params["alpha"])
	assert.Equal(t, 0.5, src.metrics["loss"])
}

func TestTakeSnapshot_NilMappingsBecomeEmpty(t *testing.T) {
	snap := TakeSnapshot(&fakeLoggable{})

	require.NotNil(t, snap.Params)
	require.NotNil(t, snap.Metrics)
	assert.Empty(t, snap.Params)
	assert.Empty(t, snap.Metrics)
}

func TestAsLoggable(t *testing.T) {
	l, ok := AsLoggable(&fakeLoggable{})
	assert.True(t, ok)
	assert.Equal(t, "fake", l.Name())

	_, ok = AsLoggable(nil)
	assert.False(t, ok)

	_, ok = AsLoggable("not loggable")
	assert.False(t, ok)

	var typedNil *fakeLoggable
	_, ok = AsLoggable(typedNil)
	assert.False(t, ok)
}

func TestIsNil(t *testing.T) {
	var ptr *fakeLoggable
	var m map[string]int
	var fn func()

	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(ptr))
	assert.True(t, IsNil(m))
	assert.True(t, IsNil(fn))
	assert.False(t, IsNil(&fakeLoggable{}))
	assert.False(t, IsNil(0))
	assert.False(t, IsNil(""))
}
