package shutter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateClosedUnconditional(t *testing.T) {
	d := NewDecoder(false)
	d.Set(Open, Open)
	pair := d.Consume('0', nil, nil)
	assert.Equal(t, Closed, pair.A)
	assert.Equal(t, Closed, pair.B)
}

func TestAggregateNeverDemotesOpen(t *testing.T) {
	d := NewDecoder(false)
	d.Set(Open, Open)
	pair := d.Consume('3', nil, nil)
	assert.Equal(t, Open, pair.A)
	assert.Equal(t, Open, pair.B)
}

func TestAggregatePartialWhenNotOpen(t *testing.T) {
	d := NewDecoder(false)
	d.Set(Closing, Closing)
	pair := d.Consume('3', nil, nil)
	assert.Equal(t, PartiallyOpen, pair.A)
	assert.Equal(t, PartiallyOpen, pair.B)
}

func TestModernPerSideTransitions(t *testing.T) {
	d := NewDecoder(false)
	pair := d.Consume('a', nil, nil)
	assert.Equal(t, Opening, pair.A)
	pair = d.Consume('A', nil, nil)
	assert.Equal(t, Closing, pair.A)
	pair = d.Consume('x', nil, nil)
	assert.Equal(t, Open, pair.A)
	pair = d.Consume('X', nil, nil)
	assert.Equal(t, Closed, pair.A)
	pair = d.Consume('b', nil, nil)
	assert.Equal(t, Opening, pair.B)
	pair = d.Consume('Y', nil, nil)
	assert.Equal(t, Closed, pair.B)
}

func TestLegacyPerSideTransitionsArePartiallyOpen(t *testing.T) {
	d := NewDecoder(true)
	pair := d.Consume('a', nil, nil)
	assert.Equal(t, PartiallyOpen, pair.A)
	pair = d.Consume('A', nil, nil)
	assert.Equal(t, PartiallyOpen, pair.A)
}

func TestBumperResetCallback(t *testing.T) {
	d := NewDecoder(false)
	called := false
	d.Consume('R', nil, func() { called = true })
	assert.True(t, called)
}

func TestUnknownByteCallback(t *testing.T) {
	d := NewDecoder(false)
	var got byte
	d.Consume('Z', func(b byte) { got = b }, nil)
	assert.Equal(t, byte('Z'), got)
}

func TestUnknownByteDoesNotBreakStream(t *testing.T) {
	d := NewDecoder(false)
	d.Consume('Z', nil, nil)
	pair := d.Consume('0', nil, nil)
	assert.Equal(t, Closed, pair.A)
}

func TestNeverLeavesStatusOutsideEnum(t *testing.T) {
	d := NewDecoder(false)
	bytes := []byte("013aAbBxXyYRZ2")
	for _, b := range bytes {
		pair := d.Consume(b, nil, nil)
		assert.Contains(t, names, pair.A)
		assert.Contains(t, names, pair.B)
	}
}

func TestClosedBoth(t *testing.T) {
	p := Pair{A: Closed, B: Closed}
	assert.True(t, p.ClosedBoth())
	p.B = Open
	assert.False(t, p.ClosedBoth())
}
