package heartbeat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeSample(t *testing.T) {
	cases := []struct {
		name string
		in   byte
		want State
	}{
		{"tripped closing", 254, State{Kind: TrippedClosing}},
		{"tripped idle", 255, State{Kind: TrippedIdle}},
		{"disabled", 0, State{Kind: Disabled}},
		{"active one tick", 1, State{Kind: Active, Remaining: 0.5}},
		{"active two ticks", 2, State{Kind: Active, Remaining: 1}},
		{"active near max", 253, State{Kind: Active, Remaining: 126.5}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, DecodeSample(c.in))
		})
	}
}

func TestStateTripped(t *testing.T) {
	assert.True(t, State{Kind: TrippedClosing}.Tripped())
	assert.True(t, State{Kind: TrippedIdle}.Tripped())
	assert.False(t, State{Kind: Active}.Tripped())
	assert.False(t, State{Kind: Disabled}.Tripped())
	assert.False(t, State{Kind: Unavailable}.Tripped())
}

func TestValidTimeout(t *testing.T) {
	assert.True(t, ValidTimeout(0))
	assert.True(t, ValidTimeout(1))
	assert.True(t, ValidTimeout(119))
	assert.False(t, ValidTimeout(120))
	assert.False(t, ValidTimeout(-1))
}

func TestArmByte(t *testing.T) {
	assert.Equal(t, byte(0), ArmByte(0))
	assert.Equal(t, byte(120), ArmByte(60))
	assert.Equal(t, byte(238), ArmByte(119))
}

func TestStoreSetReportsChange(t *testing.T) {
	s := NewStore()
	assert.Equal(t, Unavailable, s.Get().Kind)

	prev, changed := s.Set(State{Kind: Active, Remaining: 10})
	assert.Equal(t, Unavailable, prev.Kind)
	assert.True(t, changed)

	prev, changed = s.Set(State{Kind: Active, Remaining: 9.5})
	assert.Equal(t, Active, prev.Kind)
	assert.False(t, changed)
}

func TestLegacyRecoverySteps(t *testing.T) {
	assert.Equal(t, []byte{'A', 'B'}, LegacyRecoverySteps())
}
