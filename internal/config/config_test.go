package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
	"shutter_port": {"path": "/dev/ttyS0", "baud": 9600},
	"heartbeat_port": {"path": "/dev/ttyS1", "baud": 9600},
	"read_timeout": 2,
	"command_delay": 0.5,
	"step_command_delay": 2.0,
	"shutter_timeout": 60,
	"has_legacy_controller": false,
	"has_bumper_guard": true,
	"slow_open_steps": 5,
	"sides": {"east": "a", "west": "b", "both": "ab"},
	"side_labels": {"a": "east", "b": "west"},
	"invert_on_close": true,
	"control_ips": ["10.0.0.5"]
}`

func TestParseValid(t *testing.T) {
	view, err := Parse([]byte(validDoc))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyS0", view.ShutterPort.Path)
	assert.Equal(t, 2*time.Second, view.ReadTimeout)
	assert.Equal(t, 500*time.Millisecond, view.CommandDelay)
	assert.Equal(t, 2*time.Second, view.StepCommandDelay)
	assert.Equal(t, 5, view.SlowOpenSteps)
	assert.True(t, view.Authorized("10.0.0.5"))
	assert.False(t, view.Authorized("10.0.0.6"))
}

func TestParseDefaultsDelays(t *testing.T) {
	doc := `{
		"shutter_port": {"path": "/dev/ttyS0"},
		"heartbeat_port": {"path": "/dev/ttyS1"},
		"read_timeout": 2,
		"shutter_timeout": 60,
		"sides": {"east": "a"}
	}`
	view, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, defaultCommandDelay, view.CommandDelay)
	assert.Equal(t, defaultStepCommandDelay, view.StepCommandDelay)
	assert.Equal(t, 9600, view.ShutterPort.Baud)
}

func TestParseAccumulatesErrors(t *testing.T) {
	doc := `{
		"shutter_port": {"path": ""},
		"heartbeat_port": {"path": ""},
		"read_timeout": 0,
		"shutter_timeout": 0,
		"sides": {}
	}`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "shutter_port.path")
	assert.Contains(t, msg, "heartbeat_port.path")
	assert.Contains(t, msg, "read_timeout")
	assert.Contains(t, msg, "shutter_timeout")
	assert.Contains(t, msg, "sides mapping")
}

func TestParseRejectsBadSideLetters(t *testing.T) {
	doc := `{
		"shutter_port": {"path": "/dev/ttyS0"},
		"heartbeat_port": {"path": "/dev/ttyS1"},
		"read_timeout": 2,
		"shutter_timeout": 60,
		"sides": {"east": "c"}
	}`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid side letter")
}

func TestAuthorizedEmptyAllowlist(t *testing.T) {
	view := &View{}
	assert.True(t, view.Authorized("anything"))
}

func TestBeltSensorFor(t *testing.T) {
	view := &View{BeltSensors: map[string]string{"a": "east-tensioner"}}
	name, ok := view.BeltSensorFor('a')
	assert.True(t, ok)
	assert.Equal(t, "east-tensioner", name)
	_, ok = view.BeltSensorFor('b')
	assert.False(t, ok)
}
