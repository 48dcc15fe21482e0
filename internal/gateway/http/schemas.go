package http

// openRequest is the body of POST /open_shutters.
type openRequest struct {
	Sides string `json:"sides"`
	Steps int    `json:"steps,omitempty"`
}

// closeRequest is the body of POST /close_shutters.
type closeRequest struct {
	Sides string `json:"sides"`
	Steps int    `json:"steps,omitempty"`
}

// engineeringRequest is the body of POST /engineering_mode.
type engineeringRequest struct {
	Enabled bool `json:"enabled"`
}

// heartbeatTimerRequest is the body of POST /heartbeat/timer.
type heartbeatTimerRequest struct {
	Timeout int `json:"timeout"`
}

// heartbeatSirenRequest is the body of POST /heartbeat/siren.
type heartbeatSirenRequest struct {
	Enabled bool `json:"enabled"`
}

// outcomeResponse is returned by every command endpoint.
type outcomeResponse struct {
	Outcome string `json:"outcome"`
}

// statusResponse is returned by GET /status.
type statusResponse struct {
	ShutterA      string  `json:"shutter_a"`
	ShutterB      string  `json:"shutter_b"`
	ShutterALabel string  `json:"shutter_a_label"`
	ShutterBLabel string  `json:"shutter_b_label"`
	Closed        bool    `json:"closed"`
	Date          string  `json:"date"`
	Engineering   bool    `json:"engineering_mode"`
	Heartbeat     string  `json:"heartbeat_status"`
	Remaining     float64 `json:"heartbeat_remaining,omitempty"`
	HeartbeatDate string  `json:"heartbeat_date"`
	SirenEnabled  bool    `json:"siren_enabled"`
	BeltA         *bool   `json:"belt_a_tensioned,omitempty"`
	BeltB         *bool   `json:"belt_b_tensioned,omitempty"`
}

// errorResponse is written whenever a handler cannot be processed at all
// (bad JSON, unknown route) — distinct from a well-formed request that
// simply returns a non-Succeeded outcome.
type errorResponse struct {
	Error string `json:"error"`
}
