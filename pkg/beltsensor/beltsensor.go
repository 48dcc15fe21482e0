// Package beltsensor is a thin client for the optional belt-tension sensor
// service (spec §1: "out of scope"; the core only consumes the oracle
// belt_tensioned(side) -> bool). Modeled as a small HTTP polling client in
// the style of the teacher codebase's pkg/http/client.go gateway client.
package beltsensor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rockit-astro/domed/pkg/shutter"
)

// Client answers whether a side's belt is currently tensioned.
type Client interface {
	Tensioned(side shutter.Side) (bool, error)
}

// HTTPClient queries a networked belt-sensor service, one sensor name per
// side (config's belt_sensors / domealert_* fields).
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	sensors    map[shutter.Side]string // side -> sensor name
}

// NewHTTPClient constructs a client against baseURL (e.g.
// "http://host:port"), with sensors mapping side to sensor name.
func NewHTTPClient(baseURL string, sensors map[shutter.Side]string) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		sensors:    sensors,
	}
}

type tensionResponse struct {
	Tensioned bool `json:"tensioned"`
}

// Tensioned queries the service for the given side's sensor. Returns an
// error if no sensor is bound to the side, or the request fails.
func (c *HTTPClient) Tensioned(side shutter.Side) (bool, error) {
	sensor, ok := c.sensors[side]
	if !ok {
		return false, fmt.Errorf("beltsensor: no sensor bound for side %q", string(side))
	}

	url := fmt.Sprintf("%s/sensor/%s/tensioned", c.baseURL, sensor)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return false, fmt.Errorf("beltsensor: query %s: %w", sensor, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("beltsensor: %s returned status %d", sensor, resp.StatusCode)
	}

	var out tensionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("beltsensor: decoding response from %s: %w", sensor, err)
	}
	return out.Tensioned, nil
}
