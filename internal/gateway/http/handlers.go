package http

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

func (s *Server) handleStatus(w doneWriter, r *http.Request, authorized bool) {
	snap, err := s.sup.Status()
	if err != nil {
		log.Errorf("[HTTP] status: belt sensor query failed: %v", err)
	}
	resp := statusResponse{
		ShutterA:      snap.ShutterA.String(),
		ShutterB:      snap.ShutterB.String(),
		ShutterALabel: snap.ShutterALabel,
		ShutterBLabel: snap.ShutterBLabel,
		Closed:        snap.ClosedBoth,
		Date:          snap.StatusTime.UTC().Format(timeFormat),
		Engineering:   snap.Engineering,
		Heartbeat:     snap.Heartbeat.String(),
		Remaining:     snap.HeartbeatRemaining,
		HeartbeatDate: snap.HeartbeatTime.UTC().Format(timeFormat),
		SirenEnabled:  snap.SirenEnabled,
		BeltA:         snap.BeltATensioned,
		BeltB:         snap.BeltBTensioned,
	}
	writeJSON(&w, http.StatusOK, resp)
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func (s *Server) handleOpen(w doneWriter, r *http.Request, authorized bool) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(&w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	oc := s.sup.Open(authorized, req.Sides, req.Steps)
	writeJSON(&w, http.StatusOK, outcomeResponse{Outcome: oc.String()})
}

func (s *Server) handleClose(w doneWriter, r *http.Request, authorized bool) {
	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(&w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	oc := s.sup.Close(authorized, req.Sides, req.Steps)
	writeJSON(&w, http.StatusOK, outcomeResponse{Outcome: oc.String()})
}

func (s *Server) handleStop(w doneWriter, r *http.Request, authorized bool) {
	oc := s.sup.Stop(authorized)
	writeJSON(&w, http.StatusOK, outcomeResponse{Outcome: oc.String()})
}

func (s *Server) handleEngineeringMode(w doneWriter, r *http.Request, authorized bool) {
	var req engineeringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(&w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	oc := s.sup.SetEngineeringMode(authorized, req.Enabled)
	writeJSON(&w, http.StatusOK, outcomeResponse{Outcome: oc.String()})
}

func (s *Server) handleHeartbeatTimer(w doneWriter, r *http.Request, authorized bool) {
	var req heartbeatTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(&w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	oc := s.sup.SetHeartbeatTimer(authorized, req.Timeout)
	writeJSON(&w, http.StatusOK, outcomeResponse{Outcome: oc.String()})
}

func (s *Server) handleHeartbeatSiren(w doneWriter, r *http.Request, authorized bool) {
	var req heartbeatSirenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(&w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	oc := s.sup.SetHeartbeatSiren(authorized, req.Enabled)
	writeJSON(&w, http.StatusOK, outcomeResponse{Outcome: oc.String()})
}
