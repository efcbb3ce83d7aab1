package session

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"candyworks/internal/telemetry"
	"candyworks/internal/tycoon"
)

// Handler serves the factory HTTP API.
type Handler struct {
	session *Session
}

func NewHandler(s *Session) *Handler {
	return &Handler{session: s}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(out)
}

// StateResponse is the response for GET /api/tycoon/state.
type StateResponse struct {
	Session    string        `json:"session"`
	State      *tycoon.State `json:"state"`
	NextOffer  *tycoon.Offer `json:"next_offer,omitempty"`
	CanRebirth bool          `json:"can_rebirth"`
}

// GET /api/tycoon/state
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, 405, "method not allowed")
		return
	}
	writeJSON(w, 200, StateOf(h.session))
}

// StateOf builds the state payload shared by the HTTP API and the live stream.
func StateOf(s *Session) StateResponse {
	st := s.Snapshot()
	resp := StateResponse{Session: s.ID(), State: st, CanRebirth: st.CanRebirth()}
	if o, ok := st.NextOffer(); ok {
		resp.NextOffer = &o
	}
	return resp
}

// CommandRequest is the request body for POST /api/tycoon/cmd.
type CommandRequest struct {
	Cmd  string         `json:"cmd"`
	Args map[string]any `json:"args"`
}

// CommandResponse is the response for POST /api/tycoon/cmd.
type CommandResponse struct {
	OK      bool           `json:"ok"`
	Error   string         `json:"error,omitempty"`
	Refusal tycoon.Refusal `json:"refusal,omitempty"`
	Amount  int64          `json:"amount,omitempty"`
	State   *StateResponse `json:"state,omitempty"`
}

// POST /api/tycoon/cmd
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, 405, "method not allowed")
		return
	}

	var req CommandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, 400, "invalid json")
		return
	}

	switch strings.TrimSpace(req.Cmd) {
	case "purchase":
		offer, _ := req.Args["offer"].(string)
		if offer == "" {
			writeJSON(w, 400, CommandResponse{Error: "args.offer is required"})
			return
		}
		if refusal := h.session.Purchase(offer); refusal != tycoon.RefusalNone {
			writeJSON(w, refusalStatus(refusal), CommandResponse{Error: "purchase refused", Refusal: refusal})
			return
		}
		h.ok(w, 0)

	case "rebirth":
		if !h.session.Rebirth() {
			writeJSON(w, http.StatusPaymentRequired, CommandResponse{Error: "not enough money to rebirth", Refusal: tycoon.RefusalInsufficientFunds})
			return
		}
		h.ok(w, 0)

	case "collect":
		amount, ok := h.session.Collect()
		if !ok {
			writeJSON(w, http.StatusConflict, CommandResponse{Error: "collector is cooling down"})
			return
		}
		h.ok(w, amount)

	case "save":
		if err := h.session.Save(r.Context()); err != nil {
			writeJSON(w, 500, CommandResponse{Error: err.Error()})
			return
		}
		h.ok(w, 0)

	default:
		writeJSON(w, 400, CommandResponse{Error: "unknown command: " + req.Cmd})
	}
}

func (h *Handler) ok(w http.ResponseWriter, amount int64) {
	resp := StateOf(h.session)
	writeJSON(w, 200, CommandResponse{OK: true, Amount: amount, State: &resp})
}

func refusalStatus(r tycoon.Refusal) int {
	switch r {
	case tycoon.RefusalUnknownOffer:
		return http.StatusNotFound
	case tycoon.RefusalInsufficientFunds:
		return http.StatusPaymentRequired
	default:
		return http.StatusConflict
	}
}

// GET /api/tycoon/stats?since=RFC3339
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, 405, "method not allowed")
		return
	}
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeErr(w, 400, "since must be RFC3339")
			return
		}
		since = t
	}
	stats, err := h.session.Stats(since)
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, struct {
		telemetry.Stats
		Totals tycoon.Stats `json:"totals"`
	}{stats, h.session.Snapshot().Stats})
}
