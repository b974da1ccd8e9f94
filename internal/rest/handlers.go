package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quantflow/pushhub"
	"github.com/quantflow/pushhub/internal/metrics"
	"github.com/quantflow/pushhub/types"
)

// timeoutBody is the distinguished body for expired long-polls. Expiry is a
// routine event, not an HTTP error; clients silently retry on it.
const timeoutBody = "TIMEOUT"

// Handlers contains the REST API handlers.
type Handlers struct {
	manager     *pushhub.Manager
	logger      types.Logger
	metrics     types.MetricsCollector
	pollTimeout time.Duration
}

// NewHandlers creates the handlers for a manager. A nil collector discards
// the transport metrics.
func NewHandlers(manager *pushhub.Manager, logger types.Logger, collector types.MetricsCollector, pollTimeout time.Duration) *Handlers {
	if collector == nil {
		collector = metrics.NewNop()
	}

	return &Handlers{
		manager:     manager,
		logger:      logger,
		metrics:     collector,
		pollTimeout: pollTimeout,
	}
}

// userFrom returns the authenticated user supplied by the transport layer.
// Authentication itself happens upstream; this layer only reads the result.
func userFrom(r *http.Request) string {
	return r.Header.Get("X-User")
}

// HandleHandshake handles GET /handshake.
func (h *Handlers) HandleHandshake(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if user == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)

		return
	}

	clientID, err := h.manager.Handshake(user)
	if err != nil {
		h.writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, clientID)
}

// HandlePoll handles GET /updates/{clientId}: the long-poll itself. The
// manager call returns immediately; this handler is what actually parks by
// blocking until the request is resumed, times out, or the client goes away.
func (h *Handlers) HandlePoll(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if user == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)

		return
	}

	req := newPendingRequest(h.pollTimeout)
	if err := h.manager.Attach(user, Param(r, "clientId"), req); err != nil {
		h.writeError(w, err)

		return
	}

	res := req.wait(r.Context())
	if res.Kind == types.ResultTimeout {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, timeoutBody)

		return
	}

	h.writeJSON(w, updatesResponse{Updates: res.Updates})
}

// updatesResponse is the resume payload of a long-poll.
type updatesResponse struct {
	Updates []string `json:"updates"`
}

// MarshalJSON renders a nil batch as an empty array rather than null.
func (u updatesResponse) MarshalJSON() ([]byte, error) {
	type alias updatesResponse
	if u.Updates == nil {
		u.Updates = []string{}
	}

	return json.Marshal(alias(u))
}

// HandleSubscribe handles POST /updates/{clientId}: the body lists URLs to
// arm as fire-once subscriptions, either as a JSON array or separated by
// newlines. A URL of the form /masters/{type} arms a master subscription;
// any other URL arms an entity subscription keyed by its last path segment.
func (h *Handlers) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if user == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)

		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)

		return
	}

	urls, err := parseSubscriptionURLs(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	clientID := Param(r, "clientId")
	for _, u := range urls {
		if master, ok := masterFromURL(u); ok {
			err = h.manager.SubscribeMaster(user, clientID, master, u)
		} else {
			err = h.manager.Subscribe(user, clientID, objectIDFromURL(u), u)
		}
		if err != nil {
			h.writeError(w, err)

			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseSubscriptionURLs accepts a JSON array of strings or a
// newline-separated list.
func parseSubscriptionURLs(body []byte) ([]string, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, errors.New("empty subscription body")
	}

	if strings.HasPrefix(trimmed, "[") {
		var urls []string
		if err := json.Unmarshal([]byte(trimmed), &urls); err != nil {
			return nil, errors.New("malformed subscription JSON")
		}

		return urls, nil
	}

	var urls []string
	for _, line := range strings.Split(trimmed, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}

	return urls, nil
}

// masterFromURL reports whether the URL addresses a whole master.
func masterFromURL(u string) (types.MasterType, bool) {
	parts := strings.Split(strings.Trim(u, "/"), "/")
	if len(parts) == 2 && parts[0] == "masters" {
		master := types.MasterType(parts[1])
		if master.Valid() {
			return master, true
		}
	}

	return "", false
}

// objectIDFromURL extracts the entity identifier: the last path segment.
func objectIDFromURL(u string) string {
	parts := strings.Split(strings.Trim(u, "/"), "/")

	return parts[len(parts)-1]
}

// viewportRequest is the POST /viewports body.
type viewportRequest struct {
	Target      string `json:"target"`
	FirstRow    int    `json:"firstRow"`
	LastRow     int    `json:"lastRow"`
	FirstColumn int    `json:"firstColumn"`
	LastColumn  int    `json:"lastColumn"`
	Running     bool   `json:"running"`
	Mode        string `json:"mode"`
}

// HandleCreateViewport handles POST /viewports?clientId=...
func (h *Handlers) HandleCreateViewport(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if user == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)

		return
	}

	var vr viewportRequest
	if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
		http.Error(w, "malformed viewport definition", http.StatusBadRequest)

		return
	}

	mode := types.ModeSummary
	if vr.Mode != "" {
		var err error
		if mode, err = types.ParseConversionMode(vr.Mode); err != nil {
			http.Error(w, "unknown conversion mode", http.StatusBadRequest)

			return
		}
	}

	spec := types.ViewportSpec{
		Target:      vr.Target,
		FirstRow:    vr.FirstRow,
		LastRow:     vr.LastRow,
		FirstColumn: vr.FirstColumn,
		LastColumn:  vr.LastColumn,
		Running:     vr.Running,
		Mode:        mode,
	}

	viewportID, _, _, err := h.manager.CreateViewport(r.Context(), user, r.URL.Query().Get("clientId"), spec)
	if err != nil {
		h.writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "/viewports/"+viewportID)
}

// HandleGridStructure handles GET /viewports/{id}/gridStructure.
func (h *Handlers) HandleGridStructure(w http.ResponseWriter, r *http.Request) {
	h.writeViewportSnapshot(w, r, func(vp types.Viewport) json.RawMessage {
		return vp.GridStructure()
	})
}

// HandleData handles GET /viewports/{id}/data.
func (h *Handlers) HandleData(w http.ResponseWriter, r *http.Request) {
	h.writeViewportSnapshot(w, r, func(vp types.Viewport) json.RawMessage {
		return vp.Data()
	})
}

func (h *Handlers) writeViewportSnapshot(w http.ResponseWriter, r *http.Request, snapshot func(types.Viewport) json.RawMessage) {
	user := userFrom(r)
	if user == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)

		return
	}

	vp, err := h.manager.Viewport(user, Param(r, "id"))
	if err != nil {
		h.writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(snapshot(vp))
}

// HandleSetRunning handles POST /viewports/{id}/running?run=bool.
func (h *Handlers) HandleSetRunning(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if user == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)

		return
	}

	run, err := strconv.ParseBool(r.URL.Query().Get("run"))
	if err != nil {
		http.Error(w, "run must be a boolean", http.StatusBadRequest)

		return
	}

	vp, err := h.manager.Viewport(user, Param(r, "id"))
	if err != nil {
		h.writeError(w, err)

		return
	}
	if err := vp.SetRunning(run); err != nil {
		h.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleSetMode handles POST /viewports/{id}/mode?mode=<enum>.
func (h *Handlers) HandleSetMode(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if user == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)

		return
	}

	mode, err := types.ParseConversionMode(r.URL.Query().Get("mode"))
	if err != nil {
		http.Error(w, "unknown conversion mode", http.StatusBadRequest)

		return
	}

	vp, err := h.manager.Viewport(user, Param(r, "id"))
	if err != nil {
		h.writeError(w, err)

		return
	}
	if err := vp.SetMode(mode); err != nil {
		h.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleActivate handles POST /viewports/{id}/activate?clientId=...
func (h *Handlers) HandleActivate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if user == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)

		return
	}

	err := h.manager.ActivateViewport(user, r.URL.Query().Get("clientId"), Param(r, "id"))
	if err != nil {
		h.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleClose handles DELETE /updates/{clientId}: explicit disconnect.
func (h *Handlers) HandleClose(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if user == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)

		return
	}

	if err := h.manager.Close(user, Param(r, "clientId")); err != nil {
		h.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeError maps core errors onto HTTP responses. Forbidden deliberately
// renders the same 404 as a missing reference so session existence is not
// leaked to other users.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrUnknownClient),
		errors.Is(err, types.ErrForbidden),
		errors.Is(err, types.ErrUnknownViewport):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, types.ErrInvalidConfig):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, types.ErrNotStarted):
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
	default:
		h.logger.Error("request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		// The update stays represented by the resource's stale state and is
		// re-notified on the next real change, so nothing is permanently lost.
		h.metrics.RecordEncodingFailure()
		h.logger.Error("failed to encode response, dropping delivery", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(data)
}
