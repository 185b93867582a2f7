package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/YuminosukeSato/bcpredict/chart"
	"github.com/YuminosukeSato/bcpredict/dataset"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
	"github.com/YuminosukeSato/bcpredict/pkg/log"
)

const (
	maxBodyBytes = 64 << 10
	writeWait    = 10 * time.Second
)

// PredictRequest carries the measurements either keyed by column name or as
// an ordered list of 30 values. Exactly one of the two must be set.
type PredictRequest struct {
	Features map[string]float64 `json:"features,omitempty"`
	Values   []float64          `json:"values,omitempty"`
}

// Record converts the request into a FeatureRecord.
func (r PredictRequest) Record() (dataset.FeatureRecord, error) {
	switch {
	case r.Features != nil && r.Values != nil:
		return dataset.FeatureRecord{}, errors.NewValueError("PredictRequest", "set either features or values, not both")
	case r.Features != nil:
		return dataset.RecordFromMap(r.Features)
	case r.Values != nil:
		return dataset.RecordFromSlice(r.Values)
	default:
		return dataset.FeatureRecord{}, errors.NewValueError("PredictRequest", "features or values are required")
	}
}

// PredictResponse is the diagnosis with the chart it is shown next to.
type PredictResponse struct {
	Label                string           `json:"label"`
	Diagnosis            string           `json:"diagnosis"`
	ProbabilityBenign    float64          `json:"probability_benign"`
	ProbabilityMalignant float64          `json:"probability_malignant"`
	Chart                chart.RadarChart `json:"chart"`

	// SVG is the base64 encoded chart. Only websocket replies carry it.
	SVG string `json:"svg,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type pageData struct {
	Title       string
	Sidebar     string
	Description string
	Disclaimer  string
	Sliders     []Slider
	Result      PredictResponse
	ChartURL    template.URL
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps an error to the response status: bad input is the
// client's fault, an expired context means the server ran out of time.
func statusFor(err error) int {
	var (
		ve *errors.ValidationError
		de *errors.DimensionError
		xe *errors.ValueError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &de), errors.As(err, &xe):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// evaluate classifies rec and builds its chart. withSVG also renders the
// chart through the cache.
func (s *Server) evaluate(ctx context.Context, rec dataset.FeatureRecord, withSVG bool) (PredictResponse, error) {
	p, err := s.svc.Predict(ctx, rec)
	if err != nil {
		return PredictResponse{}, err
	}
	radar, err := s.norm.Radar(rec)
	if err != nil {
		return PredictResponse{}, err
	}
	resp := PredictResponse{
		Label:                p.Label.String(),
		Diagnosis:            p.Label.Display(),
		ProbabilityBenign:    p.ProbabilityBenign,
		ProbabilityMalignant: p.ProbabilityMalignant,
		Chart:                radar,
	}
	if withSVG {
		svg, err := s.cache.SVG(radar)
		if err != nil {
			return PredictResponse{}, err
		}
		resp.SVG = base64.StdEncoding.EncodeToString(svg)
	}
	return resp, nil
}

// fail writes err as a JSON error. Internal failures are logged and their
// details withheld from the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op, err, log.RequestIDKey, RequestID(r.Context()))
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	result, err := s.evaluate(r.Context(), s.defaults, true)
	if err != nil {
		s.logger.Error("Render index", err, log.RequestIDKey, RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	data := pageData{
		Title:       PageTitle,
		Sidebar:     SidebarText,
		Description: Description,
		Disclaimer:  Disclaimer,
		Sliders:     s.sliders,
		Result:      result,
		ChartURL:    template.URL("data:image/svg+xml;base64," + result.SVG),
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logger.Error("Execute template", err, log.RequestIDKey, RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleFeatures(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sliders)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"reloads": s.svc.Reloads(),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := req.Record()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.evaluate(r.Context(), rec, false)
	if err != nil {
		s.fail(w, r, "Predict", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseValues reads a comma separated list of 30 measurements.
func parseValues(raw string) (dataset.FeatureRecord, error) {
	if raw == "" {
		return dataset.FeatureRecord{}, errors.NewValueError("parseValues", "query parameter v is required")
	}
	parts := strings.Split(raw, ",")
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return dataset.FeatureRecord{}, errors.NewValidationError(dataset.FeatureKeys()[min(i, dataset.NumFeatures-1)], "not a number", p)
		}
		values[i] = v
	}
	return dataset.RecordFromSlice(values)
}

func (s *Server) handleRadar(w http.ResponseWriter, r *http.Request) {
	rec, err := parseValues(r.URL.Query().Get("v"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	radar, err := s.norm.Radar(rec)
	if err != nil {
		s.fail(w, r, "Radar", err)
		return
	}
	svg, err := s.cache.SVG(radar)
	if err != nil {
		s.logger.Error("Render radar", err, log.RequestIDKey, RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(svg)
}

// handleWS answers every PredictRequest message with a PredictResponse, or
// an error object, until the client leaves or the server shuts down.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "error", err.Error(), log.RequestIDKey, RequestID(r.Context()))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.closing:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			_ = conn.Close()
		case <-done:
		}
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("Websocket closed", "error", err.Error(), log.RequestIDKey, RequestID(ctx))
			}
			return
		}

		reply := s.answer(ctx, data)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (s *Server) answer(ctx context.Context, data []byte) any {
	var req PredictRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && err != io.EOF {
		return errorResponse{Error: "invalid message: " + err.Error()}
	}
	rec, err := req.Record()
	if err != nil {
		return errorResponse{Error: err.Error()}
	}
	resp, err := s.evaluate(ctx, rec, true)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			s.logger.Error("Websocket predict", err, log.RequestIDKey, RequestID(ctx))
			return errorResponse{Error: "internal server error"}
		}
		return errorResponse{Error: err.Error()}
	}
	return resp
}
