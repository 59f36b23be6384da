package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/liuzl/genproxy"
	"zliu.org/goutil/rest"
)

const (
	routeGenerate  = "generate"
	routeOperation = "operation"
	routeUpload    = "upload"

	uploadMemory = 8 << 20
)

// handleGenerate runs one generation request through the Dispatcher.
func (s *ProxyServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	startTime := time.Now()

	s.metrics.IncActiveRequests(routeGenerate)
	defer s.metrics.DecActiveRequests(routeGenerate)

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	req, err := genproxy.DecodeRequest(r.Body)
	if err != nil {
		s.handleError(w, r, routeGenerate, "", bodyError(err))
		return
	}

	model := req.Model
	if model == "" {
		model = s.dispatcher.DefaultModel()
	}
	profile := genproxy.Classify(model, req.PreferText).String()

	res, err := s.dispatcher.Generate(r.Context(), req)
	if err != nil {
		s.handleError(w, r, routeGenerate, profile, err)
		return
	}
	if res.Type == genproxy.ResultOperation {
		s.tracker.Track(res.OperationID, res.Model)
	}

	writeJSON(w, http.StatusOK, res)

	duration := time.Since(startTime)
	s.metrics.RecordRequest(routeGenerate, profile, "success", duration)
	event := rest.Log().Info()
	if res.Warning != "" {
		event = rest.Log().Warn().Str("warning", res.Warning)
	}
	event.
		Str("request_id", requestID).
		Dur("duration", duration).
		Str("model", res.Model).
		Str("profile", profile).
		Str("result_type", string(res.Type)).
		Int("images", len(req.AllImages())).
		Msg("generation completed")
}

// handleOperation relays one operation poll. The upstream body is written
// unchanged.
func (s *ProxyServer) handleOperation(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	operationID := r.URL.Query().Get("id")

	s.metrics.IncActiveRequests(routeOperation)
	defer s.metrics.DecActiveRequests(routeOperation)

	raw, err := s.poller.Poll(r.Context(), operationID, r.URL.Query().Get("key"))
	if err != nil {
		s.handleError(w, r, routeOperation, genproxy.ProfileVideo.String(), err)
		return
	}

	state := s.tracker.Observe(operationID, raw)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)

	duration := time.Since(startTime)
	s.metrics.RecordRequest(routeOperation, genproxy.ProfileVideo.String(), "success", duration)
	rest.Log().Info().
		Str("request_id", GetRequestID(r.Context())).
		Dur("duration", duration).
		Str("operation_id", operationID).
		Bool("done", state.Done).
		Msg("operation polled")
}

// uploadResponse is returned by /api/upload.
type uploadResponse struct {
	DataURI  string `json:"dataUri"`
	MimeType string `json:"mimeType"`
	Size     int    `json:"size"`
}

// handleUpload turns a multipart file into a data URI the generate route
// accepts.
func (s *ProxyServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		s.handleError(w, r, routeUpload, "", bodyError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.handleError(w, r, routeUpload, "", genproxy.NewValidationError("file required", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.handleError(w, r, routeUpload, "", bodyError(err))
		return
	}
	if len(data) == 0 {
		s.handleError(w, r, routeUpload, "", genproxy.NewValidationError("file is empty", nil))
		return
	}

	mimeType := genproxy.DetectMimeType(header.Header.Get("Content-Type"), header.Filename)
	writeJSON(w, http.StatusOK, uploadResponse{
		DataURI:  genproxy.EncodeDataURI(mimeType, data),
		MimeType: mimeType,
		Size:     len(data),
	})
	s.metrics.RecordRequest(routeUpload, "", "success", time.Since(startTime))
}

// modelInfo describes one configured model.
type modelInfo struct {
	Name        string `json:"name"`
	Profile     string `json:"profile"`
	Description string `json:"description,omitempty"`
}

// handleModels lists the configured models with their derived profiles.
func (s *ProxyServer) handleModels(w http.ResponseWriter, r *http.Request) {
	models := make([]modelInfo, len(s.config.Models))
	for i, m := range s.config.Models {
		models[i] = modelInfo{
			Name:        m.Name,
			Profile:     genproxy.Classify(m.Name, false).String(),
			Description: m.Description,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"models":  models,
		"default": s.dispatcher.DefaultModel(),
	})
}

// handleError handles error responses
func (s *ProxyServer) handleError(w http.ResponseWriter, r *http.Request, route, profile string, err error) {
	requestID := GetRequestID(r.Context())
	statusCode := genproxy.StatusCode(err)
	errorType := genproxy.ErrorType(err)

	s.metrics.RecordError(route, errorType)

	event := rest.Log().Error()
	if statusCode < http.StatusInternalServerError {
		event = rest.Log().Warn()
	}
	event.
		Str("request_id", requestID).
		Err(err).
		Int("status_code", statusCode).
		Str("route", route).
		Str("profile", profile).
		Str("error_type", errorType).
		Msg("request failed")

	writeJSON(w, statusCode, map[string]string{"error": err.Error()})
}

// bodyError classifies failures reading the request body.
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return genproxy.NewValidationError("request body too large", err)
	}
	var valErr *genproxy.ValidationError
	if errors.As(err, &valErr) {
		return valErr
	}
	return genproxy.NewValidationError("empty or invalid body", err)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rest.Log().Error().Err(err).Msg("failed to encode response")
	}
}
