package handlers

import (
	"io"
	"net/http"
	"sort"
	"strings"

	"imageeditor/internal/infra"
	"imageeditor/internal/intake"
)

var redactedHeaders = map[string]struct{}{
	"Authorization":  {},
	"Cookie":         {},
	"X-Goog-Api-Key": {},
}

// Debug logs the request headers and body length.
func (a *App) Debug(w http.ResponseWriter, r *http.Request) {
	log := infra.LoggerFrom(r.Context(), a.Logger)

	n, err := io.Copy(io.Discard, http.MaxBytesReader(w, r.Body, a.MaxMemory))
	if err != nil {
		log.Warn().Err(err).Msg("debug: failed to read body")
	}

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		if _, ok := redactedHeaders[name]; ok {
			headers[name] = "[redacted]"
			continue
		}
		headers[name] = strings.Join(values, ", ")
	}

	log.Info().
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Str("content_type", r.Header.Get("Content-Type")).
		Interface("headers", headers).
		Int64("body_length", n).
		Msg("debug request")

	a.json(w, http.StatusOK, statusResponse{Status: "ok", Message: "Debug info logged"})
}

type testJSONResponse struct {
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	ReceivedKeys []string `json:"receivedKeys"`
}

// TestJSON parses the form and echoes the field names it found.
func (a *App) TestJSON(w http.ResponseWriter, r *http.Request) {
	log := infra.LoggerFrom(r.Context(), a.Logger)

	keys, err := a.formKeys(r)
	if err != nil {
		log.Error().Err(err).Msg("test-json: failed to parse form")
		a.json(w, http.StatusInternalServerError, statusResponse{Status: "error", Message: err.Error()})
		return
	}
	log.Info().Strs("keys", keys).Msg("test-json: received form")

	a.json(w, http.StatusOK, testJSONResponse{
		Status:       "ok",
		Message:      "This is a test JSON response",
		ReceivedKeys: keys,
	})
}

// formKeys lists field names of a multipart or urlencoded body. Other
// content types carry no form fields.
func (a *App) formKeys(r *http.Request) ([]string, error) {
	if intake.IsMultipart(r.Header.Get("Content-Type")) {
		form, err := intake.ParseForm(r, a.MaxMemory)
		if err != nil {
			return nil, err
		}
		defer form.Close()
		return form.Keys(), nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(r.PostForm))
	for k := range r.PostForm {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
