package server

import (
	"encoding/json"
	"net/http"

	"marquee/internal/logging"
	"marquee/internal/movies"
)

// pagination mirrors the listing envelope's page block.
type pagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// envelope is the uniform response shape. Source names the tier that
// produced the data; Error is only present on failures.
type envelope struct {
	Success    bool           `json:"success"`
	Data       any            `json:"data,omitempty"`
	Pagination *pagination    `json:"pagination,omitempty"`
	Source     movies.Source  `json:"source,omitempty"`
	Error      string         `json:"error,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", logging.Error(err))
	}
}

func (s *Server) writeData(w http.ResponseWriter, data any, source movies.Source) {
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Source: source})
}

func (s *Server) writeList(w http.ResponseWriter, result *movies.ListResult) {
	s.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    result.Movies,
		Pagination: &pagination{
			CurrentPage: result.Page,
			TotalPages:  result.TotalPages,
		},
		Source: result.Source,
	})
}

// writeError reports a failure. Internal detail only leaks in debug mode;
// production responses carry the generic message.
func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		s.logger.Error("request failed", logging.Int("status", status), logging.Error(err))
		if s.debug {
			message = message + ": " + err.Error()
		}
	}
	s.writeJSON(w, status, envelope{Success: false, Error: message})
}
