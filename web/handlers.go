package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"

	"roomchat/domain"
	"roomchat/domain/event"
	"roomchat/errors"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

type RoomOccupancy struct {
	Room    string `json:"room"`
	Members int    `json:"members"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) getUpload(w http.ResponseWriter, r *http.Request) {
	blob, content, err := s.relay.Fetch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer content.Close()

	etag := fmt.Sprintf("%q", blob.Checksum)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err = io.Copy(w, content); err != nil {
		s.log.Warn("Failed to stream media", "id", blob.ID, "error", err)
	}
}

func (s *Server) listRooms(w http.ResponseWriter, _ *http.Request) {
	rooms := lo.MapToSlice(s.occupancy.Rooms(), func(room string, members int) RoomOccupancy {
		return RoomOccupancy{Room: room, Members: members}
	})
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Room < rooms[j].Room })
	s.writeJSON(w, http.StatusOK, rooms)
}

// getHistory pages through a room with ?after=<id>&limit=<n>.
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	room := domain.NormalizeRoom(chi.URLParam(r, "room"))
	after, err := parseUint(r.URL.Query().Get("after"), 0)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: after must be a message id", errors.ErrInvalidMessage))
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	messages, err := s.store.Since(r.Context(), room, after, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, event.FromHistory(room, messages))
}

func (s *Server) searchRoom(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		s.writeJSON(w, http.StatusNotFound, apiError{Code: "search_disabled", Message: "search is not enabled"})
		return
	}
	text := r.URL.Query().Get("q")
	if text == "" {
		s.writeError(w, fmt.Errorf("%w: q is required", errors.ErrInvalidMessage))
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	hits, err := s.searcher.Search(r.Context(), domain.NormalizeRoom(chi.URLParam(r, "room")), text, limit)
	if err != nil {
		s.log.Error("Search failed", "error", err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, hits)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	report := s.health.Report(s.occupancy.Len(), s.occupancy.Rooms())
	status := http.StatusOK
	if !report.Ready {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, report)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrMediaNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidMessage):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrStoreUnavailable), errors.Is(err, errors.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, apiError{Code: errors.Code(err), Message: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("Failed to write response", "error", err)
	}
}

func parseUint(value string, fallback uint64) (uint64, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseUint(value, 10, 64)
}

func parseLimit(value string) (int, error) {
	if value == "" {
		return defaultPageSize, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive number", errors.ErrInvalidMessage)
	}
	return min(limit, maxPageSize), nil
}
