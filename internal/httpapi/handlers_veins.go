package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

type searchResponse struct {
	Veins []types.ResolvedVein `json:"veins"`
	Count int                  `json:"count"`
}

type statusRequest struct {
	QueryState string `json:"query_state,omitempty"`
}

type statusResponse struct {
	Entry    types.StatusEntry  `json:"entry"`
	Vein     types.ResolvedVein `json:"vein"`
	Redirect string             `json:"redirect"`
}

type noteRequest struct {
	Note *string `json:"note"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := types.SearchQuery{
		Name:           r.URL.Query().Get("name"),
		IncludeRevoked: parseBool(r.URL.Query().Get("include_revoked")),
	}

	veins, err := s.query.Search(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, r, "search", err)
		return
	}
	respond(w, r, http.StatusOK, searchResponse{Veins: veins, Count: len(veins)})
}

func (s *Server) handleAddVein(w http.ResponseWriter, r *http.Request) {
	var in types.CreateVeinInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	v, err := s.mutation.CreateVein(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, "add vein", err)
		return
	}

	rv, err := s.query.Get(r.Context(), v.ID)
	if err != nil {
		s.writeServiceError(w, r, "add vein", err)
		return
	}
	respond(w, r, http.StatusCreated, rv)
}

func (s *Server) handleGetVein(w http.ResponseWriter, r *http.Request) {
	rv, err := s.query.Get(r.Context(), chi.URLParam(r, "vein_id"))
	if err != nil {
		s.writeServiceError(w, r, "get vein", err)
		return
	}
	respond(w, r, http.StatusOK, rv)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.query.History(r.Context(), chi.URLParam(r, "vein_id"))
	if err != nil {
		s.writeServiceError(w, r, "history", err)
		return
	}
	respond(w, r, http.StatusOK, h)
}

// handleSetStatus serves both /{dimension}/set (value true) and
// /{dimension}/revoke (value false).
func (s *Server) handleSetStatus(value bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dim, ok := types.ParseDimension(chi.URLParam(r, "dimension"))
		if !ok {
			writeError(w, r, http.StatusBadRequest, "invalid_dimension", "unknown status dimension")
			return
		}

		var req statusRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
			return
		}
		if req.QueryState == "" {
			req.QueryState = r.URL.Query().Get("query_state")
		}

		veinID := chi.URLParam(r, "vein_id")
		entry, err := s.mutation.SetStatus(r.Context(), dim, veinID, value)
		if err != nil {
			s.writeServiceError(w, r, "set "+dim.Key(), err)
			return
		}

		rv, err := s.query.Get(r.Context(), veinID)
		if err != nil {
			s.writeServiceError(w, r, "set "+dim.Key(), err)
			return
		}

		respond(w, r, http.StatusOK, statusResponse{
			Entry:    entry,
			Vein:     rv,
			Redirect: searchRedirect(req.QueryState),
		})
	}
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.Note == nil {
		writeError(w, r, http.StatusBadRequest, "invalid_note", "note is required")
		return
	}

	entry, err := s.mutation.AddNote(r.Context(), chi.URLParam(r, "vein_id"), *req.Note)
	if err != nil {
		s.writeServiceError(w, r, "add note", err)
		return
	}
	respond(w, r, http.StatusCreated, entry)
}

// searchRedirect rebuilds the caller's search page from the opaque state it
// passed along.  The state is not interpreted.
func searchRedirect(queryState string) string {
	queryState = strings.TrimPrefix(strings.TrimSpace(queryState), "?")
	if queryState == "" {
		return "/search"
	}
	return "/search?" + queryState
}

// decodeOptionalBody is decodeBody for endpoints whose body may be empty.
func decodeOptionalBody(r *http.Request, dst any) error {
	if r.ContentLength == 0 {
		return nil
	}
	if err := decodeBody(r, dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
