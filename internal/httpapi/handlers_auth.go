package httpapi

import (
	"net/http"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

type healthResponse struct {
	Status     string `json:"status"`
	ServerTime string `json:"server_time"`
}

// handleHealthz reports liveness plus store reachability.  Protobuf clients
// get the server time as a google.protobuf.Timestamp; health is carried by
// the HTTP status alone.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	status, code := "ok", http.StatusOK
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			s.logger.Printf("healthz: %v", err)
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}

	if wantsProtobuf(r) {
		writeProto(w, code, timestamppb.New(now))
		return
	}
	writeJSON(w, code, healthResponse{Status: status, ServerTime: now.Format(time.RFC3339Nano)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	resp, err := s.auth.Login(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "login", err)
		return
	}

	s.setSessionCookie(w, resp.Token, resp.ExpiresAt)
	respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), sessionToken(r)); err != nil {
		s.writeServiceError(w, r, "logout", err)
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	// The invitation link carries the token in the query string.
	if req.Token == "" {
		req.Token = r.URL.Query().Get("token")
	}

	u, err := s.auth.Register(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "register", err)
		return
	}
	respond(w, r, http.StatusCreated, u)
}

func (s *Server) handleIssueInvitation(w http.ResponseWriter, r *http.Request) {
	var req types.InviteRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	inviter, _ := userFromContext(r.Context())
	inv, err := s.auth.IssueInvitation(r.Context(), inviter, req.Email, s.publicBaseURL)
	if err != nil {
		s.writeServiceError(w, r, "issue invitation", err)
		return
	}
	respond(w, r, http.StatusCreated, inv)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	respond(w, r, http.StatusOK, u)
}
