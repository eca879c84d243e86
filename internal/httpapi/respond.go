package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/service"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respond writes payload as JSON, or as a google.protobuf.Value when the
// client negotiated protobuf.
func respond(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if !wantsProtobuf(r) {
		writeJSON(w, status, payload)
		return
	}
	v, err := toProtoValue(payload)
	if err != nil {
		http.Error(w, "proto encode error", http.StatusInternalServerError)
		return
	}
	writeProto(w, status, v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	respond(w, r, status, errorBody{Error: code, Message: msg})
}

// writeServiceError maps service and store errors onto HTTP statuses.
// Anything unrecognised is logged and reported as a 500 without details.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, r, http.StatusBadRequest, "invalid_"+ve.Field, ve.Message)
	case errors.Is(err, store.ErrVeinNotFound):
		writeError(w, r, http.StatusNotFound, "vein_not_found", "vein not found")
	case errors.Is(err, service.ErrInvalidInvitation):
		writeError(w, r, http.StatusBadRequest, "invalid_invitation", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden", err.Error())
	default:
		s.logger.Printf("%s error: %v", op, err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

// decodeBody fills dst from a protobuf Struct, a JSON object, or a form,
// depending on the request's Content-Type.  Form values are copied into the
// JSON-tagged fields of dst; unknown form keys are ignored.
func decodeBody(r *http.Request, dst any) error {
	if isProtobuf(r) {
		return readProtoInto(r, dst)
	}

	if mediaType(r.Header.Get("Content-Type")) == "application/json" {
		dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
		dec.DisallowUnknownFields()
		return dec.Decode(dst)
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)
	if err := r.ParseForm(); err != nil {
		return err
	}
	fields := make(map[string]any, len(r.PostForm))
	for key := range r.PostForm {
		v := r.PostForm.Get(key)
		if formBoolFields[key] {
			fields[key] = parseBool(v)
		} else {
			fields[key] = v
		}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// formBoolFields are the checkbox inputs of the add-vein form.
var formBoolFields = map[string]bool{
	"confirmed":  true,
	"depleted":   true,
	"is_bedrock": true,
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes":
		return true
	}
	b, _ := strconv.ParseBool(strings.TrimSpace(v))
	return b
}
