package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxRequestBody caps the request body size for protobuf, JSON and form
// payloads.  Notes are the largest field; 64 KiB leaves plenty of room.
const maxRequestBody = 64 << 10

const protobufContentType = "application/x-protobuf"

// isProtobuf returns true if the request's Content-Type indicates a
// protobuf payload.
func isProtobuf(r *http.Request) bool {
	return isProtobufType(mediaType(r.Header.Get("Content-Type")))
}

// wantsProtobuf returns true if the client asked for protobuf responses,
// either explicitly via Accept or implicitly by sending protobuf.
func wantsProtobuf(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		if isProtobufType(mediaType(part)) {
			return true
		}
	}
	return isProtobuf(r)
}

func isProtobufType(mt string) bool {
	return mt == "application/x-protobuf" ||
		mt == "application/protobuf" ||
		mt == "application/octet-stream"
}

func mediaType(v string) string {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(v))
	if err != nil {
		return ""
	}
	return mt
}

// readProto reads the request body and unmarshals it into msg.
func readProto(r *http.Request, msg proto.Message) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return err
	}
	return proto.Unmarshal(body, msg)
}

// readProtoInto decodes a google.protobuf.Struct body into dst, using dst's
// JSON field names.
func readProtoInto(r *http.Request, dst any) error {
	var st structpb.Struct
	if err := readProto(r, &st); err != nil {
		return err
	}
	raw, err := json.Marshal(st.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// writeProto marshals msg and writes it with the given HTTP status.
func writeProto(w http.ResponseWriter, status int, msg proto.Message) {
	data, err := proto.Marshal(msg)
	if err != nil {
		// Fall back to a plain-text error if marshalling fails.
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", protobufContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// toProtoValue converts a JSON-tagged payload into a google.protobuf.Value
// with the same shape as its JSON encoding.
func toProtoValue(payload any) (*structpb.Value, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	v, err := structpb.NewValue(generic)
	if err != nil {
		return nil, fmt.Errorf("structpb: %w", err)
	}
	return v, nil
}
