package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/facegate/internal/gate/types"
)

// maxEmbeddingsBody caps protobuf and JSON embedding payloads.  A 128-d
// float vector is ~1.2 KiB in protobuf; 1 MiB leaves room for a crowd.
const maxEmbeddingsBody = 1 << 20

// isProtobuf returns true if the request's Content-Type indicates a
// protobuf payload.
func isProtobuf(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "application/x-protobuf" ||
		ct == "application/protobuf" ||
		ct == "application/octet-stream"
}

// maxJSONBody caps small JSON control payloads.
const maxJSONBody = 4096

// readStruct reads the request body as a google.protobuf.Struct.  A body
// over the cap fails with *http.MaxBytesError.
func readStruct(w http.ResponseWriter, r *http.Request) (*structpb.Struct, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEmbeddingsBody))
	if err != nil {
		return nil, err
	}
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(body, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// embeddingsFromStruct maps {filename: string, embeddings: [[number]]}.
func embeddingsFromStruct(s *structpb.Struct) (types.EmbeddingsCaptureRequest, error) {
	fields := s.GetFields()
	req := types.EmbeddingsCaptureRequest{
		Filename: fields["filename"].GetStringValue(),
	}

	list := fields["embeddings"]
	if list == nil {
		return req, nil
	}
	if list.GetListValue() == nil {
		return req, errors.New("embeddings must be a list")
	}
	for i, v := range list.GetListValue().GetValues() {
		inner := v.GetListValue()
		if inner == nil {
			return req, fmt.Errorf("embeddings[%d] must be a list of numbers", i)
		}
		vec := make([]float32, 0, len(inner.GetValues()))
		for _, n := range inner.GetValues() {
			num, ok := n.GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return req, fmt.Errorf("embeddings[%d] must be a list of numbers", i)
			}
			vec = append(vec, float32(num.NumberValue))
		}
		req.Embeddings = append(req.Embeddings, vec)
	}
	return req, nil
}

// writeProto marshals msg and writes it with the given HTTP status.
func writeProto(w http.ResponseWriter, status int, msg proto.Message) {
	data, err := proto.Marshal(msg)
	if err != nil {
		// Fall back to a plain-text error if marshalling fails.
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeStruct renders a JSON-shaped response as a protobuf Struct.
func writeStruct(w http.ResponseWriter, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "response encode error", http.StatusInternalServerError)
		return
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		http.Error(w, "response encode error", http.StatusInternalServerError)
		return
	}
	msg, err := structpb.NewStruct(m)
	if err != nil {
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	writeProto(w, status, msg)
}

// tooLarge writes a 413 when err came from an exhausted MaxBytesReader.
func tooLarge(w http.ResponseWriter, err error) bool {
	var mbe *http.MaxBytesError
	if !errors.As(err, &mbe) {
		return false
	}
	writeError(w, http.StatusRequestEntityTooLarge, "body_too_large",
		fmt.Sprintf("request body exceeds %d bytes", mbe.Limit))
	return true
}
