package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/facegate/internal/gate/service"
	"github.com/BrandonDHaskell/facegate/internal/gate/types"
	"github.com/BrandonDHaskell/facegate/internal/recognition"
)

const maxImageBytes = 10 << 20

const (
	warnNotDelivered = "device link unavailable: command not delivered"
	warnNotPersisted = "access decision not fully persisted"
	warnNotSaved     = "capture image not saved"
)

// handleCapture accepts an image as multipart field "file" or as the raw
// request body (with ?filename=), extracts faces and decides access.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	image, filename, err := readImage(w, r)
	if err != nil {
		if tooLarge(w, err) {
			return
		}
		writeError(w, http.StatusBadRequest, "bad_image", err.Error())
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusBadRequest, "empty_image", "image body is empty")
		return
	}
	filename = captureFilename(filename)

	probes, err := s.extractor.Extract(r.Context(), image)
	if err != nil {
		s.logger.WithError(err).WithField("filename", filename).Error("embedding extraction failed")
		writeError(w, http.StatusBadGateway, "embedding_failed", "could not extract faces from image")
		return
	}

	var warnings []string
	if s.capturesDir != "" {
		if err := saveCapture(s.capturesDir, filename, image); err != nil {
			s.logger.WithError(err).WithField("filename", filename).Warn("capture image not saved")
			warnings = append(warnings, warnNotSaved)
		}
	}

	s.decide(w, r, filename, probes, warnings, false)
}

// handleCaptureEmbeddings accepts probes the uploader already extracted.
func (s *Server) handleCaptureEmbeddings(w http.ResponseWriter, r *http.Request) {
	var (
		req     types.EmbeddingsCaptureRequest
		asProto = isProtobuf(r)
	)

	if asProto {
		msg, err := readStruct(w, r)
		if err != nil {
			if tooLarge(w, err) {
				return
			}
			writeError(w, http.StatusBadRequest, "bad_protobuf", "invalid protobuf body")
			return
		}
		if req, err = embeddingsFromStruct(msg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_embedding", err.Error())
			return
		}
	} else {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEmbeddingsBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			if tooLarge(w, err) {
				return
			}
			writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
			return
		}
	}

	probes := make([]recognition.Embedding, 0, len(req.Embeddings))
	for i, vec := range req.Embeddings {
		if len(vec) == 0 {
			writeError(w, http.StatusBadRequest, "invalid_embedding", fmt.Sprintf("embeddings[%d] is empty", i))
			return
		}
		probes = append(probes, recognition.Embedding(vec))
	}

	s.decide(w, r, captureFilename(req.Filename), probes, nil, asProto)
}

func (s *Server) decide(w http.ResponseWriter, r *http.Request, filename string, probes []recognition.Embedding, warnings []string, asProto bool) {
	verdicts := s.matcher.IdentifyAll(probes)

	d, err := s.access.ProcessCapture(r.Context(), service.Capture{
		Filename: filename,
		Verdicts: verdicts,
	})
	if err != nil {
		warnings = append(warnings, warnNotPersisted)
	}
	if !d.Delivered {
		warnings = append(warnings, warnNotDelivered)
	}

	dtos := make([]types.VerdictDTO, 0, len(verdicts))
	for _, v := range verdicts {
		dtos = append(dtos, types.VerdictDTO{Name: v.Name, Confidence: v.Confidence, Distance: v.Distance})
	}

	resp := types.CaptureResponse{
		OK:         true,
		Filename:   filename,
		Granted:    d.Granted,
		Names:      d.Names,
		Verdicts:   dtos,
		Command:    d.Command,
		Delivered:  d.Delivered,
		Warnings:   warnings,
		ServerTime: serverTime(),
	}

	if asProto {
		writeStruct(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, "", fmt.Errorf("could not read image body: %w", err)
		}
		return data, r.URL.Query().Get("filename"), nil
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return nil, "", errors.New("invalid multipart form")
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, "", errors.New(`multipart field "file" is required`)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", errors.New("could not read uploaded file")
	}
	return data, hdr.Filename, nil
}

// captureFilename strips any directory part; an empty name gets a fresh
// random one.
func captureFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" || base == "" {
		return uuid.NewString() + ".jpg"
	}
	return base
}

func saveCapture(dir, filename string, image []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("saveCapture mkdir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), image, 0o644); err != nil {
		return fmt.Errorf("saveCapture write: %w", err)
	}
	return nil
}
