package recognition_test

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/BrandonDHaskell/facegate/internal/recognition"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeExtractor answers by image content.  Unmapped images yield no faces.
type fakeExtractor struct {
	faces map[string][]recognition.Embedding
	fail  map[string]error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, image []byte) ([]recognition.Embedding, error) {
	f.calls++
	if err, ok := f.fail[string(image)]; ok {
		return nil, err
	}
	return f.faces[string(image)], nil
}

// memSource serves image bytes keyed by path.
type memSource struct {
	enrollments []recognition.Enrollment
	images      map[string][]byte
	listErr     error
}

func (m *memSource) Enrollments(context.Context) ([]recognition.Enrollment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.enrollments, nil
}

func (m *memSource) ReadImage(_ context.Context, ref recognition.ImageRef) ([]byte, error) {
	b, ok := m.images[ref.Path]
	if !ok {
		return nil, errors.New("no such image")
	}
	return b, nil
}

func refs(paths ...string) []recognition.ImageRef {
	out := make([]recognition.ImageRef, len(paths))
	for i, p := range paths {
		out[i] = recognition.ImageRef{Path: p}
	}
	return out
}
