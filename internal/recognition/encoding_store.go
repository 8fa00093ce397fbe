package recognition

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// LoadReport summarises one EncodingStore.Load pass.
type LoadReport struct {
	Identities int // enrolled names listed by the source
	Images     int // images attempted
	Loaded     int // records now in the store
	Skipped    int // images with no face or a read/extract error
}

// LoadOption customises a single Load call.
type LoadOption func(*loadOptions)

type loadOptions struct {
	progress func(done, total int)
}

// WithProgress reports progress after every image.
func WithProgress(fn func(done, total int)) LoadOption {
	return func(o *loadOptions) { o.progress = fn }
}

// EncodingStore holds every enrolled identity.  Reads always see a complete
// snapshot: Load builds a fresh slice and swaps it in only when done.
type EncodingStore struct {
	extractor Extractor
	logger    logrus.FieldLogger

	loadMu  sync.Mutex
	records atomic.Pointer[[]Identity]
}

func NewEncodingStore(ex Extractor, logger logrus.FieldLogger) *EncodingStore {
	s := &EncodingStore{extractor: ex, logger: logger}
	empty := []Identity{}
	s.records.Store(&empty)
	return s
}

// Snapshot returns the current records.  The slice must not be modified.
func (s *EncodingStore) Snapshot() []Identity {
	return *s.records.Load()
}

// Size is the number of loaded records.
func (s *EncodingStore) Size() int {
	return len(s.Snapshot())
}

// Load rebuilds the store from src.  A bad image is logged and skipped; only
// a failure to list the enrollments or a cancelled ctx aborts, and then the
// previous records stay in place.
func (s *EncodingStore) Load(ctx context.Context, src EnrollmentSource, opts ...LoadOption) (LoadReport, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	enrollments, err := src.Enrollments(ctx)
	if err != nil {
		return LoadReport{}, fmt.Errorf("Load list enrollments: %w", err)
	}

	total := 0
	for _, e := range enrollments {
		total += len(e.Images)
	}

	report := LoadReport{Identities: len(enrollments)}
	fresh := make([]Identity, 0, total)

	for _, e := range enrollments {
		for _, ref := range e.Images {
			if err := ctx.Err(); err != nil {
				return report, fmt.Errorf("Load: %w", err)
			}

			report.Images++
			emb, ok := s.extractFirst(ctx, src, e.Name, ref)
			if ok {
				fresh = append(fresh, Identity{Name: e.Name, Embedding: emb})
			} else {
				report.Skipped++
			}

			if o.progress != nil {
				o.progress(report.Images, total)
			}
		}
	}

	s.records.Store(&fresh)
	report.Loaded = len(fresh)

	s.logger.WithFields(logrus.Fields{
		"identities": report.Identities,
		"images":     report.Images,
		"loaded":     report.Loaded,
		"skipped":    report.Skipped,
	}).Info("encoding store loaded")

	return report, nil
}

func (s *EncodingStore) extractFirst(ctx context.Context, src EnrollmentSource, name string, ref ImageRef) (Embedding, bool) {
	log := s.logger.WithFields(logrus.Fields{"name": name, "image": ref.Path})

	data, err := src.ReadImage(ctx, ref)
	if err != nil {
		log.WithError(err).Warn("skipping unreadable enrollment image")
		return nil, false
	}

	faces, err := s.extractor.Extract(ctx, data)
	if err != nil {
		log.WithError(err).Warn("skipping enrollment image: extraction failed")
		return nil, false
	}
	if len(faces) == 0 {
		log.Warn("skipping enrollment image: no face detected")
		return nil, false
	}

	log.Debug("enrolled face")
	return faces[0], true
}
