package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/BrandonDHaskell/facegate/internal/devicelink"
	"github.com/BrandonDHaskell/facegate/internal/gate/service"
	"github.com/BrandonDHaskell/facegate/internal/gate/types"
	"github.com/BrandonDHaskell/facegate/internal/recognition"
)

// LinkStatus is the observational side of the device link.
type LinkStatus interface {
	IsConnected() bool
	LastTelemetry() (devicelink.Telemetry, bool)
}

type Dependencies struct {
	Logger logrus.FieldLogger
	Addr   string

	Extractor  recognition.Extractor
	Encodings  *recognition.EncodingStore
	Enrollment recognition.EnrollmentSource
	Matcher    *recognition.Matcher

	Access  *service.AccessService
	Control *service.ControlService
	Ledger  *service.UsageLedger
	Link    LinkStatus

	// CapturesDir receives uploaded images.  Empty disables saving.
	CapturesDir string
}

type Server struct {
	httpServer *http.Server
	logger     logrus.FieldLogger
	router     *chi.Mux

	extractor   recognition.Extractor
	encodings   *recognition.EncodingStore
	enrollment  recognition.EnrollmentSource
	matcher     *recognition.Matcher
	access      *service.AccessService
	control     *service.ControlService
	ledger      *service.UsageLedger
	link        LinkStatus
	capturesDir string
}

func NewServer(d Dependencies) *Server {
	r := chi.NewRouter()

	s := &Server{
		logger:      d.Logger,
		router:      r,
		extractor:   d.Extractor,
		encodings:   d.Encodings,
		enrollment:  d.Enrollment,
		matcher:     d.Matcher,
		access:      d.Access,
		control:     d.Control,
		ledger:      d.Ledger,
		link:        d.Link,
		capturesDir: d.CapturesDir,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(loggingMiddleware(d.Logger))
	r.Use(chiMiddleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/encodings/reload", s.handleReload)

		r.Post("/captures", s.handleCapture)
		r.Post("/captures/embeddings", s.handleCaptureEmbeddings)
		r.Get("/access", s.handleAccessHistory)

		r.Post("/devices/{device}/{state}", s.handleDeviceCommand)

		r.Get("/energy/usage", s.handleEnergyUsage)
		r.Post("/energy/events", s.handleEnergyEvent)
		r.Get("/energy/activity", s.handleActivity)
	})

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := types.StatusResponse{
		OK:             true,
		LinkConnected:  s.link.IsConnected(),
		KnownFaces:     s.encodings.Size(),
		MatchTolerance: s.matcher.Tolerance(),
		ServerTime:     serverTime(),
	}
	if tm, ok := s.link.LastTelemetry(); ok {
		resp.Telemetry = &types.TelemetryDTO{
			Message:    tm.Message,
			ReceivedAt: tm.ReceivedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	rep, err := s.encodings.Load(r.Context(), s.enrollment)
	if err != nil {
		if errors.Is(err, recognition.ErrNoEnrollmentDir) {
			writeError(w, http.StatusNotFound, "no_enrollment_dir", err.Error())
			return
		}
		s.logger.WithError(err).Error("encodings reload failed")
		writeError(w, http.StatusInternalServerError, "reload_failed", "could not rebuild encodings")
		return
	}

	writeJSON(w, http.StatusOK, types.ReloadResponse{
		OK:         true,
		Identities: rep.Identities,
		Images:     rep.Images,
		Loaded:     rep.Loaded,
		Skipped:    rep.Skipped,
	})
}
