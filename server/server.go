// Package server is the browser-facing surface: the prediction page, its
// JSON and websocket endpoints, and the HTTP lifecycle.
package server

import (
	"context"
	"embed"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/bcpredict/chart"
	"github.com/YuminosukeSato/bcpredict/dataset"
	"github.com/YuminosukeSato/bcpredict/inference"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
	"github.com/YuminosukeSato/bcpredict/pkg/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page texts.
const (
	PageTitle   = "Breast Cancer Predictor"
	SidebarText = "Cell Nuclei Measurements"
	Description = "This app is built using the Breast Cancer Wisconsin (Diagnostic) Data Set and " +
		"leverages a logistic regression model to predict whether a tumor is benign or malignant " +
		"based on various cell nuclei measurements. Users can input measurements through the " +
		"sidebar, and the app will provide a prediction along with the probabilities of being " +
		"benign or malignant."
	Disclaimer = "This app is for educational purposes only and should not be used for real " +
		"medical decisions. Please consult a healthcare professional for diagnosis or treatment."
)

// ChartSize is the edge length of the rendered radar chart.
const ChartSize = 6 * vg.Inch

// Options configures the server.
type Options struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	ChartCacheSize  int

	// Watch reloads artifacts while serving.
	Watch bool
}

// Slider describes one measurement input of the form.
type Slider struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Value float64 `json:"value"`
	Step  float64 `json:"step"`
}

// Server serves predictions from an inference.Service.
type Server struct {
	opts     Options
	svc      *inference.Service
	norm     *chart.Normalizer
	cache    *chart.Cache
	sliders  []Slider
	defaults dataset.FeatureRecord
	tmpl     *template.Template
	upgrader websocket.Upgrader
	logger   log.Logger

	closing   chan struct{}
	closeOnce sync.Once
}

// New builds a server. ds supplies the slider bounds and the chart
// normalisation; it is read once and not retained.
func New(ds *dataset.Dataset, svc *inference.Service, opts Options, logger log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.GetLoggerWithName("server")
	}
	if svc == nil {
		return nil, errors.NewValueError("server.New", "inference service is required")
	}

	norm, err := chart.NewNormalizer(ds)
	if err != nil {
		return nil, err
	}
	cache, err := chart.NewCache(opts.ChartCacheSize, ChartSize, ChartSize)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}

	return &Server{
		opts:     opts,
		svc:      svc,
		norm:     norm,
		cache:    cache,
		sliders:  buildSliders(ds),
		defaults: ds.MeanRecord(),
		tmpl:     tmpl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger:  logger,
		closing: make(chan struct{}),
	}, nil
}

// buildSliders derives the inputs from the dataset: each ranges from 0 to
// the column maximum and starts at the column mean.
func buildSliders(ds *dataset.Dataset) []Slider {
	stats := ds.ColumnStats()
	sliders := make([]Slider, dataset.NumFeatures)
	for j, f := range dataset.Features {
		sliders[j] = Slider{
			Key:   f.Key,
			Label: f.Label,
			Min:   0,
			Max:   stats[j].Max,
			Value: stats[j].Mean,
			Step:  stats[j].Max / 1000,
		}
	}
	return sliders
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/features", s.handleFeatures)
	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("GET /api/radar.svg", s.handleRadar)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /health", s.handleHealth)

	chain := Chain(
		RecoveryMiddleware(s.logger),
		LoggerMiddleware(s.logger),
		SecurityHeadersMiddleware,
		TimeoutMiddleware(s.opts.RequestTimeout),
	)
	return chain(mux)
}

// Serve listens on Options.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.opts.Addr)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled. In-flight requests get
// Options.ShutdownTimeout to finish; websocket clients are told the server
// is going away.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.closeOnce.Do(func() { close(s.closing) })

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		s.logger.Info("Server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	if s.opts.Watch {
		g.Go(func() error {
			return s.svc.Watch(gctx)
		})
	}
	return g.Wait()
}
