// Package web provides the HTTP gateway for the wakelight daemon: the REST
// API used by the bedside client and the hand detector, the camera stream,
// captured images, metrics and a status page.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sweeney/wakelight/internal/alarm"
	"github.com/sweeney/wakelight/internal/camera"
	"github.com/sweeney/wakelight/internal/metrics"
	"github.com/sweeney/wakelight/internal/status"
)

// Alarm is the controller surface exposed over HTTP.
type Alarm interface {
	Configure(alarmTime string) error
	HandDetected(imagePath string) (int, error)
	Cancel()
	CancelBecause(reason string)
	CurrentStatus() alarm.Status
	State() alarm.SessionState
	RecentSessions(ctx context.Context, limit int) ([]alarm.Record, error)
}

// Options wires the server to the rest of the daemon. Nil fields disable
// the routes that need them.
type Options struct {
	Alarm         Alarm
	Tracker       *status.Tracker
	Relay         *camera.Relay
	Recorder      *metrics.Recorder
	Metrics       http.Handler // served at /metrics
	ImagesDir     string       // served at /images/
	FrameInterval time.Duration
}

// Server serves the gateway over HTTP.
type Server struct {
	httpServer *http.Server
	opts       Options
}

// New creates a Server listening on addr.
func New(addr string, opts Options) *Server {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = camera.DefaultInterval
	}
	s := &Server{opts: opts}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if s.opts.Alarm != nil {
		mux.HandleFunc("POST /api/alarma", s.handleConfigure)
		mux.HandleFunc("DELETE /api/alarma", s.handleCancel)
		mux.HandleFunc("POST /api/alarma/apagar", s.handleTurnOff)
		mux.HandleFunc("POST /api/hand-detected", s.handleHandDetected)
		mux.HandleFunc("GET /api/check-hand", s.handleCheckHand)
		mux.HandleFunc("GET /api/estado", s.handleStatus)
		mux.HandleFunc("GET /api/historial", s.handleHistory)
	}
	if s.opts.Relay != nil {
		mux.HandleFunc("POST /api/video-frame", s.handleVideoFrame)
		mux.HandleFunc("GET /api/video-stream", s.handleVideoStream)
	}
	if s.opts.ImagesDir != "" {
		mux.Handle("GET /images/", http.StripPrefix("/images/", http.FileServer(noListing{http.Dir(s.opts.ImagesDir)})))
	}
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}
	if s.opts.Tracker != nil {
		mux.HandleFunc("GET /{$}", s.handleIndex)
		mux.HandleFunc("GET /index.html", s.handleIndex)
		mux.HandleFunc("GET /index.json", s.handleJSON)
	}
	return mux
}

// Handler returns the server's routes. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server. Open video streams end when
// ctx does, since they never become idle.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// tracker refreshes the alarm fields before taking a snapshot so the page
// is current between run loop ticks.
func (s *Server) tracker() status.Snapshot {
	if s.opts.Alarm != nil {
		s.opts.Tracker.UpdateAlarm(s.opts.Alarm.CurrentStatus(), s.opts.Alarm.State())
	}
	return s.opts.Tracker.Snapshot()
}

// noListing hides directory indexes.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, errNotFound
	}
	return f, nil
}
