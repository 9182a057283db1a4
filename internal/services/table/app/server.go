// Package server hosts the shared-table HTTP/WebSocket process: one chat
// transcript, one aspect tracker, and the check resolution pipeline behind
// a JSON frame protocol.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/websocket"

	aspectservice "github.com/fatexengine/fatex/internal/aspect/service"
	"github.com/fatexengine/fatex/internal/fate/dice"
	"github.com/fatexengine/fatex/internal/fate/ladder"
	"github.com/fatexengine/fatex/internal/fate/roll"
	"github.com/fatexengine/fatex/internal/platform/timeouts"
	"github.com/fatexengine/fatex/internal/services/table/render"
	tablesqlite "github.com/fatexengine/fatex/internal/services/table/storage/sqlite"
)

const (
	defaultLocale      = "en-US"
	defaultReplayLimit = 200

	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxDecodeErrorsPerConn = 3

	maxSpeakerNameRunes = 64
	maxAspectNameRunes  = 200
	maxInvokeBoxes      = 20
)

// Config defines the inputs for the table process.
type Config struct {
	HTTPAddr          string
	StoragePath       string
	Locale            string
	DiceSeed          int64
	ReplayLimit       int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the table HTTP/WebSocket process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	store           *tablesqlite.Store
	hub             *tableHub
	publisher       *aspectservice.Publisher
	rollService     *roll.Service
	locale          string
	replayLimit     int
	tracer          trace.Tracer
}

type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type wsErrorEnvelope struct {
	Error wsError `json:"error"`
}

type wsError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type joinPayload struct {
	Name string `json:"name"`
}

type joinedPayload struct {
	Speaker    string `json:"speaker"`
	EntryCount int    `json:"entry_count"`
	ServerTime string `json:"server_time"`
}

type entryEnvelope struct {
	Entry entryPayload `json:"entry"`
}

type entryPayload struct {
	EntryID     string `json:"entry_id"`
	Kind        string `json:"kind"`
	Speaker     string `json:"speaker,omitempty"`
	ContentHTML string `json:"content_html"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type diceRollPayload struct {
	Values []int `json:"values"`
}

type rollCheckPayload struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
	Modifier string `json:"modifier,omitempty"`
}

type rollResultPayload struct {
	EntryID     string `json:"entry_id"`
	Dice        []int  `json:"dice"`
	RawTotal    int    `json:"raw_total"`
	GrandTotal  int    `json:"grand_total"`
	TotalString string `json:"total_string"`
	LadderLabel string `json:"ladder_label"`
}

type aspectCreatePayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Invokes     int    `json:"invokes"`
}

type aspectTogglePayload struct {
	AspectID string `json:"aspect_id"`
	BoxID    string `json:"box_id"`
}

type aspectEnvelope struct {
	Aspect aspectPayload `json:"aspect"`
}

type aspectPayload struct {
	AspectID    string             `json:"aspect_id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Boxes       []aspectBoxPayload `json:"boxes"`
}

type aspectBoxPayload struct {
	BoxID   string `json:"box_id"`
	Label   int    `json:"label"`
	Checked bool   `json:"checked"`
}

type renderedPayload struct {
	BindingIDs []string `json:"binding_ids"`
}

type controlEventPayload struct {
	BindingID string `json:"binding_id"`
	Event     string `json:"event"`
}

// NewServer builds a configured table server with durable transcript storage.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if strings.TrimSpace(config.StoragePath) == "" {
		return nil, errors.New("storage path is required")
	}
	locale := strings.TrimSpace(config.Locale)
	if locale == "" {
		locale = defaultLocale
	}
	if err := ladder.Validate(locale); err != nil {
		return nil, fmt.Errorf("validate ladder catalog: %w", err)
	}
	if config.ReplayLimit <= 0 {
		config.ReplayLimit = defaultReplayLimit
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	seed := config.DiceSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	store, err := tablesqlite.Open(config.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open transcript store: %w", err)
	}

	hub := newTableHub()
	renderer := render.New(locale)
	transcript := newTableTranscript(store, hub)
	publisher := aspectservice.NewPublisher(aspectservice.NewStore(), transcript, renderer, hub)
	rollService := roll.NewService(dice.NewSeededSource(seed), transcript, renderer, hub, locale)

	server := &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		store:           store,
		hub:             hub,
		publisher:       publisher,
		rollService:     rollService,
		locale:          locale,
		replayLimit:     config.ReplayLimit,
		tracer:          otel.Tracer("fatex/table"),
	}
	server.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           server.handler(),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}
	return server, nil
}

// Run creates and serves a table server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init table server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve table: %w", err)
	}
	return nil
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(s.handleWSConn)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})
	return mux
}

// ListenAndServe runs the HTTP server and the listener re-attachment loop
// until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("table server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := s.publisher.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("table: aspect rebind loop stopped: %v", err)
		}
	}()

	serveErr := make(chan error, 1)
	log.Printf("table server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		shutdownCancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close transcript store: %v", err)
		}
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}
