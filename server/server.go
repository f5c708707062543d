package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aiacademy/tutor/config"
	"github.com/aiacademy/tutor/pkg/auth"
	"github.com/aiacademy/tutor/server/chat"
	"github.com/aiacademy/tutor/server/mcp"
	"github.com/aiacademy/tutor/server/summary"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	http.Handler

	address string
}

type handler interface {
	Attach(r chi.Router)
}

func New(cfg *config.Config) (*Server, error) {
	if cfg.Tutor == nil || cfg.Summarizer == nil {
		return nil, errors.New("server requires a tutor and a summarizer")
	}

	chatHandler, err := chat.New(cfg.Tutor)

	if err != nil {
		return nil, err
	}

	summaryHandler, err := summary.New(cfg.Summarizer)

	if err != nil {
		return nil, err
	}

	var mcpHandler handler

	if cfg.MCP != nil {
		if mcpHandler, err = mcp.New(cfg.MCP); err != nil {
			return nil, err
		}
	}

	authenticate := Authenticate(auth.Any(cfg.Authorizers))

	if len(cfg.Authorizers) == 0 {
		if !cfg.Insecure {
			return nil, errors.New("server requires an authorizer unless insecure is set")
		}

		slog.Warn("server.auth.disabled", "reason", "insecure mode")

		authenticate = func(next http.Handler) http.Handler {
			return next
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		if mcpHandler != nil {
			mcpHandler.Attach(r)
		}

		r.Route("/api", func(r chi.Router) {
			chatHandler.Attach(r)
			summaryHandler.Attach(r)
		})
	})

	return &Server{
		Handler: otelhttp.NewHandler(r, "tutor"),

		address: cfg.Address,
	}, nil
}

// Authenticate rejects requests without an established identity before the
// handler reads the body.
func Authenticate(p auth.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := p.Authenticate(r.Context(), r)

			if err != nil {
				slog.InfoContext(r.Context(), "server.auth.rejected", "path", r.URL.Path, "error", err)

				writeError(w, http.StatusUnauthorized, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s,

		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)

	go func() {
		slog.Info("server.listening", "address", s.address)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err

	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.WriteHeader(code)

	text := http.StatusText(code)

	if err != nil {
		text = err.Error()
	}

	w.Write([]byte(text))
}
