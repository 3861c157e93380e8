package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppgdev/ppg/internal/daemon"
	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/paths"
)

// DefaultPort is the API server's default listen port.
const DefaultPort = 7777

// Server serves the operation API on loopback.
type Server struct {
	projectRoot string
	port        int
	token       string
	log         *logrus.Logger
}

// New builds a server for a project. A token must be registered first.
func New(projectRoot string, port int) (*Server, error) {
	token := ReadToken(projectRoot)
	if token == "" {
		return nil, errs.New(errs.InvalidArgs, "no API token registered (run ppg serve register)")
	}
	if port <= 0 {
		port = DefaultPort
	}

	if err := os.MkdirAll(paths.LogsDir(projectRoot), 0755); err != nil {
		return nil, err
	}
	logFile, err := os.OpenFile(paths.ServeLogPath(projectRoot), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(logFile)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return &Server{projectRoot: projectRoot, port: port, token: token, log: log}, nil
}

// Run claims the PID file and serves until SIGINT/SIGTERM, then shuts
// down gracefully so in-flight operations finish their manifest updates.
func (s *Server) Run() error {
	pidPath := paths.ServePidPath(s.projectRoot)
	if err := daemon.WritePid(pidPath); err != nil {
		return fmt.Errorf("api server %w", err)
	}
	defer daemon.RemovePid(pidPath)

	httpServer := &http.Server{
		Addr:         "127.0.0.1:" + strconv.Itoa(s.port),
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // wait can block for a while
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.log.WithFields(logrus.Fields{"pid": os.Getpid(), "addr": httpServer.Addr}).Info("api server started")

	select {
	case sig := <-sigCh:
		s.log.WithField("signal", sig.String()).Info("api server stopping")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/status", handle(s, func(r *http.Request) (any, error) {
		return ops.Status(ops.StatusOptions{ProjectRoot: s.projectRoot, Worktree: r.URL.Query().Get("worktree")})
	}))
	mux.HandleFunc("GET /v1/aggregate", handle(s, func(r *http.Request) (any, error) {
		return ops.Aggregate(ops.AggregateOptions{ProjectRoot: s.projectRoot, Worktree: r.URL.Query().Get("worktree")})
	}))
	mux.HandleFunc("GET /v1/diff", handle(s, func(r *http.Request) (any, error) {
		return ops.Diff(ops.DiffOptions{ProjectRoot: s.projectRoot, Worktree: r.URL.Query().Get("worktree")})
	}))
	mux.HandleFunc("GET /v1/logs", handle(s, func(r *http.Request) (any, error) {
		lines, _ := strconv.Atoi(r.URL.Query().Get("lines"))
		return ops.Logs(ops.LogsOptions{ProjectRoot: s.projectRoot, Agent: r.URL.Query().Get("agent"), Lines: lines})
	}))
	mux.HandleFunc("POST /v1/spawn", handle(s, func(r *http.Request) (any, error) {
		var opts ops.SpawnOptions
		if err := decode(r, &opts); err != nil {
			return nil, err
		}
		opts.ProjectRoot = s.projectRoot
		return ops.Spawn(opts)
	}))
	mux.HandleFunc("POST /v1/swarm", handle(s, func(r *http.Request) (any, error) {
		var opts ops.SwarmOptions
		if err := decode(r, &opts); err != nil {
			return nil, err
		}
		opts.ProjectRoot = s.projectRoot
		return ops.Swarm(opts)
	}))
	mux.HandleFunc("POST /v1/merge", handle(s, func(r *http.Request) (any, error) {
		var opts ops.MergeOptions
		if err := decode(r, &opts); err != nil {
			return nil, err
		}
		opts.ProjectRoot = s.projectRoot
		return ops.Merge(opts)
	}))
	mux.HandleFunc("POST /v1/kill", handle(s, func(r *http.Request) (any, error) {
		var opts ops.KillOptions
		if err := decode(r, &opts); err != nil {
			return nil, err
		}
		opts.ProjectRoot = s.projectRoot
		return ops.Kill(opts)
	}))
	mux.HandleFunc("POST /v1/restart", handle(s, func(r *http.Request) (any, error) {
		var opts ops.RestartOptions
		if err := decode(r, &opts); err != nil {
			return nil, err
		}
		opts.ProjectRoot = s.projectRoot
		return ops.Restart(opts)
	}))
	mux.HandleFunc("POST /v1/send", handle(s, func(r *http.Request) (any, error) {
		var opts ops.SendOptions
		if err := decode(r, &opts); err != nil {
			return nil, err
		}
		opts.ProjectRoot = s.projectRoot
		return ops.Send(opts)
	}))
	mux.HandleFunc("POST /v1/pr", handle(s, func(r *http.Request) (any, error) {
		var opts ops.PrOptions
		if err := decode(r, &opts); err != nil {
			return nil, err
		}
		opts.ProjectRoot = s.projectRoot
		return ops.Pr(opts)
	}))
	mux.HandleFunc("POST /v1/clean", handle(s, func(r *http.Request) (any, error) {
		var opts ops.CleanOptions
		if err := decode(r, &opts); err != nil {
			return nil, err
		}
		opts.ProjectRoot = s.projectRoot
		return ops.Clean(opts)
	}))
	mux.HandleFunc("POST /v1/reset", handle(s, func(r *http.Request) (any, error) {
		var opts ops.ResetOptions
		if err := decode(r, &opts); err != nil {
			return nil, err
		}
		opts.ProjectRoot = s.projectRoot
		return ops.Reset(opts)
	}))
	return s.auth(mux)
}

// auth enforces the static bearer token on every route.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !tokenMatches(s.token, presented) {
			writeJSON(w, http.StatusUnauthorized, errorBody("UNAUTHORIZED", "missing or invalid token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handle wraps an operation into logging, error mapping, and JSON
// encoding.
func handle(s *Server, fn func(*http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		result, err := fn(r)
		entry := s.log.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"elapsed": time.Since(start).Round(time.Millisecond).String(),
		})
		if err != nil {
			entry.WithError(err).Warn("operation failed")
			code := errs.CodeOf(err)
			if code == "" {
				code = "INTERNAL"
			}
			writeJSON(w, errs.HTTPStatus(err), errorBody(string(code), err.Error()))
			return
		}
		entry.Info("operation ok")
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": result})
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(errs.InvalidArgs, err, "parsing request body")
	}
	return nil
}

func errorBody(code, message string) map[string]any {
	return map[string]any{"ok": false, "error": map[string]string{"code": code, "message": message}}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Start launches the server daemon detached via the hidden
// "serve _daemon" subcommand.
func Start(projectRoot string, port int) (int, error) {
	if pid := daemon.Running(paths.ServePidPath(projectRoot)); pid != 0 {
		return 0, fmt.Errorf("api server already running with pid %d", pid)
	}
	if port <= 0 {
		port = DefaultPort
	}
	return daemon.StartDetached(paths.ServeLogPath(projectRoot),
		"serve", "_daemon", "--project-root", projectRoot, "--port", strconv.Itoa(port))
}

// Stop signals the running server daemon.
func Stop(projectRoot string) (int, error) {
	return daemon.Stop(paths.ServePidPath(projectRoot))
}

// RunningPid reports the live server PID, or 0.
func RunningPid(projectRoot string) int {
	return daemon.Running(paths.ServePidPath(projectRoot))
}
