package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/loomkit/weft/cmd/weft/internal/config"
	"github.com/loomkit/weft/internal/logger"
	"github.com/loomkit/weft/pkg/weft"
)

type devServer struct {
	port       int
	host       string
	watcher    *fsnotify.Watcher
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.RWMutex
	upgrader   websocket.Upgrader
	buildMutex sync.Mutex
	lastBuild  time.Time
	engine     *weft.Engine
	config     *config.Config
}

func newDevCommand() *cobra.Command {
	var port int
	var host string
	var cwd string

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long:  `Watches the templates directory, re-renders on change and serves the output with live reload.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cwd != "" {
				if err := os.Chdir(cwd); err != nil {
					return fmt.Errorf("failed to change directory to %s: %w", cwd, err)
				}
			}
			return runDev(host, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run the dev server on")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind the dev server to")
	cmd.Flags().StringVar(&cwd, "cwd", "", "Working directory of the project (defaults to current)")

	return cmd
}

func runDev(host string, port int) error {
	cfg, err := config.Load(".")
	if err != nil {
		logger.Warn("failed to load "+config.FileName+", using defaults", "err", err)
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Configure(cfg.Verbose, os.Stderr)

	// CLI flags take precedence over weft.yml.
	if port != 0 {
		cfg.Dev.Port = port
	}
	if host != "" {
		cfg.Dev.Host = host
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	server := &devServer{
		port:      cfg.Dev.Port,
		host:      cfg.Dev.Host,
		wsClients: make(map[*websocket.Conn]bool),
		engine:    engine,
		config:    cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins in dev mode
				return true
			},
		},
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()
	server.watcher = watcher

	if err := server.setupWatcher(); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}

	if err := server.renderAll(); err != nil {
		return fmt.Errorf("initial render failed: %w", err)
	}

	go server.watchFiles()

	mux := http.NewServeMux()
	mux.HandleFunc("/weft/live", server.handleWebSocket)
	mux.HandleFunc("/", server.serveOutput)

	addr := fmt.Sprintf("%s:%d", server.host, server.port)
	fmt.Printf("✨ Dev server running at http://%s\n", addr)

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down dev server...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	return srv.ListenAndServe()
}

func (s *devServer) setupWatcher() error {
	// Watch the templates directory and its subdirectories, plus the project
	// root for weft.yml changes.
	if err := s.watcher.Add("."); err != nil {
		return err
	}
	return filepath.Walk(s.config.TemplatesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return s.watcher.Add(path)
		}
		return nil
	})
}

func (s *devServer) watchFiles() {
	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer

	var pendingEvents []fsnotify.Event
	var mu sync.Mutex

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if !s.isRelevantFile(event.Name) {
				continue
			}

			mu.Lock()
			pendingEvents = append(pendingEvents, event)
			mu.Unlock()

			debounce.Reset(100 * time.Millisecond)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", "err", err)

		case <-debounce.C:
			mu.Lock()
			events := pendingEvents
			pendingEvents = nil
			mu.Unlock()

			if len(events) > 0 {
				s.handleFileChanges(events)
			}
		}
	}
}

func (s *devServer) isRelevantFile(path string) bool {
	if filepath.Base(path) == config.FileName {
		return true
	}
	return strings.ToLower(filepath.Ext(path)) == ".json"
}

func (s *devServer) handleFileChanges(events []fsnotify.Event) {
	configChanged := false
	changed := map[string]bool{}

	for _, event := range events {
		if filepath.Base(event.Name) == config.FileName {
			configChanged = true
			continue
		}
		changed[event.Name] = true
	}

	if configChanged {
		logger.Info("configuration changed, reloading")
		if err := s.reloadConfig(); err != nil {
			logger.Error("config reload failed", "err", err)
			s.notifyClients("error", map[string]interface{}{
				"message": fmt.Sprintf("Config reload failed: %v", err),
			})
			return
		}
		// A config change can affect every output.
		if err := s.renderAll(); err != nil {
			logger.Error("render failed", "err", err)
		}
		s.notifyClients("reload", map[string]interface{}{"target": "all"})
		return
	}

	rendered := 0
	for path := range changed {
		if _, err := os.Stat(path); err != nil {
			// Deleted or moved away; nothing to render.
			continue
		}
		logger.Info("template changed, re-rendering", "template", filepath.Base(path))
		result, err := renderTemplate(context.Background(), s.engine, s.config, path)
		if err != nil {
			logger.Error("render failed", "template", filepath.Base(path), "err", err)
			s.notifyClients("error", map[string]interface{}{
				"message": fmt.Sprintf("Render failed: %v", err),
			})
			continue
		}
		for _, rerr := range result.Errors {
			logger.Warn("template issue", "template", filepath.Base(path), "issue", rerr)
		}
		rendered++
	}

	if rendered > 0 {
		s.lastBuild = time.Now()
		s.notifyClients("reload", map[string]interface{}{"target": "templates"})
	}
}

// reloadConfig re-reads weft.yml and rebuilds the engine. Host and port stay
// as the running server was started with.
func (s *devServer) reloadConfig() error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	cfg.Dev.Host = s.host
	cfg.Dev.Port = s.port
	s.config = cfg
	s.engine = engine
	return nil
}

func (s *devServer) renderAll() error {
	s.buildMutex.Lock()
	defer s.buildMutex.Unlock()

	templates, err := filepath.Glob(filepath.Join(s.config.TemplatesDir, "*.json"))
	if err != nil {
		return err
	}
	for _, path := range templates {
		result, err := renderTemplate(context.Background(), s.engine, s.config, path)
		if err != nil {
			return fmt.Errorf("render %s: %w", filepath.Base(path), err)
		}
		for _, rerr := range result.Errors {
			logger.Warn("template issue", "template", filepath.Base(path), "issue", rerr)
		}
	}
	s.lastBuild = time.Now()
	logger.Info("rendered templates", "count", len(templates))
	return nil
}

func (s *devServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade error", "err", err)
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket error", "err", err)
			}
			break
		}

		switch msg["type"] {
		case "HELLO":
			conn.WriteJSON(map[string]interface{}{
				"type": "ACK",
			})
		default:
			logger.Debug("unknown websocket message", "type", msg["type"])
		}
	}
}

func (s *devServer) notifyClients(msgType string, data map[string]interface{}) {
	s.wsMutex.RLock()
	defer s.wsMutex.RUnlock()

	message := map[string]interface{}{
		"type": strings.ToUpper(msgType),
	}
	for k, v := range data {
		message[k] = v
	}

	for client := range s.wsClients {
		if err := client.WriteJSON(message); err != nil {
			logger.Warn("failed to notify client", "err", err)
		}
	}
}

// liveReloadScript reconnects-and-reloads; injected into served HTML pages.
const liveReloadScript = `<script>
(function () {
  var ws = new WebSocket("ws://" + location.host + "/weft/live");
  ws.onopen = function () { ws.send(JSON.stringify({ type: "HELLO" })); };
  ws.onmessage = function (e) {
    var msg = JSON.parse(e.data);
    if (msg.type === "RELOAD") location.reload();
    if (msg.type === "ERROR") console.error("[weft]", msg.message);
  };
})();
</script>`

func (s *devServer) serveOutput(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/" {
		s.serveIndex(w)
		return
	}

	// Security: prevent directory traversal
	if strings.Contains(path, "..") {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	filePath := filepath.Join(s.config.OutputDir, strings.TrimPrefix(path, "/"))
	content, err := os.ReadFile(filePath)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	switch filepath.Ext(filePath) {
	case ".html":
		w.Header().Set("Content-Type", "text/html")
		w.Write(content)
		w.Write([]byte(liveReloadScript))
		return
	case ".css", ".scss":
		w.Header().Set("Content-Type", "text/css")
	case ".vue", ".json":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Write(content)
}

// serveIndex lists the rendered output files as links.
func (s *devServer) serveIndex(w http.ResponseWriter) {
	entries, err := os.ReadDir(s.config.OutputDir)
	if err != nil {
		http.Error(w, "Output directory not found, run a build first", http.StatusNotFound)
		return
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>weft dev</title></head><body>\n")
	b.WriteString("<h1>Rendered output</h1>\n<ul>\n")
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		b.WriteString(fmt.Sprintf("<li><a href=\"/%s\">%s</a></li>\n", name, name))
	}
	b.WriteString("</ul>\n")
	b.WriteString(liveReloadScript)
	b.WriteString("\n</body></html>\n")

	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(b.String()))
}
