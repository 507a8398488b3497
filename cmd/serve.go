package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/Bitlatte/shitdocs/internal/ctxlog"
)

const debounceDuration = 500 * time.Millisecond

var serverPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the site locally and watches for changes",
	Long: `The serve command performs an initial build of your site, then starts a local
web server to serve your output directory. It also watches your content, layouts,
and static directories for changes and automatically rebuilds the site.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logger := ctxlog.FromContext(ctx)

		builder := newBuilder(cmd)
		cfg := builder.Config
		if _, err := builder.Build(ctx); err != nil {
			return fmt.Errorf("initial build failed, fix the issues and try again: %w", err)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		defer watcher.Close()

		var mu sync.Mutex
		rebuild := func() {
			mu.Lock()
			defer mu.Unlock()
			logger.Info("Rebuilding site due to changes")
			if _, err := builder.Build(ctx); err != nil {
				logger.Error("Rebuild failed", "error", err)
				return
			}
			logger.Info("Site rebuilt successfully")
		}
		go watch(ctx, logger, watcher, rebuild)

		for _, root := range []string{cfg.ContentDir, cfg.LayoutsDir, cfg.StaticDir} {
			addRecursive(logger, watcher, root)
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", serverPort),
			Handler:           newSiteRouter(cfg.OutputDir),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server shutdown failed", "error", err)
			}
		}()

		logger.Info("Serving site", "outputDir", cfg.OutputDir, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	},
}

// watch debounces watcher events into calls to rebuild until ctx is done.
func watch(ctx context.Context, logger *slog.Logger, watcher *fsnotify.Watcher, rebuild func()) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Change detected", "path", event.Name, "op", event.Op.String())

			// New subdirectories are not watched automatically.
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := watcher.Add(event.Name); err != nil {
					logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
				}
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDuration, rebuild)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error", "error", err)
		}
	}
}

func addRecursive(logger *slog.Logger, watcher *fsnotify.Watcher, root string) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		logger.Debug("Directory not found, not watching", "path", root)
		return
	}
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Error walking directory", "path", p, "error", err)
			return nil
		}
		if d.IsDir() {
			if err := watcher.Add(p); err != nil {
				logger.Warn("Failed to watch directory", "path", p, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn("Error setting up watches", "path", root, "error", err)
	}
}

// newSiteRouter serves outputDir with caching disabled. Directories without an
// index.html are reported as not found instead of being listed.
func newSiteRouter(outputDir string) http.Handler {
	files := http.FileServer(http.Dir(outputDir))

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.NoCache)
	router.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") && r.URL.Path != "/" {
			clean := path.Clean("/" + r.URL.Path)
			if _, err := os.Stat(filepath.Join(outputDir, filepath.FromSlash(clean), "index.html")); err != nil {
				http.NotFound(w, r)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
	return router
}

func isDir(p string) bool {
	fileInfo, err := os.Stat(p)
	if err != nil {
		return false
	}
	return fileInfo.IsDir()
}

func init() {
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 1313, "Port to serve the site on")
	rootCmd.AddCommand(serveCmd)
}
