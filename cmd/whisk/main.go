// whisk serves the recipe gallery.
//
// Usage:
//
//	go run ./cmd/whisk -addr :8080 -backend sqlite -data whisk.db
//	go run ./cmd/whisk -config whisk.toml -page site/index.html -watch
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/poku-e/whisk/internal/config"
	"github.com/poku-e/whisk/internal/page"
	"github.com/poku-e/whisk/internal/store"
	"github.com/poku-e/whisk/internal/web"
)

// ---------- Main ----------

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "whisk.toml", "Path to TOML config file (optional)")
	addr := flag.String("addr", "", "Listen address")
	backend := flag.String("backend", "", "Storage backend: memory, file or sqlite")
	dataPath := flag.String("data", "", "Data directory (file) or database path (sqlite)")
	pagePath := flag.String("page", "", "Host page file or URL (default: built-in page)")
	staticDir := flag.String("static", "", "Directory served under /images/")
	watch := flag.Bool("watch", false, "Reload the host page file when it changes")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// flags win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "backend":
			cfg.Backend = *backend
		case "data":
			cfg.DataPath = *dataPath
		case "page":
			cfg.PagePath = *pagePath
		case "static":
			cfg.StaticDir = *staticDir
		case "watch":
			cfg.Watch = *watch
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DataPath != "" && !filepath.IsAbs(cfg.DataPath) {
		if abs, err := filepath.Abs(cfg.DataPath); err == nil {
			cfg.DataPath = abs
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := log.Default()

	kv, closeKV, err := store.Open(cfg.Backend, cfg.DataPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeKV(); cerr != nil {
			logger.Printf("error closing store: %v", cerr)
		}
	}()

	loadCtx, cancelLoad := context.WithTimeout(ctx, 60*time.Second)
	html, _, err := page.Load(loadCtx, cfg.PagePath)
	cancelLoad()
	if err != nil {
		return err
	}
	p := page.New(html)

	srv := web.New(kv, p, logger, web.Options{StaticDir: cfg.StaticDir})
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Printf("store: %s | data: %s", cfg.Backend, cfg.DataPath)
	logger.Printf("page: %s (%d bytes)", pageName(cfg.PagePath), len(html))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Printf("listening on %s", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutCtx)
	})
	if cfg.Watch {
		g.Go(func() error {
			return page.Watch(gctx, cfg.PagePath, p, logger)
		})
	}
	return g.Wait()
}

func pageName(src string) string {
	if src == "" {
		return "built-in"
	}
	return src
}
