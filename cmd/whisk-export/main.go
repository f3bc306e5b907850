// whisk-export writes one client's recipes to a spreadsheet.
//
// Usage examples:
//
//	go run ./cmd/whisk-export --backend sqlite --data whisk.db --client <uuid> --out recetas.xlsx
//	go run ./cmd/whisk-export --data whisk-data --client <uuid> --page https://example.com/ --out recetas.csv
//
// With --page the baseline recipes of that host page are appended after the
// client's own recipes, in gallery order.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/poku-e/whisk/internal/catalog"
	"github.com/poku-e/whisk/internal/config"
	"github.com/poku-e/whisk/internal/export"
	"github.com/poku-e/whisk/internal/page"
	"github.com/poku-e/whisk/internal/render"
	"github.com/poku-e/whisk/internal/store"
)

func main() {
	var (
		backend  string
		dataPath string
		client   string
		pageSrc  string
		outPath  string
	)
	flag.StringVar(&backend, "backend", config.DefaultBackend, "Storage backend: file or sqlite")
	flag.StringVar(&dataPath, "data", config.DefaultDataPath, "Data directory (file) or database path (sqlite)")
	flag.StringVar(&client, "client", "", "Client id (whisk_client cookie value)")
	flag.StringVar(&pageSrc, "page", "", "Host page file or URL whose baseline recipes are included")
	flag.StringVar(&outPath, "out", "", "Output file path (.csv or .xlsx) (required)")
	flag.Parse()

	if outPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	entries, err := collect(ctx, backend, dataPath, client, pageSrc)
	if err != nil {
		fatal(err)
	}
	if len(entries) == 0 {
		fatal(errors.New("nothing to export; check --client or --page"))
	}
	if err := export.WriteFile(outPath, entries); err != nil {
		fatal(err)
	}

	fmt.Printf("OK: %d recipes -> %s\n", len(entries), outPath)
}

func collect(ctx context.Context, backend, dataPath, client, pageSrc string) ([]export.Entry, error) {
	kv, closeKV, err := store.Open(backend, dataPath)
	if err != nil {
		return nil, err
	}
	defer closeKV()

	var dynamic []export.Entry
	if client != "" {
		c := catalog.New(store.New(store.Scoped(kv, client), nil))
		dynamic = export.CatalogEntries(c.All())
	}
	if pageSrc == "" {
		return dynamic, nil
	}

	html, base, err := page.Load(ctx, pageSrc)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}
	baseline := export.Baseline(export.ParseCards(doc, base))
	return render.Merge(dynamic, baseline), nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
