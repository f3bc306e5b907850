// Package page loads the host page that frames the gallery. The page
// supplies the baseline recipe cards and the .recipes container the
// renderer fills.
package page

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

//go:embed templates/*.html
var tmplFS embed.FS

// Default returns the built-in host page.
func Default() []byte {
	b, err := tmplFS.ReadFile("templates/index.html")
	if err != nil {
		panic(err)
	}
	return b
}

func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Load reads the host page from src: the built-in page when src is empty,
// an http(s) URL, or a file path. base is the final URL for fetched pages
// and nil otherwise.
func Load(ctx context.Context, src string) ([]byte, *url.URL, error) {
	switch {
	case src == "":
		return Default(), nil, nil
	case IsURL(src):
		s, base, err := fetch(ctx, src)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch page: %w", err)
		}
		return []byte(s), base, nil
	default:
		b, err := os.ReadFile(src)
		if err != nil {
			return nil, nil, fmt.Errorf("read page: %w", err)
		}
		return b, nil, nil
	}
}

// Page holds the current host page. It is swapped whole on reload.
type Page struct {
	mu   sync.RWMutex
	html []byte
}

func New(html []byte) *Page {
	return &Page{html: html}
}

func (p *Page) Set(html []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = html
}

// Document parses a fresh copy of the page, so every render starts from the
// pristine baseline.
func (p *Page) Document() (*goquery.Document, error) {
	p.mu.RLock()
	html := p.html
	p.mu.RUnlock()
	return goquery.NewDocumentFromReader(bytes.NewReader(html))
}
