// Package render keeps the gallery markup in step with the catalog.
//
// The gallery container holds two kinds of cards: baseline cards shipped
// with the host page, which carry no data-id, and catalog cards, which
// carry their current catalog position as data-id. Refresh rebuilds only
// the latter and always places them ahead of the baseline.
package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/poku-e/whisk/internal/recipe"
)

const (
	ContainerSelector = ".recipes"
	DynamicSelector   = ".card[data-id]"
)

// Lister supplies the catalog in display order.
type Lister interface {
	All() []recipe.Recipe
}

// Merge returns the gallery order: every dynamic entry, in order, followed by
// every baseline entry, in order.
func Merge[T any](dynamic, baseline []T) []T {
	out := make([]T, 0, len(dynamic)+len(baseline))
	out = append(out, dynamic...)
	return append(out, baseline...)
}

type Renderer struct {
	list      Lister
	container string
}

func New(list Lister) *Renderer {
	return &Renderer{list: list, container: ContainerSelector}
}

// Refresh rebuilds the catalog cards inside doc. A document without a
// gallery container is left alone.
//
// The resulting card order is Merge(catalog cards, baseline cards): the new
// cards go in as one block ahead of the first baseline card, and the baseline
// nodes themselves are never moved or rewritten.
func (r *Renderer) Refresh(doc *goquery.Document) error {
	root := doc.Find(r.container).First()
	if root.Length() == 0 {
		return nil
	}

	root.Find(DynamicSelector).Remove()
	baseline := root.Children()

	var b strings.Builder
	for i, rec := range r.list.All() {
		card, err := Card(rec, i)
		if err != nil {
			return fmt.Errorf("render card %d: %w", i, err)
		}
		b.WriteString(card)
	}
	if b.Len() == 0 {
		return nil
	}

	if baseline.Length() > 0 {
		baseline.First().BeforeHtml(b.String())
	} else {
		root.AppendHtml(b.String())
	}
	return nil
}
