package export

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/poku-e/whisk/internal/recipe"
)

var spaceRe = regexp.MustCompile(`\s+`)

func textCondense(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func resolve(base *url.URL, ref string) string {
	if ref == "" || base == nil || strings.HasPrefix(ref, "data:") {
		return ref
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(ru).String()
}

func first(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return textCondense(sel.First().Text())
}

func items(sel *goquery.Selection) []string {
	out := []string{}
	sel.Each(func(_ int, li *goquery.Selection) {
		if t := textCondense(li.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// ParseCards reads every recipe card inside the .recipes container of doc,
// in document order. Cards with a data-id are catalog entries; the rest are
// baseline. Relative image paths are resolved against base when it is set.
func ParseCards(doc *goquery.Document, base *url.URL) []Entry {
	var out []Entry
	doc.Find(".recipes .card").Each(func(_ int, card *goquery.Selection) {
		title := first(card.Find(".card-title"))
		if title == "" {
			if alt, ok := card.Find("img").First().Attr("alt"); ok {
				title = strings.TrimSpace(alt)
			}
		}

		var img string
		if s, ok := card.Find("img").First().Attr("src"); ok {
			img = resolve(base, s)
		}

		e := Entry{
			ID:     -1,
			Source: SourceBaseline,
			Recipe: recipe.Recipe{
				Title:        title,
				Ingredients:  items(card.Find("ul li")),
				Instructions: items(card.Find("ol li")),
				Image:        img,
				Description:  first(card.Find(".intro")),
			},
		}
		if raw, ok := card.Attr("data-id"); ok {
			if id, err := strconv.Atoi(raw); err == nil {
				e.ID = id
				e.Source = SourceCatalog
			}
		}
		out = append(out, e)
	})
	return out
}

// Baseline keeps only the cards that did not come from a catalog.
func Baseline(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Source == SourceBaseline {
			out = append(out, e)
		}
	}
	return out
}
