// Package recipe holds the Recipe record and the rules that turn a submitted
// form into one.
package recipe

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ---------- Data model: Recipes ----------

type Recipe struct {
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Author       string   `json:"author"`
	Image        string   `json:"image"` // data URL or asset path
	Description  string   `json:"description"`
}

const (
	DefaultTitle    = "Sin título"
	DefaultImage    = "images/pancakes_fresa.jpg"
	AnonymousAuthor = "Anónimo"

	// MaxImageBytes is the largest photo accepted on submit (500 KiB).
	MaxImageBytes = 500 * 1024

	// DescriptionLen caps the summary line taken from the first step.
	DescriptionLen = 60
)

var (
	ErrImageTooLarge = errors.New("image too large (max 500 KB)")
	ErrInvalidImage  = errors.New("invalid image")
)

// Form is the raw field set collected from the add-recipe form.
type Form struct {
	Title        string
	Ingredients  string // comma separated
	Instructions string // one step per line
	Author       string
	Anonymous    bool
}

// FromForm derives a Recipe from raw form values. image is the already
// encoded photo, empty when none was supplied.
func FromForm(f Form, image string) Recipe {
	r := Recipe{
		Title:        f.Title,
		Ingredients:  SplitIngredients(f.Ingredients),
		Instructions: SplitInstructions(f.Instructions),
		Author:       strings.TrimSpace(f.Author),
		Image:        image,
	}
	if f.Anonymous {
		r.Author = AnonymousAuthor
	}
	return Normalize(r)
}

// Normalize applies the stored-record defaults: a title, an image, and a
// description taken from the first step. Lists are never nil.
func Normalize(r Recipe) Recipe {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.Image == "" {
		r.Image = DefaultImage
	}
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
	r.Description = Describe(r.Instructions)
	return r
}

var lineSplitter = regexp.MustCompile(`\r?\n`)

func SplitIngredients(s string) []string {
	return trimAll(strings.Split(s, ","))
}

func SplitInstructions(s string) []string {
	return trimAll(lineSplitter.Split(s, -1))
}

// Describe returns the first step cut to DescriptionLen runes.
func Describe(instructions []string) string {
	if len(instructions) == 0 {
		return ""
	}
	return truncate(instructions[0], DescriptionLen)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func trimAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
