package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/poku-e/whisk/internal/recipe"
)

var cardTmpl = template.Must(template.New("card").Parse(`<article class="card recipe fade-in" tabindex="0" data-id="{{.ID}}">
  <img src="{{.Image}}" alt="{{.Title}}" class="card-img">
  <h4 class="card-title">{{.Title}}</h4>
  <div class="card-body">
    <p class="intro">{{.Description}}</p>
    <div class="card-details">
      <h5>Ingredientes</h5>
      <ul>{{range .Ingredients}}<li>{{.}}</li>{{end}}</ul>
      <h5>Preparación</h5>
      <ol>{{range .Instructions}}<li>{{.}}</li>{{end}}</ol>
      <form method="post" action="/recipes/{{.ID}}/delete" class="card-actions">
        <button type="submit" class="btn delete" data-id="{{.ID}}">Eliminar</button>
      </form>
    </div>
  </div>
</article>`))

type cardView struct {
	ID           int
	Image        any
	Title        string
	Description  string
	Ingredients  []string
	Instructions []string
}

// Card renders one recipe as gallery markup tagged with id.
func Card(r recipe.Recipe, id int) (string, error) {
	v := cardView{
		ID:           id,
		Image:        imageSrc(r.Image),
		Title:        r.Title,
		Description:  r.Description,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
	}
	var buf bytes.Buffer
	if err := cardTmpl.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// imageSrc lets inline image data through the URL filter; html/template
// would otherwise blank every data: URL.
func imageSrc(img string) any {
	switch {
	case img == "":
		return recipe.DefaultImage
	case strings.HasPrefix(img, "data:image/"):
		return template.URL(img)
	default:
		return img
	}
}
