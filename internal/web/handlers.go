package web

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/poku-e/whisk/internal/export"
	"github.com/poku-e/whisk/internal/prefs"
	"github.com/poku-e/whisk/internal/recipe"
	"github.com/poku-e/whisk/internal/render"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	client := clientID(r)
	doc, err := s.page.Document()
	if err != nil {
		http.Error(w, "page error", http.StatusInternalServerError)
		return
	}
	cat, release := s.catalogFor(client)
	err = render.New(cat).Refresh(doc)
	release()
	if err != nil {
		s.logger.Printf("render %s: %v", client, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	render.ApplyTheme(doc, s.prefsFor(client).Theme() == prefs.ThemeDark)

	html, err := doc.Html()
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write([]byte(html)); err != nil {
		s.logger.Printf("error writing response: %v", err)
	}
}

// handleSubmit builds a recipe from the add form, stores it at the front of
// the catalog and sends the browser back to the refreshed gallery.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseMultipartForm(recipe.MaxImageBytes * 2); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := recipe.Form{
		Title:        r.FormValue("title"),
		Ingredients:  r.FormValue("ingredients"),
		Instructions: r.FormValue("instructions"),
		Author:       r.FormValue("author"),
		Anonymous:    checked(r.FormValue("anonymous")),
	}

	img, err := s.formImage(r)
	switch {
	case errors.Is(err, recipe.ErrImageTooLarge):
		http.Error(w, "La imagen es muy grande (máximo 500 KB)", http.StatusRequestEntityTooLarge)
		return
	case errors.Is(err, recipe.ErrInvalidImage):
		http.Error(w, "El archivo no es una imagen válida", http.StatusBadRequest)
		return
	case err != nil:
		s.logger.Printf("read image: %v", err)
		http.Error(w, "could not read image", http.StatusBadRequest)
		return
	}

	rec := recipe.FromForm(form, img)
	cat, release := s.catalogFor(clientID(r))
	defer release()
	if err := cat.Add(rec); err != nil {
		s.logger.Printf("add recipe: %v", err)
		http.Error(w, "could not save recipe", http.StatusInternalServerError)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, rec)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// formImage encodes the uploaded photo, or returns "" when none was sent.
func (s *Server) formImage(r *http.Request) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	f, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer func(f multipart.File) {
		if cerr := f.Close(); cerr != nil {
			s.logger.Printf("error closing upload: %v", cerr)
		}
	}(f)
	if hdr.Size == 0 {
		return "", nil
	}
	return recipe.EncodeImage(r.Context(), f, hdr.Size, hdr.Header.Get("Content-Type"))
}

// handleDelete removes the recipe whose render-scoped id is in the path.
// Stale or malformed ids are ignored without an error.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	deleted := false
	if id, err := strconv.Atoi(r.PathValue("id")); err == nil {
		cat, release := s.catalogFor(clientID(r))
		ok, err := cat.RemoveAt(id)
		release()
		if err != nil {
			s.logger.Printf("remove recipe %d: %v", id, err)
			http.Error(w, "could not save recipes", http.StatusInternalServerError)
			return
		}
		deleted = ok
	}

	if r.Method == http.MethodDelete || wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	theme := prefs.ParseTheme(r.FormValue("theme"))
	if err := s.prefsFor(clientID(r)).SetTheme(theme); err != nil {
		s.logger.Printf("set theme: %v", err)
		http.Error(w, "could not save theme", http.StatusInternalServerError)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"theme": string(theme)})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.recipes(r))
}

// handleGallery returns the full display order: catalog entries first, then
// the host page's baseline recipes.
func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	entries, err := s.gallery(r)
	if err != nil {
		http.Error(w, "page error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) gallery(r *http.Request) ([]export.Entry, error) {
	doc, err := s.page.Document()
	if err != nil {
		return nil, err
	}
	baseline := export.Baseline(export.ParseCards(doc, nil))
	dynamic := export.CatalogEntries(s.recipes(r))
	return render.Merge(dynamic, baseline), nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	entries := export.CatalogEntries(s.recipes(r))
	if r.URL.Query().Get("baseline") == "1" {
		all, err := s.gallery(r)
		if err != nil {
			http.Error(w, "page error", http.StatusInternalServerError)
			return
		}
		entries = all
	}

	var (
		buf   bytes.Buffer
		err   error
		ctype string
		name  string
	)
	if strings.HasSuffix(r.URL.Path, ".xlsx") {
		err = export.WriteXLSX(&buf, entries)
		ctype = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		name = "recetas.xlsx"
	} else {
		err = export.WriteCSV(&buf, entries)
		ctype = "text/csv; charset=utf-8"
		name = "recetas.csv"
	}
	if err != nil {
		s.logger.Printf("export: %v", err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Printf("error writing response: %v", err)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off", "no":
		return false
	default:
		return true
	}
}
