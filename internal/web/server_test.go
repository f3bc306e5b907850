package web

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poku-e/whisk/internal/export"
	"github.com/poku-e/whisk/internal/page"
	"github.com/poku-e/whisk/internal/recipe"
	"github.com/poku-e/whisk/internal/store"
)

const hostPage = `<!doctype html><html><head><title>t</title></head><body>
<input type="checkbox" id="themeToggle">
<section class="recipes">
  <article class="card recipe"><h4 class="card-title">Base 1</h4></article>
  <article class="card recipe"><h4 class="card-title">Base 2</h4></article>
</section></body></html>`

// client drives the server as one browser: it keeps the client cookie and
// does not follow redirects.
type client struct {
	t      *testing.T
	srv    *Server
	h      http.Handler
	cookie *http.Cookie
}

func newClient(t *testing.T) *client {
	t.Helper()
	srv := New(store.NewMemoryKV(), page.New([]byte(hostPage)), nil, Options{})
	return &client{t: t, srv: srv, h: srv.Handler()}
}

// another returns a second browser talking to the same server.
func (c *client) another() *client {
	return &client{t: c.t, srv: c.srv, h: c.h}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == ClientCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) postForm(path string, vals url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) postMultipart(path string, vals map[string]string, file []byte) *httptest.ResponseRecorder {
	return c.postUpload(path, vals, file, "")
}

// postUpload sends the form with file as the image part. An empty ctype
// leaves the part typed application/octet-stream.
func (c *client) postUpload(path string, vals map[string]string, file []byte, ctype string) *httptest.ResponseRecorder {
	c.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range vals {
		require.NoError(c.t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="photo"`)
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		h.Set("Content-Type", ctype)
		fw, err := mw.CreatePart(h)
		require.NoError(c.t, err)
		_, err = fw.Write(file)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *client) recipes() []recipe.Recipe {
	c.t.Helper()
	rec := c.get("/api/recipes")
	require.Equal(c.t, http.StatusOK, rec.Code)
	var list []recipe.Recipe
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &list))
	return list
}

// gallery renders the index and returns card titles and data-ids in order.
func (c *client) gallery() (titles, ids []string) {
	c.t.Helper()
	rec := c.get("/")
	require.Equal(c.t, http.StatusOK, rec.Code)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(c.t, err)
	doc.Find(".recipes > .card").Each(func(_ int, s *goquery.Selection) {
		titles = append(titles, strings.TrimSpace(s.Find(".card-title").Text()))
		id, _ := s.Attr("data-id")
		ids = append(ids, id)
	})
	return titles, ids
}

func (c *client) add(title string) {
	c.t.Helper()
	rec := c.postForm("/recipes", url.Values{
		"title":        {title},
		"ingredients":  {"a, b"},
		"instructions": {"Step for " + title},
	})
	require.Equal(c.t, http.StatusSeeOther, rec.Code)
	assert.Equal(c.t, "/", rec.Header().Get("Location"))
}

func TestIndexShowsBaselineOnly(t *testing.T) {
	c := newClient(t)
	titles, ids := c.gallery()
	assert.Equal(t, []string{"Base 1", "Base 2"}, titles)
	assert.Equal(t, []string{"", ""}, ids)
	require.NotNil(t, c.cookie, "client cookie not issued")
	assert.Empty(t, c.recipes())
}

func TestSubmitRendersNewestFirst(t *testing.T) {
	c := newClient(t)
	c.add("A")
	c.add("B")

	titles, ids := c.gallery()
	assert.Equal(t, []string{"B", "A", "Base 1", "Base 2"}, titles)
	assert.Equal(t, []string{"0", "1", "", ""}, ids)
}

func TestSubmitDerivesRecord(t *testing.T) {
	c := newClient(t)
	rec := c.postMultipart("/recipes", map[string]string{
		"title":        "Pancakes",
		"ingredients":  "flour,egg",
		"instructions": "Mix\nCook",
		"author":       "Ana",
	}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	list := c.recipes()
	require.Len(t, list, 1)
	assert.Equal(t, "Mix", list[0].Description)
	assert.Equal(t, "images/pancakes_fresa.jpg", list[0].Image)
	assert.Equal(t, "Ana", list[0].Author)
	assert.Equal(t, []string{"flour", "egg"}, list[0].Ingredients)
}

func TestSubmitAnonymous(t *testing.T) {
	c := newClient(t)
	c.postForm("/recipes", url.Values{"title": {"Flan"}, "author": {"Luis"}, "anonymous": {"on"}})
	list := c.recipes()
	require.Len(t, list, 1)
	assert.Equal(t, recipe.AnonymousAuthor, list[0].Author)
}

func TestSubmitWithImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))

	c := newClient(t)
	rec := c.postMultipart("/recipes", map[string]string{"title": "Foto"}, buf.Bytes())
	require.Equal(t, http.StatusSeeOther, rec.Code)

	list := c.recipes()
	require.Len(t, list, 1)
	assert.True(t, strings.HasPrefix(list[0].Image, "data:image/png;base64,"))
}

func TestSubmitOversizedImageAborts(t *testing.T) {
	c := newClient(t)
	c.add("kept")

	rec := c.postMultipart("/recipes", map[string]string{"title": "Huge"}, make([]byte, 600*1024))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "500 KB")

	list := c.recipes()
	require.Len(t, list, 1)
	assert.Equal(t, "kept", list[0].Title)
}

func TestSubmitNonImageRejected(t *testing.T) {
	c := newClient(t)
	rec := c.postMultipart("/recipes", map[string]string{"title": "x"}, []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, c.recipes())
}

func TestSubmitJSONClient(t *testing.T) {
	c := newClient(t)
	rec := c.postForm("/api/recipes", url.Values{"title": {""}, "instructions": {"Hervir"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	var got recipe.Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, recipe.DefaultTitle, got.Title)
	assert.Equal(t, "Hervir", got.Description)
}

func TestDeleteMiddleRenumbers(t *testing.T) {
	c := newClient(t)
	for _, title := range []string{"C", "B", "A"} {
		c.add(title)
	}
	_, ids := c.gallery()
	require.Equal(t, []string{"0", "1", "2", "", ""}, ids)

	rec := c.postForm("/recipes/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	titles, ids := c.gallery()
	assert.Equal(t, []string{"A", "C", "Base 1", "Base 2"}, titles)
	assert.Equal(t, []string{"0", "1", "", ""}, ids)
}

func TestDeleteInvalidIgnored(t *testing.T) {
	c := newClient(t)
	c.add("A")
	c.add("B")

	for _, id := range []string{"2", "-1", "abc", "1.5"} {
		rec := c.postForm("/recipes/"+id+"/delete", nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, id)
	}
	titles, _ := c.gallery()
	assert.Equal(t, []string{"B", "A", "Base 1", "Base 2"}, titles)
}

func TestDeleteAPI(t *testing.T) {
	c := newClient(t)
	c.add("A")

	del := func(id string) map[string]bool {
		rec := c.do(httptest.NewRequest(http.MethodDelete, "/api/recipes/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var out map[string]bool
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out
	}
	assert.False(t, del("5")["deleted"])
	assert.True(t, del("0")["deleted"])
	// stale id from the previous render
	assert.False(t, del("0")["deleted"])
	assert.Empty(t, c.recipes())
}

func TestClientsAreIsolated(t *testing.T) {
	a := newClient(t)
	a.add("mine")
	b := a.another()

	titles, _ := b.gallery()
	assert.Equal(t, []string{"Base 1", "Base 2"}, titles)
	assert.NotEqual(t, a.cookie.Value, b.cookie.Value)
	assert.Len(t, a.recipes(), 1)
}

func TestBadCookieReplaced(t *testing.T) {
	c := newClient(t)
	c.cookie = &http.Cookie{Name: ClientCookie, Value: "../../etc"}
	c.get("/")
	assert.NotEqual(t, "../../etc", c.cookie.Value)
}

func TestTheme(t *testing.T) {
	c := newClient(t)
	rec := c.postForm("/theme", url.Values{"theme": {"dark"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	doc, err := goquery.NewDocumentFromReader(c.get("/").Body)
	require.NoError(t, err)
	assert.True(t, doc.Find("html").HasClass("dark"))

	// an unchecked toggle submits no value
	c.postForm("/theme", url.Values{})
	doc, err = goquery.NewDocumentFromReader(c.get("/").Body)
	require.NoError(t, err)
	assert.False(t, doc.Find("html").HasClass("dark"))
}

func TestGalleryAPI(t *testing.T) {
	c := newClient(t)
	c.add("A")

	rec := c.get("/api/gallery")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []export.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "A", entries[0].Title)
	assert.Equal(t, 0, entries[0].ID)
	assert.Equal(t, export.SourceBaseline, entries[1].Source)
	assert.Equal(t, "Base 2", entries[2].Title)
}

func TestExportCSV(t *testing.T) {
	c := newClient(t)
	c.add("A")

	rec := c.get("/export.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "recetas.csv")
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rec = c.get("/export.csv?baseline=1")
	rows, err = csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	rec = c.get("/export.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip")
}

func TestIndexWithoutContainer(t *testing.T) {
	srv := New(store.NewMemoryKV(), page.New([]byte("<html><body><p>plain</p></body></html>")), nil, Options{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "plain")
}

// 1x1 lossless WebP
var webpPhoto = []byte("RIFF\x1a\x00\x00\x00WEBPVP8L\x0d\x00\x00\x00\x2f\x00\x00\x00\x10\x07\x10\x11\x11\x88\x88\xfe\x07\x00")

func TestSubmitWebPImage(t *testing.T) {
	c := newClient(t)
	rec := c.postUpload("/recipes", map[string]string{"title": "Mochi"}, webpPhoto, "image/webp")
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	list := c.recipes()
	require.Len(t, list, 1)
	assert.True(t, strings.HasPrefix(list[0].Image, "data:image/webp;base64,"), list[0].Image)

	doc, err := goquery.NewDocumentFromReader(c.get("/").Body)
	require.NoError(t, err)
	src, _ := doc.Find(".card[data-id] img").First().Attr("src")
	assert.Equal(t, list[0].Image, src)
}

func TestSubmitSVGImage(t *testing.T) {
	c := newClient(t)
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"/>`)
	rec := c.postUpload("/recipes", map[string]string{"title": "Dango"}, svg, "image/svg+xml")
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(c.recipes()[0].Image, "data:image/svg+xml;base64,"))
}

func TestSubmitDeclaredNonImageRejected(t *testing.T) {
	c := newClient(t)
	rec := c.postUpload("/recipes", map[string]string{"title": "X"}, []byte("<script>alert(1)</script>"), "text/html")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, c.recipes())
}

func TestIdleClientsReleaseCatalogs(t *testing.T) {
	c := newClient(t)
	for i := 0; i < 500; i++ {
		// no cookie: every request is a new client
		rec := httptest.NewRecorder()
		c.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recipes", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	c.add("A")
	c.get("/")
	c.postForm("/recipes/0/delete", url.Values{})

	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	assert.Empty(t, c.srv.catalogs)
}

func TestConcurrentSubmitsFromOneClient(t *testing.T) {
	c := newClient(t)
	c.get("/")
	cookie := c.cookie

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vals := url.Values{"title": {fmt.Sprintf("r%d", i)}}
			req := httptest.NewRequest(http.MethodPost, "/recipes", strings.NewReader(vals.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			c.h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
		}(i)
	}
	wg.Wait()

	assert.Len(t, c.recipes(), n)
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	assert.Empty(t, c.srv.catalogs)
}
