package testutil

import (
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const maxRedirects = 5

// Browser drives a handler like a user agent: it keeps cookies between
// requests and can follow redirects.
type Browser struct {
	t       *testing.T
	handler http.Handler
	jar     *cookiejar.Jar
	base    *url.URL
}

// NewBrowser creates a browser with an empty cookie jar
func NewBrowser(t *testing.T, handler http.Handler) *Browser {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	base, err := url.Parse("http://tasktracker.test")
	require.NoError(t, err)

	return &Browser{t: t, handler: handler, jar: jar, base: base}
}

// Do sends one request; form, when non-nil, is sent url-encoded
func (b *Browser) Do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()

	target, err := b.base.Parse(path)
	require.NoError(b.t, err)

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, target.String(), body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, cookie := range b.jar.Cookies(target) {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	b.handler.ServeHTTP(w, req)

	b.jar.SetCookies(target, w.Result().Cookies())
	return w
}

// Get sends a GET without following redirects
func (b *Browser) Get(path string) *httptest.ResponseRecorder {
	return b.Do(http.MethodGet, path, nil)
}

// Post sends a form POST without following redirects
func (b *Browser) Post(path string, form url.Values) *httptest.ResponseRecorder {
	return b.Do(http.MethodPost, path, form)
}

// Follow GETs redirect targets until a non-redirect response arrives
func (b *Browser) Follow(w *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	b.t.Helper()

	for i := 0; i < maxRedirects && isRedirect(w.Code); i++ {
		w = b.Get(w.Header().Get("Location"))
	}
	require.False(b.t, isRedirect(w.Code), "too many redirects")
	return w
}

// Visit GETs path and follows redirects
func (b *Browser) Visit(path string) *httptest.ResponseRecorder {
	return b.Follow(b.Get(path))
}

// Submit POSTs form to path and follows redirects
func (b *Browser) Submit(path string, form url.Values) *httptest.ResponseRecorder {
	return b.Follow(b.Post(path, form))
}

// Login signs in through the login form
func (b *Browser) Login(email, password string) *httptest.ResponseRecorder {
	return b.Submit("/login", url.Values{
		"email":    {email},
		"password": {password},
	})
}

// HasCookie reports whether the jar holds a cookie with the given name
func (b *Browser) HasCookie(name string) bool {
	for _, cookie := range b.jar.Cookies(b.base) {
		if cookie.Name == name && cookie.Value != "" {
			return true
		}
	}
	return false
}

// Body returns the response text with HTML entities decoded
func Body(w *httptest.ResponseRecorder) string {
	return html.UnescapeString(w.Body.String())
}

// InputValue extracts the value attribute of the named input
func InputValue(t *testing.T, w *httptest.ResponseRecorder, name string) string {
	t.Helper()

	re := regexp.MustCompile(`name="` + regexp.QuoteMeta(name) + `"[^>]*value="([^"]*)"`)
	match := re.FindStringSubmatch(w.Body.String())
	require.NotNil(t, match, "input %q not found", name)
	return html.UnescapeString(match[1])
}

func isRedirect(code int) bool {
	return code >= 300 && code < 400
}
