package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pageviewer/internal/document"
	"github.com/local/pageviewer/internal/document/documenttest"
	"github.com/local/pageviewer/internal/imagerender"
	"github.com/local/pageviewer/internal/viewer"
)

func newServer(t *testing.T, opts Options) (*httptest.Server, *documenttest.Decoder) {
	t.Helper()
	dec := documenttest.NewDecoder()
	w := New(opts)
	v := viewer.New(w, viewer.Options{Session: document.Options{Decoder: dec}})
	loop := viewer.NewLoop(v)
	w.Attach(loop)

	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		v.Close()
	})

	mux := http.NewServeMux()
	w.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, dec
}

func postJSON(t *testing.T, srv *httptest.Server, path string, form url.Values) StateResponse {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st StateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func TestOpenNavigateAndFetchImage(t *testing.T) {
	srv, dec := newServer(t, Options{Encoding: imagerender.Options{Format: imagerender.FormatPNG}})
	dec.Add("doc.pdf", documenttest.NewDoc(3))

	st := postJSON(t, srv, "/open", url.Values{"path": {"doc.pdf"}})
	assert.Equal(t, viewer.StateLoaded, st.State)
	assert.Equal(t, "Page: 1/3", st.Label)
	assert.Nil(t, st.Error)

	st = postJSON(t, srv, "/next", nil)
	assert.Equal(t, "Page: 2/3", st.Label)

	st = postJSON(t, srv, "/key", url.Values{"key": {"+"}})
	assert.InDelta(t, 1.2, st.Zoom, 1e-9)

	resp, err := http.Get(srv.URL + "/image")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	var body [8]byte
	_, err = io.ReadFull(resp.Body, body[:])
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG\r\n\x1a\n", string(body[:]))
}

func TestOpenFailureShowsError(t *testing.T) {
	srv, _ := newServer(t, Options{})

	st := postJSON(t, srv, "/open", url.Values{"path": {"corrupt.pdf"}})
	assert.Equal(t, viewer.StateClosed, st.State)
	require.NotNil(t, st.Error)
	assert.Equal(t, viewer.ErrorLoad, st.Error.Kind)

	st = postJSON(t, srv, "/dismiss", nil)
	assert.Nil(t, st.Error)

	resp, err := http.Get(srv.URL + "/image")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRenderFailureKeepsImageAndLabel(t *testing.T) {
	srv, dec := newServer(t, Options{})
	doc := dec.Add("doc.pdf", documenttest.NewDoc(2))
	doc.Pages[1].Empty = true

	postJSON(t, srv, "/open", url.Values{"path": {"doc.pdf"}})
	st := postJSON(t, srv, "/next", nil)

	assert.Equal(t, 1, st.Page)
	assert.Equal(t, "Page: 1/2", st.Label)
	require.NotNil(t, st.Error)
	assert.Equal(t, viewer.ErrorRasterize, st.Error.Kind)
}

func TestUnboundKeyAndMethod(t *testing.T) {
	srv, _ := newServer(t, Options{})

	resp, err := http.PostForm(srv.URL+"/key", url.Values{"key": {"x"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/next")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPageRenders(t *testing.T) {
	srv, dec := newServer(t, Options{})
	dec.Add("doc.pdf", documenttest.NewDoc(1))
	postJSON(t, srv, "/open", url.Values{"path": {"doc.pdf"}})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Page: 1/1")
	assert.Contains(t, buf.String(), "data:image/png;base64,")
}

func TestAuthRequiredWhenConfigured(t *testing.T) {
	srv, _ := newServer(t, Options{Username: "u", Password: "p"})
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	resp, err := client.Get(srv.URL + "/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, err = client.PostForm(srv.URL+"/login", url.Values{"username": {"u"}, "password": {"p"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/state", nil)
	req.AddCookie(cookies[0])
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForgedAuthCookieRejected(t *testing.T) {
	srv, _ := newServer(t, Options{Username: "u", Password: "p"})
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	for _, value := range []string{"1", "", "not-a-session"} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/state", nil)
		req.AddCookie(&http.Cookie{Name: "auth", Value: value})
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, value)
		assert.Equal(t, "/login", resp.Header.Get("Location"), value)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	srv, _ := newServer(t, Options{Username: "u", Password: "p"})
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	resp, err := client.PostForm(srv.URL+"/login", url.Values{"username": {"u"}, "password": {"wrong"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/login?error=invalid+credentials", resp.Header.Get("Location"))
	assert.Empty(t, resp.Cookies())

	resp, err = client.PostForm(srv.URL+"/login", url.Values{"username": {"u"}, "password": {"p"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.NotEmpty(t, resp.Cookies())
	session := resp.Cookies()[0]
	assert.NotEqual(t, "1", session.Value)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/logout", nil)
	req.AddCookie(session)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/state", nil)
	req.AddCookie(session)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestEncodeFailureIsShown(t *testing.T) {
	w := New(Options{})

	w.OnImageReady(nil, "Page: 2/3")

	w.mu.Lock()
	defer w.mu.Unlock()
	require.NotNil(t, w.lastErr)
	assert.Equal(t, viewer.ErrorRasterize, w.lastErr.Kind)
	assert.Contains(t, w.lastErr.Message, "Page: 2/3")
	assert.Equal(t, "Page: 0/0", w.label)
	assert.Nil(t, w.img)
}
