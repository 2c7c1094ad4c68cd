package web

import (
    "context"
    "crypto/subtle"
    "encoding/json"
    "fmt"
    "html/template"
    "image"
    "net/http"
    "strings"
    "sync"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/pageviewer/internal/imagerender"
    "github.com/local/pageviewer/internal/viewer"
)

// Options configures the HTTP front end.
type Options struct {
    Username string
    Password string
    Encoding imagerender.Options
}

// DisplayError is the last error shown to the user; cleared on dismiss.
type DisplayError struct {
    Kind    viewer.ErrorKind `json:"kind"`
    Message string           `json:"message"`
}

// StateResponse is served by /state and returned from actions.
type StateResponse struct {
    viewer.Status
    Error *DisplayError `json:"error,omitempty"`
}

// Web serves the viewer over HTTP and is its Display.
type Web struct {
    tpl      *template.Template
    username string
    password string
    enc      imagerender.Options
    loop     *viewer.Loop

    mu      sync.Mutex
    img     []byte
    label   string
    lastErr *DisplayError
    tokens  map[string]struct{}
}

const authCookie = "auth"

func New(opts Options) *Web {
    return &Web{
        tpl:      template.Must(template.New("web").Parse(pageHTML)),
        username: opts.Username,
        password: opts.Password,
        enc:      opts.Encoding,
        label:    "Page: 0/0",
        tokens:   map[string]struct{}{},
    }
}

// Attach connects the loop that owns the viewer. It must be called before
// serving requests.
func (w *Web) Attach(loop *viewer.Loop) { w.loop = loop }

// OnImageReady implements viewer.Display. It runs on the loop goroutine.
func (w *Web) OnImageReady(img image.Image, label string) {
    data, _, _, err := imagerender.Encode(img, w.enc)
    if err != nil {
        log.Error().Err(err).Str("label", label).Msg("encoding page for display")
        w.OnError(viewer.ErrorRasterize, fmt.Sprintf("Error displaying %s: %v", label, err))
        return
    }
    w.mu.Lock()
    w.img = data
    w.label = label
    w.mu.Unlock()
}

// OnError implements viewer.Display.
func (w *Web) OnError(kind viewer.ErrorKind, message string) {
    w.mu.Lock()
    w.lastErr = &DisplayError{Kind: kind, Message: message}
    w.mu.Unlock()
}

func (w *Web) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/login", w.handleLogin)
    mux.HandleFunc("/logout", w.handleLogout)
    mux.HandleFunc("/", w.requireAuth(w.handlePage))
    mux.HandleFunc("/image", w.requireAuth(w.handleImage))
    mux.HandleFunc("/state", w.requireAuth(w.handleState))
    mux.HandleFunc("/dismiss", w.requireAuth(w.post(w.handleDismiss)))
    mux.HandleFunc("/open", w.requireAuth(w.post(w.handleOpen)))
    mux.HandleFunc("/next", w.requireAuth(w.post(w.action(viewer.ActionNextPage))))
    mux.HandleFunc("/prev", w.requireAuth(w.post(w.action(viewer.ActionPreviousPage))))
    mux.HandleFunc("/zoom-in", w.requireAuth(w.post(w.action(viewer.ActionZoomIn))))
    mux.HandleFunc("/zoom-out", w.requireAuth(w.post(w.action(viewer.ActionZoomOut))))
    mux.HandleFunc("/key", w.requireAuth(w.post(w.handleKey)))
}

func (w *Web) requireAuth(next http.HandlerFunc) http.HandlerFunc {
    return func(wr http.ResponseWriter, r *http.Request) {
        if w.username == "" && w.password == "" {
            next(wr, r)
            return
        }
        c, err := r.Cookie(authCookie)
        if err != nil || !w.validToken(c.Value) {
            http.Redirect(wr, r, "/login", http.StatusSeeOther)
            return
        }
        next(wr, r)
    }
}

func (w *Web) post(next http.HandlerFunc) http.HandlerFunc {
    return func(wr http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodPost {
            wr.WriteHeader(http.StatusMethodNotAllowed)
            return
        }
        next(wr, r)
    }
}

func (w *Web) handleLogin(wr http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodGet:
        _ = w.tpl.ExecuteTemplate(wr, "login", map[string]any{"Error": r.URL.Query().Get("error")})
    case http.MethodPost:
        if err := r.ParseForm(); err != nil { http.Redirect(wr, r, "/login?error=invalid+form", http.StatusSeeOther); return }
        if w.checkCredentials(r.Form.Get("username"), r.Form.Get("password")) {
            token := uuid.NewString()
            w.mu.Lock()
            w.tokens[token] = struct{}{}
            w.mu.Unlock()
            http.SetCookie(wr, &http.Cookie{Name: authCookie, Value: token, Path: "/", HttpOnly: true, SameSite: http.SameSiteStrictMode})
            http.Redirect(wr, r, "/", http.StatusSeeOther)
            return
        }
        http.Redirect(wr, r, "/login?error=invalid+credentials", http.StatusSeeOther)
    default:
        wr.WriteHeader(http.StatusMethodNotAllowed)
    }
}

func (w *Web) checkCredentials(username, password string) bool {
    u := subtle.ConstantTimeCompare([]byte(username), []byte(w.username))
    p := subtle.ConstantTimeCompare([]byte(password), []byte(w.password))
    return u&p == 1
}

func (w *Web) validToken(token string) bool {
    if token == "" {
        return false
    }
    w.mu.Lock()
    defer w.mu.Unlock()
    _, ok := w.tokens[token]
    return ok
}

func (w *Web) handleLogout(wr http.ResponseWriter, r *http.Request) {
    if c, err := r.Cookie(authCookie); err == nil {
        w.mu.Lock()
        delete(w.tokens, c.Value)
        w.mu.Unlock()
    }
    http.SetCookie(wr, &http.Cookie{Name: authCookie, Value: "", Path: "/", MaxAge: -1})
    http.Redirect(wr, r, "/login", http.StatusSeeOther)
}

func (w *Web) handlePage(wr http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/" {
        http.NotFound(wr, r)
        return
    }
    st, err := w.state(r.Context())
    if err != nil { http.Error(wr, "viewer unavailable", http.StatusServiceUnavailable); return }

    w.mu.Lock()
    var src template.URL
    if w.img != nil {
        src = template.URL(imagerender.DataURL(w.img, w.enc))
    }
    label := w.label
    w.mu.Unlock()

    _ = w.tpl.ExecuteTemplate(wr, "page", map[string]any{
        "State": st,
        "Label": label,
        "Image": src,
    })
}

func (w *Web) handleImage(wr http.ResponseWriter, r *http.Request) {
    w.mu.Lock()
    data := w.img
    w.mu.Unlock()
    if data == nil {
        http.Error(wr, "no page rendered", http.StatusNotFound)
        return
    }
    wr.Header().Set("Content-Type", w.enc.ContentType())
    wr.Header().Set("Cache-Control", "no-store")
    wr.Write(data)
}

func (w *Web) handleState(wr http.ResponseWriter, r *http.Request) {
    st, err := w.state(r.Context())
    if err != nil { http.Error(wr, "viewer unavailable", http.StatusServiceUnavailable); return }
    writeJSON(wr, http.StatusOK, st)
}

func (w *Web) handleDismiss(wr http.ResponseWriter, r *http.Request) {
    w.mu.Lock()
    w.lastErr = nil
    w.mu.Unlock()
    w.respond(wr, r)
}

func (w *Web) handleOpen(wr http.ResponseWriter, r *http.Request) {
    if err := r.ParseForm(); err != nil { http.Error(wr, "invalid form", http.StatusBadRequest); return }
    ref := strings.TrimSpace(r.Form.Get("path"))
    if ref == "" { http.Error(wr, "missing path", http.StatusBadRequest); return }
    w.clearError()
    if err := w.loop.Do(r.Context(), func(ctx context.Context, v *viewer.Viewer) { _ = v.Open(ctx, ref) }); err != nil {
        http.Error(wr, "viewer unavailable", http.StatusServiceUnavailable)
        return
    }
    w.respond(wr, r)
}

func (w *Web) action(a viewer.Action) http.HandlerFunc {
    return func(wr http.ResponseWriter, r *http.Request) {
        w.clearError()
        if err := w.loop.Do(r.Context(), func(ctx context.Context, v *viewer.Viewer) { _ = v.Do(ctx, a) }); err != nil {
            http.Error(wr, "viewer unavailable", http.StatusServiceUnavailable)
            return
        }
        w.respond(wr, r)
    }
}

func (w *Web) handleKey(wr http.ResponseWriter, r *http.Request) {
    if err := r.ParseForm(); err != nil { http.Error(wr, "invalid form", http.StatusBadRequest); return }
    a, ok := viewer.ActionForKey(r.Form.Get("key"))
    if !ok {
        http.Error(wr, "unbound key", http.StatusBadRequest)
        return
    }
    w.action(a)(wr, r)
}

func (w *Web) clearError() {
    w.mu.Lock()
    w.lastErr = nil
    w.mu.Unlock()
}

func (w *Web) state(ctx context.Context) (StateResponse, error) {
    var st viewer.Status
    if err := w.loop.Do(ctx, func(_ context.Context, v *viewer.Viewer) { st = v.Status() }); err != nil {
        return StateResponse{}, err
    }
    w.mu.Lock()
    defer w.mu.Unlock()
    return StateResponse{Status: st, Error: w.lastErr}, nil
}

// respond answers API clients with JSON and browsers with a redirect home.
func (w *Web) respond(wr http.ResponseWriter, r *http.Request) {
    if strings.Contains(r.Header.Get("Accept"), "application/json") {
        w.handleState(wr, r)
        return
    }
    http.Redirect(wr, r, "/", http.StatusSeeOther)
}

func writeJSON(wr http.ResponseWriter, status int, v any) {
    wr.Header().Set("Content-Type", "application/json")
    wr.WriteHeader(status)
    _ = json.NewEncoder(wr).Encode(v)
}
