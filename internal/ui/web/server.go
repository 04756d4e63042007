// internal/ui/web/server.go

// Package web serves the gallery over HTTP. Every request to a page re-runs it top to
// bottom against the submitted form, streaming the output as it renders.
package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mwiater/llamagallery/internal/nav"
	"github.com/mwiater/llamagallery/internal/session"
	"github.com/mwiater/llamagallery/internal/ui"
)

const (
	// SessionCookie names the cookie carrying the session id.
	SessionCookie = "gallery_session"
	maxFormBytes  = 32 << 20
)

// Runner renders the page entry onto s for the session sess.
type Runner func(ctx context.Context, s ui.Surface, sess *session.State, entry nav.Entry) error

// Options configures a Server.
type Options struct {
	Title    string
	Sections []nav.Section
	Run      Runner
	Store    *session.Store
	// RateLimit bounds page runs per second across all sessions. Zero disables the limit.
	RateLimit float64
	Logger    *zerolog.Logger
}

// Server is the gallery's HTTP handler.
type Server struct {
	opts     Options
	router   chi.Router
	registry *prometheus.Registry
	metrics  *metrics
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// NewServer builds the router.
func NewServer(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = session.NewStore()
	}
	if opts.Title == "" {
		opts.Title = "Ollama SDK Examples"
	}
	s := &Server{
		opts:     opts,
		registry: prometheus.NewRegistry(),
		log:      zerolog.Nop(),
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	if opts.RateLimit > 0 {
		burst := max(int(opts.RateLimit), 1)
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	s.metrics = newMetrics(s.registry, func() float64 { return float64(opts.Store.Len()) })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.middleware)
	r.Use(s.requestLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		MaxAge:         300,
	}))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/", s.handleIndex)
	r.Get("/pages/{topic}/{page}", s.handlePage)
	r.Post("/pages/{topic}/{page}", s.handlePage)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}).ServeHTTP)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Registry exposes the server's metrics registry.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// ExpireSessions drops sessions idle longer than idle every interval until ctx ends.
func (s *Server) ExpireSessions(ctx context.Context, every, idle time.Duration) {
	if every <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.opts.Store.Expire(idle); n > 0 {
				s.log.Debug().Int("expired", n).Msg("sessions expired")
			}
		}
	}
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("dur", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	first, ok := nav.First(s.opts.Sections)
	if !ok {
		http.Error(w, "no pages", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, pagePath(first), http.StatusFound)
}

func pagePath(e nav.Entry) string {
	return "/pages/" + e.ID
}

// session returns the caller's session, minting one and setting the cookie when the
// request carries none or an expired id.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.State {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.opts.Store.Get(c.Value); ok {
			return sess
		}
	}
	sess := s.opts.Store.New()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "topic") + "/" + chi.URLParam(r, "page")
	entry, _, ok := nav.Find(s.opts.Sections, id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		s.metrics.throttled.Inc()
		http.Error(w, "too many page runs, try again shortly", http.StatusTooManyRequests)
		return
	}

	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	sess := s.session(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if err := pageHead.Execute(w, headData{
		Title:    s.opts.Title,
		Page:     entry,
		Sections: s.opts.Sections,
		Action:   pagePath(entry),
	}); err != nil {
		s.log.Error().Err(err).Msg("render page head")
		return
	}

	done := s.metrics.track(pagePath(entry))
	defer done()

	surf := newSurface(w, r, sess)
	var runErr error
	sess.Run(func() {
		runErr = s.opts.Run(r.Context(), surf, sess, entry)
	})
	surf.close()

	outcome := "ok"
	if runErr != nil {
		outcome = "error"
		s.log.Warn().Err(runErr).Str("page", entry.ID).Msg("page run failed")
		var shown *ui.ShownError
		if !errors.As(runErr, &shown) {
			surf.Error("Error: " + runErr.Error())
		}
	}
	s.metrics.pageRuns.WithLabelValues(entry.ID, outcome).Inc()
	_ = pageFoot.Execute(w, nil)
}

type headData struct {
	Title    string
	Page     nav.Entry
	Sections []nav.Section
	Action   string
}

var pageHead = template.Must(template.New("head").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Page.Title}} · {{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;display:flex;color:#222}
nav{width:16rem;padding:1rem;background:#f4f4f6;min-height:100vh;box-sizing:border-box}
nav h4{margin:1rem 0 .25rem}
nav a{display:block;padding:.15rem .5rem;color:#333;text-decoration:none;border-radius:4px}
nav a.current{background:#dde;font-weight:600}
main{flex:1;padding:1rem 2rem;max-width:60rem}
.field{display:block;margin-top:.75rem;font-weight:600}
input[type=text],textarea,select{width:100%;box-sizing:border-box;padding:.3rem}
button{margin:.5rem .5rem .5rem 0;padding:.35rem .9rem}
.alert{padding:.5rem 1rem;border-radius:4px;margin:.5rem 0}
.info{background:#e7f0fb}.success{background:#e6f6ea}.warning{background:#fdf5dc}.error{background:#fbe5e5}
.caption{color:#777;font-size:.9em}
.metric{display:inline-block;margin:.5rem 1.5rem .5rem 0}.metric span{display:block;color:#777}
.chat{padding:.5rem;border-bottom:1px solid #eee}.chat .role{font-weight:600;margin-right:.5rem}
.code pre{padding:.75rem;overflow-x:auto}
details.tab>summary{font-size:1.2em;font-weight:600;margin:1rem 0;cursor:pointer}
</style>
<script>
function gallerySet(id,html){var el=document.getElementById(id);if(el){el.innerHTML=html}}
function galleryProgress(id,v){var el=document.getElementById(id);if(el){el.value=v}}
function galleryRemove(id){var el=document.getElementById(id);if(el){el.remove()}}
</script>
</head>
<body>
<nav>
<h3>🦙 {{.Title}}</h3>
{{range .Sections}}<h4>{{.Label}}</h4>
{{range .Entries}}<a href="/pages/{{.ID}}"{{if eq .ID $.Page.ID}} class="current"{{end}}>{{.Title}}</a>
{{end}}{{end}}</nav>
<main>
<form method="post" action="{{.Action}}" enctype="multipart/form-data">
<input type="hidden" name="_submitted" value="1">
`))

var pageFoot = template.Must(template.New("foot").Parse(`</form>
</main>
</body>
</html>
`))
