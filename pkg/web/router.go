// Package web serves documents over HTTP. Routes are registered
// explicitly, one document type at a time, and every route is guarded by
// an access rule.
package web

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/odvcencio/folio/internal/logging"
	"github.com/odvcencio/folio/pkg/document"
	"github.com/odvcencio/folio/pkg/object"
	"github.com/odvcencio/folio/pkg/repo"
	"github.com/odvcencio/folio/pkg/rights"
)

// Rule is an access rule evaluated against the incoming request.
type Rule = rights.Rule[*http.Request]

// Access holds the rules guarding one document type. Zero rules allow.
type Access struct {
	Read    Rule
	Write   Rule
	Archive Rule
}

// View is the data documents are rendered with.
type View struct {
	Type    string
	ID      string
	Version object.Hash
	Query   url.Values
}

// Router serves the documents of the types registered on it.
type Router struct {
	manager *document.Manager
	logger  *logging.Logger
	author  func(*http.Request) document.Author
	mux     *http.ServeMux
	types   map[string]bool
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used by handlers and middleware.
func WithLogger(l *logging.Logger) Option {
	return func(rt *Router) { rt.logger = l }
}

// WithAuthor sets how commit authors are derived from requests. By
// default the manager's default author is used.
func WithAuthor(fn func(*http.Request) document.Author) Option {
	return func(rt *Router) { rt.author = fn }
}

// NewRouter returns a Router with no routes.
func NewRouter(m *document.Manager, opts ...Option) *Router {
	rt := &Router{
		manager: m,
		logger:  logging.Nop(),
		author:  func(*http.Request) document.Author { return document.Author{} },
		mux:     http.NewServeMux(),
		types:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Register adds the routes of one document type:
//
//	GET  /{type}/{id}                render the index
//	GET  /{type}/{id}/source         raw index
//	POST /{type}/{id}                edit (form: document, version, message, path)
//	POST /{type}                     create (form: id, generated when empty)
//	POST /{type}/{id}/archive        archive the current version
//	GET  /{type}/{id}/archive        render the latest archive
//	GET  /{type}/{id}/history        list versions
//	GET  /{type}/{id}/files/{path...} raw resource
//
// GET routes accept ?version=<commit>. Edits must send the version the
// editor started from.
func (rt *Router) Register(typeName string, access Access) error {
	t, err := rt.manager.Registry().Lookup(typeName)
	if err != nil {
		return err
	}
	if rt.types[t.Name] {
		return fmt.Errorf("%w: routes for %q already registered", repo.ErrInvalidArgument, t.Name)
	}
	rt.types[t.Name] = true
	base := "/" + url.PathEscape(t.Name)
	h := &typeHandler{router: rt, typ: t}

	rt.mux.Handle("GET "+base+"/{id}", AllowIf(access.Read, http.HandlerFunc(h.render)))
	rt.mux.Handle("GET "+base+"/{id}/source", AllowIf(access.Read, http.HandlerFunc(h.source)))
	rt.mux.Handle("GET "+base+"/{id}/history", AllowIf(access.Read, http.HandlerFunc(h.history)))
	rt.mux.Handle("GET "+base+"/{id}/files/{path...}", AllowIf(access.Read, http.HandlerFunc(h.file)))
	rt.mux.Handle("GET "+base+"/{id}/archive", AllowIf(access.Read, http.HandlerFunc(h.renderArchive)))
	rt.mux.Handle("POST "+base+"/{id}", AllowIf(access.Write, http.HandlerFunc(h.edit)))
	rt.mux.Handle("POST "+base, AllowIf(access.Write, http.HandlerFunc(h.create)))
	rt.mux.Handle("POST "+base+"/{id}/archive", AllowIf(access.Archive, http.HandlerFunc(h.archive)))
	return nil
}

// ServeHTTP dispatches without middleware; see Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

// Handler returns the router wrapped with request-id, logging and panic
// recovery middleware.
func (rt *Router) Handler() http.Handler {
	return Chain(rt.mux, Recover(rt.logger), Logger(rt.logger), RequestID)
}

// NewServer returns an http.Server for addr serving h.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// AllowIf serves next only when rule allows the request, 403 otherwise.
func AllowIf(rule Rule, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := rule.Check(r); err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type typeHandler struct {
	router *Router
	typ    document.Type
}

func (h *typeHandler) manager() *document.Manager { return h.router.manager }

func version(r *http.Request, field string) object.Hash {
	return object.Hash(r.FormValue(field))
}

func (h *typeHandler) open(w http.ResponseWriter, r *http.Request, archived bool) (*document.Document, bool) {
	id := r.PathValue("id")
	open := h.manager().Open
	if archived {
		open = h.manager().OpenArchive
	}
	doc, err := open(h.typ.Name, id, version(r, "version"))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if !doc.Exists() {
		h.fail(w, r, fmt.Errorf("%s: %w", doc.Branch, repo.ErrNotFound))
		return nil, false
	}
	w.Header().Set("X-Folio-Version", string(doc.Version()))
	return doc, true
}

func (h *typeHandler) render(w http.ResponseWriter, r *http.Request) {
	h.renderDocument(w, r, false)
}

func (h *typeHandler) renderArchive(w http.ResponseWriter, r *http.Request) {
	h.renderDocument(w, r, true)
}

func (h *typeHandler) renderDocument(w http.ResponseWriter, r *http.Request, archived bool) {
	doc, ok := h.open(w, r, archived)
	if !ok {
		return
	}
	var buf bytes.Buffer
	view := View{Type: h.typ.Name, ID: doc.ID, Version: doc.Version(), Query: r.URL.Query()}
	if err := doc.Render(&buf, view); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType(h.typ.IndexPath()))
	_, _ = w.Write(buf.Bytes())
}

func (h *typeHandler) source(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.open(w, r, false)
	if !ok {
		return
	}
	data, err := doc.Index()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}

func (h *typeHandler) file(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.open(w, r, false)
	if !ok {
		return
	}
	p := r.PathValue("path")
	data, err := doc.Read(p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType(p))
	_, _ = w.Write(data)
}

func (h *typeHandler) history(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.open(w, r, false)
	if !ok {
		return
	}
	entries, err := doc.Versions(0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	for _, e := range entries {
		when := time.Unix(e.Commit.Committer.When, 0).UTC().Format(time.RFC3339)
		fmt.Fprintf(&buf, "%s %s %s %s\n", e.Hash, when, e.Commit.Author.Name, firstLine(e.Commit.Message))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (h *typeHandler) edit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	base := version(r, "version")
	if base == "" {
		h.fail(w, r, fmt.Errorf("edit %s: %w: version is required", id, repo.ErrInvalidArgument))
		return
	}
	content := r.FormValue("document")
	res, err := h.manager().Edit(h.typ.Name, id, base, []byte(content), document.EditOptions{
		Path:    r.FormValue("path"),
		Author:  h.router.author(r),
		Message: r.FormValue("message"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Conflict {
		http.Error(w, res.Message, http.StatusConflict)
		return
	}
	w.Header().Set("X-Folio-Version", string(res.Commit))
	w.Header().Set("Location", documentPath(h.typ.Name, id))
	w.WriteHeader(http.StatusSeeOther)
	fmt.Fprintln(w, res.Message)
}

func (h *typeHandler) create(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("id")
	if id == "" {
		id = uuid.NewString()
	}
	res, err := h.manager().Create(h.typ.Name, id, document.CreateOptions{
		Author:  h.router.author(r),
		Message: r.FormValue("message"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("X-Folio-Version", string(res.Commit))
	w.Header().Set("Location", documentPath(h.typ.Name, id))
	if !res.Created {
		http.Error(w, fmt.Sprintf("document %q already exists", id), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintln(w, id)
}

func (h *typeHandler) archive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	commit, err := h.manager().Archive(h.typ.Name, id, document.ArchiveOptions{
		Version: version(r, "version"),
		Author:  h.router.author(r),
		Message: r.FormValue("message"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("X-Folio-Version", string(commit))
	w.Header().Set("Location", documentPath(h.typ.Name, id)+"/archive")
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintln(w, commit)
}

func (h *typeHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.router.logger.WithRequestID(r.Context()).Error("request failed",
			zap.String("type", h.typ.Name), zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, http.StatusText(status), status)
		return
	}
	http.Error(w, err.Error(), status)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, rights.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, repo.ErrInvalidArgument), errors.Is(err, repo.ErrTypeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, repo.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func documentPath(typeName, id string) string {
	return "/" + url.PathEscape(typeName) + "/" + url.PathEscape(id)
}

func contentType(p string) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return "text/plain; charset=utf-8"
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
