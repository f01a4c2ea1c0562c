// Package ui serves a browser playground that compiles CHTL source and shows
// the resulting tree, symbols and diagnostics.
package ui

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dhamidi/chtl/chtl/compiler"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/format"
)

//go:embed all:templates
var embeddedFS embed.FS

// maxSessions bounds how many compiled sessions are kept in memory.
const maxSessions = 50

const defaultFile = "playground.chtl"

type Server struct {
	opts       []compiler.Option
	mux        *http.ServeMux
	templateFS fs.FS
	funcMap    template.FuncMap

	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
}

// Session is one compiled submission.
type Session struct {
	ID      string
	File    string
	Source  string
	Created time.Time
	Result  *compiler.Result
	// Tree is the indented dump of Result.Tree.
	Tree string
}

func NewServer(opts ...compiler.Option) (*Server, error) {
	templateFS := overlayFS("ui/templates", mustSub(embeddedFS, "templates"))

	funcMap := template.FuncMap{
		"severityClass": func(d diag.Diagnostic) string {
			return d.Severity.String()
		},
	}

	if _, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "*.html"); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		opts:       opts,
		mux:        http.NewServeMux(),
		templateFS: templateFS,
		funcMap:    funcMap,
		sessions:   make(map[string]*Session),
	}

	s.mux.HandleFunc("POST /compile", s.handleCompile)
	s.mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, err := template.New("").Funcs(s.funcMap).ParseFS(s.templateFS, "*.html")
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

type compileRequest struct {
	File   string `json:"file"`
	Source string `json:"source"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest

	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.File = r.FormValue("file")
		req.Source = r.FormValue("source")
	}

	if strings.TrimSpace(req.Source) == "" {
		http.Error(w, "must provide source", http.StatusBadRequest)
		return
	}
	if req.File == "" {
		req.File = defaultFile
	}

	sess := s.compile(req)
	if wantsJSON(r) {
		s.writeJSON(w, sess)
		return
	}
	http.Redirect(w, r, "/sessions/"+sess.ID, http.StatusSeeOther)
}

func (s *Server) compile(req compileRequest) *Session {
	res := compiler.New(s.opts...).Compile([]byte(req.Source), req.File)
	sess := &Session{
		ID:      res.ID.String(),
		File:    req.File,
		Source:  req.Source,
		Created: time.Now(),
		Result:  res,
		Tree:    res.Tree.String(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.order = append(s.order, sess.ID)
	if len(s.order) > maxSessions {
		delete(s.sessions, s.order[0])
		s.order = s.order[1:]
	}
	return sess
}

// Session returns a stored session.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Sessions returns the stored sessions, newest first.
func (s *Server) Sessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.sessions[s.order[i]])
	}
	return out
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.Session(r.PathValue("id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if wantsJSON(r) {
		s.writeJSON(w, sess)
		return
	}
	s.render(w, "session.html", sess)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Sessions []*Session
	}{
		Sessions: s.Sessions(),
	}
	s.render(w, "index.html", data)
}

type sessionResponse struct {
	ID          string          `json:"id"`
	File        string          `json:"file"`
	OK          bool            `json:"ok"`
	Tree        json.RawMessage `json:"tree"`
	Symbols     json.RawMessage `json:"symbols"`
	Diagnostics json.RawMessage `json:"diagnostics"`
}

func (s *Server) writeJSON(w http.ResponseWriter, sess *Session) {
	res := sess.Result
	tree, err := format.NewASTJSONEncoder(nil).MarshalText(res.Tree)
	if err != nil {
		http.Error(w, "encode tree: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var syms, diags bytes.Buffer
	if err := format.NewJSONEncoder(&syms).EncodeSymbols(res.Symbols.Entries()); err != nil {
		http.Error(w, "encode symbols: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := format.NewJSONEncoder(&diags).EncodeDiagnostics(res.Diagnostics.All()); err != nil {
		http.Error(w, "encode diagnostics: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionResponse{
		ID:          sess.ID,
		File:        sess.File,
		OK:          res.OK(),
		Tree:        tree,
		Symbols:     syms.Bytes(),
		Diagnostics: diags.Bytes(),
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// overlayFSType serves files from a directory on disk when present, so
// templates can be edited without rebuilding.
type overlayFSType struct {
	primary   fs.FS
	secondary fs.FS
}

func overlayFS(primaryPath string, secondary fs.FS) fs.FS {
	return &overlayFSType{
		primary:   os.DirFS(primaryPath),
		secondary: secondary,
	}
}

func (o *overlayFSType) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if err == nil {
		return f, nil
	}
	return o.secondary.Open(name)
}

func (o *overlayFSType) ReadDir(name string) ([]fs.DirEntry, error) {
	entries := make(map[string]fs.DirEntry)

	if rd, ok := o.secondary.(fs.ReadDirFS); ok {
		if list, err := rd.ReadDir(name); err == nil {
			for _, e := range list {
				entries[e.Name()] = e
			}
		}
	}

	if rd, ok := o.primary.(fs.ReadDirFS); ok {
		if list, err := rd.ReadDir(name); err == nil {
			for _, e := range list {
				entries[e.Name()] = e
			}
		}
	}

	result := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, e)
	}
	return result, nil
}
