// Package testutil holds fixtures shared by tests across packages.
package testutil

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	_ "modernc.org/sqlite"
)

// SetupDB opens an in-memory sqlite database with schema applied, the
// database is closed when the test ends.
func SetupDB(t testing.TB, schema string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if schema == "" {
		return db
	}
	_, err = db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		t.Fatal(err)
	}
	return db
}

// Handler answers one scripted request.
type Handler func(req *http.Request) (*http.Response, error)

// Call is a request observed by a Script.
type Call struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

// Script is an http.RoundTripper that answers requests by "METHOD url" so
// tests can stage multi-host redirect chains without real servers.
type Script struct {
	mu     sync.Mutex
	routes map[string]Handler
	calls  []Call
}

func NewScript() *Script {
	return &Script{routes: map[string]Handler{}}
}

func (s *Script) Handle(method, url string, h Handler) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+url] = h
	return s
}

// Reply registers a handler that always answers with the same response.
func (s *Script) Reply(method, url string, status int, header http.Header, body string) *Script {
	return s.Handle(method, url, func(req *http.Request) (*http.Response, error) {
		return Respond(req, status, header, body), nil
	})
}

// Redirect registers a 302 to location.
func (s *Script) Redirect(url, location string) *Script {
	return s.Reply(http.MethodGet, url, http.StatusFound, http.Header{"Location": {location}}, "")
}

func (s *Script) RoundTrip(req *http.Request) (*http.Response, error) {
	call := Call{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
	}
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		call.Body = string(body)
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	h, ok := s.routes[req.Method+" "+req.URL.String()]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unscripted request: %s %s", req.Method, req.URL)
	}
	return h(req)
}

func (s *Script) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Respond builds a response to req.
func Respond(req *http.Request, status int, header http.Header, body string) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// HTML is a header set for an html response.
func HTML() http.Header {
	return http.Header{"Content-Type": {"text/html; charset=utf-8"}}
}
