// Package web provides the HTTP server for helloweb
package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Route is one entry of the static route table.
type Route struct {
	Name   string
	Method string
	Path   string
	Body   string
}

var routeTable = []Route{
	{Name: "index", Method: http.MethodGet, Path: "/", Body: "Hello world!"},
	{Name: "hello", Method: http.MethodGet, Path: "/world", Body: "hello world!"},
}

// Routes returns a copy of the route table.
func Routes() []Route {
	out := make([]Route, len(routeTable))
	copy(out, routeTable)
	return out
}

// setupRoutes mounts the route table. Every GET route answers HEAD too.
func (s *WebServer) setupRoutes() {
	for _, r := range routeTable {
		s.Router.Handle(r.Method, r.Path, staticText(r.Body))
		if r.Method == http.MethodGet {
			s.Router.HEAD(r.Path, staticTextHead(r.Body))
		}
	}
}

func staticText(body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, body)
	}
}

// staticTextHead sends the headers of staticText without a body.
func staticTextHead(body string) gin.HandlerFunc {
	length := strconv.Itoa(len(body))
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Content-Length", length)
		c.Status(http.StatusOK)
	}
}
