package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go-vis-pipeline/internal/logger"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

type paramsKey struct{}

type route struct {
	method  string
	pattern string
	handler HandlerFunc
}

type mount struct {
	prefix  string
	handler http.Handler
}

// Router dispatches METHOD:PATH routes. A "*" segment matches any single
// segment and a trailing "**" matches the rest of the path. Wildcard routes
// are tried in registration order.
type Router struct {
	routes []route
	exact  map[string]HandlerFunc // key = METHOD:PATH
	paths  map[string]bool
	mounts []mount
	log    logger.Logger
}

func New(log logger.Logger) *Router {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Router{
		exact: make(map[string]HandlerFunc),
		paths: make(map[string]bool),
		log:   log,
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	r.dispatch(lrw, req)

	r.log.Info("request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", lrw.statusCode,
		"duration", time.Since(start),
	)
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	for _, m := range r.mounts {
		if strings.HasPrefix(req.URL.Path, m.prefix) {
			m.handler.ServeHTTP(w, req)
			return
		}
	}

	if h, ok := r.exact[req.Method+":"+req.URL.Path]; ok {
		h(w, req)
		return
	}

	pathMatched := false
	for _, rt := range r.routes {
		params, ok := matchWildcardRoute(req.URL.Path, rt.pattern)
		if !ok {
			continue
		}
		if rt.method != req.Method {
			pathMatched = true
			continue
		}
		ctx := context.WithValue(req.Context(), paramsKey{}, params)
		rt.handler(w, req.WithContext(ctx))
		return
	}

	if pathMatched || r.paths[req.URL.Path] {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

// matchWildcardRoute checks if a request path matches a route pattern and
// returns the segments captured by its wildcards.
func matchWildcardRoute(requestPath, routePattern string) ([]string, bool) {
	requestSegments := strings.Split(strings.Trim(requestPath, "/"), "/")
	routeSegments := strings.Split(strings.Trim(routePattern, "/"), "/")

	// trailing "**" swallows the remainder
	last := len(routeSegments) - 1
	if routeSegments[last] == "**" {
		if len(requestSegments) < last {
			return nil, false
		}
		params, ok := matchSegments(requestSegments[:last], routeSegments[:last])
		if !ok {
			return nil, false
		}
		return append(params, strings.Join(requestSegments[last:], "/")), true
	}

	if len(requestSegments) != len(routeSegments) {
		return nil, false
	}
	return matchSegments(requestSegments, routeSegments)
}

func matchSegments(requestSegments, routeSegments []string) ([]string, bool) {
	var params []string
	for i, routeSegment := range routeSegments {
		if routeSegment == "*" {
			if requestSegments[i] == "" {
				return nil, false
			}
			params = append(params, requestSegments[i])
			continue
		}
		if requestSegments[i] != routeSegment {
			return nil, false
		}
	}
	return params, true
}

// Params returns the wildcard segments captured for the current request
func Params(req *http.Request) []string {
	params, _ := req.Context().Value(paramsKey{}).([]string)
	return params
}

// Param returns the i-th captured segment or "" when absent
func Param(req *http.Request, i int) string {
	params := Params(req)
	if i < 0 || i >= len(params) {
		return ""
	}
	return params[i]
}

func (r *Router) register(method, path string, handler HandlerFunc) {
	if strings.Contains(path, "*") {
		r.routes = append(r.routes, route{method: method, pattern: path, handler: handler})
	} else {
		r.exact[method+":"+path] = handler
	}
	r.paths[path] = true
}

func (r *Router) GET(path string, handler HandlerFunc)   { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)  { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)   { r.register(http.MethodPut, path, handler) }
func (r *Router) PATCH(path string, handler HandlerFunc) { r.register(http.MethodPatch, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// Mount hands every request under prefix to handler
func (r *Router) Mount(prefix string, handler http.Handler) {
	r.mounts = append(r.mounts, mount{prefix: prefix, handler: handler})
}

// Paths returns the registered route patterns
func (r *Router) Paths() map[string]bool {
	return r.paths
}

// Server builds an http.Server for addr serving this router
func (r *Router) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}
