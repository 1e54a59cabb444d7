// Package router is a small method + path router with {param} segments,
// route groups and per-route middleware.
//
//	r := router.New()
//	r.Use(middleware.RequestID)
//	tickets := r.Group("/tickets")
//	tickets.Use(middleware.Auth(cfg.JWT))
//	tickets.DELETE("/{ticketId}", ctrl.Cancel)
//
// Routes are matched in registration order, so static paths must be
// registered before parameterised siblings.
package router

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/biyonik/rail-booking-api/internal/http/request"
	"github.com/biyonik/rail-booking-api/internal/http/response"
	"github.com/biyonik/rail-booking-api/internal/middleware"
)

// HandlerFunc receives the wrapped request.
type HandlerFunc func(http.ResponseWriter, *request.Request)

type Router struct {
	routes      []*Route
	middlewares []middleware.Middleware
}

type Route struct {
	method      string
	path        string
	handler     HandlerFunc
	middlewares []middleware.Middleware
}

type RouteGroup struct {
	prefix      string
	middlewares []middleware.Middleware
	router      *Router
}

func New() *Router {
	return &Router{}
}

// Use adds a global middleware. Global middleware also runs for 404 and 405
// answers.
func (r *Router) Use(m middleware.Middleware) {
	r.middlewares = append(r.middlewares, m)
}

func (r *Router) GET(path string, handler HandlerFunc) *Route {
	return r.addRoute(http.MethodGet, path, handler, nil)
}

func (r *Router) POST(path string, handler HandlerFunc) *Route {
	return r.addRoute(http.MethodPost, path, handler, nil)
}

func (r *Router) PUT(path string, handler HandlerFunc) *Route {
	return r.addRoute(http.MethodPut, path, handler, nil)
}

func (r *Router) DELETE(path string, handler HandlerFunc) *Route {
	return r.addRoute(http.MethodDelete, path, handler, nil)
}

func (r *Router) addRoute(method, path string, handler HandlerFunc, inherited []middleware.Middleware) *Route {
	route := &Route{
		method:      method,
		path:        path,
		handler:     handler,
		middlewares: append([]middleware.Middleware(nil), inherited...),
	}
	r.routes = append(r.routes, route)
	return route
}

// Middleware appends a route middleware; it runs after the group ones.
func (route *Route) Middleware(m middleware.Middleware) *Route {
	route.middlewares = append(route.middlewares, m)
	return route
}

// Group creates a prefix group. Middleware added to the group applies to
// routes registered afterwards.
func (r *Router) Group(prefix string) *RouteGroup {
	return &RouteGroup{prefix: strings.TrimRight(prefix, "/"), router: r}
}

func (g *RouteGroup) Use(m middleware.Middleware) {
	g.middlewares = append(g.middlewares, m)
}

// Group nests a sub-group that inherits the current middleware.
func (g *RouteGroup) Group(prefix string) *RouteGroup {
	return &RouteGroup{
		prefix:      g.prefix + strings.TrimRight(prefix, "/"),
		middlewares: append([]middleware.Middleware(nil), g.middlewares...),
		router:      g.router,
	}
}

func (g *RouteGroup) GET(path string, handler HandlerFunc) *Route {
	return g.router.addRoute(http.MethodGet, g.prefix+path, handler, g.middlewares)
}

func (g *RouteGroup) POST(path string, handler HandlerFunc) *Route {
	return g.router.addRoute(http.MethodPost, g.prefix+path, handler, g.middlewares)
}

func (g *RouteGroup) PUT(path string, handler HandlerFunc) *Route {
	return g.router.addRoute(http.MethodPut, g.prefix+path, handler, g.middlewares)
}

func (g *RouteGroup) DELETE(path string, handler HandlerFunc) *Route {
	return g.router.addRoute(http.MethodDelete, g.prefix+path, handler, g.middlewares)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := middleware.Chain(http.HandlerFunc(r.handleRequest), r.middlewares...)
	handler.ServeHTTP(w, req)
}

func (r *Router) handleRequest(w http.ResponseWriter, req *http.Request) {
	var allowed []string

	for _, route := range r.routes {
		params, matched := matchRoute(route.path, req.URL.Path)
		if !matched {
			continue
		}
		if route.method != req.Method {
			allowed = append(allowed, route.method)
			continue
		}

		ctx := context.WithValue(req.Context(), request.RequestParamsKey, params)
		req = req.WithContext(ctx)

		final := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			route.handler(w, request.New(req))
		})
		middleware.Chain(final, route.middlewares...).ServeHTTP(w, req)
		return
	}

	if len(allowed) > 0 {
		sort.Strings(allowed)
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		response.MethodNotAllowed(w)
		return
	}
	response.NotFound(w, "no route for "+req.URL.Path)
}

// matchRoute compares a pattern such as /trains/{trainId}/tickets with path
// and extracts the parameters.
func matchRoute(pattern, path string) (map[string]string, bool) {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")

	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	params := make(map[string]string)
	for i, part := range patternParts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			if pathParts[i] == "" {
				return nil, false
			}
			params[strings.Trim(part, "{}")] = pathParts[i]
			continue
		}
		if part != pathParts[i] {
			return nil, false
		}
	}
	return params, true
}
