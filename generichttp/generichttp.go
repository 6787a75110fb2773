// Package generichttp defines a small vocabulary for wrapping instrument
// capabilities in HTTP interfaces, and helpers that adapt getter and setter
// functions to JSON-speaking handlers.
package generichttp

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi"
)

// SubMuxSanitize normalizes a mount point for use with a sub-router: a
// leading slash is guaranteed and a trailing one removed, with bare or empty
// input collapsing to the root.
func SubMuxSanitize(s string) string {
	s = strings.Trim(s, "/")
	return "/" + s
}

// MethodPath is an HTTP method and URL path pair.
type MethodPath struct {
	Method string
	Path   string
}

// RouteTable maps method/path pairs to their handlers.
type RouteTable map[MethodPath]http.HandlerFunc

// Endpoints returns the table's routes sorted by path, then method.
func (rt RouteTable) Endpoints() []MethodPath {
	routes := make([]MethodPath, 0, len(rt))
	for k := range rt {
		routes = append(routes, k)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// Bind registers every route in the table on r, plus a GET /endpoints route
// that lists them.
func (rt RouteTable) Bind(r chi.Router) {
	for mp, handler := range rt {
		r.Method(mp.Method, mp.Path, handler)
	}
	r.Get("/endpoints", func(w http.ResponseWriter, req *http.Request) {
		eps := rt.Endpoints()
		strs := make([]string, len(eps))
		for i, ep := range eps {
			strs[i] = ep.Method + " " + ep.Path
		}
		JSONEncode(w, strs)
	})
}

// HTTPer is an object which can yield its route table for binding to a server.
type HTTPer interface {
	RT() RouteTable
}

// FloatT is a JSON payload carrying a single float.
type FloatT struct {
	F64 float64 `json:"f64"`
}

// BoolT is a JSON payload carrying a single bool.
type BoolT struct {
	Bool bool `json:"bool"`
}

// StrT is a JSON payload carrying a single string.
type StrT struct {
	Str string `json:"str"`
}

// JSONEncode writes v to w as JSON with the appropriate content type.
func JSONEncode(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetFloat adapts a float-getting function to a handler responding
// {"f64": value}.
func GetFloat(fcn func() (float64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		JSONEncode(w, FloatT{F64: f})
	}
}

// SetFloat adapts a float-setting function to a handler consuming
// {"f64": value}.
func SetFloat(fcn func(float64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f FloatT
		err := json.NewDecoder(r.Body).Decode(&f)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := fcn(f.F64); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// GetBool adapts a bool-getting function to a handler responding
// {"bool": value}.
func GetBool(fcn func() (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		JSONEncode(w, BoolT{Bool: b})
	}
}

// SetBool adapts a bool-setting function to a handler consuming
// {"bool": value}.
func SetBool(fcn func(bool) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b BoolT
		err := json.NewDecoder(r.Body).Decode(&b)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := fcn(b.Bool); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// GetString adapts a string-getting function to a handler responding
// {"str": value}.
func GetString(fcn func() (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		JSONEncode(w, StrT{Str: s})
	}
}

// SetString adapts a string-setting function to a handler consuming
// {"str": value}.
func SetString(fcn func(string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s StrT
		err := json.NewDecoder(r.Body).Decode(&s)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := fcn(s.Str); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// GetStrings adapts a string-slice-getting function to a handler responding
// with a JSON array.
func GetStrings(fcn func() ([]string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		strs, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		JSONEncode(w, strs)
	}
}
