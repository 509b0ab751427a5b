package transporttest

import (
	"fmt"
	"net/http"
	"os"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/roach88/restq/internal/transport"
)

// RouteFixture is the YAML form of a route.
//
//	routes:
//	  - path: /posts/2
//	    method: GET
//	    status: 200
//	    headers:
//	      X-Total: ["1"]
//	    body:
//	      data: {id: 2, title: hello}
type RouteFixture struct {
	Path    string              `yaml:"path"`
	Method  string              `yaml:"method"`
	Status  int                 `yaml:"status"`
	Headers map[string][]string `yaml:"headers"`
	Body    any                 `yaml:"body"`
}

type fixtureFile struct {
	Routes []RouteFixture `yaml:"routes"`
}

// LoadRoutes reads a YAML fixture file and registers its routes on a new
// table. Status defaults to 200.
func LoadRoutes(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route fixtures: %w", err)
	}
	return ParseRoutes(data)
}

// ParseRoutes is LoadRoutes for in-memory YAML.
func ParseRoutes(data []byte) (*Table, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse route fixtures: %w", err)
	}

	t := New()
	for i, r := range f.Routes {
		if r.Path == "" {
			return nil, fmt.Errorf("route %d: path is required", i)
		}
		status := r.Status
		if status == 0 {
			status = http.StatusOK
		}

		var body []byte
		if r.Body != nil {
			var err error
			body, err = json.Marshal(r.Body)
			if err != nil {
				return nil, fmt.Errorf("route %d (%s): encode body: %w", i, r.Path, err)
			}
		}

		header := http.Header{"Content-Type": {"application/json"}}
		for k, vs := range r.Headers {
			for _, v := range vs {
				header.Add(k, v)
			}
		}
		t.For(r.Path, transport.NewResponse(status, body, header), r.Method)
	}
	return t, nil
}
