// Package config loads the collector's environment-driven settings and its
// YAML-defined HTTP attribute alias table.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HTTPAliases holds the ordered attribute-key aliases the query layer tries,
// in order, when resolving a well-known HTTP field off a span's attributes.
type HTTPAliases struct {
	Method     []string `yaml:"method"`
	Route      []string `yaml:"route"`
	StatusCode []string `yaml:"status_code"`
	ServerName []string `yaml:"server_name"`
	Scheme     []string `yaml:"scheme"`
	Host       []string `yaml:"host"`
	Target     []string `yaml:"target"`
	URL        []string `yaml:"url"`
}

// DefaultHTTPAliases mirrors config/http_aliases.yaml and is used whenever
// the YAML file cannot be loaded, so the collector always has a working
// alias table even when run outside its repo checkout.
func DefaultHTTPAliases() HTTPAliases {
	return HTTPAliases{
		Method:     []string{"http.method", "http.request.method"},
		Route:      []string{"http.route", "http.target", "url.path"},
		StatusCode: []string{"http.status_code", "http.response.status_code"},
		ServerName: []string{"http.server_name", "net.host.name"},
		Scheme:     []string{"http.scheme", "url.scheme"},
		Host:       []string{"http.host", "net.host.name"},
		Target:     []string{"http.target", "url.path"},
		URL:        []string{"http.url", "url.full"},
	}
}

// LoadHTTPAliases loads the alias table from a YAML file, falling back to
// DefaultHTTPAliases when the file is missing or invalid.
func LoadHTTPAliases(path string) (HTTPAliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultHTTPAliases(), fmt.Errorf("reading http aliases file: %w", err)
	}

	var aliases HTTPAliases
	if err := yaml.Unmarshal(data, &aliases); err != nil {
		return DefaultHTTPAliases(), fmt.Errorf("parsing http aliases YAML: %w", err)
	}

	return aliases, nil
}
