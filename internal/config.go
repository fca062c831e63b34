package internal

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultCommit is the revision shown when the query string names none.
	DefaultCommit = "HEAD"

	// DefaultMount is the first path segment under which exgt is served.
	DefaultMount = "exgt"
)

// Config is everything exgt reads from its CGI environment.
type Config struct {
	// PathInfo is the request path. HasPathInfo tells an empty PATH_INFO
	// apart from a missing one.
	PathInfo    string
	HasPathInfo bool

	QueryString    string
	Commit         string
	ProjectRoot    string
	RequestURI     string
	Accept         string
	AcceptEncoding string

	SiteConfigPath string
	DatabasePath   string
	SandboxImage   string
	LogLevel       string

	// CGI is set when a web server invoked exgt.
	CGI bool
}

// ParseConfig extracts the configuration from the CGI environment. It never
// fails: missing values are left for the router to judge, because only the
// router can turn a problem into a response.
func ParseConfig(environment []string) Config {
	lookup := Environment(environment).Lookup()

	pathInfo, hasPathInfo := lookup["PATH_INFO"]
	_, cgi := lookup["GATEWAY_INTERFACE"]

	config := Config{
		PathInfo:       pathInfo,
		HasPathInfo:    hasPathInfo,
		QueryString:    lookup["QUERY_STRING"],
		Commit:         DefaultCommit,
		ProjectRoot:    lookup["GIT_PROJECT_ROOT"],
		RequestURI:     lookup["REQUEST_URI"],
		Accept:         lookup["HTTP_ACCEPT"],
		AcceptEncoding: lookup["HTTP_ACCEPT_ENCODING"],
		SiteConfigPath: lookup["EXGT_CONFIG"],
		DatabasePath:   lookup["EXGT_DB"],
		SandboxImage:   lookup["EXGT_SANDBOX_IMAGE"],
		LogLevel:       lookup["EXGT_LOG_LEVEL"],
		CGI:            cgi,
	}

	if query, err := url.ParseQuery(config.QueryString); err == nil {
		if commit := query.Get("commit"); commit != "" {
			config.Commit = commit
		}
	}

	return config
}

// SiteConfig holds the instance settings read from the EXGT_CONFIG file.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Mount       string `yaml:"mount"`
	CloneURL    string `yaml:"clone_url"`

	// Highlight is the argv of the syntax highlighter. The argument
	// "{syntax}" is replaced with the file's syntax name.
	Highlight []string `yaml:"highlight"`

	// Markdown is the argv of the markdown renderer.
	Markdown []string `yaml:"markdown"`
}

// DefaultSiteConfig returns the settings used when no site file is given.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		Title:       "exgt",
		Description: "Browse the repositories hosted here.",
		Mount:       DefaultMount,
		Highlight:   []string{"highlight", "-S", "{syntax}", "-O", "html", "-f"},
		Markdown:    []string{"markdown", "-a", "exgt-", "-ffencedcode,fencedinline,toc,taganchor"},
	}
}

// LoadSiteConfig reads the YAML site file at path on top of the defaults. An
// empty path yields the defaults.
func LoadSiteConfig(path string) (SiteConfig, error) {
	config := DefaultSiteConfig()
	if path == "" {
		return config, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("failed to read site config %q: %w", path, err)
	}

	var loaded SiteConfig
	if err := yaml.Unmarshal(content, &loaded); err != nil {
		return SiteConfig{}, fmt.Errorf("failed to parse site config %q: %w", path, err)
	}

	if loaded.Title != "" {
		config.Title = loaded.Title
	}
	if loaded.Description != "" {
		config.Description = loaded.Description
	}
	if loaded.Mount != "" {
		config.Mount = loaded.Mount
	}
	if loaded.CloneURL != "" {
		config.CloneURL = loaded.CloneURL
	}
	if len(loaded.Highlight) > 0 {
		config.Highlight = loaded.Highlight
	}
	if len(loaded.Markdown) > 0 {
		config.Markdown = loaded.Markdown
	}

	return config, nil
}
