package testkit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sha1n/mcp-docs-server/internal/app"
	"github.com/sha1n/mcp-docs-server/internal/config"
	"github.com/sha1n/mcp-docs-server/internal/content"
	"github.com/spf13/pflag"
)

// Property names published by the services in this package
const (
	PropDocsBasePath = "docs_base_path"
	PropCodeDocsMap  = "code_docs_map"
	PropCodeTestsMap = "code_tests_map"
	PropBaseURL      = "base_url"
)

// Service represents a test service that can be started and stopped
type Service interface {
	Start() (map[string]any, error)
	Stop() error
	GetName() string
}

// TestEnvContext provides access to properties collected during environment startup
type TestEnvContext interface {
	GetProperties() map[string]any
	GetProperty(name string) (any, bool)
}

// TestEnv manages the lifecycle of test services
type TestEnv interface {
	Start() (map[string]any, error)
	Stop() error
	GetContext() TestEnvContext
}

type testEnvContextImpl struct {
	properties map[string]any
}

func (c *testEnvContextImpl) GetProperties() map[string]any {
	return c.properties
}

func (c *testEnvContextImpl) GetProperty(name string) (any, bool) {
	val, ok := c.properties[name]
	return val, ok
}

type testEnvImpl struct {
	services []Service
	context  *testEnvContextImpl
}

// NewTestEnv creates a new test environment with the given services
func NewTestEnv(services ...Service) TestEnv {
	return &testEnvImpl{
		services: services,
		context:  &testEnvContextImpl{properties: make(map[string]any)},
	}
}

func (e *testEnvImpl) Start() (map[string]any, error) {
	for _, s := range e.services {
		props, err := s.Start()
		if err != nil {
			return nil, err
		}
		for k, v := range props {
			e.context.properties[k] = v
		}
	}
	return e.context.properties, nil
}

func (e *testEnvImpl) Stop() error {
	var lastErr error
	// Stop in reverse order
	for i := len(e.services) - 1; i >= 0; i-- {
		if err := e.services[i].Stop(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (e *testEnvImpl) GetContext() TestEnvContext {
	return e.context
}

// GetFreePort returns a free port from the kernel
func GetFreePort() (int, error) {
	return getFreePortWithAddr("localhost:0")
}

// MustGetFreePort returns a free port or fails the test
func MustGetFreePort(t testing.TB) int {
	t.Helper()
	port, err := GetFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	return port
}

func getFreePortWithAddr(addrStr string) (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", addrStr)
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// FlagOptions configures NewTestFlags
type FlagOptions struct {
	Port         int      // Uses free port if 0
	Transport    string   // Defaults to "http"
	AuthType     string   // Defaults to "none"
	Host         string   // Defaults to "localhost"
	APIKeys      []string // Set with AuthType "apikey"
	DocsBasePath string
	CodeDocsMap  string
	CodeTestsMap string
}

// NewTestFlags creates a configured pflag.FlagSet for testing
func NewTestFlags(t testing.TB, opts *FlagOptions) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.RegisterFlags(flags)

	port := 0
	transport := config.TransportHTTP
	authType := config.AuthTypeNone
	host := "localhost"

	if opts != nil {
		if opts.Port != 0 {
			port = opts.Port
		}
		if opts.Transport != "" {
			transport = opts.Transport
		}
		if opts.AuthType != "" {
			authType = opts.AuthType
		}
		if opts.Host != "" {
			host = opts.Host
		}
	}

	if port == 0 {
		port = MustGetFreePort(t)
	}

	_ = flags.Set("port", fmt.Sprintf("%d", port))
	_ = flags.Set("transport", transport)
	_ = flags.Set("auth-type", authType)
	_ = flags.Set("host", host)

	if opts != nil {
		if len(opts.APIKeys) > 0 {
			_ = flags.Set("auth-api-keys", strings.Join(opts.APIKeys, ","))
		}
		if opts.DocsBasePath != "" {
			_ = flags.Set("docs-base-path", opts.DocsBasePath)
		}
		if opts.CodeDocsMap != "" {
			_ = flags.Set("code-docs-map", opts.CodeDocsMap)
		}
		if opts.CodeTestsMap != "" {
			_ = flags.Set("code-tests-map", opts.CodeTestsMap)
		}
	}

	return flags
}

// CorpusService lays out a documentation corpus on disk.
// Files are relative to the docs root; Manifest, when set, is written next
// to the docs root. The mapping artifacts are written beside it.
type CorpusService struct {
	Root      string
	Files     map[string]string
	Manifest  string
	CodeDocs  string
	CodeTests string
}

func (c *CorpusService) GetName() string {
	return "corpus"
}

func (c *CorpusService) Start() (map[string]any, error) {
	docsDir := filepath.Join(c.Root, "docs")
	if err := os.MkdirAll(docsDir, 0755); err != nil {
		return nil, err
	}

	for rel, body := range c.Files {
		path := filepath.Join(docsDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			return nil, err
		}
	}

	props := map[string]any{PropDocsBasePath: docsDir}

	artifacts := []struct {
		prop, name, body string
	}{
		{"", content.ManifestFilename, c.Manifest},
		{PropCodeDocsMap, "code-docs.json", c.CodeDocs},
		{PropCodeTestsMap, "code-tests.json", c.CodeTests},
	}
	for _, a := range artifacts {
		if a.body == "" {
			continue
		}
		path := filepath.Join(c.Root, a.name)
		if err := os.WriteFile(path, []byte(a.body), 0644); err != nil {
			return nil, err
		}
		if a.prop != "" {
			props[a.prop] = path
		}
	}

	return props, nil
}

func (c *CorpusService) Stop() error {
	return nil
}

// ServerService runs the docs MCP server over HTTP on the configured flags.
type ServerService struct {
	Flags *pflag.FlagSet

	srv     *http.Server
	cleanup func()
	errCh   chan error
}

func (s *ServerService) GetName() string {
	return "docs-mcp"
}

func (s *ServerService) Start() (map[string]any, error) {
	settings, err := config.LoadSettingsWithFlags(s.Flags)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateSettings(settings); err != nil {
		return nil, err
	}

	mcpServer, cleanup, err := app.CreateMCPServer(context.Background(), settings, "test")
	if err != nil {
		return nil, err
	}
	s.cleanup = cleanup

	srv, err := app.NewHTTPServer(mcpServer, settings)
	if err != nil {
		s.runCleanup()
		return nil, err
	}
	s.srv = srv

	s.errCh = make(chan error, 1)
	go func() {
		s.errCh <- srv.ListenAndServe()
	}()

	baseURL := "http://" + srv.Addr
	if err := waitForHealth(baseURL+"/health", 5*time.Second); err != nil {
		_ = s.Stop()
		return nil, err
	}

	return map[string]any{PropBaseURL: baseURL}, nil
}

func (s *ServerService) Stop() error {
	defer s.runCleanup()

	if s.srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-s.errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *ServerService) runCleanup() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// waitForHealth polls the health endpoint until it answers 200 or the timeout expires
func waitForHealth(url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	return fmt.Errorf("server not healthy after %v: %s", timeout, url)
}
