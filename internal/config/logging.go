package config

import (
	"context"
	"log/slog"
)

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: transport", "value", s.Transport)
	if s.Transport != TransportStdio {
		logger.InfoContext(ctx, "Config: host", "value", s.Host)
		logger.InfoContext(ctx, "Config: port", "value", s.Port)
	}

	logger.InfoContext(ctx, "Config: auth.type", "value", s.Auth.Type)
	switch s.Auth.Type {
	case AuthTypeBasic:
		logger.InfoContext(ctx, "Config: auth.basic.username", "value", s.Auth.Basic.Username)
		logger.InfoContext(ctx, "Config: auth.basic.password", "value", "****")
	case AuthTypeAPIKey:
		logger.InfoContext(ctx, "Config: auth.api_keys", "count", len(s.Auth.APIKeys))
	}

	logger.InfoContext(ctx, "Config: docs.source", "value", s.Docs.Source)
	switch s.Docs.Source {
	case DocsSourceLocal:
		logger.InfoContext(ctx, "Config: docs.base_path", "value", s.Docs.BasePath)
	case DocsSourceRemote:
		logger.InfoContext(ctx, "Config: docs.remote_base_url", "value", s.Docs.RemoteBaseURL)
		logger.InfoContext(ctx, "Config: docs.remote_timeout", "value", s.Docs.RemoteTimeout)
		if s.Docs.RemoteRPS > 0 {
			logger.InfoContext(ctx, "Config: docs.remote_rps", "value", s.Docs.RemoteRPS)
		}
	}

	if s.XRef.CodeDocsPath != "" {
		logger.InfoContext(ctx, "Config: xref.code_docs_path", "value", s.XRef.CodeDocsPath)
	}
	if s.XRef.CodeTestsPath != "" {
		logger.InfoContext(ctx, "Config: xref.code_tests_path", "value", s.XRef.CodeTestsPath)
	}

	logger.InfoContext(ctx, "Config: search.enabled", "value", s.Search.Enabled)
	if s.Search.Enabled {
		logger.InfoContext(ctx, "Config: search.max_results", "value", s.Search.MaxResults)
	}
}

// AuthSettingsLogValue returns a slog.Value for AuthSettings with masked data
func AuthSettingsLogValue(s AuthSettings) slog.Value {
	keys := make([]string, len(s.APIKeys))
	for i := range s.APIKeys {
		keys[i] = "****"
	}
	return slog.GroupValue(
		slog.String("type", s.Type),
		slog.Any("basic", BasicAuthSettingsLogValue(s.Basic)),
		slog.Any("api_keys", keys),
	)
}

// BasicAuthSettingsLogValue returns a slog.Value for BasicAuthSettings with masked data
func BasicAuthSettingsLogValue(s BasicAuthSettings) slog.Value {
	return slog.GroupValue(
		slog.String("username", s.Username),
		slog.String("password", "****"),
	)
}

// DocsSettingsLogValue returns a slog.Value for DocsSettings
func DocsSettingsLogValue(s DocsSettings) slog.Value {
	return slog.GroupValue(
		slog.String("source", s.Source),
		slog.String("base_path", s.BasePath),
		slog.String("remote_base_url", s.RemoteBaseURL),
		slog.Duration("remote_timeout", s.RemoteTimeout),
		slog.Float64("remote_rps", s.RemoteRPS),
	)
}

// SettingsLogValue returns a slog.Value for Settings with masked data
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("transport", s.Transport),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
		slog.Any("auth", AuthSettingsLogValue(s.Auth)),
		slog.Any("docs", DocsSettingsLogValue(s.Docs)),
		slog.Group("xref",
			slog.String("code_docs_path", s.XRef.CodeDocsPath),
			slog.String("code_tests_path", s.XRef.CodeTestsPath),
		),
		slog.Group("search",
			slog.Bool("enabled", s.Search.Enabled),
			slog.Int("max_results", s.Search.MaxResults),
		),
	)
}
