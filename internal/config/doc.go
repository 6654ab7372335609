// Package config loads application settings and provides the Logger used
// throughout provisioning.
//
// # Settings
//
// Settings are read with viper from, in increasing precedence: built-in
// defaults, an optional YAML config file, NEXO_* environment variables and
// command-line flags bound by the caller. Nested keys map to environment
// variables with underscores, so templates.uv_version becomes
// NEXO_TEMPLATES_UV_VERSION.
//
// # Download templates
//
// Each toolchain family carries a URL template with {version}, {platform},
// {ext} and {release_date} placeholders. The defaults point at the upstream
// release hosts and can be overridden to use a mirror:
//
//	templates:
//	  node: https://mirror.example.com/node/v{version}/node-v{version}-{platform}.{ext}
//
// # Logging
//
// Logger is a small key-value interface. DefaultLogger discards everything;
// NewZapLogger adapts a zap logger for command-line use.
package config
