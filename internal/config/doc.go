// Package config loads the relay configuration: a small YAML file with
// defaults for everything, overridden by the PORT and CORS_ORIGIN environment
// variables. Watch hot-reloads the file so the allowed CORS origin can change
// without a restart.
package config
