// Package config loads and validates the regionpulse-server YAML
// configuration. Load applies defaults before validation, so a minimal (or
// empty) config file yields a fully usable configuration.
package config
