// Package config loads and validates the TOML configuration for clipforge.
// Defaults cover a working local setup; a sample file documents every key.
package config
