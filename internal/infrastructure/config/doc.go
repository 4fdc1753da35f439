// Package config loads and validates NodeX Core configuration.
//
// Configuration comes from three layers, later layers overriding earlier ones:
// hardcoded defaults, a YAML file, and NODEX_* environment variables.
// A zero-file deployment works: Default() is a complete local configuration.
package config
