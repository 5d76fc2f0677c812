// Package config loads and validates the client configuration.
//
// Configuration is a YAML file with ${VAR} environment substitution.
// Defaults are applied for every tuning knob; only the REST base address
// is mandatory.
package config
