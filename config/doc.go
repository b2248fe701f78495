// Package config loads voctree settings: defaults, then an optional YAML
// file, then VOCTREE_* environment variables.
package config
