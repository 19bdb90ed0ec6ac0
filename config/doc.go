// Package config loads container and logging configuration for grove
// applications.
//
// Values come from, in increasing priority: built-in defaults, a YAML file
// (config.yml), a .env file and environment variables. Environment variables
// use the upper-cased service name as prefix:
//
//	USERAPP_CONTAINER_DEFAULT_LIFETIME=singleton
//	USERAPP_LOGGING_LEVEL=debug
//
// # Usage
//
//	cfg, err := config.Load("userapp")
//	b := grove.NewBuilder(grove.WithConfig(cfg.Container))
package config
