// Package logger provides structured logging for grove containers using
// zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers with structured fields. Containers log through a
// no-op logger unless one is supplied:
//
//	log := logger.NewDefault("userapp")
//	b := grove.NewBuilder(grove.WithLogger(log))
package logger
