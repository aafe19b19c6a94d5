// Package logger re-exports the shared logging package so internal code
// imports one path.
package logger

import (
	pkglogger "github.com/Bparsons0904/goLogger"
)

type (
	Logger = pkglogger.Logger
	Config = pkglogger.Config
	Format = pkglogger.Format
)

const (
	DefaultTraceIDKey = pkglogger.DefaultTraceIDKey
	FormatJSON        = pkglogger.FormatJSON
	FormatText        = pkglogger.FormatText
)

var (
	New                    = pkglogger.New
	NewWithConfig          = pkglogger.NewWithConfig
	NewWithContext         = pkglogger.NewWithContext
	ContextWithTraceID     = pkglogger.ContextWithTraceID
	ContextWithTraceIDName = pkglogger.ContextWithTraceIDName
	TraceIDFromContext     = pkglogger.TraceIDFromContext
	TraceIDFromContextName = pkglogger.TraceIDFromContextName
)
