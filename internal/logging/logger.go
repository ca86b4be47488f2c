/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
// Package logging provides centralized logging that adapts to interactive
// CLI invocations versus non-interactive/daemon ones.
package logging

import (
	"sync"

	"github.com/pterm/pterm"
	"go.uber.org/zap"
)

// init configures pterm styles to use foreground colors only (no
// backgrounds), for cleaner output in narrow terminals and CI logs.
func init() {
	pterm.Info = *pterm.Info.WithPrefix(pterm.Prefix{
		Text:  "INFO",
		Style: pterm.NewStyle(pterm.FgBlue),
	}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)

	pterm.Success = *pterm.Success.WithPrefix(pterm.Prefix{
		Text:  "SUCCESS",
		Style: pterm.NewStyle(pterm.FgGreen),
	}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)

	pterm.Warning = *pterm.Warning.WithPrefix(pterm.Prefix{
		Text:  "WARNING",
		Style: pterm.NewStyle(pterm.FgYellow),
	}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)

	pterm.Error = *pterm.Error.WithPrefix(pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.FgRed),
	}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)

	pterm.Debug = *pterm.Debug.WithPrefix(pterm.Prefix{
		Text:  "DEBUG",
		Style: pterm.NewStyle(pterm.FgCyan),
	}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)
}

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerMode selects the output backend.
type LoggerMode int

const (
	// ModeCLI uses pterm for colorized, human-facing terminal output.
	ModeCLI LoggerMode = iota
	// ModeStructured uses zap for newline-delimited JSON, for the watch
	// daemon and non-interactive/CI invocations where logs are consumed by
	// another process rather than read by a human in a terminal.
	ModeStructured
)

// Logger switches its backend between CLI (pterm) and structured (zap)
// output without the caller needing to know which mode is active.
type Logger struct {
	mu           sync.RWMutex
	mode         LoggerMode
	zap          *zap.SugaredLogger
	debugEnabled bool
	quietEnabled bool
}

var globalLogger = &Logger{mode: ModeCLI}

// GetLogger returns the global logger instance.
func GetLogger() *Logger { return globalLogger }

// SetMode configures the logger for CLI or structured operation.
func (l *Logger) SetMode(mode LoggerMode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mode = mode
	if mode == ModeStructured && l.zap == nil {
		cfg := zap.NewProductionConfig()
		if l.debugEnabled {
			cfg.Level.SetLevel(zap.DebugLevel)
		}
		z, err := cfg.Build()
		if err != nil {
			// Structured logging is diagnostic, not load-bearing: if zap
			// fails to initialize, fall back to CLI rather than abort.
			l.mode = ModeCLI
			return
		}
		l.zap = z.Sugar()
	}
}

// SetZapLogger injects a pre-built zap logger, used by tests and by hosts
// embedding bundlecore that already manage their own zap configuration.
func (l *Logger) SetZapLogger(z *zap.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zap = z.Sugar()
	l.mode = ModeStructured
}

func (l *Logger) SetDebugEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugEnabled = enabled
}

func (l *Logger) IsDebugEnabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.debugEnabled
}

func (l *Logger) SetQuietEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quietEnabled = enabled
}

func (l *Logger) IsQuietEnabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.quietEnabled
}

func (l *Logger) Debug(format string, args ...any)   { l.log(LogLevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)    { l.log(LogLevelInfo, format, args...) }
func (l *Logger) Warning(format string, args ...any) { l.log(LogLevelWarning, format, args...) }
func (l *Logger) Error(format string, args ...any)   { l.log(LogLevelError, format, args...) }

// Success logs a success message; suppressed in quiet mode since it ranks
// above warnings in the verbosity the teacher's CLI used.
func (l *Logger) Success(format string, args ...any) {
	l.mu.RLock()
	mode, quiet, z := l.mode, l.quietEnabled, l.zap
	l.mu.RUnlock()
	if quiet {
		return
	}
	if mode == ModeCLI {
		pterm.Success.Printf(format+"\n", args...)
	} else if z != nil {
		z.Infof(format, args...)
	}
}

func (l *Logger) log(level LogLevel, format string, args ...any) {
	l.mu.RLock()
	mode, debug, quiet, z := l.mode, l.debugEnabled, l.quietEnabled, l.zap
	l.mu.RUnlock()

	if level == LogLevelDebug && !debug {
		return
	}
	if quiet && (level == LogLevelInfo || level == LogLevelDebug) {
		return
	}

	switch mode {
	case ModeCLI:
		switch level {
		case LogLevelDebug:
			pterm.Debug.Printf(format+"\n", args...)
		case LogLevelInfo:
			pterm.Info.Printf(format+"\n", args...)
		case LogLevelWarning:
			pterm.Warning.Printf(format+"\n", args...)
		case LogLevelError:
			pterm.Error.Printf(format+"\n", args...)
		}
	case ModeStructured:
		if z == nil {
			return
		}
		switch level {
		case LogLevelDebug:
			z.Debugf(format, args...)
		case LogLevelInfo:
			z.Infof(format, args...)
		case LogLevelWarning:
			z.Warnf(format, args...)
		case LogLevelError:
			z.Errorf(format, args...)
		}
	}
}

// Convenience functions operating on the global logger.
func Debug(format string, args ...any)   { globalLogger.Debug(format, args...) }
func Info(format string, args ...any)    { globalLogger.Info(format, args...) }
func Warning(format string, args ...any) { globalLogger.Warning(format, args...) }
func Error(format string, args ...any)   { globalLogger.Error(format, args...) }
func Success(format string, args ...any) { globalLogger.Success(format, args...) }
func SetMode(mode LoggerMode)            { globalLogger.SetMode(mode) }
func SetZapLogger(z *zap.Logger)         { globalLogger.SetZapLogger(z) }
func SetDebugEnabled(enabled bool)       { globalLogger.SetDebugEnabled(enabled) }
func IsDebugEnabled() bool               { return globalLogger.IsDebugEnabled() }
func SetQuietEnabled(enabled bool)       { globalLogger.SetQuietEnabled(enabled) }
func IsQuietEnabled() bool               { return globalLogger.IsQuietEnabled() }
