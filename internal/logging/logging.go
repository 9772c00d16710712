// Package logging builds the zap logger shared by the server, worker, and tools.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger, or a console development logger when env is not production.
// level is a zap level name; unknown names fall back to info.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(strings.TrimSpace(env), "production") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// MaskAddress hides most of an email or phone number for log lines.
func MaskAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if at := strings.Index(addr, "@"); at > 0 {
		return addr[:1] + "***" + addr[at:]
	}
	if len(addr) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(addr)-4) + addr[len(addr)-4:]
}
