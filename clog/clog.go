// Package clog is a thin wrapper around zap.Logger that carries base fields
// (env, pkg, method, babyId, ...) across With() chains. The New Relic zap
// integration only forwards attributes present at the time of the log call,
// so top-level attributes must ride along on every message instead of being
// baked into the zap core.
package clog

import (
	"sync"

	"go.uber.org/zap"
)

type ICustomLog interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)
	With(fields ...zap.Field) ICustomLog
}

type CustomLog struct {
	mtx    *sync.Mutex
	fields map[string]zap.Field
	logger *zap.Logger
}

func New(logger *zap.Logger, fields ...zap.Field) ICustomLog {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &CustomLog{
		logger: logger,
		mtx:    &sync.Mutex{},
		fields: make(map[string]zap.Field),
	}

	for _, f := range fields {
		c.fields[f.Key] = f
	}

	return c
}

// NewBasic returns a logger backed by zap's development config; used as a
// fallback when no configured logger is available.
func NewBasic(fields ...zap.Field) ICustomLog {
	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewNop()
	}

	return New(logger, fields...)
}

func (c *CustomLog) Debug(msg string, fields ...zap.Field) {
	c.logger.Debug(msg, c.merged(fields)...)
}

func (c *CustomLog) Info(msg string, fields ...zap.Field) {
	c.logger.Info(msg, c.merged(fields)...)
}

func (c *CustomLog) Warn(msg string, fields ...zap.Field) {
	c.logger.Warn(msg, c.merged(fields)...)
}

func (c *CustomLog) Error(msg string, fields ...zap.Field) {
	c.logger.Error(msg, c.merged(fields)...)
}

func (c *CustomLog) Fatal(msg string, fields ...zap.Field) {
	c.logger.Fatal(msg, c.merged(fields)...)
}

// With returns a new logger carrying the existing base fields plus the given
// ones; same-key fields are overridden.
func (c *CustomLog) With(fields ...zap.Field) ICustomLog {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	combined := make([]zap.Field, 0, len(c.fields)+len(fields))

	for _, f := range c.fields {
		combined = append(combined, f)
	}

	combined = append(combined, fields...)

	return New(c.logger, combined...)
}

func (c *CustomLog) merged(fields []zap.Field) []zap.Field {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	out := make([]zap.Field, 0, len(c.fields)+len(fields))

	for _, f := range c.fields {
		out = append(out, f)
	}

	return append(out, fields...)
}
