package loki

import (
	"encoding/json"

	"go.uber.org/zap/zapcore"
)

// Core is a zapcore.Core that mirrors every log entry at or above a minimum
// level to Loki; it wraps no other core and is teed alongside the stderr
// core (see cmd/server/main.go). A push failure is
// swallowed: losing a remote log line must never take down the service.
type Core struct {
	zapcore.LevelEnabler
	client *Client
	labels map[string]string
	fields []zapcore.Field
}

// NewCore builds a Loki-backed core with a fixed label set (e.g. service
// and environment name) and a minimum enabled level.
func NewCore(client *Client, labels map[string]string, level zapcore.LevelEnabler) *Core {
	return &Core{LevelEnabler: level, client: client, labels: labels}
}

func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &Core{LevelEnabler: c.LevelEnabler, client: c.client, labels: c.labels, fields: merged}
}

func (c *Core) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *Core) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	labels := make(map[string]string, len(c.labels)+1)
	for k, v := range c.labels {
		labels[k] = v
	}
	labels["level"] = entry.Level.String()

	line, err := encodeLine(entry.Message, enc.Fields)
	if err != nil {
		return nil
	}
	_ = c.client.Push(Batch{Entries: []Entry{{Timestamp: entry.Time, Line: line, Labels: labels}}})
	return nil
}

func (c *Core) Sync() error { return nil }

func encodeLine(msg string, fields map[string]interface{}) (string, error) {
	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["msg"] = msg
	b, err := json.Marshal(payload)
	if err != nil {
		return msg, err
	}
	return string(b), nil
}
