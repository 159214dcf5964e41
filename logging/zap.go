package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yoshino-s/cloudlogging/value"
)

// ZapLevel maps a severity onto the closest zap level.
func ZapLevel(s Severity) zapcore.Level {
	switch {
	case s >= SeverityEmergency:
		return zapcore.FatalLevel
	case s >= SeverityAlert:
		return zapcore.PanicLevel
	case s >= SeverityCritical:
		return zapcore.DPanicLevel
	case s >= SeverityError:
		return zapcore.ErrorLevel
	case s >= SeverityWarning:
		return zapcore.WarnLevel
	case s >= SeverityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

type zapWriter struct {
	logger *zap.Logger
}

// NewZapWriter writes each entry as one structured log line. Severities
// above ERROR are written at ERROR so a log line never stops the process.
func NewZapWriter(logger *zap.Logger) Writer {
	return &zapWriter{logger: logger}
}

func (w *zapWriter) WriteEntries(_ context.Context, entries ...*Entry) error {
	for _, e := range entries {
		level := ZapLevel(e.Severity)
		if level > zapcore.ErrorLevel {
			level = zapcore.ErrorLevel
		}
		ce := w.logger.Check(level, e.LogName)
		if ce == nil {
			continue
		}
		fields := []zap.Field{
			zap.String("insertId", e.InsertID),
			zap.Time("timestamp", e.Timestamp),
			zap.Stringer("severity", e.Severity),
			zap.String("resource", e.Resource.Type),
		}
		if len(e.Labels) > 0 {
			fields = append(fields, zap.Any("labels", e.Labels))
		}
		if r := e.HTTPRequest; r != nil {
			fields = append(fields,
				zap.String("method", r.RequestMethod),
				zap.String("url", r.RequestURL),
				zap.Int("status", r.Status),
				zap.Duration("latency", r.Latency),
			)
		}
		fields = append(fields, ZapField("jsonPayload", e.Payload))
		ce.Write(fields...)
	}
	return nil
}

// ZapField logs v as a nested object instead of a JSON string.
func ZapField(key string, v value.Value) zap.Field {
	switch v.Kind() {
	case value.NullKind:
		return zap.Reflect(key, nil)
	case value.BoolKind:
		return zap.Bool(key, v.AsBool())
	case value.NumberKind:
		return zap.Float64(key, v.AsNumber())
	case value.StringKind:
		return zap.String(key, v.AsString())
	case value.ListKind:
		return zap.Array(key, arrayValue(v.Items()))
	default:
		return zap.Object(key, objectValue(v.Fields()))
	}
}

type objectValue []value.Field

func (o objectValue) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	for _, f := range o {
		ZapField(f.Name, f.Value).AddTo(enc)
	}
	return nil
}

type arrayValue []value.Value

func (a arrayValue) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, item := range a {
		var err error
		switch item.Kind() {
		case value.NullKind:
			err = enc.AppendReflected(nil)
		case value.BoolKind:
			enc.AppendBool(item.AsBool())
		case value.NumberKind:
			enc.AppendFloat64(item.AsNumber())
		case value.StringKind:
			enc.AppendString(item.AsString())
		case value.ListKind:
			err = enc.AppendArray(arrayValue(item.Items()))
		default:
			err = enc.AppendObject(objectValue(item.Fields()))
		}
		if err != nil {
			return err
		}
	}
	return nil
}
