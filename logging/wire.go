package logging

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yoshino-s/cloudlogging/structpb_wrapper"
	"github.com/yoshino-s/cloudlogging/value"
)

// Value renders the entry in LogEntry JSON form with the payload under
// jsonPayload.
func (e *Entry) Value() value.Value {
	fields := []value.Field{
		value.F("insertId", value.String(e.InsertID)),
		value.F("logName", value.String(e.LogName)),
		value.F("timestamp", value.String(e.Timestamp.UTC().Format(time.RFC3339Nano))),
		value.F("severity", value.String(e.Severity.String())),
		value.F("resource", value.Struct(
			value.F("type", value.String(e.Resource.Type)),
			value.F("labels", labelsValue(e.Resource.Labels)),
		)),
	}
	if len(e.Labels) > 0 {
		fields = append(fields, value.F("labels", labelsValue(e.Labels)))
	}
	if r := e.HTTPRequest; r != nil {
		fields = append(fields, value.F("httpRequest", value.Struct(
			value.F("requestMethod", value.String(r.RequestMethod)),
			value.F("requestUrl", value.String(r.RequestURL)),
			value.F("requestSize", value.Number(float64(r.RequestSize))),
			value.F("status", value.Number(float64(r.Status))),
			value.F("responseSize", value.Number(float64(r.ResponseSize))),
			value.F("userAgent", value.String(r.UserAgent)),
			value.F("remoteIp", value.String(r.RemoteIP)),
			value.F("serverIp", value.String(r.ServerIP)),
			value.F("referer", value.String(r.Referer)),
			value.F("latency", value.String(r.Latency.String())),
			value.F("protocol", value.String(r.Protocol)),
		)))
	}
	fields = append(fields, value.F("jsonPayload", e.Payload))
	return value.Struct(fields...)
}

func labelsValue(labels map[string]string) value.Value {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]value.Field, len(keys))
	for i, k := range keys {
		fields[i] = value.F(k, value.String(labels[k]))
	}
	return value.Struct(fields...)
}

// Proto renders the entry as a protobuf Struct for transport.
func (e *Entry) Proto() (*structpb.Struct, error) {
	return structpb_wrapper.NewStruct(e.Value())
}

type wireEntry struct {
	InsertID    string            `mapstructure:"insertId"`
	LogName     string            `mapstructure:"logName"`
	Timestamp   time.Time         `mapstructure:"timestamp"`
	Severity    Severity          `mapstructure:"severity"`
	Resource    wireResource      `mapstructure:"resource"`
	Labels      map[string]string `mapstructure:"labels"`
	HTTPRequest *wireHTTPRequest  `mapstructure:"httpRequest"`
}

type wireResource struct {
	Type   string            `mapstructure:"type"`
	Labels map[string]string `mapstructure:"labels"`
}

type wireHTTPRequest struct {
	RequestMethod string        `mapstructure:"requestMethod"`
	RequestURL    string        `mapstructure:"requestUrl"`
	RequestSize   int64         `mapstructure:"requestSize"`
	Status        int           `mapstructure:"status"`
	ResponseSize  int64         `mapstructure:"responseSize"`
	UserAgent     string        `mapstructure:"userAgent"`
	RemoteIP      string        `mapstructure:"remoteIp"`
	ServerIP      string        `mapstructure:"serverIp"`
	Referer       string        `mapstructure:"referer"`
	Latency       time.Duration `mapstructure:"latency"`
	Protocol      string        `mapstructure:"protocol"`
}

var severityType = reflect.TypeOf(SeverityDefault)

func severityHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != severityType || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseSeverity(data.(string))
}

// EntryFromProto decodes the transport form produced by Proto.
func EntryFromProto(s *structpb.Struct) (*Entry, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil struct", ErrInvalidEntry)
	}

	var wire wireEntry
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			severityHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			mapstructure.StringToTimeDurationHookFunc(),
		),
		Result: &wire,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(s.AsMap()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}

	e := &Entry{
		InsertID:  wire.InsertID,
		LogName:   wire.LogName,
		Timestamp: wire.Timestamp,
		Severity:  wire.Severity,
		Resource:  Resource(wire.Resource),
		Labels:    wire.Labels,
		Payload:   structpb_wrapper.FromValue(s.GetFields()["jsonPayload"]),
	}
	if r := wire.HTTPRequest; r != nil {
		req := HTTPRequest(*r)
		e.HTTPRequest = &req
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}
