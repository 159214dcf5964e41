// Package collector ships log entries between processes over Connect RPC.
// Entries travel as google.protobuf.Struct messages, so no generated code
// is needed on either side.
package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yoshino-s/cloudlogging/logging"
	"github.com/yoshino-s/cloudlogging/runtime"
)

const (
	ServiceName = "cloudlogging.v1.Collector"
	// WriteEntriesProcedure takes {"entries": [...]} and returns Empty.
	WriteEntriesProcedure = "/" + ServiceName + "/WriteEntries"
)

type options struct {
	logger         *zap.Logger
	hooks          *runtime.HookSet
	projectID      string
	httpClient     connect.HTTPClient
	handlerOptions []connect.HandlerOption
	clientOptions  []connect.ClientOption
}

type Option func(o *options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHooks runs hooks on every received entry before it is written.
func WithHooks(hooks *runtime.HookSet) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithProjectID qualifies bare log ids sent by a client as
// projects/{id}/logs/{log}.
func WithProjectID(projectID string) Option {
	return func(o *options) {
		o.projectID = projectID
	}
}

func WithHTTPClient(client connect.HTTPClient) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

func WithHandlerOptions(opts ...connect.HandlerOption) Option {
	return func(o *options) {
		o.handlerOptions = append(o.handlerOptions, opts...)
	}
}

func WithClientOptions(opts ...connect.ClientOption) Option {
	return func(o *options) {
		o.clientOptions = append(o.clientOptions, opts...)
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:     zap.NewNop(),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// EncodeEntries builds the request message for entries.
func EncodeEntries(entries ...*logging.Entry) (*structpb.Struct, error) {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(entries))}
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		s, err := e.Proto()
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		list.Values = append(list.Values, structpb.NewStructValue(s))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"entries": structpb.NewListValue(list),
	}}, nil
}

// DecodeEntries reads the entries out of a request message.
func DecodeEntries(msg *structpb.Struct) ([]*logging.Entry, error) {
	list := msg.GetFields()["entries"].GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: missing entries list", logging.ErrInvalidEntry)
	}
	entries := make([]*logging.Entry, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		s := item.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("%w: entries[%d] is not an object", logging.ErrInvalidEntry, i)
		}
		e, err := logging.EntryFromProto(s)
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type handler struct {
	writer logging.Writer
	logger *zap.Logger
}

// NewHandler serves WriteEntries, passing received entries to w. The
// returned path and handler plug straight into an http.ServeMux.
func NewHandler(w logging.Writer, opts ...Option) (string, http.Handler) {
	o := newOptions(opts)
	h := &handler{
		writer: runtime.HookedWriter(w, o.hooks, runtime.StageCollect),
		logger: o.logger,
	}
	return WriteEntriesProcedure, connect.NewUnaryHandler(
		WriteEntriesProcedure,
		h.WriteEntries,
		o.handlerOptions...,
	)
}

func (h *handler) WriteEntries(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[emptypb.Empty], error) {
	entries, err := DecodeEntries(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	err = h.writer.WriteEntries(ctx, entries...)
	if err != nil {
		h.logger.Warn("write collected entries", zap.Int("count", len(entries)), zap.Error(err))
	}
	return runtime.WrapResult(&emptypb.Empty{}, err)
}

// Client is a logging.Writer that sends entries to a collector.
type Client struct {
	client    *connect.Client[structpb.Struct, emptypb.Empty]
	projectID string
}

func NewClient(baseURL string, opts ...Option) *Client {
	o := newOptions(opts)
	return &Client{
		client: connect.NewClient[structpb.Struct, emptypb.Empty](
			o.httpClient,
			strings.TrimRight(baseURL, "/")+WriteEntriesProcedure,
			o.clientOptions...,
		),
		projectID: o.projectID,
	}
}

func (c *Client) WriteEntries(ctx context.Context, entries ...*logging.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if c.projectID != "" {
		qualified := make([]*logging.Entry, len(entries))
		for i, e := range entries {
			qualified[i] = e
			if e != nil && e.LogName != "" && !strings.Contains(e.LogName, "/") {
				cp := *e
				cp.LogName = logging.LogName(c.projectID, e.LogName)
				qualified[i] = &cp
			}
		}
		entries = qualified
	}
	msg, err := EncodeEntries(entries...)
	if err != nil {
		return err
	}
	_, err = c.client.CallUnary(ctx, connect.NewRequest(msg))
	return err
}
