package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"connectrpc.com/connect"
	. "github.com/smartystreets/goconvey/convey"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yoshino-s/cloudlogging/logging"
	"github.com/yoshino-s/cloudlogging/runtime"
	"github.com/yoshino-s/cloudlogging/value"
)

type memoryWriter struct {
	mu      sync.Mutex
	entries []*logging.Entry
	err     error
}

func (m *memoryWriter) WriteEntries(_ context.Context, entries ...*logging.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return m.err
}

func serve(w logging.Writer, opts ...Option) *httptest.Server {
	mux := http.NewServeMux()
	mux.Handle(NewHandler(w, opts...))
	return httptest.NewServer(mux)
}

func TestCollector(t *testing.T) {
	ctx := context.Background()

	Convey("Given a collector server", t, func() {
		sink := &memoryWriter{}
		srv := serve(sink, WithHooks(runtime.NewHookSet(runtime.LabelHook(map[string]string{"via": "collector"}))))
		defer srv.Close()
		client := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithProjectID("demo"))

		Convey("Entries round-trip through the client", func() {
			e := logging.NewEntry("request-response", logging.SeverityError, value.Struct(
				value.F("z", value.Number(1)),
				value.F("a", value.List(value.Bool(true), value.String("s"))),
			))
			e.HTTPRequest = &logging.HTTPRequest{RequestMethod: "GET", Status: 500}

			So(client.WriteEntries(ctx, e), ShouldBeNil)
			So(len(sink.entries), ShouldEqual, 1)
			got := sink.entries[0]
			So(got.InsertID, ShouldEqual, e.InsertID)
			So(got.LogName, ShouldEqual, "projects/demo/logs/request-response")
			So(got.Severity, ShouldEqual, logging.SeverityError)
			So(got.Labels["via"], ShouldEqual, "collector")
			So(got.HTTPRequest.Status, ShouldEqual, 500)
			So(value.Equal(got.Payload, e.Payload), ShouldBeTrue)

			So(e.LogName, ShouldEqual, "request-response")
		})

		Convey("An empty batch is not sent", func() {
			So(client.WriteEntries(ctx), ShouldBeNil)
			So(len(sink.entries), ShouldEqual, 0)
		})

		Convey("Invalid entries fail on the client", func() {
			err := client.WriteEntries(ctx, &logging.Entry{})
			So(errors.Is(err, logging.ErrInvalidEntry), ShouldBeTrue)
			So(len(sink.entries), ShouldEqual, 0)
		})
	})

	Convey("A malformed request is rejected as invalid", t, func() {
		srv := serve(&memoryWriter{})
		defer srv.Close()
		raw := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+WriteEntriesProcedure)
		msg, _ := structpb.NewStruct(map[string]any{"entries": []any{"not an object"}})
		_, err := raw.CallUnary(ctx, connect.NewRequest(msg))
		So(connect.CodeOf(err), ShouldEqual, connect.CodeInvalidArgument)
	})

	Convey("Writer failures surface as internal errors", t, func() {
		srv := serve(&memoryWriter{err: errors.New("disk full")})
		defer srv.Close()
		client := NewClient(srv.URL, WithHTTPClient(srv.Client()))
		err := client.WriteEntries(ctx, logging.NewEntry("projects/p/logs/l", logging.SeverityInfo, value.Null()))
		So(connect.CodeOf(err), ShouldEqual, connect.CodeInternal)
	})

	Convey("Encoding and decoding are symmetric", t, func() {
		e := logging.NewEntry("projects/p/logs/l", logging.SeverityInfo, value.String("hi"))
		msg, err := EncodeEntries(e)
		So(err, ShouldBeNil)
		back, err := DecodeEntries(msg)
		So(err, ShouldBeNil)
		So(back[0].Payload.AsString(), ShouldEqual, "hi")

		_, err = DecodeEntries(&structpb.Struct{})
		So(errors.Is(err, logging.ErrInvalidEntry), ShouldBeTrue)
	})
}
