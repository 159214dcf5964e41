package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yoshino-s/cloudlogging/collector"
	"github.com/yoshino-s/cloudlogging/config"
	"github.com/yoshino-s/cloudlogging/logging"
	"github.com/yoshino-s/cloudlogging/value"
)

func TestConvert(t *testing.T) {
	convert := func(input string, args ...string) (string, error) {
		var out bytes.Buffer
		err := run(append([]string{"convert"}, args...), strings.NewReader(input), &out)
		return out.String(), err
	}

	Convey("JSON text is converted in order", t, func() {
		out, err := convert(`{"z":1, /* note */ "a":[true,null,],}`)
		So(err, ShouldBeNil)
		So(out, ShouldEqual, "{\"z\":1,\"a\":[true,null]}\n")
	})

	Convey("Strict mode reports comments as a diagnostic", t, func() {
		out, err := convert(`{"a":1 /* note */}`, "--strict")
		So(err, ShouldBeNil)
		So(out, ShouldStartWith, `"`)
	})

	Convey("Other output formats", t, func() {
		out, err := convert(`{"a":[1]}`, "-o", "proto")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, `"a"`)

		out, err = convert(`{"a":1}`, "-o", "cbor")
		So(err, ShouldBeNil)
		decoded, err := logging.DecodeCBOR([]byte(out))
		So(err, ShouldBeNil)
		So(decoded["a"], ShouldEqual, 1.0)

		_, err = convert(`1`, "-o", "yaml")
		So(err, ShouldNotBeNil)
	})

	Convey("Input can come from a file", t, func() {
		path := filepath.Join(t.TempDir(), "in.json")
		So(os.WriteFile(path, []byte(`[1,"two"]`), 0o600), ShouldBeNil)
		out, err := convert("", "-f", path)
		So(err, ShouldBeNil)
		So(out, ShouldEqual, "[1,\"two\"]\n")
	})

	Convey("Unknown commands fail", t, func() {
		So(run(nil, nil, nil), ShouldEqual, errUsage)
		So(errors.Is(run([]string{"explode"}, nil, nil), errUsage), ShouldBeTrue)
	})
}

func TestServeMux(t *testing.T) {
	Convey("The demo server logs each request", t, func() {
		core, logs := observer.New(zapcore.InfoLevel)
		cfg, err := config.Parse([]byte("project_id: demo\nlabels:\n  app: structlog\ncollector:\n  serve: true\n"))
		So(err, ShouldBeNil)
		srv := httptest.NewServer(newMux(cfg, zap.New(core)))
		defer srv.Close()

		res, err := srv.Client().Post(srv.URL+"/echo", "application/json", strings.NewReader(`{"k":"v"}`))
		So(err, ShouldBeNil)
		res.Body.Close()
		So(res.StatusCode, ShouldEqual, http.StatusOK)

		lines := logs.FilterMessage("projects/demo/logs/request-response").All()
		So(len(lines), ShouldEqual, 1)
		So(lines[0].ContextMap()["labels"], ShouldResemble, map[string]string{"app": "structlog"})

		client := collector.NewClient(srv.URL, collector.WithHTTPClient(srv.Client()), collector.WithProjectID("demo"))
		entry := logging.NewEntry("remote", logging.SeverityWarning, value.String("hi"))
		So(client.WriteEntries(context.Background(), entry), ShouldBeNil)
		So(logs.FilterMessage("projects/demo/logs/remote").Len(), ShouldEqual, 1)
	})
}
