package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/yoshino-s/cloudlogging/jsontext"
	"github.com/yoshino-s/cloudlogging/logging"
	"github.com/yoshino-s/cloudlogging/structpb_wrapper"
	"github.com/yoshino-s/cloudlogging/value"
)

func runConvert(args []string, stdin io.Reader, stdout io.Writer) error {
	var file, output string
	var strict bool
	var maxDepth int

	flags := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	flags.StringVarP(&file, "file", "f", "", "read JSON text from this file instead of stdin")
	flags.StringVarP(&output, "output", "o", "json", "output format: json, proto or cbor")
	flags.BoolVar(&strict, "strict", false, "reject comments and trailing commas")
	flags.IntVar(&maxDepth, "max-depth", jsontext.DefaultMaxDepth, "nesting kept before subtrees stay raw text")
	if err := flags.Parse(args); err != nil {
		return err
	}

	in := stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	text, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	c := jsontext.New(jsontext.WithLenient(!strict), jsontext.WithMaxDepth(maxDepth))
	data, err := render(c.FromJSONText(string(text)), output)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}

func render(v value.Value, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := v.MarshalJSON()
		return append(data, '\n'), err
	case "proto":
		data, err := protojson.MarshalOptions{Multiline: true}.Marshal(structpb_wrapper.NewValue(v))
		return append(data, '\n'), err
	case "cbor":
		return logging.EncodeCBOR(v.AsInterface())
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}
