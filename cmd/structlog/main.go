// Copyright 2019-present Facebook
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// structlog converts JSON text into structured log payloads and runs a
// small instrumented server that logs every request.
//
//	structlog convert [-f file] [-o json|proto|cbor] [--strict]
//	structlog serve [-c config.yaml] [--addr :8080]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var errUsage = errors.New("usage: structlog convert|serve [flags]")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "convert":
		return runConvert(args[1:], stdin, stdout)
	case "serve":
		return runServe(args[1:])
	}
	return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
}
