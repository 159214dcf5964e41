package logging

import (
	"context"
	"io"
	"reflect"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	// Core deterministic encoding sorts map keys, so the same entry always
	// produces the same bytes.
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("logging: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("logging: CBOR decoder initialization failed: " + err.Error())
	}
}

type cborWriter struct {
	mu  sync.Mutex
	enc *cbor.Encoder
}

// NewCBORWriter streams entries to out as a sequence of CBOR maps in the
// same shape as Entry.Value.
func NewCBORWriter(out io.Writer) Writer {
	return &cborWriter{enc: cborEnc.NewEncoder(out)}
}

func (w *cborWriter) WriteEntries(ctx context.Context, entries ...*Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.enc.Encode(e.Value().AsInterface()); err != nil {
			return err
		}
	}
	return nil
}

// EncodeCBOR encodes v with the deterministic mode the CBOR writer uses.
func EncodeCBOR(v any) ([]byte, error) {
	return cborEnc.Marshal(v)
}

// DecodeCBOR reads back one entry written by a CBOR writer as a generic map.
func DecodeCBOR(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := cborDec.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
