package httplog

import (
	"bytes"
	"io"
	"net/http"
)

// recorder passes the response through while keeping the status, the byte
// count and up to limit bytes of the body.
type recorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	size        int64
	body        bytes.Buffer
	limit       int64
}

func newRecorder(w http.ResponseWriter, limit int64) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK, limit: limit}
}

func (r *recorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(p)
	r.size += int64(n)
	if room := r.limit - int64(r.body.Len()); room > 0 {
		r.body.Write(p[:min(int64(n), room)])
	}
	return n, err
}

func (r *recorder) truncated() bool {
	return r.size > int64(r.body.Len())
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// captureBody reads up to limit bytes of the request body and puts them
// back in front of the unread rest, so the handler still sees all of it.
// truncated reports whether the body goes on past limit.
func captureBody(r *http.Request, limit int64) (captured []byte, truncated bool, err error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false, nil
	}
	read, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	r.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(read), r.Body),
		Closer: r.Body,
	}
	if int64(len(read)) > limit {
		return read[:limit], true, err
	}
	return read, false, err
}

type readCloser struct {
	io.Reader
	io.Closer
}
