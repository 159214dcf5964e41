package httplog

import (
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/yoshino-s/cloudlogging/jsontext"
)

// Redacted replaces the value of sensitive headers and cookies.
const Redacted = "REDACTED"

// DefaultRedactedHeaders never reach a log entry in clear text.
var DefaultRedactedHeaders = []string{
	"Authorization",
	"Cookie",
	"Proxy-Authorization",
	"Set-Cookie",
}

// Request is the logged view of an incoming request.
type Request struct {
	Host        string
	Path        string
	Method      string
	Protocol    string
	Scheme      string
	QueryString string
	// Body is a jsontext.Payload, or the captured prefix as a plain
	// string when BodyTruncated is set.
	Body          any
	BodyTruncated bool
	Headers       []string
	Cookies       []string
}

// Response is the logged view of what the handler wrote.
type Response struct {
	StatusCode    int
	Body          any
	BodyTruncated bool
	Headers       []string
}

// body wraps captured text for logging. A complete body is parsed as JSON;
// a cut one cannot be, so its prefix is kept verbatim.
func body(captured []byte, truncated bool) any {
	if truncated {
		return string(captured)
	}
	return jsontext.NewPayload(string(captured))
}

type redactor map[string]struct{}

func newRedactor(names []string) redactor {
	r := make(redactor, len(names))
	for _, name := range names {
		r[http.CanonicalHeaderKey(name)] = struct{}{}
	}
	return r
}

func (r redactor) redacts(name string) bool {
	_, ok := r[http.CanonicalHeaderKey(name)]
	return ok
}

// headerLines renders h as sorted "Key: v1,v2" lines.
func (r redactor) headerLines(h http.Header) []string {
	lines := make([]string, 0, len(h))
	for name, values := range h {
		v := strings.Join(values, ",")
		if r.redacts(name) {
			v = Redacted
		}
		lines = append(lines, name+": "+v)
	}
	sort.Strings(lines)
	return lines
}

// cookieLines renders cookies as "name=value". Every cookie value is
// redacted when the Cookie header is.
func (r redactor) cookieLines(cookies []*http.Cookie) []string {
	lines := make([]string, 0, len(cookies))
	hide := r.redacts("Cookie")
	for _, c := range cookies {
		v := c.Value
		if hide || r.redacts(c.Name) {
			v = Redacted
		}
		lines = append(lines, c.Name+"="+v)
	}
	sort.Strings(lines)
	return lines
}

func scheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(proto)
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func serverIP(r *http.Request) string {
	addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr)
	if !ok {
		return ""
	}
	return hostOnly(addr.String())
}
