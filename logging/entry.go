// Package logging models a structured log entry and the writers that
// deliver it. The entry shape follows Cloud Logging's LogEntry: a log
// name, a severity, a monitored resource, an optional HTTP request record
// and a JSON payload held as a value.Value tree.
package logging

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yoshino-s/cloudlogging/value"
)

var ErrInvalidEntry = errors.New("cloudlogging: invalid log entry")

// Severity mirrors google.logging.type.LogSeverity.
type Severity int32

const (
	SeverityDefault   Severity = 0
	SeverityDebug     Severity = 100
	SeverityInfo      Severity = 200
	SeverityNotice    Severity = 300
	SeverityWarning   Severity = 400
	SeverityError     Severity = 500
	SeverityCritical  Severity = 600
	SeverityAlert     Severity = 700
	SeverityEmergency Severity = 800
)

var severityNames = map[Severity]string{
	SeverityDefault:   "DEFAULT",
	SeverityDebug:     "DEBUG",
	SeverityInfo:      "INFO",
	SeverityNotice:    "NOTICE",
	SeverityWarning:   "WARNING",
	SeverityError:     "ERROR",
	SeverityCritical:  "CRITICAL",
	SeverityAlert:     "ALERT",
	SeverityEmergency: "EMERGENCY",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SEVERITY(%d)", int32(s))
}

// ParseSeverity accepts the upper- or lower-case severity name.
func ParseSeverity(name string) (Severity, error) {
	upper := strings.ToUpper(name)
	for s, n := range severityNames {
		if n == upper {
			return s, nil
		}
	}
	return SeverityDefault, fmt.Errorf("%w: unknown severity %q", ErrInvalidEntry, name)
}

// SeverityForStatus picks INFO for successful HTTP statuses and ERROR
// from 400 upwards.
func SeverityForStatus(status int) Severity {
	if status < 400 {
		return SeverityInfo
	}
	return SeverityError
}

// Resource is the monitored resource an entry belongs to.
type Resource struct {
	Type   string
	Labels map[string]string
}

// GlobalResource is used when no more specific resource is configured.
var GlobalResource = Resource{Type: "global"}

type HTTPRequest struct {
	RequestMethod string
	RequestURL    string
	RequestSize   int64
	Status        int
	ResponseSize  int64
	UserAgent     string
	RemoteIP      string
	ServerIP      string
	Referer       string
	Latency       time.Duration
	Protocol      string
}

type Entry struct {
	InsertID    string
	LogName     string
	Timestamp   time.Time
	Severity    Severity
	Resource    Resource
	Labels      map[string]string
	Payload     value.Value
	HTTPRequest *HTTPRequest
}

// NewEntry stamps a new entry with a unique insert id and the current time.
func NewEntry(logName string, severity Severity, payload value.Value) *Entry {
	return &Entry{
		InsertID:  uuid.NewString(),
		LogName:   logName,
		Timestamp: time.Now().UTC(),
		Severity:  severity,
		Resource:  GlobalResource,
		Payload:   payload,
	}
}

// LogName builds the resource name projects/{project}/logs/{log}.
func LogName(projectID, logID string) string {
	return "projects/" + projectID + "/logs/" + url.PathEscape(logID)
}

// Validate checks the fields every writer relies on.
func (e *Entry) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrInvalidEntry)
	}
	if e.LogName == "" {
		return fmt.Errorf("%w: missing log name", ErrInvalidEntry)
	}
	if e.Resource.Type == "" {
		return fmt.Errorf("%w: missing resource type", ErrInvalidEntry)
	}
	return nil
}
