package api

import (
	"encoding/json"
	"math"

	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/graph"
)

// EventType discriminates push event payloads.
type EventType string

const (
	EventLog     EventType = "log"
	EventMetrics EventType = "metrics"
)

// PushEvent is one server-pushed event. Exactly one of Log and Metrics is
// set, matching Type.
type PushEvent struct {
	Type    EventType
	Log     *LogContent
	Metrics *MetricsContent
}

// LogContent is a line printed by the subscribed vertex's code.
// VertexID is optional; backends that set it let the client drop lines that
// were in flight while the subscription changed.
type LogContent struct {
	Timestamp float64 `json:"timestamp"`
	Message   string  `json:"message"`
	VertexID  string  `json:"vertexId,omitempty"`
}

// LogMessage converts the content to the store representation.
func (c LogContent) LogMessage() graph.LogMessage {
	return graph.LogMessage{Timestamp: c.Timestamp, Message: c.Message}
}

// MetricsContent carries observed message rates keyed by vertex id.
type MetricsContent struct {
	MetricsByVertexID map[string]VertexMetrics `json:"metricsByVertexId"`
}

// VertexMetrics is the rate observed for one vertex.
type VertexMetrics struct {
	MsgFreqPerSec float64 `json:"msgFreqPerSec"`
}

// NewLogEvent builds a log event.
func NewLogEvent(vertexID string, timestamp float64, message string) PushEvent {
	return PushEvent{Type: EventLog, Log: &LogContent{Timestamp: timestamp, Message: message, VertexID: vertexID}}
}

// NewMetricsEvent builds a metrics event from rates keyed by vertex id.
func NewMetricsEvent(rates map[string]float64) PushEvent {
	m := make(map[string]VertexMetrics, len(rates))
	for id, r := range rates {
		m[id] = VertexMetrics{MsgFreqPerSec: r}
	}
	return PushEvent{Type: EventMetrics, Metrics: &MetricsContent{MetricsByVertexID: m}}
}

type envelope struct {
	Type    EventType       `json:"type"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON encodes the event as {"type": ..., "content": ...}.
func (e PushEvent) MarshalJSON() ([]byte, error) {
	var content any
	switch e.Type {
	case EventLog:
		content = e.Log
	case EventMetrics:
		content = e.Metrics
	default:
		return nil, errors.New(errors.ErrCodeInvalidEvent, "unknown event type %q", e.Type)
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: e.Type, Content: raw})
}

// UnmarshalJSON decodes the tagged envelope. Unknown types are an error.
func (e *PushEvent) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidEvent, err, "malformed event")
	}
	if len(env.Content) == 0 || string(env.Content) == "null" {
		return errors.New(errors.ErrCodeInvalidEvent, "event %q has no content", env.Type)
	}

	*e = PushEvent{Type: env.Type}
	switch env.Type {
	case EventLog:
		e.Log = new(LogContent)
		if err := json.Unmarshal(env.Content, e.Log); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidEvent, err, "malformed log content")
		}
	case EventMetrics:
		e.Metrics = new(MetricsContent)
		if err := json.Unmarshal(env.Content, e.Metrics); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidEvent, err, "malformed metrics content")
		}
	default:
		return errors.New(errors.ErrCodeInvalidEvent, "unknown event type %q", env.Type)
	}
	return nil
}

// Validate checks the payload matching Type: finite timestamps, non-empty
// vertex ids, finite non-negative rates.
func (e PushEvent) Validate() error {
	switch e.Type {
	case EventLog:
		if e.Log == nil {
			return errors.New(errors.ErrCodeInvalidEvent, "log event without content")
		}
		if !finite(e.Log.Timestamp) {
			return errors.New(errors.ErrCodeInvalidEvent, "log timestamp is not finite")
		}
	case EventMetrics:
		if e.Metrics == nil {
			return errors.New(errors.ErrCodeInvalidEvent, "metrics event without content")
		}
		for id, m := range e.Metrics.MetricsByVertexID {
			if id == "" {
				return errors.New(errors.ErrCodeInvalidEvent, "metrics for empty vertex id")
			}
			if !finite(m.MsgFreqPerSec) || m.MsgFreqPerSec < 0 {
				return errors.New(errors.ErrCodeInvalidEvent, "invalid rate %v for vertex %q", m.MsgFreqPerSec, id)
			}
		}
	default:
		return errors.New(errors.ErrCodeInvalidEvent, "unknown event type %q", e.Type)
	}
	return nil
}

// DecodePushEvent parses and validates one push frame.
func DecodePushEvent(data []byte) (PushEvent, error) {
	var ev PushEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return PushEvent{}, errors.Wrap(errors.ErrCodeInvalidEvent, err, "decode push event")
	}
	if err := ev.Validate(); err != nil {
		return PushEvent{}, err
	}
	return ev, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
