// Package kafka carries asynchronous document-verification jobs: large
// briefs are submitted over HTTP, queued here, and analyzed by workers.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/CiteGuard/pkg/errors"
)

const (
	// TopicDocumentVerify carries submitted documents awaiting analysis.
	TopicDocumentVerify = "citation.document.verify"
	// TopicDocumentResult carries completed analysis summaries.
	TopicDocumentResult = "citation.document.result"
	// TopicDeadLetter receives jobs that exhausted their retries.
	TopicDeadLetter = "citation.document.dead_letter"

	schemaVersion = "1"
)

// Event types inside envelopes.
const (
	EventDocumentSubmitted = "document.submitted"
	EventDocumentAnalyzed  = "document.analyzed"
)

// EventEnvelope is the wire format shared by all topics.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// DocumentSubmittedPayload is the job body on TopicDocumentVerify.
type DocumentSubmittedPayload struct {
	DocumentID  string    `json:"document_id"`
	Text        string    `json:"text"`
	Verify      bool      `json:"verify"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// DocumentAnalyzedPayload summarizes a finished job on TopicDocumentResult.
type DocumentAnalyzedPayload struct {
	DocumentID          string    `json:"document_id"`
	TotalCitations      int       `json:"total_citations"`
	VerifiedCitations   int       `json:"verified_citations"`
	UnverifiedCitations int       `json:"unverified_citations"`
	ParallelCitations   int       `json:"parallel_citations"`
	ProcessingTimeMs    int64     `json:"processing_time_ms"`
	AnalyzedAt          time.Time `json:"analyzed_at"`
}

// NewEnvelope wraps a payload for publishing.
func NewEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "kafka: marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		Payload:       data,
	}, nil
}

// DecodeEnvelope parses an envelope off the wire.
func DecodeEnvelope(data []byte) (*EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "kafka: malformed envelope")
	}
	if env.EventType == "" {
		return nil, errors.New(errors.ErrCodeJobPayloadInvalid, "kafka: envelope missing event_type")
	}
	return &env, nil
}

// DecodePayload unmarshals the envelope payload into dest.
func (e *EventEnvelope) DecodePayload(dest interface{}) error {
	if err := json.Unmarshal(e.Payload, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeJobPayloadInvalid, "kafka: malformed payload")
	}
	return nil
}
