package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PayloadKind tags the variant held by a Payload.
type PayloadKind string

const (
	// KindPlainText marks a PlainText payload.
	KindPlainText PayloadKind = "text"
	// KindLinkRecords marks a LinkRecords payload.
	KindLinkRecords PayloadKind = "records"
)

// Payload is the closed set of values produced by tools and by the final
// assistant message of a tool-invoking run: PlainText or LinkRecords.
type Payload interface {
	Kind() PayloadKind
	// String renders the payload the way it is handed back to a model.
	String() string

	isPayload()
}

// PlainText is a textual payload.
type PlainText string

// Kind implements Payload.
func (PlainText) Kind() PayloadKind { return KindPlainText }

// String implements Payload.
func (t PlainText) String() string { return string(t) }

func (PlainText) isPayload() {}

// Record is a single structured result, typically carrying "title" and "url".
type Record map[string]any

// StringField returns the value for key when it is present and a string.
func (r Record) StringField(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// LinkRecords is a list of structured results.
type LinkRecords []Record

// Kind implements Payload.
func (LinkRecords) Kind() PayloadKind { return KindLinkRecords }

// String implements Payload. Records are rendered as a JSON array.
func (l LinkRecords) String() string {
	if l == nil {
		return "[]"
	}
	b, err := json.Marshal([]Record(l))
	if err != nil {
		return fmt.Sprintf("%v", []Record(l))
	}
	return string(b)
}

func (LinkRecords) isPayload() {}

// PayloadOf classifies the content of a message. Any DataPart turns the
// content into LinkRecords (one record per data part); otherwise the
// concatenated text parts form a PlainText.
func PayloadOf(c Content) Payload {
	var (
		records LinkRecords
		hasData bool
		sb      strings.Builder
	)

	for _, p := range c.Parts {
		switch v := p.(type) {
		case DataPart:
			hasData = true
			records = append(records, Record(v.Data))
		case TextPart:
			sb.WriteString(v.Text)
		}
	}

	if hasData {
		return records
	}

	return PlainText(sb.String())
}

// ContentOf builds an assistant message carrying the payload.
func ContentOf(p Payload) Content {
	switch v := p.(type) {
	case LinkRecords:
		parts := make([]Part, 0, len(v))
		for _, r := range v {
			parts = append(parts, DataPart{Data: r})
		}
		return Content{Role: RoleAssistant, Parts: parts}
	case PlainText:
		return NewTextContent(RoleAssistant, string(v))
	default:
		return Content{Role: RoleAssistant}
	}
}

type payloadEnvelope struct {
	Kind    PayloadKind `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Records []Record    `json:"records,omitempty"`
}

// MarshalPayload encodes a payload in a tagged JSON form.
func MarshalPayload(p Payload) ([]byte, error) {
	switch v := p.(type) {
	case PlainText:
		return json.Marshal(payloadEnvelope{Kind: KindPlainText, Text: string(v)})
	case LinkRecords:
		return json.Marshal(payloadEnvelope{Kind: KindLinkRecords, Records: []Record(v)})
	case nil:
		return nil, fmt.Errorf("marshal payload: nil payload")
	default:
		return nil, fmt.Errorf("marshal payload: unsupported type %T", p)
	}
}

// UnmarshalPayload decodes the output of MarshalPayload.
func UnmarshalPayload(data []byte) (Payload, error) {
	var env payloadEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	switch env.Kind {
	case KindPlainText:
		return PlainText(env.Text), nil
	case KindLinkRecords:
		if env.Records == nil {
			return LinkRecords{}, nil
		}
		return LinkRecords(env.Records), nil
	default:
		return nil, fmt.Errorf("unmarshal payload: unknown kind %q", env.Kind)
	}
}
