// Package assessment submits the completed form and maps the backend's scoring
// result into what the result panel shows.
package assessment

import (
	"encoding/json"
	"net/url"
)

const (
	// FieldDocuments is the one multi-valued field kept as an ordered list.
	FieldDocuments = "documents"
	// FieldDocumentFiles holds the object keys of uploaded copies. They are
	// sent to the backend after the checked documents.
	FieldDocumentFiles = "document_files"
)

// Payload is the JSON body sent to the scoring endpoint. Values are either a
// string or, for documents, a []string in form order.
type Payload map[string]any

// BuildPayload collects every named field. Repeated names keep the last value,
// except documents which keeps them all, followed by the uploaded file keys.
func BuildPayload(values url.Values) Payload {
	payload := make(Payload, len(values))
	for name, vals := range values {
		if len(vals) == 0 || name == FieldDocuments || name == FieldDocumentFiles {
			continue
		}
		payload[name] = vals[len(vals)-1]
	}
	var docs []string
	for _, name := range []string{FieldDocuments, FieldDocumentFiles} {
		for _, v := range values[name] {
			if v != "" {
				docs = append(docs, v)
			}
		}
	}
	if docs != nil {
		payload[FieldDocuments] = docs
	}
	return payload
}

// String returns the scalar value for name.
func (p Payload) String(name string) string {
	s, _ := p[name].(string)
	return s
}

// Documents returns the ordered documents list.
func (p Payload) Documents() []string {
	docs, _ := p[FieldDocuments].([]string)
	return docs
}

// MarshalJSON keeps a nil payload encoding as an empty object.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(p))
}
