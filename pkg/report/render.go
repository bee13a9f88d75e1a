package report

import (
	"bytes"
	"encoding/json"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/tally/pkg/errors"
)

// CanonicalJSON renders the report in its canonical byte form: fixed field
// order, no trailing newline variance, two-space indentation. Reports for
// identical inputs compare byte-identical in this form, which is what makes
// job retries idempotent.
func (r *Report) CanonicalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, errors.Wrap(err, "encode report")
	}
	return buf.Bytes(), nil
}

// YAML renders the report for human consumption.
func (r *Report) YAML() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "encode report")
	}
	return data, nil
}

// Equal reports whether two reports are byte-identical in canonical form.
func (r *Report) Equal(other *Report) bool {
	if other == nil {
		return false
	}
	a, err := r.CanonicalJSON()
	if err != nil {
		return false
	}
	b, err := other.CanonicalJSON()
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}
