package billing

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/tally/pkg/errors"
)

// LoadCollection reads a line-item collection from a YAML (or JSON) file.
// The loaded collection is validated against the normalized schema; upstream
// adaptation from raw extraction output is the producer's responsibility.
func LoadCollection(path string, side Side) (Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Collection{}, errors.Wrap(err, "read collection file")
	}
	return ParseCollection(data, side)
}

// ParseCollection decodes a collection from YAML or JSON bytes. A missing or
// mismatched side field is overwritten with the expected side; line indexes
// default to document order when absent. An explicit lineIndex, including 0,
// is kept as written.
func ParseCollection(data []byte, side Side) (Collection, error) {
	var c Collection
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Collection{}, errors.Wrap(err, "decode collection")
	}
	c.Side = side

	// A second generic decode distinguishes lineIndex absent from an
	// explicit zero; only absent indexes inherit document order.
	var shape struct {
		Items []map[string]any `json:"items" yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &shape); err == nil {
		for i := range c.Items {
			if i >= len(shape.Items) {
				break
			}
			if _, explicit := shape.Items[i]["lineIndex"]; !explicit {
				c.Items[i].LineIndex = i
			}
		}
	}

	if err := c.Validate(); err != nil {
		return Collection{}, err
	}
	return c, nil
}
