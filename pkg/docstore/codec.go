package docstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type fields map[string]json.RawMessage

func encodeObject(doc any) (fields, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	var out fields
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return nil, fmt.Errorf("%w: document must be a JSON object", ErrInvalidDocument)
	}
	return out, nil
}

func encodePartial(partial map[string]any) (fields, error) {
	if len(partial) == 0 {
		return nil, fmt.Errorf("%w: empty update", ErrInvalidDocument)
	}
	out := make(fields, len(partial))
	for key, value := range partial {
		if strings.TrimSpace(key) == "" || key == IDField {
			return nil, fmt.Errorf("%w: key %q cannot be updated", ErrInvalidDocument, key)
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, key, err)
		}
		out[key] = raw
	}
	return out, nil
}

func (f fields) withID(id string) fields {
	raw, _ := json.Marshal(id)
	f[IDField] = raw
	return f
}

func (f fields) merge(src fields) fields {
	for key, value := range src {
		f[key] = value
	}
	return f
}

func (f fields) decode(out any) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// sortedKeys keeps hash writes deterministic.
func (f fields) sortedKeys() []string {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
