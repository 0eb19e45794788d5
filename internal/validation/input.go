package validation

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
)

// FromForm collects the known fields from submitted form values.
func FromForm(values url.Values) RawInput {
	raw := make(RawInput, len(Fields))
	for _, f := range Fields {
		if vs, ok := values[f]; ok && len(vs) > 0 {
			raw[f] = vs[len(vs)-1]
		}
	}
	return raw
}

// FromJSON decodes a JSON object into raw input. Numbers, strings and
// booleans are accepted for every field so that type mistakes surface as
// field violations rather than decode failures.
func FromJSON(r io.Reader) (RawInput, error) {
	var body map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}

	raw := make(RawInput, len(Fields))
	for _, f := range Fields {
		v, ok := body[f]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case json.Number:
			raw[f] = t.String()
		case string:
			raw[f] = t
		case bool:
			raw[f] = strconv.FormatBool(t)
		default:
			raw[f] = fmt.Sprint(t)
		}
	}
	return raw, nil
}
