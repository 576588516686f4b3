package mqtt

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoEntry is returned when a JSON payload lacks the configured entry.
var ErrNoEntry = errors.New("json entry not found")

// ExtractFloat reads a number from payload. With an empty entry the payload is
// a plain number; otherwise it is a JSON object and entry is a dotted path to
// a numeric or numeric-string field, e.g. "ENERGY.Power".
func ExtractFloat(payload []byte, entry string) (float64, error) {
	if entry == "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parse plain value %q", payload)
		}
		return v, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return 0, errors.Wrapf(err, "unmarshal json payload for %q", entry)
	}

	var cur any = doc
	for _, key := range strings.Split(entry, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return 0, errors.Wrapf(ErrNoEntry, "%q", entry)
		}
		if cur, ok = obj[key]; !ok {
			return 0, errors.Wrapf(ErrNoEntry, "%q", entry)
		}
	}

	switch v := cur.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, errors.Wrapf(err, "entry %q", entry)
		}
		return f, nil
	default:
		return 0, errors.Errorf("entry %q is %T, not a number", entry, cur)
	}
}
