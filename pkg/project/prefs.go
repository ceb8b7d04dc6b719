package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/jsonc"

	"github.com/spritevault/spritevault/pkg/archive"
)

// BackgroundColourKey is special-cased in the prefs record: its value is
// stored as a decimal string rather than a native JSON number.
const BackgroundColourKey = "background_colour"

// mergePrefs folds the archive's prefs record into the attached store.
// This subsystem is deliberately lenient, in contrast to the strict
// document gate: a malformed record or entry is logged and skipped, never
// fatal to the load. Comments and trailing commas are tolerated.
func (p *Project) mergePrefs(ar *archive.Archive) {
	if p.prefs == nil {
		return
	}
	data, ok := ar.Get(PrefsRecord)
	if !ok {
		return
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}

	var obj map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &obj); err != nil {
		p.logger.Warn("skipping malformed prefs record", "record", PrefsRecord, "err", err)
		return
	}
	if obj == nil {
		p.logger.Warn("prefs record is not an object", "record", PrefsRecord)
		return
	}

	for key, val := range obj {
		if key == BackgroundColourKey {
			s, ok := val.(string)
			if !ok {
				p.logger.Warn("skipping pref with unexpected type", "key", key)
				continue
			}
			col, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				p.logger.Warn("skipping unparseable colour pref", "key", key, "value", s)
				continue
			}
			p.prefs.Set(key, uint32(col))
			continue
		}
		p.prefs.Set(key, val)
	}
}

// prefsRecord snapshots the store into the outgoing prefs record.
func prefsRecord(store PrefsStore) ([]byte, error) {
	obj := make(map[string]any)
	for key, val := range store.All() {
		if key == BackgroundColourKey {
			col, err := colourValue(val)
			if err != nil {
				return nil, fmt.Errorf("pref %s: %w", key, err)
			}
			obj[key] = strconv.FormatUint(uint64(col), 10)
			continue
		}
		obj[key] = val
	}
	return json.Marshal(obj)
}

func colourValue(val any) (uint32, error) {
	switch v := val.(type) {
	case uint32:
		return v, nil
	case int:
		return uint32(v), nil
	case int64:
		return uint32(v), nil
	case uint64:
		return uint32(v), nil
	case float64:
		return uint32(v), nil
	case string:
		col, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return 0, err
		}
		return uint32(col), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", val)
	}
}
