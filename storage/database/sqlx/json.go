package sqlxrepos

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core/membership"
)

// JSONB column adapters.

type stringSlice []string

func (s stringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	return string(b), err
}

func (s *stringSlice) Scan(src interface{}) error {
	return scanJSON(src, (*[]string)(s))
}

type answerSlice []*int

func (a answerSlice) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]*int(a))
	return string(b), err
}

func (a *answerSlice) Scan(src interface{}) error {
	return scanJSON(src, (*[]*int)(a))
}

type historySlice []membership.HistoryEntry

func (h historySlice) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]membership.HistoryEntry(h))
	return string(b), err
}

func (h *historySlice) Scan(src interface{}) error {
	return scanJSON(src, (*[]membership.HistoryEntry)(h))
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.Errorf("unsupported JSONB source type %T", src)
	}
}
