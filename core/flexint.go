package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FlexInt is an integer that can be decoded from a JSON number or a numeric string.
// Form inputs send numbers as strings; an empty string or null decodes to 0.
type FlexInt int

func (fi *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*fi = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*fi = 0
			return nil
		}
		data = []byte(s)
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.Errorf("invalid integer value: %s", data)
	}
	*fi = FlexInt(math.Trunc(f))
	return nil
}

func (fi FlexInt) Int() int { return int(fi) }
