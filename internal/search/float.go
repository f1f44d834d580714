package search

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Float is a float64 whose JSON form survives IEEE infinities. Failed
// candidates carry -Inf objective values, which encoding/json rejects on
// plain float64 fields.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	value := float64(f)
	switch {
	case math.IsInf(value, -1):
		return []byte(`"-inf"`), nil
	case math.IsInf(value, 1):
		return []byte(`"inf"`), nil
	case math.IsNaN(value):
		return []byte(`"nan"`), nil
	default:
		return json.Marshal(value)
	}
}

func (f *Float) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		switch tag {
		case "-inf":
			*f = Float(math.Inf(-1))
		case "inf":
			*f = Float(math.Inf(1))
		case "nan":
			*f = Float(math.NaN())
		default:
			value, err := strconv.ParseFloat(tag, 64)
			if err != nil {
				return err
			}
			*f = Float(value)
		}
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*f = Float(value)
	return nil
}
