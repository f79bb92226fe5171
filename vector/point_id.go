package vector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// PointID is either an unsigned integer or a string (UUID) identifier.
type PointID struct {
	str     string
	num     uint64
	numeric bool
}

func NumericID(n uint64) PointID {
	return PointID{num: n, numeric: true}
}

func StringID(s string) PointID {
	return PointID{str: s}
}

// ParsePointID treats decimal strings as integer ids.
func ParsePointID(s string) PointID {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return StringID(s)
	}

	return NumericID(n)
}

func (id PointID) IsNumeric() bool {
	return id.numeric
}

func (id PointID) String() string {
	if id.numeric {
		return strconv.FormatUint(id.num, 10)
	}

	return id.str
}

func (id PointID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(strconv.FormatUint(id.num, 10)), nil
	}

	return json.Marshal(id.str)
}

func (id *PointID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty point id", ErrDecode)
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*id = StringID(s)
		return nil
	}

	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: point id %s", ErrDecode, data)
	}

	*id = NumericID(n)
	return nil
}
