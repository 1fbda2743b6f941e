package geo

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Coordinate decodes a JSON number or numeric string. Mobile clients send
// both. Unparsable input is recorded rather than failing the whole body so
// the caller can answer with a precise validation message.
type Coordinate struct {
	Value   float64
	Present bool
	Numeric bool
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*c = Coordinate{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	c.Present = true

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		c.Value, c.Numeric = v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		c.Value, c.Numeric = f, true
	}
	return nil
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Present || !c.Numeric {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// NewPoint validates a latitude/longitude pair decoded from a request.
// Zero is a legitimate coordinate.
func NewPoint(lat, lon Coordinate) (Point, error) {
	if !lat.Present || !lon.Present {
		return Point{}, ErrMissingCoord
	}
	if !lat.Numeric || !lon.Numeric {
		return Point{}, ErrNotFinite
	}
	p := Point{Latitude: lat.Value, Longitude: lon.Value}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}
