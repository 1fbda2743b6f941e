package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	t.Run("same point is zero", func(t *testing.T) {
		p := Point{Latitude: 27.1751, Longitude: 78.0421}
		assert.Zero(t, Distance(p, p))
	})

	t.Run("one degree of longitude on the equator", func(t *testing.T) {
		d := Distance(Point{0, 0}, Point{0, 1})
		assert.InDelta(t, 2*math.Pi*EarthRadiusMeters/360, d, 0.001)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := Point{Latitude: 27.1767, Longitude: 78.0081}
		b := Point{Latitude: 26.8467, Longitude: 80.9462}
		assert.Equal(t, Distance(a, b), Distance(b, a))
		assert.InDelta(t, 293_000, Distance(a, b), 3_000)
	})

	t.Run("antipodal points stay finite", func(t *testing.T) {
		d := Distance(Point{0, 0}, Point{0, 180})
		assert.InDelta(t, math.Pi*EarthRadiusMeters, d, 0.001)
	})
}

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		err  error
	}{
		{"origin is valid", Point{0, 0}, nil},
		{"poles and antimeridian", Point{90, -180}, nil},
		{"NaN latitude", Point{math.NaN(), 0}, ErrNotFinite},
		{"infinite longitude", Point{0, math.Inf(1)}, ErrNotFinite},
		{"latitude too large", Point{90.5, 0}, ErrOutOfRange},
		{"longitude too small", Point{0, -180.1}, ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCoordinateUnmarshal(t *testing.T) {
	var body struct {
		Lat Coordinate `json:"latitude"`
		Lon Coordinate `json:"longitude"`
	}

	t.Run("numbers", func(t *testing.T) {
		require.NoError(t, json.Unmarshal([]byte(`{"latitude":0,"longitude":-12.5}`), &body))
		p, err := NewPoint(body.Lat, body.Lon)
		require.NoError(t, err)
		assert.Equal(t, Point{0, -12.5}, p)
	})

	t.Run("numeric strings", func(t *testing.T) {
		require.NoError(t, json.Unmarshal([]byte(`{"latitude":"27.1751","longitude":" 78.0421 "}`), &body))
		p, err := NewPoint(body.Lat, body.Lon)
		require.NoError(t, err)
		assert.Equal(t, Point{27.1751, 78.0421}, p)
	})

	t.Run("missing field", func(t *testing.T) {
		body.Lat, body.Lon = Coordinate{}, Coordinate{}
		require.NoError(t, json.Unmarshal([]byte(`{"latitude":1}`), &body))
		_, err := NewPoint(body.Lat, body.Lon)
		assert.ErrorIs(t, err, ErrMissingCoord)
	})

	t.Run("null is missing", func(t *testing.T) {
		require.NoError(t, json.Unmarshal([]byte(`{"latitude":null,"longitude":1}`), &body))
		_, err := NewPoint(body.Lat, body.Lon)
		assert.ErrorIs(t, err, ErrMissingCoord)
	})

	t.Run("non-numeric string", func(t *testing.T) {
		require.NoError(t, json.Unmarshal([]byte(`{"latitude":"north","longitude":1}`), &body))
		_, err := NewPoint(body.Lat, body.Lon)
		assert.ErrorIs(t, err, ErrNotFinite)
	})

	t.Run("empty string is not zero", func(t *testing.T) {
		require.NoError(t, json.Unmarshal([]byte(`{"latitude":"","longitude":1}`), &body))
		_, err := NewPoint(body.Lat, body.Lon)
		assert.ErrorIs(t, err, ErrNotFinite)
	})

	t.Run("NaN string", func(t *testing.T) {
		require.NoError(t, json.Unmarshal([]byte(`{"latitude":"NaN","longitude":1}`), &body))
		_, err := NewPoint(body.Lat, body.Lon)
		assert.ErrorIs(t, err, ErrNotFinite)
	})

	t.Run("boolean", func(t *testing.T) {
		require.NoError(t, json.Unmarshal([]byte(`{"latitude":true,"longitude":1}`), &body))
		_, err := NewPoint(body.Lat, body.Lon)
		assert.ErrorIs(t, err, ErrNotFinite)
	})
}
