package geofence

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_SkipsMalformedEntries(t *testing.T) {
	src := `
- id: zone1
  name: Restricted Forest Area
  center: {latitude: 27.1767, longitude: 78.0081}
  radius: 1000
- {}
- id: no-center
  name: Missing Center
  radius: 500
- id: no-radius
  name: Missing Radius
  center: {latitude: 1, longitude: 1}
- id: text-radius
  name: Text Radius
  center: {latitude: 1, longitude: 1}
  radius: "wide"
- id: text-lat
  name: Text Latitude
  center: {latitude: north, longitude: 1}
  radius: 10
- id: negative
  name: Negative Radius
  center: {latitude: 1, longitude: 1}
  radius: -5
- id: off-planet
  name: Off Planet
  center: {latitude: 91, longitude: 1}
  radius: 5
- id: zone1
  name: Duplicate
  center: {latitude: 0, longitude: 0}
  radius: 5
- id: zone2
  name: High-Risk Border Zone
  center: {latitude: 26.8467, longitude: 80.9462}
  radius: 2000
`
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	reg, rejected, err := Load(strings.NewReader(src), logger)
	require.NoError(t, err)

	zones := reg.Zones()
	require.Len(t, zones, 2)
	assert.Equal(t, "zone1", zones[0].ID)
	assert.Equal(t, "Restricted Forest Area", zones[0].Name)
	assert.Equal(t, "zone2", zones[1].ID)

	require.Len(t, rejected, 8)
	indexes := make([]int, len(rejected))
	for i, r := range rejected {
		indexes[i] = r.Index
		assert.NotEmpty(t, r.Reason)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, indexes)
	assert.Contains(t, rejected[7].Reason, "duplicate id")
	assert.Contains(t, logs.String(), "skipping invalid zone")
	assert.Contains(t, logs.String(), "level=WARN")
}

func TestLoad_AcceptsJSONAndZonesKey(t *testing.T) {
	t.Run("json array", func(t *testing.T) {
		src := `[{"id":"a","name":"A","center":{"latitude":0,"longitude":0},"radius":10}]`
		reg, rejected, err := Load(strings.NewReader(src), discardLogger())
		require.NoError(t, err)
		assert.Empty(t, rejected)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("zones key", func(t *testing.T) {
		src := "zones:\n  - id: a\n    name: A\n    center: {latitude: 0, longitude: 0}\n    radius: 10\n"
		reg, _, err := Load(strings.NewReader(src), discardLogger())
		require.NoError(t, err)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("empty document", func(t *testing.T) {
		reg, _, err := Load(strings.NewReader(""), discardLogger())
		require.NoError(t, err)
		assert.Zero(t, reg.Len())
	})
}

func TestLoad_RejectsNonSequence(t *testing.T) {
	for name, src := range map[string]string{
		"scalar":          "just a string",
		"mapping":         "id: zone1",
		"broken document": "- id: [unclosed",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := Load(strings.NewReader(src), discardLogger())
			require.Error(t, err)
		})
	}
}

func TestLoadDefault(t *testing.T) {
	reg, rejected, err := LoadDefault(discardLogger())
	require.NoError(t, err)
	assert.Empty(t, rejected)

	zones := reg.Zones()
	require.Len(t, zones, 2)
	assert.Equal(t, "Restricted Forest Area", zones[0].Name)
	assert.Equal(t, 1000.0, zones[0].Radius)
	assert.Equal(t, "High-Risk Border Zone", zones[1].Name)
	assert.Equal(t, 2000.0, zones[1].Radius)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: a\n  name: A\n  center: {latitude: 1, longitude: 2}\n  radius: 3\n"), 0o600))

	reg, _, err := LoadFile(path, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), discardLogger())
	require.Error(t, err)
}

func TestRegistryZonesIsACopy(t *testing.T) {
	reg := NewRegistry(Zone{ID: "a", Name: "A", Radius: 1})
	zones := reg.Zones()
	zones[0].Name = "mutated"
	assert.Equal(t, "A", reg.Zones()[0].Name)
}

func TestCandidateValid(t *testing.T) {
	lat, lon, radius := 10.0, 20.0, 30.0
	valid := Candidate{
		ID:     "z",
		Name:   "Zone",
		Center: &CandidateCenter{Latitude: &lat, Longitude: &lon},
		Radius: &radius,
	}
	assert.True(t, valid.Valid())

	blankName := valid
	blankName.Name = "   "
	assert.False(t, blankName.Valid())

	zero := 0.0
	zeroRadius := valid
	zeroRadius.Radius = &zero
	assert.False(t, zeroRadius.Valid())

	noLon := valid
	noLon.Center = &CandidateCenter{Latitude: &lat}
	assert.False(t, noLon.Valid())
}
