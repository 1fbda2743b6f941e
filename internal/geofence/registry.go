package geofence

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tourguard/pkg/geo"
)

//go:embed default_zones.yaml
var defaultZones []byte

var ErrInvalidSource = errors.New("zone source must be a sequence of zones")

// Candidate is a zone entry as read from configuration, before validation.
type Candidate struct {
	ID     string           `yaml:"id"`
	Name   string           `yaml:"name"`
	Center *CandidateCenter `yaml:"center"`
	Radius *float64         `yaml:"radius"`
}

type CandidateCenter struct {
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
}

// Validate reports why a candidate cannot be used as a zone, or nil.
func (c Candidate) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	if c.Center == nil || c.Center.Latitude == nil || c.Center.Longitude == nil {
		return errors.New("center latitude and longitude are required")
	}
	center := geo.Point{Latitude: *c.Center.Latitude, Longitude: *c.Center.Longitude}
	if err := center.Validate(); err != nil {
		return fmt.Errorf("center: %w", err)
	}
	if c.Radius == nil {
		return errors.New("radius is required")
	}
	if r := *c.Radius; math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return fmt.Errorf("radius must be a positive finite number, got %v", r)
	}
	return nil
}

// Valid is Validate as a predicate.
func (c Candidate) Valid() bool {
	return c.Validate() == nil
}

func (c Candidate) zone() Zone {
	return Zone{
		ID:     c.ID,
		Name:   c.Name,
		Center: geo.Point{Latitude: *c.Center.Latitude, Longitude: *c.Center.Longitude},
		Radius: *c.Radius,
	}
}

// Rejection records a configuration entry that was left out of the registry.
type Rejection struct {
	Index  int
	ID     string
	Reason string
}

// Registry is the ordered, read-only zone catalog.
type Registry struct {
	zones []Zone
}

// NewRegistry builds a registry from already validated zones.
func NewRegistry(zones ...Zone) *Registry {
	return &Registry{zones: append([]Zone(nil), zones...)}
}

// Zones returns the catalog in load order. The slice is a copy.
func (r *Registry) Zones() []Zone {
	return append([]Zone(nil), r.zones...)
}

func (r *Registry) Len() int {
	return len(r.zones)
}

// Load reads a YAML (or JSON) sequence of zones. The sequence may also sit
// under a top-level "zones" key. Malformed entries are skipped and logged;
// only an unreadable or structurally wrong document is an error.
func Load(src io.Reader, logger *slog.Logger) (*Registry, []Rejection, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, nil, fmt.Errorf("read zones: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse zones: %w", err)
	}
	seq, err := zoneSequence(&doc)
	if err != nil {
		return nil, nil, err
	}

	var (
		zones      []Zone
		rejections []Rejection
		seen       = make(map[string]int)
	)
	for i, node := range seq {
		var c Candidate
		reason := ""
		if err := node.Decode(&c); err != nil {
			reason = "malformed: " + err.Error()
		} else if err := c.Validate(); err != nil {
			reason = err.Error()
		} else if first, dup := seen[c.ID]; dup {
			reason = fmt.Sprintf("duplicate id, first defined at index %d", first)
		}

		if reason != "" {
			rej := Rejection{Index: i, ID: c.ID, Reason: reason}
			rejections = append(rejections, rej)
			if logger != nil {
				logger.Warn("skipping invalid zone",
					"index", rej.Index,
					"zone_id", rej.ID,
					"reason", rej.Reason,
				)
			}
			continue
		}
		seen[c.ID] = i
		zones = append(zones, c.zone())
	}

	return &Registry{zones: zones}, rejections, nil
}

// LoadFile loads the catalog from path.
func LoadFile(path string, logger *slog.Logger) (*Registry, []Rejection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open zones file: %w", err)
	}
	defer f.Close()
	return Load(f, logger)
}

// LoadDefault loads the catalog compiled into the binary.
func LoadDefault(logger *slog.Logger) (*Registry, []Rejection, error) {
	return Load(bytes.NewReader(defaultZones), logger)
}

func zoneSequence(doc *yaml.Node) ([]*yaml.Node, error) {
	if doc.Kind == 0 {
		return nil, nil
	}
	node := doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, nil
		}
		node = node.Content[0]
	}
	if node.Kind == yaml.MappingNode {
		var inner *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "zones" {
				inner = node.Content[i+1]
				break
			}
		}
		if inner == nil {
			return nil, ErrInvalidSource
		}
		node = inner
	}
	if node.Kind != yaml.SequenceNode {
		return nil, ErrInvalidSource
	}
	return node.Content, nil
}
