// Package refdata is the read-only reference-data collaborator: the station
// and boat registry plus the boatman license policy, loaded once from a YAML
// file and handed into decode/validate calls explicitly. A lookup miss is the
// caller's soft warning, never an error here.
package refdata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"watchlog/internal/quals"
)

// Station is one entry of the station registry.
type Station struct {
	Ident         string `yaml:"ident"`
	Name          string `yaml:"name"`
	RadioCallName string `yaml:"radio_call_name"`
}

// Boat is one entry of the boat registry.
type Boat struct {
	Name          string `yaml:"name"`
	RadioCallName string `yaml:"radio_call_name"`
}

// Store holds the loaded reference data. A nil *Store behaves like an empty
// registry with the default license policy.
type Store struct {
	Stations       []Station `yaml:"stations"`
	Boats          []Boat    `yaml:"boats"`
	BoatmanLicense string    `yaml:"boatman_license"` // "a" | "b" | "any" | "both"
}

// Load reads a reference-data file. A missing file is not an error: it yields
// an empty store, and every lookup then misses softly.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Store{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var s Store
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	if _, err := parsePolicy(s.BoatmanLicense); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &s, nil
}

// StationByIdent looks up a station. Safe on a nil receiver.
func (s *Store) StationByIdent(id string) (Station, bool) {
	if s == nil {
		return Station{}, false
	}
	for _, st := range s.Stations {
		if st.Ident == id {
			return st, true
		}
	}
	return Station{}, false
}

// BoatByName looks up a boat. Safe on a nil receiver.
func (s *Store) BoatByName(name string) (Boat, bool) {
	if s == nil {
		return Boat{}, false
	}
	for _, b := range s.Boats {
		if b.Name == name {
			return b, true
		}
	}
	return Boat{}, false
}

// Policy returns the configured boatman license policy. An unset value means
// LicenseAny. Safe on a nil receiver.
func (s *Store) Policy() quals.LicensePolicy {
	if s == nil {
		return quals.LicenseAny
	}
	p, err := parsePolicy(s.BoatmanLicense)
	if err != nil {
		return quals.LicenseAny
	}
	return p
}

func parsePolicy(text string) (quals.LicensePolicy, error) {
	switch text {
	case "", "any":
		return quals.LicenseAny, nil
	case "a":
		return quals.LicenseA, nil
	case "b":
		return quals.LicenseB, nil
	case "both":
		return quals.LicenseBoth, nil
	default:
		return 0, fmt.Errorf("unknown boatman license policy %q", text)
	}
}
