package refdata

// refdata_test.go — Tests for reference-data loading and lookups.

import (
	"os"
	"path/filepath"
	"testing"

	"watchlog/internal/quals"
)

func writeStore(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refdata.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileIsEmptyStore(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if _, ok := s.StationByIdent("anything"); ok {
		t.Error("empty store must miss every lookup")
	}
	if s.Policy() != quals.LicenseAny {
		t.Errorf("default policy = %v, want LicenseAny", s.Policy())
	}
}

func TestLoad_Lookups(t *testing.T) {
	path := writeStore(t, `
stations:
  - ident: STN-NORD
    name: Wachstation Nord
    radio_call_name: Pelikan Nord
boats:
  - name: Seeadler
    radio_call_name: Pelikan 1
boatman_license: both
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	st, ok := s.StationByIdent("STN-NORD")
	if !ok || st.Name != "Wachstation Nord" {
		t.Errorf("StationByIdent = %+v, %v", st, ok)
	}
	if _, ok := s.StationByIdent("STN-SUED"); ok {
		t.Error("unknown station must miss")
	}

	b, ok := s.BoatByName("Seeadler")
	if !ok || b.RadioCallName != "Pelikan 1" {
		t.Errorf("BoatByName = %+v, %v", b, ok)
	}

	if s.Policy() != quals.LicenseBoth {
		t.Errorf("Policy = %v, want LicenseBoth", s.Policy())
	}
}

func TestLoad_BadPolicy(t *testing.T) {
	path := writeStore(t, "boatman_license: gold\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown policy value")
	}
}

func TestNilStore(t *testing.T) {
	var s *Store
	if _, ok := s.StationByIdent("x"); ok {
		t.Error("nil store must miss")
	}
	if _, ok := s.BoatByName("x"); ok {
		t.Error("nil store must miss")
	}
	if s.Policy() != quals.LicenseAny {
		t.Error("nil store must use the default policy")
	}
}
