package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reconstruct.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
station:
  name: davis
  latitude: 38.53
  hourly_csv: hourly.csv
  daily_csv: daily.csv
proxies:
  - name: winters
    daily_csv: winters.csv
  - name: woodland
    daily_csv: woodland.csv
solver:
  min_equations: 7
patch:
  no_interpolate: true
  min_overlap: 10
heat:
  base_temp: 5.5
database: runs.db
`)

	cfg, err := NewYAMLProvider(path).LoadConfig()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Station.Name != "davis" || cfg.Station.Latitude != 38.53 {
		t.Errorf("station parsed wrong: %+v", cfg.Station)
	}
	if len(cfg.Proxies) != 2 || cfg.Proxies[0].Name != "winters" {
		t.Errorf("proxy order not preserved: %+v", cfg.Proxies)
	}
	if cfg.Solver.MinEquations == nil || *cfg.Solver.MinEquations != 7 {
		t.Errorf("min_equations = %v, expected 7", cfg.Solver.MinEquations)
	}
	if !cfg.Patch.NoInterpolate || cfg.Patch.MinOverlap == nil || *cfg.Patch.MinOverlap != 10 {
		t.Errorf("patch tunables parsed wrong: %+v", cfg.Patch)
	}
	if cfg.Heat.BaseTemp == nil || *cfg.Heat.BaseTemp != 5.5 {
		t.Errorf("heat base not parsed: %+v", cfg.Heat)
	}
	if cfg.Database != "runs.db" {
		t.Errorf("database = %q", cfg.Database)
	}
}

func TestLoadConfigUnsetTunables(t *testing.T) {
	path := writeConfig(t, `
station:
  name: davis
  latitude: 38.53
  hourly_csv: hourly.csv
`)

	cfg, err := NewYAMLProvider(path).LoadConfig()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Solver.MinEquations != nil {
		t.Errorf("min_equations should stay unset, got %d", *cfg.Solver.MinEquations)
	}
	if cfg.Patch.MinOverlap != nil {
		t.Errorf("min_overlap should stay unset, got %d", *cfg.Patch.MinOverlap)
	}
	if cfg.Patch.NoInterpolate {
		t.Error("interpolation should default to enabled")
	}
	if cfg.Heat.BaseTemp != nil {
		t.Error("heat base should default to unset")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing station name", "station:\n  latitude: 38.53\n  hourly_csv: h.csv\n"},
		{"latitude out of range", "station:\n  name: davis\n  latitude: 95\n  hourly_csv: h.csv\n"},
		{"missing hourly csv", "station:\n  name: davis\n  latitude: 38.53\n"},
		{"proxy without file", "station:\n  name: davis\n  latitude: 38.53\n  hourly_csv: h.csv\nproxies:\n  - name: winters\n"},
		{"explicit zero min_equations", "station:\n  name: davis\n  latitude: 38.53\n  hourly_csv: h.csv\nsolver:\n  min_equations: 0\n"},
		{"explicit zero min_overlap", "station:\n  name: davis\n  latitude: 38.53\n  hourly_csv: h.csv\npatch:\n  min_overlap: 0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewYAMLProvider(writeConfig(t, tc.body)).LoadConfig(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
