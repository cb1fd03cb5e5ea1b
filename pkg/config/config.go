// Package config loads reconstruction run configuration.
package config

// Data is the complete configuration for a reconstruction run.
type Data struct {
	Station  Station `yaml:"station"`
	Proxies  []Proxy `yaml:"proxies"`
	Solver   Solver  `yaml:"solver"`
	Patch    Patch   `yaml:"patch"`
	Heat     Heat    `yaml:"heat"`
	Database string  `yaml:"database"`
}

// Station describes the target station and its input series.
type Station struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	HourlyCSV string  `yaml:"hourly_csv"`
	DailyCSV  string  `yaml:"daily_csv"`
}

// Proxy names one proxy station's daily series. Order in the config file
// is the patching priority order.
type Proxy struct {
	Name     string `yaml:"name"`
	DailyCSV string `yaml:"daily_csv"`
}

// Solver carries the daily-extreme solver tunables. Unset values take the
// engine defaults; a pointer keeps an explicit zero distinguishable from
// an absent key so it can be rejected instead of reinterpreted.
type Solver struct {
	MinEquations *int `yaml:"min_equations"`
}

// Patch carries the gap patcher tunables.
type Patch struct {
	NoInterpolate bool `yaml:"no_interpolate"`
	MinOverlap    *int `yaml:"min_overlap"`
}

// Heat carries the heat accumulation tunables.
type Heat struct {
	BaseTemp *float64 `yaml:"base_temp"`
}

// Provider is the interface for configuration backends.
type Provider interface {
	LoadConfig() (*Data, error)
}
