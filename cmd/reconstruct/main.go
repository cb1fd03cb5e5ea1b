package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/agroclim/tempseries/internal/log"
	"github.com/agroclim/tempseries/internal/patch"
	"github.com/agroclim/tempseries/internal/reconstruct"
	"github.com/agroclim/tempseries/internal/storage"
	"github.com/agroclim/tempseries/internal/timeseries"
	"github.com/agroclim/tempseries/pkg/chill"
	"github.com/agroclim/tempseries/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "reconstruct.yaml", "Path to YAML run configuration")
	outFile := flag.String("out", "", "Write the reconstructed hourly series to this CSV file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	filename, _ := filepath.Abs(*cfgFile)
	cfg, err := config.NewYAMLProvider(filename).LoadConfig()
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	if err := run(cfg, *outFile); err != nil {
		log.Errorf("Reconstruction failed: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Data, outFile string) error {
	logger := log.GetSugaredLogger()

	hourly, err := timeseries.ReadHourlyCSV(cfg.Station.HourlyCSV)
	if err != nil {
		return err
	}

	var daily []timeseries.DailyRecord
	if cfg.Station.DailyCSV != "" {
		daily, err = timeseries.ReadDailyCSV(cfg.Station.DailyCSV)
		if err != nil {
			return err
		}
	}

	var proxies []patch.Proxy
	for _, p := range cfg.Proxies {
		records, err := timeseries.ReadDailyCSV(p.DailyCSV)
		if err != nil {
			return fmt.Errorf("proxy %s: %w", p.Name, err)
		}
		proxies = append(proxies, patch.Proxy{Name: p.Name, Records: records})
	}

	opts := reconstruct.DefaultOptions()
	if cfg.Solver.MinEquations != nil {
		opts.Solver.MinEquations = *cfg.Solver.MinEquations
	}
	opts.Patch.Interpolate = !cfg.Patch.NoInterpolate
	if cfg.Patch.MinOverlap != nil {
		opts.Patch.MinOverlap = *cfg.Patch.MinOverlap
	}

	log.Infof("reconstructing %s (%d hours, %d proxies)", cfg.Station.Name, len(hourly), len(proxies))
	result, err := reconstruct.Reconstruct(hourly, daily, cfg.Station.Latitude, proxies, opts, logger)
	if err != nil {
		return err
	}

	printSummary(cfg, result)

	if outFile != "" {
		if err := timeseries.WriteHourlyCSV(outFile, result.Hourly); err != nil {
			return err
		}
		log.Infof("wrote reconstructed series to %s", outFile)
	}

	if cfg.Database != "" {
		store, err := storage.Open(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveStation(cfg.Station.Name, cfg.Station.Latitude); err != nil {
			return err
		}
		if err := store.SaveHourly(cfg.Station.Name, result.Hourly); err != nil {
			return err
		}
		id, err := store.SaveRun(cfg.Station.Name, result)
		if err != nil {
			return err
		}
		log.Infof("persisted run %s to %s", id, cfg.Database)
	}

	return nil
}

func printSummary(cfg *config.Data, result *reconstruct.Result) {
	counts := make(map[reconstruct.HourSource]int)
	for _, s := range result.Sources {
		counts[s]++
	}

	fmt.Printf("Reconstruction for %s\n", cfg.Station.Name)
	fmt.Printf("  Hours:          %d observed, %d reconstructed, %d curve-only, %d still missing\n",
		counts[reconstruct.HourObserved], counts[reconstruct.HourReconstructed],
		counts[reconstruct.HourCurveOnly], counts[reconstruct.HourMissing])
	fmt.Printf("  Daily Tmin:     %s\n", describeCounts(result.Report.Tmin))
	fmt.Printf("  Daily Tmax:     %s\n", describeCounts(result.Report.Tmax))
	for _, p := range result.Report.Proxies {
		fmt.Printf("  Proxy %-9s tmin bias %+.2f (sd ratio %.2f, filled %d), tmax bias %+.2f (sd ratio %.2f, filled %d)\n",
			p.Name+":", p.Tmin.MeanBias, p.Tmin.SDRatio, p.Tmin.Filled,
			p.Tmax.MeanBias, p.Tmax.SDRatio, p.Tmax.Filled)
	}

	temps := make([]float64, len(result.Hourly))
	for i, r := range result.Hourly {
		temps[i] = r.Temp
	}
	base := chill.DefaultHeatBase
	if cfg.Heat.BaseTemp != nil {
		base = *cfg.Heat.BaseTemp
	}
	fmt.Printf("  Chill portions: %.2f\n", chill.TotalChillPortions(temps))
	fmt.Printf("  Chill hours:    %.0f\n", chill.ChillingHours(temps))
	fmt.Printf("  Utah units:     %.1f\n", chill.UtahChillUnits(temps))
	fmt.Printf("  Heat (base %.1f): %.1f degree-hours\n", base, chill.TotalHeat(temps, base))
}

func describeCounts(c patch.VarCounts) string {
	s := fmt.Sprintf("%d observed, %d solved, %d interpolated, %d still missing",
		c.Observed, c.Solved, c.Interpolated, c.StillMissing)
	names := make([]string, 0, len(c.Proxy))
	for name := range c.Proxy {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s += fmt.Sprintf(", %d from %s", c.Proxy[name], name)
	}
	return s
}
