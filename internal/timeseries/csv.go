package timeseries

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Hourly CSV columns: year,month,day,hour,temp. Daily CSV columns:
// year,month,day,tmin,tmax. An empty field or "NA" marks a missing value.

// ReadHourlyCSV loads an hourly series from a CSV file with a header row.
func ReadHourlyCSV(path string) ([]HourlyRecord, error) {
	rows, err := readCSV(path, 5)
	if err != nil {
		return nil, err
	}

	records := make([]HourlyRecord, 0, len(rows))
	for i, row := range rows {
		year, err1 := strconv.Atoi(row[0])
		month, err2 := strconv.Atoi(row[1])
		day, err3 := strconv.Atoi(row[2])
		hour, err4 := strconv.Atoi(row[3])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, fmt.Errorf("%s row %d: malformed calendar fields", path, i+2)
		}
		temp, err := parseTemp(row[4])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		records = append(records, HourlyRecord{Year: year, Month: month, Day: day, Hour: hour, Temp: temp})
	}
	return records, nil
}

// ReadDailyCSV loads a daily min/max series from a CSV file with a header row.
func ReadDailyCSV(path string) ([]DailyRecord, error) {
	rows, err := readCSV(path, 5)
	if err != nil {
		return nil, err
	}

	records := make([]DailyRecord, 0, len(rows))
	for i, row := range rows {
		year, err1 := strconv.Atoi(row[0])
		month, err2 := strconv.Atoi(row[1])
		day, err3 := strconv.Atoi(row[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("%s row %d: malformed calendar fields", path, i+2)
		}
		tmin, err := parseTemp(row[3])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		tmax, err := parseTemp(row[4])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		records = append(records, DailyRecord{Year: year, Month: month, Day: day, Tmin: tmin, Tmax: tmax})
	}
	return records, nil
}

// WriteHourlyCSV writes an hourly series with a header row. Missing values
// are written as empty fields.
func WriteHourlyCSV(path string, records []HourlyRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"year", "month", "day", "hour", "temp"}); err != nil {
		return err
	}
	for _, r := range records {
		temp := ""
		if !IsMissing(r.Temp) {
			temp = strconv.FormatFloat(r.Temp, 'f', 3, 64)
		}
		row := []string{
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Month),
			strconv.Itoa(r.Day),
			strconv.Itoa(r.Hour),
			temp,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readCSV(path string, wantCols int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}
	for i, row := range rows {
		if len(row) != wantCols {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", path, i+1, wantCols, len(row))
		}
	}
	return rows[1:], nil
}

func parseTemp(field string) (float64, error) {
	if field == "" || field == "NA" {
		return Missing(), nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed temperature %q", field)
	}
	return v, nil
}
