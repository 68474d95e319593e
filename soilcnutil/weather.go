/*
Copyright © 2019 the soilcn authors.
This file is part of soilcn.

soilcn is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

soilcn is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with soilcn.  If not, see <http://www.gnu.org/licenses/>.
*/


package soilcnutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spatialmodel/soilcn"
)

// DailyWeather is the weather of one day.
type DailyWeather struct {
	Date time.Time
	soilcn.Weather
}

// weatherColumns are the required columns of a weather file.
var weatherColumns = []string{"date", "precipitation", "temperature", "wind"}

// ReadWeather reads daily weather from CSV data with a header row naming
// the columns date (YYYY-MM-DD), precipitation [mm/d], temperature (mean
// air temperature [°C]) and wind [m/s]. Other columns are ignored and
// days must be consecutive.
func ReadWeather(r io.Reader) ([]DailyWeather, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("soilcnutil: reading weather header: %v", err)
	}
	col := make(map[string]int)
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range weatherColumns {
		if _, ok := col[c]; !ok {
			return nil, fmt.Errorf("soilcnutil: weather data is missing column %q", c)
		}
	}

	var o []DailyWeather
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("soilcnutil: reading weather: %v", err)
		}
		var d DailyWeather
		if d.Date, err = time.Parse("2006-01-02", rec[col["date"]]); err != nil {
			return nil, fmt.Errorf("soilcnutil: weather line %d: %v", line, err)
		}
		for _, v := range []struct {
			name string
			dst  *float64
		}{
			{"precipitation", &d.Precipitation},
			{"temperature", &d.MeanAirTemperature},
			{"wind", &d.WindSpeed},
		} {
			if *v.dst, err = strconv.ParseFloat(rec[col[v.name]], 64); err != nil {
				return nil, fmt.Errorf("soilcnutil: weather line %d, %s: %v", line, v.name, err)
			}
		}
		if d.Precipitation < 0 || d.WindSpeed < 0 {
			return nil, fmt.Errorf("soilcnutil: weather line %d: negative precipitation or wind", line)
		}
		if n := len(o); n > 0 && !d.Date.Equal(o[n-1].Date.AddDate(0, 0, 1)) {
			return nil, fmt.Errorf("soilcnutil: weather line %d: %s does not follow %s",
				line, d.Date.Format("2006-01-02"), o[n-1].Date.Format("2006-01-02"))
		}
		o = append(o, d)
	}
	if len(o) == 0 {
		return nil, fmt.Errorf("soilcnutil: weather data has no days")
	}
	return o, nil
}

// ReadWeatherFile reads daily weather from the CSV file at path.
func ReadWeatherFile(path string) ([]DailyWeather, error) {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, fmt.Errorf("soilcnutil: opening weather file: %v", err)
	}
	defer f.Close()
	return ReadWeather(f)
}
