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
	"strings"
	"testing"
	"time"
)

func TestReadWeather(t *testing.T) {
	w, err := ReadWeather(strings.NewReader(`Date, Temperature, Precipitation, Wind, Radiation
2019-06-01, 15.5, 0, 2.1, 20
2019-06-02, 17, 4.2, 3.0, 18
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(w) != 2 {
		t.Fatalf("have %d days, want 2", len(w))
	}
	if !w[1].Date.Equal(time.Date(2019, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date: %v", w[1].Date)
	}
	if w[1].Precipitation != 4.2 || w[1].MeanAirTemperature != 17 || w[1].WindSpeed != 3 {
		t.Errorf("weather: %+v", w[1])
	}

	for _, test := range []struct {
		name, data string
	}{
		{"empty", ``},
		{"no days", "date,precipitation,temperature,wind\n"},
		{"missing column", "date,precipitation,temperature\n2019-06-01,0,10\n"},
		{"date", "date,precipitation,temperature,wind\n01/06/2019,0,10,2\n"},
		{"number", "date,precipitation,temperature,wind\n2019-06-01,0,warm,2\n"},
		{"negative", "date,precipitation,temperature,wind\n2019-06-01,-1,10,2\n"},
		{"gap", "date,precipitation,temperature,wind\n2019-06-01,0,10,2\n2019-06-03,0,10,2\n"},
		{"fields", "date,precipitation,temperature,wind\n2019-06-01,0,10\n"},
	} {
		t.Run(test.name, func(t *testing.T) {
			if _, err := ReadWeather(strings.NewReader(test.data)); err == nil {
				t.Error("should fail")
			}
		})
	}
}

func TestReadWeatherFile(t *testing.T) {
	w, err := ReadWeatherFile("testdata/weather.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(w) != 40 {
		t.Errorf("have %d days, want 40", len(w))
	}
	if w[0].Precipitation != 14 || w[0].MeanAirTemperature != 6 {
		t.Errorf("first day: %+v", w[0])
	}
	if _, err := ReadWeatherFile("testdata/missing.csv"); err == nil {
		t.Error("missing file should fail")
	}
}
