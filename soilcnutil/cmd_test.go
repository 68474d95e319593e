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
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/soilcn"
)

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "soilcn v" + soilcn.Version + "\n"; buf.String() != want {
		t.Errorf("have %q, want %q", buf.String(), want)
	}
}

func TestOptionFlags(t *testing.T) {
	for _, option := range options {
		for _, set := range option.flagsets {
			f := set.Lookup(option.name)
			if f == nil {
				t.Errorf("flag %s not registered", option.name)
				continue
			}
			if f.Usage != option.usage {
				t.Errorf("flag %s: wrong usage", option.name)
			}
		}
	}
}

func TestRunCmd(t *testing.T) {
	dir, err := ioutil.TempDir("", "soilcn")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	output := filepath.Join(dir, "out.csv")
	plotFile := filepath.Join(dir, "out.png")

	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Cfg.Set("config", "testdata/soilcn.toml")
	Root.SetArgs([]string{"run", "--OutputFile=" + output, "--PlotFile=" + plotFile})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	b, err := ioutil.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 42 {
		t.Errorf("have %d output lines, want 42", len(lines))
	}
	wantHeader := "Date,TotalC,TotalN,SumNLeaching,NO3[0],NO3[3],SoilOrganicC[0],SoilOrganicC[3]"
	if lines[0] != wantHeader {
		t.Errorf("header: have %s, want %s", lines[0], wantHeader)
	}
	if !strings.HasPrefix(lines[41], "2019-04-09,") {
		t.Errorf("last line: %s", lines[41])
	}
	if _, err := os.Stat(filepath.Join(dir, "out.log")); err != nil {
		t.Errorf("log file: %v", err)
	}
	if png, err := ioutil.ReadFile(plotFile); err != nil || !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("plot file: %v", err)
	}
	if !strings.Contains(buf.String(), "simulation finished") {
		t.Errorf("log should report the end of the simulation:\n%s", buf.String())
	}
}

func TestSpinupCmd(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Cfg.Set("config", "testdata/soilcn.toml")
	Root.SetArgs([]string{"spinup"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "spin-up: 2 cycles, converged=true") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "SOMInert") {
		t.Errorf("pools should be written:\n%s", out)
	}
}

func TestMissingWeather(t *testing.T) {
	Root.SetOutput(ioutil.Discard)
	defer Root.SetOutput(nil)
	Cfg.Set("config", "testdata/soilcn.toml")
	Cfg.Set("WeatherFile", "testdata/missing.csv")
	defer Cfg.Set("WeatherFile", "testdata/weather.csv")
	Root.SetArgs([]string{"spinup"})
	if err := Root.Execute(); err == nil {
		t.Error("should fail with a missing weather file")
	}
}
