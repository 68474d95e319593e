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
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestRun(t *testing.T) {
	s := testSimulation(t)
	var buf bytes.Buffer
	o, err := NewOutputter(&buf, s.Model, []string{"TotalC", "TotalN", "SumNLeaching", "NO3"}, []int{0})
	if err != nil {
		t.Fatal(err)
	}
	c0 := s.Model.TotalC()
	if err := s.Run(o); err != nil {
		t.Fatal(err)
	}
	if s.Model.Day != 40 {
		t.Errorf("day: have %d, want 40", s.Model.Day)
	}
	if n := strings.Count(buf.String(), "\n"); n != 42 {
		t.Errorf("have %d output lines, want 42", n)
	}
	if s.Model.Crop() != nil {
		t.Error("the crop should be harvested")
	}
	// Slurry and straw add carbon.
	if s.Model.TotalC() <= c0 {
		t.Errorf("organic C should increase: %g -> %g", c0, s.Model.TotalC())
	}
	if s.Model.Transport.SumNLeaching() <= 0 {
		t.Error("leaching expected after heavy rain")
	}
	for i, l := range s.Model.Layers {
		for _, v := range []float64{l.NO3, l.NH4, l.SOMSlow, l.SMBFast} {
			if v < 0 || math.IsNaN(v) {
				t.Errorf("layer %d: invalid state %+v", i, l)
			}
		}
	}
}

func TestIrrigationTarget(t *testing.T) {
	s := testSimulation(t)
	before := s.Column.Moisture(9)
	tg := target{Model: s.Model, column: s.Column}
	tg.AddIrrigationWater(200)
	s.Column.Update(s.Weather[1].Weather)
	if s.Column.Moisture(9) <= before {
		t.Error("irrigation should reach the soil column")
	}

	c, err := DefaultLibrary([]float64{0.1}).Crop("maize")
	if err != nil {
		t.Fatal(err)
	}
	pc := c.(*PrescribedCrop)
	pc.Advance()
	tg.PutCrop(pc)
	if pc.Age() != 0 || s.Model.Crop() != c {
		t.Error("sowing should restart the crop")
	}
}

func TestSpinup(t *testing.T) {
	s := testSimulation(t)
	cycles, converged, err := s.Spinup(0.5, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !converged || cycles != 2 {
		t.Errorf("have %d cycles, converged=%v; want 2, true", cycles, converged)
	}
	if len(s.Model.RunFuncs) != 0 {
		t.Error("the equilibrium check should be removed")
	}
	if s.Model.Organic.SumGaseousNLoss() != 0 {
		t.Error("sums should be reset after spin-up")
	}
	if s.Model.Transport.SumNLeaching() != 0 {
		t.Error("leaching should be reset after spin-up")
	}

	t.Run("not converged", func(t *testing.T) {
		s := testSimulation(t)
		cycles, converged, err := s.Spinup(0, 1)
		if err != nil {
			t.Fatal(err)
		}
		if converged || cycles != 1 {
			t.Errorf("have %d cycles, converged=%v; want 1, false", cycles, converged)
		}
	})
	t.Run("invalid", func(t *testing.T) {
		if _, _, err := testSimulation(t).Spinup(0.1, 0); err == nil {
			t.Error("should fail")
		}
	})
}

func TestWritePools(t *testing.T) {
	s := testSimulation(t)
	var buf bytes.Buffer
	if err := WritePools(&buf, s.Model); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 11 {
		t.Fatalf("have %d lines, want 11", len(lines))
	}
	if f := strings.Fields(lines[0]); len(f) != 10 || f[5] != "SOMInert" {
		t.Errorf("header: %v", f)
	}
	if !strings.HasPrefix(lines[10], "9 ") {
		t.Errorf("last line: %s", lines[10])
	}
}

func TestNewLogger(t *testing.T) {
	dir, err := ioutil.TempDir("", "soilcn")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	file := filepath.Join(dir, "run.log")
	var buf bytes.Buffer
	log, closeLog, err := NewLogger(&buf, file, "warning")
	if err != nil {
		t.Fatal(err)
	}
	log.Info("hidden")
	log.WithFields(logrus.Fields{"layer": 3}).Warn("shown")
	if err := closeLog(); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	for _, out := range []string{buf.String(), string(b)} {
		if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
			t.Errorf("unexpected log output: %s", out)
		}
	}
	if _, _, err := NewLogger(&buf, "", "loud"); err == nil {
		t.Error("invalid level should fail")
	}
}
