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
	"math"
	"testing"

	"github.com/spatialmodel/soilcn"
)

var _ soilcn.Crop = &PrescribedCrop{}

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func testCrop(t *testing.T) *PrescribedCrop {
	lib := DefaultLibrary([]float64{0.1, 0.1, 0.1, 0.2, 0.2, 0.3, 0.5})
	c, err := NewPrescribedCrop(lib.Crops["maize"], lib.OrganicFertilisers["maize_residue"], lib.thickness)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestPrescribedCropSeason(t *testing.T) {
	c := testCrop(t)
	if c.Name() != "maize" || c.Age() != 0 {
		t.Errorf("new crop: %s aged %d", c.Name(), c.Age())
	}
	if c.NetPrimaryProduction() != 0 {
		t.Error("no production on the day of sowing")
	}
	for c.Age() < 75 {
		c.Advance()
	}
	if different(c.NetPrimaryProduction(), 70, 1.e-12) {
		t.Errorf("mid-season production: have %g, want 70", c.NetPrimaryProduction())
	}
	if different(c.DeadRootBiomass(), 0.1*70/0.45, 1.e-12) {
		t.Errorf("dead roots: have %g, want %g", c.DeadRootBiomass(), 0.1*70/0.45)
	}
	for c.Age() <= 150 {
		c.Advance()
	}
	if c.NetPrimaryProduction() != 0 || c.NUptakeFromLayer(0) != 0 || c.DeadRootBiomass() != 0 {
		t.Error("a mature crop should not grow")
	}
	if c.RootDensity(0) <= 0 {
		t.Error("roots should remain after maturity")
	}
	if c.ResidueParameters().Name != "maize residue" {
		t.Errorf("residue: %s", c.ResidueParameters().Name)
	}
}

func TestPrescribedCropUptake(t *testing.T) {
	c := testCrop(t)
	var season float64
	for c.Age() <= 150 {
		for i := range c.dz {
			season += c.NUptakeFromLayer(i) * 1.e4
		}
		c.Advance()
	}
	if different(season, 200, 1.e-3) {
		t.Errorf("seasonal uptake: have %g, want 200 kg N/ha", season)
	}
}

func TestPrescribedCropRoots(t *testing.T) {
	c := testCrop(t)
	for c.Age() < 10 {
		c.Advance()
	}
	// Roots reach 0.22 m after 10 days.
	if c.RootDensity(1) <= 0 || c.RootDensity(2) != 0 {
		t.Errorf("early root density: %g, %g", c.RootDensity(1), c.RootDensity(2))
	}
	if c.NUptakeFromLayer(2) != 0 {
		t.Error("no uptake below the roots")
	}
	for c.Age() < 75 {
		c.Advance()
	}
	for i := 1; i < 6; i++ {
		if c.RootDensity(i) >= c.RootDensity(i-1) {
			t.Errorf("layer %d: root density should decrease with depth", i)
		}
	}
	if c.RootDensity(6) != 0 || c.RootDensity(-1) != 0 || c.RootDensity(7) != 0 {
		t.Error("no roots below 1 m or outside the profile")
	}
	if c.NUptakeFromLayer(7) != 0 {
		t.Error("no uptake outside the profile")
	}
}

func TestNewPrescribedCrop(t *testing.T) {
	lib := DefaultLibrary([]float64{0.1})
	residue := lib.OrganicFertilisers["wheat_straw"]
	if _, err := NewPrescribedCrop(lib.Crops["winter_wheat"], nil, lib.thickness); err == nil {
		t.Error("should fail without residue")
	}
	for _, p := range []CropParameters{
		{Name: "season", SeasonLength: 0, RootDepth: 1},
		{Name: "npp", SeasonLength: 100, PeakNPP: -1, RootDepth: 1},
		{Name: "roots", SeasonLength: 100},
		{Name: "turnover", SeasonLength: 100, RootDepth: 1, RootTurnover: 2},
	} {
		p := p
		if _, err := NewPrescribedCrop(&p, residue, lib.thickness); err == nil {
			t.Errorf("%s: should fail", p.Name)
		}
	}
}
