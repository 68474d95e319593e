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

var _ soilcn.SoilColumn = &BucketColumn{}

func testSoil() SoilConfig {
	return SoilConfig{
		NumLayers:          5,
		LayerThickness:     0.1,
		FieldCapacity:      0.3,
		Saturation:         0.45,
		WiltingPoint:       0.12,
		Drainage:           0.5,
		Alpha:              0.02,
		N:                  1.4,
		ResidualMoisture:   0.05,
		Clay:               0.15,
		PH:                 6.5,
		BulkDensity:        1400,
		DampingDepth:       0.5,
		InitialTemperature: 8,
	}
}

// storage returns the water in the column [mm].
func storage(b *BucketColumn) float64 {
	var s float64
	for i := 0; i < b.NumLayers(); i++ {
		s += b.Moisture(i) * b.Thickness(i) * 1000
	}
	return s
}

func TestNewBucketColumn(t *testing.T) {
	b, err := NewBucketColumn(testSoil())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < b.NumLayers(); i++ {
		if b.Moisture(i) != 0.3 || b.Temperature(i) != 8 || b.Percolation(i) != 0 {
			t.Errorf("layer %d: wrong initial state", i)
		}
	}

	for _, test := range []struct {
		name string
		f    func(*SoilConfig)
	}{
		{"layers", func(c *SoilConfig) { c.NumLayers = 0 }},
		{"thickness", func(c *SoilConfig) { c.LayerThickness = 0 }},
		{"moisture order", func(c *SoilConfig) { c.WiltingPoint = 0.35 }},
		{"saturation", func(c *SoilConfig) { c.Saturation = 1.2 }},
		{"drainage", func(c *SoilConfig) { c.Drainage = 0 }},
		{"van Genuchten", func(c *SoilConfig) { c.N = 1 }},
		{"clay", func(c *SoilConfig) { c.Clay = 2 }},
		{"bulk density", func(c *SoilConfig) { c.BulkDensity = 0 }},
	} {
		t.Run(test.name, func(t *testing.T) {
			c := testSoil()
			test.f(&c)
			if _, err := NewBucketColumn(c); err == nil {
				t.Error("should fail")
			}
		})
	}
}

func TestBucketColumnWater(t *testing.T) {
	b, err := NewBucketColumn(testSoil())
	if err != nil {
		t.Fatal(err)
	}

	t.Run("dry", func(t *testing.T) {
		before := storage(b)
		b.Update(soilcn.Weather{MeanAirTemperature: 10})
		if change := before - storage(b); different(change, 1.5, 1.e-10) {
			t.Errorf("evapotranspiration: have %g, want 1.5 mm", change)
		}
		if b.Moisture(0) >= 0.3 || b.Moisture(4) != 0.3 {
			t.Error("only the top layer should dry")
		}
		for i := 0; i < b.NumLayers(); i++ {
			if b.Percolation(i) != 0 {
				t.Errorf("layer %d: no percolation expected below field capacity", i)
			}
		}
	})
	t.Run("wet", func(t *testing.T) {
		before := storage(b)
		b.Update(soilcn.Weather{Precipitation: 100, MeanAirTemperature: 10})
		out := b.Percolation(b.NumLayers() - 1)
		if out <= 0 {
			t.Fatal("drainage expected")
		}
		if change := storage(b) - before; math.Abs(change-(100-1.5-out)) > 1.e-9 {
			t.Errorf("water balance: storage change %g, in 100, evapotranspiration 1.5, out %g", change, out)
		}
		for i := 0; i < b.NumLayers(); i++ {
			if b.Moisture(i) > 0.45+1.e-12 || b.Moisture(i) <= 0.3 {
				t.Errorf("layer %d: moisture %g should be between field capacity and saturation", i, b.Moisture(i))
			}
			if i > 0 && b.Percolation(i) > b.Percolation(i-1) {
				t.Errorf("layer %d: percolation should not increase with depth", i)
			}
		}
	})
	t.Run("irrigation", func(t *testing.T) {
		b1, _ := NewBucketColumn(testSoil())
		b2, _ := NewBucketColumn(testSoil())
		b1.Irrigate(30)
		b1.Irrigate(-5)
		b1.Update(soilcn.Weather{})
		b2.Update(soilcn.Weather{Precipitation: 30})
		for i := 0; i < b1.NumLayers(); i++ {
			if b1.Moisture(i) != b2.Moisture(i) || b1.Percolation(i) != b2.Percolation(i) {
				t.Errorf("layer %d: irrigation should act like precipitation", i)
			}
		}
		b1.Update(soilcn.Weather{})
		if b1.Percolation(0) >= b2.Percolation(0) {
			t.Error("irrigation should only be used once")
		}
	})
}

func TestBucketColumnTemperature(t *testing.T) {
	b, err := NewBucketColumn(testSoil())
	if err != nil {
		t.Fatal(err)
	}
	b.Update(soilcn.Weather{MeanAirTemperature: 20})
	for i := 1; i < b.NumLayers(); i++ {
		if b.Temperature(i) >= b.Temperature(i-1) || b.Temperature(i) <= 8 {
			t.Errorf("layer %d: temperature %g should be between 8 °C and the layer above", i, b.Temperature(i))
		}
	}
	want := 8 + 12*math.Exp(-0.05/0.5)
	if different(b.Temperature(0), want, 1.e-12) {
		t.Errorf("top layer: have %g, want %g", b.Temperature(0), want)
	}
}

func TestMoisturePF(t *testing.T) {
	b, err := NewBucketColumn(testSoil())
	if err != nil {
		t.Fatal(err)
	}
	pf := func(theta float64) float64 {
		b.theta[0] = theta
		return b.MoisturePF(0)
	}
	if v := pf(0.45); v != 0 {
		t.Errorf("saturation: have pF %g, want 0", v)
	}
	wet, fc, dry := pf(0.4), pf(0.3), pf(0.12)
	if !(wet < fc && fc < dry) {
		t.Errorf("pF should increase as the soil dries: %g, %g, %g", wet, fc, dry)
	}
	if v := pf(0.01); math.IsInf(v, 0) || math.IsNaN(v) {
		t.Errorf("pF below residual moisture should be finite: %g", v)
	}
}
