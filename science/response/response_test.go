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

package response

import (
	"math"
	"testing"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

// sweep calls f at n evenly spaced points between lo and hi.
func sweep(lo, hi float64, n int, f func(x float64)) {
	for i := 0; i <= n; i++ {
		f(lo + (hi-lo)*float64(i)/float64(n))
	}
}

func checkBounds(t *testing.T, name string, lo, hi, min, max float64, f func(float64) float64) {
	sweep(lo, hi, 2000, func(x float64) {
		v := f(x)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < min || v > max+1.e-12 {
			t.Errorf("%s(%g) = %g; should be in [%g, %g]", name, x, v, min, max)
		}
	})
}

func TestBounds(t *testing.T) {
	checkBounds(t, "TempOnDecomposition", -40, 70, 0, MaxTempOnDecomposition, TempOnDecomposition)
	checkBounds(t, "MoistOnDecomposition", 0, 7, 0, 1, MoistOnDecomposition)
	checkBounds(t, "MoistOnHydrolysis", 0, 7, 0, MaxMoistOnHydrolysis, MoistOnHydrolysis)
	checkBounds(t, "TempOnNitrification", -40, 70, 0, 1, TempOnNitrification)
	checkBounds(t, "MoistOnNitrification", 0, 7, 0, 1, MoistOnNitrification)
	checkBounds(t, "ClayOnDecomposition", 0, 1, 0.5, 1, func(c float64) float64 {
		return ClayOnDecomposition(c, 0.25)
	})
	checkBounds(t, "MoistOnDenitrification", 0, 0.5, 0, 1, func(m float64) float64 {
		return MoistOnDenitrification(m, 0.45)
	})
	checkBounds(t, "NH3OnNitriteOxidation", 0, 1, 0, 1, func(nh4 float64) float64 {
		return NH3OnNitriteOxidation(nh4, 8.5, 1)
	})
	checkBounds(t, "FractionNH3", 3, 11, 0, 1, func(pH float64) float64 {
		return FractionNH3(pH, 15)
	})
}

func TestTempOnDecomposition(t *testing.T) {
	if v := TempOnDecomposition(-5); v != 0 {
		t.Errorf("frozen soil: have %g, want 0", v)
	}
	if v := TempOnDecomposition(10); different(v, 1, 1.e-10) {
		t.Errorf("10 °C: have %g, want 1", v)
	}
	// Monotonic increase up to saturation.
	prev := TempOnDecomposition(0)
	sweep(0, 40, 400, func(x float64) {
		v := TempOnDecomposition(x)
		if v < prev-0.02 {
			t.Errorf("decrease at %g °C: %g < %g", x, v, prev)
		}
		prev = v
	})
	if TempOnDecomposition(60) != MaxTempOnDecomposition {
		t.Errorf("should saturate above %g °C", MaxDecompositionTemperature)
	}
}

func TestMoistOnDecomposition(t *testing.T) {
	for _, test := range []struct{ pF, want float64 }{
		{pF: 0, want: 0.6},
		{pF: 0.75, want: 0.8},
		{pF: 2, want: 1},
		{pF: 4.5, want: 0.5},
		{pF: 7, want: 0},
	} {
		if v := MoistOnDecomposition(test.pF); math.Abs(v-test.want) > 1.e-10 {
			t.Errorf("pF %g: have %g, want %g", test.pF, v, test.want)
		}
	}
}

func TestMoistOnDenitrification(t *testing.T) {
	const sat = 0.4
	if v := MoistOnDenitrification(0.2, sat); v != 0 {
		t.Errorf("dry soil: have %g, want 0", v)
	}
	if v := MoistOnDenitrification(sat, sat); different(v, 1, 1.e-10) {
		t.Errorf("saturated soil: have %g, want 1", v)
	}
	if v := MoistOnDenitrification(0.9*sat, sat); different(v, 0.2, 1.e-8) {
		t.Errorf("90%% saturation: have %g, want 0.2", v)
	}
	if v := MoistOnDenitrification(0.3, 0); v != 0 {
		t.Errorf("zero saturation: have %g, want 0", v)
	}
}

func TestClayOnDecomposition(t *testing.T) {
	if v := ClayOnDecomposition(0.1, 0.25); different(v, 0.8, 1.e-10) {
		t.Errorf("have %g, want 0.8", v)
	}
	if v := ClayOnDecomposition(0.6, 0.25); different(v, 0.5, 1.e-10) {
		t.Errorf("limited: have %g, want 0.5", v)
	}
}

func TestChemistry(t *testing.T) {
	t.Run("NH3 fraction increases with pH", func(t *testing.T) {
		if FractionNH3(6, 20) >= FractionNH3(8, 20) {
			t.Error("fraction should increase with pH")
		}
	})
	t.Run("NH3 inhibition", func(t *testing.T) {
		if v := NH3OnNitriteOxidation(0, 7, 1); v != 1 {
			t.Errorf("no ammonium: have %g, want 1", v)
		}
		if NH3OnNitriteOxidation(1, 9, 0.01) >= NH3OnNitriteOxidation(0.01, 9, 0.01) {
			t.Error("inhibition should increase with ammonium")
		}
	})
	t.Run("Henry", func(t *testing.T) {
		if v := HenryNH3(25); different(v, 6.84e-4, 0.01) {
			t.Errorf("have %g, want 6.84e-4", v)
		}
		if HenryNH3(5) >= HenryNH3(25) {
			t.Error("volatility should increase with temperature")
		}
	})
	t.Run("Arrhenius", func(t *testing.T) {
		if v := Arrhenius(41000, 37, 37); v != 1 {
			t.Errorf("reference temperature: have %g, want 1", v)
		}
		if v := Arrhenius(41000, 15, 37); different(v, 0.297, 0.01) {
			t.Errorf("have %g, want 0.297", v)
		}
	})
	t.Run("HNO2", func(t *testing.T) {
		if v := FractionHNO2(pKaHNO2); different(v, 0.5, 1.e-10) {
			t.Errorf("have %g, want 0.5", v)
		}
	})
}

func TestShapes(t *testing.T) {
	if v := Triangle(5, 0, 5, 10); v != 1 {
		t.Errorf("triangle peak: have %g, want 1", v)
	}
	if v := Triangle(7.5, 0, 5, 10); v != 0.5 {
		t.Errorf("triangle: have %g, want 0.5", v)
	}
	if v := Ramp(2, 1, 3); v != 0.5 {
		t.Errorf("ramp: have %g, want 0.5", v)
	}
	if v := MichaelisMenten(1, 1); v != 0.5 {
		t.Errorf("michaelis-menten: have %g, want 0.5", v)
	}
	if v := Q10(30, 20, 2); different(v, 2, 1.e-10) {
		t.Errorf("q10: have %g, want 2", v)
	}
}
