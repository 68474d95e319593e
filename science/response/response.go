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

// Package response contains the environmental response functions that
// scale soil biological process rates. All functions are pure and do not
// validate their inputs: callers are responsible for passing physically
// meaningful soil state.
package response

import "math"

// Physical constants.
const (
	R           = 8.314    // Universal gas constant [J/mol/K]
	rAtm        = 0.082057 // Universal gas constant [L atm/mol/K]
	kelvin      = 273.15   // 0 °C in K
	pKaNH4      = 9.25     // Acid dissociation constant of NH4+ at 25 °C
	pKaHNO2     = 3.29     // Acid dissociation constant of HNO2
	henryNH3Ref = 59.8     // Henry's law solubility of NH3 at 298.15 K [M/atm]
	henryNH3Dt  = 4200.    // Temperature dependence of NH3 solubility [K]
)

// MaxDecompositionTemperature is the soil temperature [°C] above which
// TempOnDecomposition is held constant.
const MaxDecompositionTemperature = 40.

// MaxTempOnDecomposition is the largest value TempOnDecomposition returns.
var MaxTempOnDecomposition = TempOnDecomposition(MaxDecompositionTemperature)

// MaxMoistOnHydrolysis is the largest value MoistOnHydrolysis returns.
const MaxMoistOnHydrolysis = -0.8202*3.4 + 4.2826

// TempOnDecomposition returns the dimensionless effect of soil temperature
// t [°C] on the decomposition of organic matter, following the DAISY
// model (Hansen et al., 1990). The result is 0 at or below 0 °C and lies
// in [0, MaxTempOnDecomposition].
func TempOnDecomposition(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t <= 20:
		return 0.1 * t
	}
	t = math.Min(t, MaxDecompositionTemperature)
	return math.Exp(0.47 - 0.027*t + 0.00193*t*t)
}

// MoistOnDecomposition returns the dimensionless effect of soil water
// tension pF on decomposition. It is 1 between pF 1.5 and 2.5, declines to
// 0.6 at saturation and to zero at pF 6.5.
func MoistOnDecomposition(pF float64) float64 {
	switch {
	case pF <= 0:
		return 0.6
	case pF <= 1.5:
		return 0.6 + 0.4*pF/1.5
	case pF <= 2.5:
		return 1
	case pF <= 6.5:
		return 1 - (pF-2.5)/4
	default:
		return 0
	}
}

// MoistOnHydrolysis returns the dimensionless effect of soil water tension
// pF on urea hydrolysis (Sadeghi et al., 1988). The result lies in
// [0, MaxMoistOnHydrolysis] with its maximum near pF 3.4.
func MoistOnHydrolysis(pF float64) float64 {
	switch {
	case pF <= 1.1:
		return 0.72
	case pF <= 2.4:
		return 0.2207*pF + 0.4777
	case pF <= 3.4:
		return 0.4449*pF - 0.0601
	case pF <= 4.6:
		return -0.8202*pF + 4.2826
	case pF <= 6.5:
		return 0.51 * (6.5 - pF) / 1.9
	default:
		return 0
	}
}

// ClayOnDecomposition returns the dimensionless reduction of decomposition
// caused by the clay fraction [kg/kg] of the soil. The effect of clay is
// capped at limit, so the result lies in [1-2*limit, 1].
func ClayOnDecomposition(clay, limit float64) float64 {
	return 1 - 2*math.Max(0, math.Min(clay, limit))
}

// TempOnNitrification returns the dimensionless effect of soil temperature
// t [°C] on nitrification, in [0, 1].
func TempOnNitrification(t float64) float64 {
	switch {
	case t <= 2:
		return 0
	case t <= 6:
		return 0.15 * (t - 2)
	default:
		return math.Min(1, 0.1*t)
	}
}

// MoistOnNitrification returns the dimensionless effect of soil water
// tension pF on nitrification, in [0, 1]. Nitrifiers are more sensitive
// to drought than decomposers and stop at pF 5.
func MoistOnNitrification(pF float64) float64 {
	switch {
	case pF <= 0:
		return 0.6
	case pF <= 1.5:
		return 0.6 + 0.4*pF/1.5
	case pF <= 2.5:
		return 1
	case pF <= 5:
		return 1 - (pF-2.5)/2.5
	default:
		return 0
	}
}

// MoistOnDenitrification returns the dimensionless effect of volumetric
// soil moisture m3 [m³/m³] relative to saturation [m³/m³] on
// denitrification, in [0, 1]. Denitrification only occurs above 80%
// of saturation.
func MoistOnDenitrification(m3, saturation float64) float64 {
	if saturation <= 0 {
		return 0
	}
	r := m3 / saturation
	switch {
	case r <= 0.8:
		return 0
	case r <= 0.9:
		return 0.2 * (r - 0.8) / 0.1
	case r <= 1:
		return 0.2 + 0.8*(r-0.9)/0.1
	default:
		return 1
	}
}

// FractionNH3 returns the fraction of ammoniacal N present as un-ionised
// NH3 at the given pH and temperature t [°C] (Emerson et al., 1975).
func FractionNH3(pH, t float64) float64 {
	pKa := 0.09018 + 2729.92/(t+kelvin)
	return 1 / (1 + math.Pow(10, pKa-pH))
}

// NH3OnNitriteOxidation returns the dimensionless inhibition of nitrite
// oxidation by free ammonia, in (0, 1]. nh4 is the ammonium concentration
// [kg N/m³] and k [kg N/m³] is the NH3 concentration at which the
// oxidation rate is halved.
func NH3OnNitriteOxidation(nh4, pH, k float64) float64 {
	nh3 := nh4 / (1 + math.Pow(10, pKaNH4-pH))
	if k+nh3 <= 0 {
		return 1
	}
	return k / (k + nh3)
}

// FractionHNO2 returns the fraction of nitrite present as nitrous acid at
// the given pH.
func FractionHNO2(pH float64) float64 {
	return 1 / (1 + math.Pow(10, pH-pKaHNO2))
}

// HenryNH3 returns the dimensionless (gas/aqueous) Henry's law coefficient
// of ammonia at temperature t [°C].
func HenryNH3(t float64) float64 {
	tk := t + kelvin
	kh := henryNH3Ref * math.Exp(henryNH3Dt*(1/tk-1/298.15))
	return 1 / (kh * rAtm * tk)
}

// Arrhenius returns the ratio of a reaction rate at temperature t [°C] to
// the rate at tRef [°C] for activation energy ea [J/mol].
func Arrhenius(ea, t, tRef float64) float64 {
	return math.Exp(-ea / R * (1/(t+kelvin) - 1/(tRef+kelvin)))
}

// Q10 returns the ratio of a rate at temperature t [°C] to the rate at tRef
// for the given q10 factor.
func Q10(t, tRef, q10 float64) float64 {
	return math.Pow(q10, (t-tRef)/10)
}

// Ramp returns 0 for x <= lo, 1 for x >= hi and a linear interpolation
// in between.
func Ramp(x, lo, hi float64) float64 {
	switch {
	case x <= lo:
		return 0
	case x >= hi:
		return 1
	default:
		return (x - lo) / (hi - lo)
	}
}

// Triangle returns a response that increases linearly from 0 at lo to 1 at
// opt and decreases linearly back to 0 at hi.
func Triangle(x, lo, opt, hi float64) float64 {
	switch {
	case x <= lo || x >= hi:
		return 0
	case x <= opt:
		return (x - lo) / (opt - lo)
	default:
		return (hi - x) / (hi - opt)
	}
}

// MichaelisMenten returns x/(k+x), in [0, 1) for non-negative x.
func MichaelisMenten(x, k float64) float64 {
	if x <= 0 {
		return 0
	}
	return x / (k + x)
}
