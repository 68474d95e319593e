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

package soilcn

import (
	"math"

	"github.com/spatialmodel/soilcn/science/response"
)

func denitrificationFormulation(f Formulation, par *OrganicParameters) (LayerManipulator, error) {
	switch f {
	case MONICA, "":
		return monicaDenitrification(par), nil
	case STICS:
		return sticsDenitrification(&par.Stics), nil
	default:
		return nil, formulationError("denitrification", f)
	}
}

// monicaDenitrification returns a function that calculates
// denitrification as the lesser of a respiration-driven potential and a
// nitrate transport limit. Denitrification requires the layer to be close
// to saturation.
func monicaDenitrification(par *OrganicParameters) LayerManipulator {
	return func(l *Layer, Δt float64) {
		if !l.Organic {
			return
		}
		no3 := l.no3()
		pot := par.SpecAnaerobDenitrification * l.SMBCO2EvolutionRate *
			response.MoistOnDenitrification(l.Moisture, l.Saturation)
		d := capped(math.Min(pot, par.TransportRateCoeff*no3)*Δt, no3)
		l.dNO3 -= d
		l.DenitrificationRate = d / Δt
	}
}

// sticsDenitrification returns a function that calculates denitrification
// from a potential rate limited by nitrate, water-filled pore space,
// temperature and the availability of carbon, indicated by decomposer
// respiration.
func sticsDenitrification(par *SticsParameters) LayerManipulator {
	return func(l *Layer, Δt float64) {
		if !l.Organic || l.Temperature <= 0 {
			return
		}
		no3 := l.no3()
		fw := math.Pow(response.Ramp(l.wfps(), par.DenitWFPSThreshold, 1), par.DenitWFPSExponent)
		rate := par.DenitPotential *
			response.MichaelisMenten(no3, par.DenitKNO3) * fw *
			response.Q10(l.Temperature, 20, par.DenitQ10) *
			response.MichaelisMenten(l.SMBCO2EvolutionRate, par.DenitKCO2)
		d := capped(rate*Δt, no3)
		l.dNO3 -= d
		l.DenitrificationRate = d / Δt
	}
}
