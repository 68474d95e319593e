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
	"github.com/spatialmodel/soilcn/science/response"
)

// nitrificationFormulation returns the nitrification calculation for the
// named formulation.
func nitrificationFormulation(f Formulation, par *OrganicParameters) (LayerManipulator, error) {
	switch f {
	case MONICA, "":
		return monicaNitrification(par), nil
	case STICS:
		return sticsNitrification(&par.Stics), nil
	default:
		return nil, formulationError("nitrification", f)
	}
}

// monicaNitrification returns a function that calculates nitrification
// in two steps: ammonium is oxidised to nitrite and nitrite to nitrate.
// Nitrite oxidation, including that of the nitrite formed the same day,
// is inhibited by free ammonia.
func monicaNitrification(par *OrganicParameters) LayerManipulator {
	return func(l *Layer, Δt float64) {
		if !l.Organic {
			return
		}
		tw := response.TempOnNitrification(l.Temperature) * response.MoistOnNitrification(l.PF)
		nh4 := l.nh4()
		amm := capped(par.AmmoniaOxidationRateCoeffStandard*tw*nh4*Δt, nh4)
		l.dNH4 -= amm
		l.dNO2 += amm

		// Nitrite formed today is available for oxidation today.
		inhib := response.NH3OnNitriteOxidation(l.nh4(), l.PH, par.InhibitorNH3)
		no2 := l.no2()
		nit := capped(par.NitriteOxidationRateCoeffStandard*tw*inhib*no2*Δt, no2)
		l.dNO2 -= nit
		l.dNO3 += nit
		l.AmmoniaOxidationRate = amm / Δt
		l.NitrificationRate = nit / Δt
	}
}

// sticsNitrification returns a function that calculates nitrification as a
// single step from ammonium to nitrate with a Michaelis-Menten dependence
// on ammonium and multiplicative temperature, pH and water-filled pore
// space responses.
func sticsNitrification(par *SticsParameters) LayerManipulator {
	return func(l *Layer, Δt float64) {
		if !l.Organic {
			return
		}
		nh4 := l.nh4()
		rate := par.NitrificationMax *
			response.MichaelisMenten(nh4, par.NitrificationKNH4) *
			response.Triangle(l.Temperature, par.NitrificationTMin, par.NitrificationTOpt, par.NitrificationTMax) *
			response.Ramp(l.PH, par.NitrificationPHMin, par.NitrificationPHMax) *
			response.Triangle(l.wfps(), par.NitrificationWFPSMin, par.NitrificationWFPSOpt, par.NitrificationWFPSMax)
		nit := capped(rate*Δt, nh4)

		l.dNH4 -= nit
		l.dNO3 += nit
		l.AmmoniaOxidationRate = nit / Δt
		l.NitrificationRate = nit / Δt
	}
}
