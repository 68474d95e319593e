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

func n2oFormulation(f Formulation, par *OrganicParameters) (LayerManipulator, error) {
	switch f {
	case MONICA, "":
		return monicaN2O(par), nil
	case STICS:
		return sticsN2O(&par.Stics), nil
	default:
		return nil, formulationError("N2O", f)
	}
}

// monicaN2O returns a function that calculates N2O production from the
// chemodenitrification of nitrous acid formed during nitrification and a
// fixed share of denitrification. The denitrified share is already
// removed from nitrate by denitrification.
func monicaN2O(par *OrganicParameters) LayerManipulator {
	return func(l *Layer, Δt float64) {
		if !l.Organic {
			return
		}
		no2 := l.no2()
		nit := capped(par.N2OProductionRate*response.TempOnNitrification(l.Temperature)*
			response.FractionHNO2(l.PH)*no2*Δt,
			math.Min(no2, l.AmmoniaOxidationRate*Δt))
		l.dNO2 -= nit
		l.N2ONitrificationRate = nit / Δt
		l.N2OProductionRate = l.N2ONitrificationRate + par.DenitN2OFraction*l.DenitrificationRate
	}
}

// sticsN2O returns a function that calculates N2O as a fixed fraction of
// nitrification plus a share of denitrification that decreases in wet,
// alkaline or nitrate-poor soil.
func sticsN2O(par *SticsParameters) LayerManipulator {
	return func(l *Layer, Δt float64) {
		if !l.Organic {
			return
		}
		nit := capped(par.N2ONitrificationFraction*l.NitrificationRate*Δt, l.no3())
		l.dNO3 -= nit

		fw := 1 - response.Ramp(l.wfps(), 0.5, 1)*0.8
		fpH := 1 - response.Ramp(l.PH, 5, 8)*0.8
		ratio := math.Min(1, par.N2ODenitRatioMax*fw*fpH*response.MichaelisMenten(l.no3(), par.N2OKNO3))
		l.N2ONitrificationRate = nit / Δt
		l.N2OProductionRate = l.N2ONitrificationRate + ratio*l.DenitrificationRate
	}
}
