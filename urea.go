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

const (
	gNPerMolUrea = 28.0134
	hydrolysisT  = 37. // reference temperature of the hydrolysis parameters [°C]

	// surfaceUreaThreshold [kg N/m³] is the urea content of the top layer
	// at or above which ammonia volatilisation is calculated and below
	// which incorporated material is considered used up.
	surfaceUreaThreshold = 0.001
)

// hydrolysis returns a function that calculates the enzymatic hydrolysis
// of urea to ammonium with Michaelis-Menten kinetics. The maximum rate
// depends on soil organic carbon, temperature and moisture. Rain and
// irrigation speed up hydrolysis in the top layer.
func (o *SoilOrganic) hydrolysis() LayerManipulator {
	par := o.params
	return func(l *Layer, Δt float64) {
		c := l.carbamide()
		if c <= 0 || l.BulkDensity <= 0 {
			return
		}
		socPercent := l.SoilOrganicC() / l.BulkDensity * 100
		vmax := (par.HydrolysisP1*socPercent + par.HydrolysisP2) * secondsPerDay * gNPerMolUrea *
			l.BulkDensity * response.Arrhenius(par.ActivationEnergy, l.Temperature, hydrolysisT) *
			response.MoistOnHydrolysis(l.PF)
		if l.Index == 0 {
			vmax *= 1 + math.Min(1, (o.precip+o.irrigation)/10)
		}
		h := capped(vmax*response.MichaelisMenten(c, par.HydrolysisKM)*Δt, c)
		l.dCarbamide -= h
		l.dNH4 += h
		l.HydrolysisRate = h / Δt
	}
}

// volatilisation returns a function that calculates the loss of ammonia
// from the top layer. Volatilisation only occurs after surface
// applications of ammonium or urea and while urea remains at the surface.
// It follows the equilibrium between dissolved ammonium, dissolved
// ammonia and gaseous ammonia and is reduced when the applied material
// has been incorporated.
func (o *SoilOrganic) volatilisation() DomainManipulator {
	par := o.params
	return func(p *Profile) error {
		o.nh3 = 0
		l := p.Layers[0]
		if l.Carbamide < surfaceUreaThreshold && !o.surfaceAddition {
			return nil
		}
		nh4 := l.nh4()
		water := math.Max(l.Moisture, 0)*l.Dz + (o.precip+o.irrigation)/mmPerM // m
		if nh4 <= 0 || water <= 0 {
			return nil
		}
		kv := o.windSpeed * secondsPerDay * par.AtmosphericResistance // m/d
		rate := kv * response.HenryNH3(o.airTemp) * response.FractionNH3(l.PH, o.airTemp) / water
		v := nh4 * (1 - math.Exp(-rate))
		if o.incorporation {
			v *= par.IncorporationFactor
		}
		l.dNH4 -= v
		o.nh3 = v * l.Dz * m2PerHa
		return nil
	}
}
