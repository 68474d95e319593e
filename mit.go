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

// mitFluxes are the carbon changes [kg C/m³] of one part of the
// mineralisation-immobilisation turnover and the nitrogen [kg N/m³] they
// release (positive) or demand (negative).
type mitFluxes struct {
	aomSlow, aomFast []float64
	smbSlow, smbFast float64
	somSlow, somFast float64
	n                float64
}

// carbon returns the total carbon change.
func (f *mitFluxes) carbon() float64 {
	c := f.smbSlow + f.smbFast + f.somSlow + f.somFast
	for j := range f.aomSlow {
		c += f.aomSlow[j] + f.aomFast[j]
	}
	return c
}

// mit returns a function that calculates the decomposition of added
// organic matter, soil organic matter and microbial biomass and the
// resulting mineralisation or immobilisation of nitrogen. Immobilisation
// is limited by the mineral N of the layer: when demand exceeds supply the
// decomposition of added organic matter is slowed first and all
// decomposition after that.
func (o *SoilOrganic) mit() LayerManipulator {
	par := o.params
	return func(l *Layer, Δt float64) {
		if !l.Organic {
			return
		}
		tw := response.TempOnDecomposition(l.Temperature) * response.MoistOnDecomposition(l.PF)
		clay := response.ClayOnDecomposition(l.Clay, par.LimitClayEffect)
		loss := func(k, c float64) float64 { return math.Min(1, k*Δt) * math.Max(0, c) }

		aom := mitFluxes{
			aomSlow: make([]float64, len(l.AOM)),
			aomFast: make([]float64, len(l.AOM)),
		}
		for j, a := range l.AOM {
			slow := loss(a.SlowDecCoeffStandard*tw, a.Slow)
			fast := loss(a.FastDecCoeffStandard*tw, a.Fast)
			aom.aomSlow[j], aom.aomFast[j] = -slow, -fast
			aom.smbSlow += par.AOMSlowUtilizationEfficiency * a.PartSlowToSMBSlow * slow
			aom.smbFast += par.AOMSlowUtilizationEfficiency*a.PartSlowToSMBFast*slow +
				par.AOMFastUtilizationEfficiency*fast
			aom.n += slow/a.CNSlow + fast/a.CNFast
		}
		aom.n -= (aom.smbSlow + aom.smbFast) / l.CNSMB

		somSlow := loss(par.SOMSlowDecCoeffStandard*clay*tw, l.SOMSlow)
		somFast := loss(par.SOMFastDecCoeffStandard*tw, l.SOMFast)
		maintS, deathS := smbLoss(par.SMBSlowMaintRateStandard*clay*tw, par.SMBSlowDeathRateStandard*tw, l.SMBSlow, Δt)
		maintF, deathF := smbLoss(par.SMBFastMaintRateStandard*tw, par.SMBFastDeathRateStandard*tw, l.SMBFast, Δt)

		var som mitFluxes
		som.somSlow = par.PartSOMFastToSOMSlow*somFast - somSlow
		som.somFast = par.PartSMBSlowToSOMFast*deathS + par.PartSMBFastToSOMFast*deathF - somFast
		som.smbSlow = par.SOMSlowUtilizationEfficiency*somSlow +
			par.SOMFastUtilizationEfficiency*(1-par.PartSOMFastToSOMSlow)*somFast -
			maintS - deathS
		som.smbFast = par.SMBUtilizationEfficiency*((1-par.PartSMBSlowToSOMFast)*deathS+
			(1-par.PartSMBFastToSOMFast)*deathF) - maintF - deathF
		som.n = -(som.somSlow+som.somFast)/l.CNSOM - (som.smbSlow+som.smbFast)/l.CNSMB

		// Scale factors for the added organic matter part (r) and for all
		// turnover (s) so that immobilisation does not exceed supply.
		r, s := 1., 1.
		avail := par.ImmobilisationRateCoeffNH4*math.Max(0, l.nh4()) +
			par.ImmobilisationRateCoeffNO3*math.Max(0, l.no3())
		if demand := -(som.n + aom.n); demand > avail {
			if aom.n < 0 {
				r = math.Max(0, math.Min(1, (avail+som.n)/-aom.n))
			}
			if net := som.n + r*aom.n; -net > avail {
				s = avail / -net
			}
			l.ImmobilisationDeficit = (demand - avail) / Δt
		}

		for j, a := range l.AOM {
			a.dSlow += s * r * aom.aomSlow[j]
			a.dFast += s * r * aom.aomFast[j]
		}
		l.dSMBSlow += s * (som.smbSlow + r*aom.smbSlow)
		l.dSMBFast += s * (som.smbFast + r*aom.smbFast)
		l.dSOMSlow += s * som.somSlow
		l.dSOMFast += s * som.somFast
		l.SMBCO2EvolutionRate = -s * (som.carbon() + r*aom.carbon()) / Δt

		net := s * (som.n + r*aom.n)
		if net >= 0 {
			l.dNH4 += net
		} else {
			fromNH4 := math.Min(-net, par.ImmobilisationRateCoeffNH4*math.Max(0, l.nh4()))
			l.dNH4 -= fromNH4
			l.dNO3 -= -net - fromNH4
		}
		l.NetNMineralisationRate = net / Δt
	}
}

// smbLoss returns the maintenance respiration and death [kg C/m³] of a
// microbial biomass pool c with rate coefficients km and kd [1/d]. Their
// sum does not exceed the pool.
func smbLoss(km, kd, c, Δt float64) (maint, death float64) {
	k := km + kd
	if k <= 0 || c <= 0 {
		return 0, 0
	}
	total := math.Min(1, k*Δt) * c
	return total * km / k, total * kd / k
}
