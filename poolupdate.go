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

// poolUpdate returns a function that applies the changes calculated for
// the day to the pools of a layer. Negative results are clamped to zero.
// Cohorts whose carbon has fallen below a negligible amount are removed:
// their carbon is respired and their nitrogen mineralised.
func (o *SoilOrganic) poolUpdate() LayerManipulator {
	p := o.p
	return func(l *Layer, Δt float64) {
		kept := l.AOM[:0]
		for _, a := range l.AOM {
			a.Slow = p.nonNegative(l, "AOMSlow", a.Slow+a.dSlow)
			a.Fast = p.nonNegative(l, "AOMFast", a.Fast+a.dFast)
			a.dSlow, a.dFast = 0, 0
			if a.Slow+a.Fast < negligible {
				l.dNH4 += a.N()
				l.SMBCO2EvolutionRate += (a.Slow + a.Fast) / Δt
				l.NetNMineralisationRate += a.N() / Δt
				continue
			}
			kept = append(kept, a)
		}
		for j := len(kept); j < len(l.AOM); j++ {
			l.AOM[j] = nil
		}
		l.AOM = kept

		l.SMBSlow = p.nonNegative(l, "SMBSlow", l.SMBSlow+l.dSMBSlow)
		l.SMBFast = p.nonNegative(l, "SMBFast", l.SMBFast+l.dSMBFast)
		l.SOMSlow = p.nonNegative(l, "SOMSlow", l.SOMSlow+l.dSOMSlow)
		l.SOMFast = p.nonNegative(l, "SOMFast", l.SOMFast+l.dSOMFast)
		l.NH4 = p.nonNegative(l, "NH4", l.NH4+l.dNH4)
		l.NO2 = p.nonNegative(l, "NO2", l.NO2+l.dNO2)
		l.NO3 = p.nonNegative(l, "NO3", l.NO3+l.dNO3)
		l.Carbamide = p.nonNegative(l, "Carbamide", l.Carbamide+l.dCarbamide)
		l.dSMBSlow, l.dSMBFast, l.dSOMSlow, l.dSOMFast = 0, 0, 0, 0
		l.dNH4, l.dNO2, l.dNO3, l.dCarbamide = 0, 0, 0, 0

		l.CBalance = l.CInput/Δt - l.SMBCO2EvolutionRate
	}
}
