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
	"fmt"
	"math"

	"github.com/ctessum/atmos/advect"
)

// maxSubSteps is the largest number of transport sub-steps allowed in one
// day.
const maxSubSteps = 1000000

// minMoisture [m³/m³] is the water content below which a layer is treated
// as holding this much water for the purpose of nitrate transport.
const minMoisture = 0.01

// SoilTransport is the nitrate transport engine. It moves nitrate between
// the layers of a Profile by convection with percolating water and by
// dispersion, removes crop uptake and adds atmospheric deposition.
type SoilTransport struct {
	p      *Profile
	params *TransportParameters
	crop   Crop

	runFuncs []DomainManipulator

	uptake, unmet []float64 // [kg N/m²/d]
	leaching      float64   // [kg N/ha/d]
	sumLeaching   float64
	subSteps      int
}

// NewSoilTransport creates a nitrate transport engine operating on p.
func NewSoilTransport(p *Profile, params *TransportParameters) (*SoilTransport, error) {
	if err := params.Check(); err != nil {
		return nil, err
	}
	t := &SoilTransport{
		p:      p,
		params: params,
		uptake: make([]float64, len(p.Layers)),
		unmet:  make([]float64, len(p.Layers)),
	}
	t.runFuncs = []DomainManipulator{
		ReadSoilColumn(),
		t.deposition(),
		t.cropUptake(),
		t.convectionDispersion(),
	}
	return t, nil
}

// Step advances the engine by one day.
func (t *SoilTransport) Step() error {
	for _, f := range t.runFuncs {
		if err := f(t.p); err != nil {
			return err
		}
	}
	return nil
}

// PutCrop attaches a crop whose N uptake is removed from the soil.
func (t *SoilTransport) PutCrop(c Crop) { t.crop = c }

// RemoveCrop detaches the current crop.
func (t *SoilTransport) RemoveCrop() { t.crop = nil }

// deposition returns a function that adds the daily share of the annual
// atmospheric N deposition to the nitrate of the top layer.
func (t *SoilTransport) deposition() DomainManipulator {
	return func(p *Profile) error {
		l := p.Layers[0]
		l.NO3 += t.params.NDeposition / 365 / m2PerHa / l.Dz
		return nil
	}
}

// cropUptake returns a function that removes the N demand of the crop from
// the nitrate of each layer. Demand that exceeds the nitrate present is
// recorded as unmet.
func (t *SoilTransport) cropUptake() DomainManipulator {
	return func(p *Profile) error {
		for i, l := range p.Layers {
			t.uptake[i], t.unmet[i] = 0, 0
			if t.crop == nil {
				continue
			}
			demand := math.Max(0, t.crop.NUptakeFromLayer(i)) // kg N/m²
			avail := math.Max(0, l.NO3) * l.Dz
			up := math.Min(demand, avail)
			l.NO3 = p.nonNegative(l, "NO3", l.NO3-up/l.Dz)
			t.uptake[i] = up
			t.unmet[i] = demand - up
		}
		return nil
	}
}

// dispersion returns the product of water content θ and the effective
// dispersion coefficient for water flux q [m/d], in [m²/d].
func (t *SoilTransport) dispersion(θ, q float64) float64 {
	diffusion := t.params.DiffusionCoefficientStandard * t.params.AD * math.Exp(10*θ) / θ
	return θ * (diffusion + t.params.DispersionLength*math.Abs(q)/θ)
}

// convectionDispersion returns a function that solves the one-dimensional
// convection-dispersion equation for nitrate with an explicit upwind
// scheme. The day is split into as many sub-steps as needed for the scheme
// to be stable and to keep nitrate non-negative. Nitrate leaving the
// bottom of the profile is counted as leaching.
func (t *SoilTransport) convectionDispersion() DomainManipulator {
	var θ, q, disp, dist, caq, flux []float64
	return func(p *Profile) error {
		n := len(p.Layers)
		if len(θ) != n {
			θ, q, disp = make([]float64, n), make([]float64, n), make([]float64, n)
			dist, caq, flux = make([]float64, n), make([]float64, n), make([]float64, n)
		}
		for i, l := range p.Layers {
			θ[i] = math.Max(l.Moisture, minMoisture)
			q[i] = l.Percolation / mmPerM
			disp[i] = t.dispersion(θ[i], q[i])
			if i < n-1 {
				dist[i] = (l.Dz + p.Layers[i+1].Dz) / 2
			}
		}

		// The largest rate at which nitrate can leave any layer sets the
		// sub-step.
		var maxRate float64
		for i, l := range p.Layers {
			out := math.Abs(q[i])
			if i > 0 {
				out += math.Abs(q[i-1]) + harmonicMean(disp[i-1], disp[i])/dist[i-1]
			}
			if i < n-1 {
				out += harmonicMean(disp[i], disp[i+1]) / dist[i]
			}
			maxRate = math.Max(maxRate, out/(θ[i]*l.Dz))
		}
		nSub := int(math.Ceil(maxRate))
		if nSub < 1 {
			nSub = 1
		}
		if nSub > maxSubSteps {
			return fmt.Errorf("soilcn: nitrate transport needs %d sub-steps per day; maximum is %d",
				nSub, maxSubSteps)
		}
		t.subSteps = nSub
		Δt := 1 / float64(nSub)

		t.leaching = 0
		for s := 0; s < nSub; s++ {
			for i, l := range p.Layers {
				caq[i] = math.Max(0, l.NO3) / θ[i]
			}
			// flux[i] is the nitrate flux through the bottom of layer i
			// [kg N/m²/d], positive downward.
			for i := 0; i < n-1; i++ {
				flux[i] = advect.UpwindFlux(q[i], caq[i], caq[i+1], 1) -
					harmonicMean(disp[i], disp[i+1])*(caq[i+1]-caq[i])/dist[i]
			}
			flux[n-1] = advect.UpwindFlux(q[n-1], caq[n-1], 0, 1)
			for i, l := range p.Layers {
				d := -flux[i]
				if i > 0 {
					d += flux[i-1]
				}
				l.NO3 = p.nonNegative(l, "NO3", l.NO3+d*Δt/l.Dz)
			}
			t.leaching += flux[n-1] * Δt * m2PerHa
		}
		t.sumLeaching += t.leaching
		return nil
	}
}

// SoilNO3 returns the nitrate of layer i [kg N/m³].
func (t *SoilTransport) SoilNO3(i int) (float64, error) {
	l, err := t.p.layer(i)
	if err != nil {
		return math.NaN(), err
	}
	return l.NO3, nil
}

// NLeaching returns the nitrate that left the bottom of the profile on the
// last day [kg N/ha]. Upward water flux at the bottom carries no nitrate
// into the profile.
func (t *SoilTransport) NLeaching() float64 { return t.leaching }

// SumNLeaching returns the cumulative nitrate leaching [kg N/ha].
func (t *SoilTransport) SumNLeaching() float64 { return t.sumLeaching }

// ResetSums sets the cumulative leaching to zero.
func (t *SoilTransport) ResetSums() { t.sumLeaching = 0 }

// ActualNUptake returns the crop N uptake from layer i on the last day
// [kg N/m²].
func (t *SoilTransport) ActualNUptake(i int) (float64, error) {
	if _, err := t.p.layer(i); err != nil {
		return math.NaN(), err
	}
	return t.uptake[i], nil
}

// UnmetNUptake returns the crop N demand from layer i that could not be
// met on the last day [kg N/m²].
func (t *SoilTransport) UnmetNUptake(i int) (float64, error) {
	if _, err := t.p.layer(i); err != nil {
		return math.NaN(), err
	}
	return t.unmet[i], nil
}

// SubSteps returns the number of transport sub-steps used on the last day.
func (t *SoilTransport) SubSteps() int { return t.subSteps }
