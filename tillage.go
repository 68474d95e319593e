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

	"gonum.org/v1/gonum/floats"
)

// deadRoots returns a function that adds the roots of the attached crop
// that died during the day to the soil, distributed among the layers in
// proportion to root density.
func (o *SoilOrganic) deadRoots() DomainManipulator {
	return func(p *Profile) error {
		if o.crop == nil {
			return nil
		}
		dead := o.crop.DeadRootBiomass() // kg DM/ha
		if dead <= 0 {
			return nil
		}
		params := o.crop.ResidueParameters()
		if params == nil {
			return fmt.Errorf("soilcn: crop has dead roots but no residue parameters")
		}
		if err := params.Check(); err != nil {
			return err
		}
		w := make([]float64, len(p.Layers))
		for i, l := range p.Layers {
			w[i] = math.Max(0, o.crop.RootDensity(i)) * l.Dz
		}
		total := floats.Sum(w)
		if total <= 0 {
			return nil
		}
		fm := dead / params.AOMDryMatterContent
		for i, l := range p.Layers {
			o.addToLayer(l, params, fm*w[i]/total, 0)
		}
		return nil
	}
}

// mixed are the pools that are homogenised by tillage. Inert organic
// matter stays where it was initialised.
var mixed = []func(l *Layer) *float64{
	func(l *Layer) *float64 { return &l.SMBSlow },
	func(l *Layer) *float64 { return &l.SMBFast },
	func(l *Layer) *float64 { return &l.SOMSlow },
	func(l *Layer) *float64 { return &l.SOMFast },
	func(l *Layer) *float64 { return &l.NH4 },
	func(l *Layer) *float64 { return &l.NO2 },
	func(l *Layer) *float64 { return &l.NO3 },
	func(l *Layer) *float64 { return &l.Carbamide },
}

// ApplyTillage homogenises the organic matter and mineral nitrogen of the
// layers whose top lies above depth [m]. The top layer is always mixed.
// Surface material is incorporated by tillage.
func (o *SoilOrganic) ApplyTillage(depth float64) error {
	if depth < 0 || math.IsNaN(depth) {
		return fmt.Errorf("soilcn: tillage depth=%g but should be >=0", depth)
	}
	var layers []*Layer
	for _, l := range o.p.Layers {
		if len(layers) > 0 && l.Depth-l.Dz >= depth {
			break
		}
		layers = append(layers, l)
	}
	o.incorporation = true
	if len(layers) < 2 {
		return nil
	}
	dz := make([]float64, len(layers))
	for i, l := range layers {
		dz[i] = l.Dz
	}
	total := floats.Sum(dz)
	v := make([]float64, len(layers))
	for _, f := range mixed {
		for i, l := range layers {
			v[i] = *f(l)
		}
		mean := floats.Dot(v, dz) / total
		for _, l := range layers {
			*f(l) = mean
		}
	}

	// Cohorts with the same source are merged into one cohort per layer.
	var order []string
	merged := make(map[string]*AOMPool)
	for _, l := range layers {
		for _, a := range l.AOM {
			m, ok := merged[a.Source]
			if !ok {
				m = a.copy()
				m.Slow, m.Fast = 0, 0
				merged[a.Source] = m
				order = append(order, a.Source)
			}
			m.Slow += a.Slow * l.Dz / total
			m.Fast += a.Fast * l.Dz / total
		}
	}
	for _, l := range layers {
		l.AOM = make([]*AOMPool, 0, len(order))
		for _, key := range order {
			l.AOM = append(l.AOM, merged[key].copy())
		}
	}
	return nil
}
