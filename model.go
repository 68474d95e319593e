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

// Package soilcn simulates the carbon and nitrogen dynamics of a layered
// soil profile: decomposition of added and native organic matter,
// microbial turnover, mineral nitrogen transformations, gaseous nitrogen
// losses and the transport of nitrate with percolating water.
package soilcn

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Version gives the version number.
const Version = "0.3.0"

// Weather holds the daily weather that drives the soil organic engine.
type Weather struct {
	Precipitation      float64 // [mm/d]
	MeanAirTemperature float64 // [°C]
	WindSpeed          float64 // [m/s]
}

// Model couples the soil organic and nitrate transport engines operating
// on a shared Profile.
type Model struct {
	*Profile
	Organic   *SoilOrganic
	Transport *SoilTransport

	// RunFuncs are run after both engines at the end of every day.
	RunFuncs []DomainManipulator
}

// NewModel creates the soil profile of column and both engines.
func NewModel(column SoilColumn, site SiteParameters, op *OrganicParameters, tp *TransportParameters, cfg Config) (*Model, error) {
	if err := op.Check(); err != nil {
		return nil, err
	}
	p, err := NewProfile(column, site, op)
	if err != nil {
		return nil, err
	}
	m := &Model{Profile: p}
	if m.Organic, err = NewSoilOrganic(p, op, cfg); err != nil {
		return nil, err
	}
	if m.Transport, err = NewSoilTransport(p, tp); err != nil {
		return nil, err
	}
	return m, nil
}

// Step simulates one day: first the soil organic engine, then nitrate
// transport and finally RunFuncs.
func (m *Model) Step(w Weather) error {
	if err := m.Organic.Step(w.Precipitation, w.MeanAirTemperature, w.WindSpeed); err != nil {
		return err
	}
	if err := m.Transport.Step(); err != nil {
		return err
	}
	for _, f := range m.RunFuncs {
		if err := f(m.Profile); err != nil {
			return err
		}
	}
	return nil
}

// PutCrop attaches c to both engines.
func (m *Model) PutCrop(c Crop) {
	m.Organic.PutCrop(c)
	m.Transport.PutCrop(c)
}

// RemoveCrop detaches the crop from both engines.
func (m *Model) RemoveCrop() {
	m.Organic.RemoveCrop()
	m.Transport.RemoveCrop()
}

// Crop returns the attached crop or nil.
func (m *Model) Crop() Crop { return m.Organic.crop }

// AddOrganicMatter adds organic matter to the soil. See
// SoilOrganic.AddOrganicMatter.
func (m *Model) AddOrganicMatter(params *OrganicMatterParameters, amounts map[int]float64, nConcentration float64) error {
	return m.Organic.AddOrganicMatter(params, amounts, nConcentration)
}

// AddMineralFertiliser adds amount [kg N/ha] of mineral fertiliser to the
// top layer.
func (m *Model) AddMineralFertiliser(params *MineralFertiliserParameters, amount float64) error {
	return m.Organic.AddMineralFertiliser(params, amount)
}

// ApplyTillage mixes the layers above depth [m].
func (m *Model) ApplyTillage(depth float64) error { return m.Organic.ApplyTillage(depth) }

// SetIncorporation marks surface material as incorporated.
func (m *Model) SetIncorporation(incorporated bool) { m.Organic.SetIncorporation(incorporated) }

// AddIrrigationWater records amount [mm] of irrigation on the current day.
func (m *Model) AddIrrigationWater(amount float64) { m.Organic.AddIrrigationWater(amount) }

// AddIrrigationNitrate adds the nitrate carried by irrigation water.
func (m *Model) AddIrrigationNitrate(amount, concentration float64) {
	m.Organic.AddIrrigationNitrate(amount, concentration)
}

// TotalC returns the organic carbon of the profile [kg C/ha].
func (p *Profile) TotalC() float64 {
	var s float64
	for _, l := range p.Layers {
		s += l.SoilOrganicC() * l.Dz
	}
	return s * m2PerHa
}

// TotalN returns the organic and mineral nitrogen of the profile
// [kg N/ha].
func (p *Profile) TotalN() float64 {
	var s float64
	for _, l := range p.Layers {
		s += (l.OrganicN() + l.MineralN()) * l.Dz
	}
	return s * m2PerHa
}

// Log writes daily status messages to w.
func Log(w io.Writer) DomainManipulator {
	startTime := time.Now()
	stepTime := time.Now()
	return func(p *Profile) error {
		fmt.Fprintf(w, "Day %-5d  walltime=%6.3gh  Δwalltime=%4.2gs  "+
			"organicC=%.5g kgC/ha  N=%.5g kgN/ha\n",
			p.Day, time.Since(startTime).Hours(),
			time.Since(stepTime).Seconds(), p.TotalC(), p.TotalN())
		stepTime = time.Now()
		return nil
	}
}

// EquilibriumCheck returns a function that sets the Done flag of the
// profile once the organic carbon changes by less than the fraction
// tolerance per period [d]. If maxDays > 0, Done is also set after that
// many days.
func EquilibriumCheck(tolerance float64, period, maxDays int) DomainManipulator {
	oldSum := math.NaN()
	days := 0
	return func(p *Profile) error {
		days++
		if maxDays > 0 && days >= maxDays {
			p.Done = true
			return nil
		}
		if period <= 0 || days%period != 0 {
			return nil
		}
		sum := p.TotalC()
		if !math.IsNaN(oldSum) {
			change := math.Abs(sum-oldSum) / oldSum
			if sum == oldSum {
				change = 0
			}
			p.Log.WithFields(logrus.Fields{
				"day":    p.Day,
				"change": change,
			}).Info("soilcn: organic carbon change since last check")
			if change <= tolerance {
				p.Done = true
			}
		}
		oldSum = sum
		return nil
	}
}
