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


// Package management holds the field management operations that change
// the state of a soil profile during a simulation: sowing and harvest,
// fertiliser applications, tillage and irrigation.
package management

import (
	"fmt"
	"sort"
	"time"

	"github.com/spatialmodel/soilcn"
)

// Target is the soil model that worksteps act on. *soilcn.Model
// implements it.
type Target interface {
	Crop() soilcn.Crop
	PutCrop(soilcn.Crop)
	RemoveCrop()
	AddOrganicMatter(params *soilcn.OrganicMatterParameters, amounts map[int]float64, nConcentration float64) error
	AddMineralFertiliser(params *soilcn.MineralFertiliserParameters, amount float64) error
	ApplyTillage(depth float64) error
	SetIncorporation(incorporated bool)
	AddIrrigationWater(amount float64)
	AddIrrigationNitrate(amount, concentration float64)
}

// Workstep is a management operation carried out on a date. The set of
// worksteps is closed: it is implemented by Seed, Harvest,
// MineralFertiliserApplication, OrganicFertiliserApplication,
// TillageApplication and IrrigationApplication.
type Workstep interface {
	date() time.Time
}

// Seed sows a crop.
type Seed struct {
	Date time.Time
	Crop soilcn.Crop
}

// Harvest removes the current crop. Unless the residues are exported,
// Residues [kg FM/ha] of crop material are left on the soil surface.
type Harvest struct {
	Date     time.Time
	Residues float64
	Exported bool
}

// MineralFertiliserApplication applies Amount [kg N/ha] of mineral
// fertiliser to the soil surface.
type MineralFertiliserApplication struct {
	Date       time.Time
	Fertiliser *soilcn.MineralFertiliserParameters
	Amount     float64
}

// OrganicFertiliserApplication applies Amount [kg FM/ha] of organic
// fertiliser to the soil surface, optionally incorporating it.
type OrganicFertiliserApplication struct {
	Date          time.Time
	Fertiliser    *soilcn.OrganicMatterParameters
	Amount        float64
	Incorporation bool

	// NConcentration [kg N/kg DM] overrides the nitrogen content of the
	// fertiliser if > 0.
	NConcentration float64
}

// TillageApplication mixes the soil down to Depth [m].
type TillageApplication struct {
	Date  time.Time
	Depth float64
}

// IrrigationApplication applies Amount [mm] of water carrying
// NitrateConcentration [mg N/L].
type IrrigationApplication struct {
	Date                 time.Time
	Amount               float64
	NitrateConcentration float64
}

func (w Seed) date() time.Time                         { return w.Date }
func (w Harvest) date() time.Time                      { return w.Date }
func (w MineralFertiliserApplication) date() time.Time { return w.Date }
func (w OrganicFertiliserApplication) date() time.Time { return w.Date }
func (w TillageApplication) date() time.Time           { return w.Date }
func (w IrrigationApplication) date() time.Time        { return w.Date }

// Date returns the date on which ws is carried out.
func Date(ws Workstep) time.Time { return ws.date() }

// Apply carries out ws on t.
func Apply(t Target, ws Workstep) error {
	switch w := ws.(type) {
	case Seed:
		if w.Crop == nil {
			return fmt.Errorf("management: seed on %s has no crop", day(w.Date))
		}
		t.PutCrop(w.Crop)
	case Harvest:
		c := t.Crop()
		if c == nil {
			return fmt.Errorf("management: harvest on %s but there is no crop", day(w.Date))
		}
		t.RemoveCrop()
		if w.Exported || w.Residues <= 0 {
			return nil
		}
		params := c.ResidueParameters()
		if params == nil {
			return fmt.Errorf("management: harvest on %s: crop has no residue parameters", day(w.Date))
		}
		return t.AddOrganicMatter(params, map[int]float64{0: w.Residues}, 0)
	case MineralFertiliserApplication:
		if w.Fertiliser == nil {
			return fmt.Errorf("management: mineral fertiliser application on %s has no fertiliser", day(w.Date))
		}
		return t.AddMineralFertiliser(w.Fertiliser, w.Amount)
	case OrganicFertiliserApplication:
		if w.Fertiliser == nil {
			return fmt.Errorf("management: organic fertiliser application on %s has no fertiliser", day(w.Date))
		}
		if err := t.AddOrganicMatter(w.Fertiliser, map[int]float64{0: w.Amount}, w.NConcentration); err != nil {
			return err
		}
		if w.Incorporation {
			t.SetIncorporation(true)
		}
	case TillageApplication:
		return t.ApplyTillage(w.Depth)
	case IrrigationApplication:
		t.AddIrrigationWater(w.Amount)
		t.AddIrrigationNitrate(w.Amount, w.NitrateConcentration)
	default:
		return fmt.Errorf("management: unsupported workstep type %T", ws)
	}
	return nil
}

func day(t time.Time) string { return t.Format("2006-01-02") }

// Schedule is a list of worksteps sorted by date.
type Schedule []Workstep

// NewSchedule returns the worksteps sorted by date. Worksteps on the same
// date keep their order.
func NewSchedule(ws ...Workstep) Schedule {
	s := make(Schedule, len(ws))
	copy(s, ws)
	sort.SliceStable(s, func(i, j int) bool { return s[i].date().Before(s[j].date()) })
	return s
}

// Due returns the worksteps that fall on the calendar day of d.
func (s Schedule) Due(d time.Time) []Workstep {
	var o []Workstep
	for _, w := range s {
		if sameDay(w.date(), d) {
			o = append(o, w)
		}
	}
	return o
}

// Apply carries out the worksteps due on d in order.
func (s Schedule) Apply(t Target, d time.Time) error {
	for _, w := range s.Due(d) {
		if err := Apply(t, w); err != nil {
			return err
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return ya == yb && ma == mb && da == db
}
