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


package management

import (
	"fmt"
	"strings"

	"github.com/spatialmodel/soilcn"
	"github.com/spf13/cast"
)

// Library looks up named fertilisers and crops.
type Library interface {
	OrganicFertiliser(name string) (*soilcn.OrganicMatterParameters, error)
	MineralFertiliser(name string) (*soilcn.MineralFertiliserParameters, error)
	Crop(name string) (soilcn.Crop, error)
}

// Parse creates a workstep from a configuration table. The "type" entry
// selects the workstep and "date" gives its date; the remaining entries
// depend on the type:
//
//	seed:              crop
//	harvest:           residues [kg FM/ha], exported
//	mineralfertiliser: fertiliser, amount [kg N/ha]
//	organicfertiliser: fertiliser, amount [kg FM/ha], incorporation, nconcentration
//	tillage:           depth [m]
//	irrigation:        amount [mm], nitrate [mg N/L]
//
// Keys are not case sensitive.
func Parse(table map[string]interface{}, lib Library) (Workstep, error) {
	t := make(map[string]interface{}, len(table))
	for k, v := range table {
		t[strings.ToLower(k)] = v
	}
	typ, err := cast.ToStringE(t["type"])
	if err != nil || typ == "" {
		return nil, fmt.Errorf("management: workstep %v has no type", table)
	}
	typ = strings.ToLower(typ)
	if t["date"] == nil {
		return nil, fmt.Errorf("management: %s workstep has no date", typ)
	}
	date, err := cast.ToTimeE(t["date"])
	if err != nil {
		return nil, fmt.Errorf("management: %s workstep date: %v", typ, err)
	}
	p := parser{table: t, typ: typ}

	var ws Workstep
	switch typ {
	case "seed":
		name := p.str("crop")
		if p.err != nil {
			return nil, p.err
		}
		c, err := lib.Crop(name)
		if err != nil {
			return nil, fmt.Errorf("management: seed on %s: %v", day(date), err)
		}
		ws = Seed{Date: date, Crop: c}
	case "harvest":
		ws = Harvest{Date: date, Residues: p.float("residues"), Exported: p.flag("exported")}
	case "mineralfertiliser":
		name := p.str("fertiliser")
		amount := p.float("amount")
		if p.err != nil {
			return nil, p.err
		}
		f, err := lib.MineralFertiliser(name)
		if err != nil {
			return nil, fmt.Errorf("management: mineral fertiliser application on %s: %v", day(date), err)
		}
		ws = MineralFertiliserApplication{Date: date, Fertiliser: f, Amount: amount}
	case "organicfertiliser":
		name := p.str("fertiliser")
		w := OrganicFertiliserApplication{
			Date:           date,
			Amount:         p.float("amount"),
			Incorporation:  p.flag("incorporation"),
			NConcentration: p.float("nconcentration"),
		}
		if p.err != nil {
			return nil, p.err
		}
		if w.Fertiliser, err = lib.OrganicFertiliser(name); err != nil {
			return nil, fmt.Errorf("management: organic fertiliser application on %s: %v", day(date), err)
		}
		ws = w
	case "tillage":
		ws = TillageApplication{Date: date, Depth: p.float("depth")}
	case "irrigation":
		ws = IrrigationApplication{Date: date, Amount: p.float("amount"), NitrateConcentration: p.float("nitrate")}
	default:
		return nil, fmt.Errorf("management: invalid workstep type %q; options are seed, harvest, "+
			"mineralfertiliser, organicfertiliser, tillage and irrigation", typ)
	}
	if p.err != nil {
		return nil, p.err
	}
	return ws, nil
}

// ParseAll parses a list of configuration tables into a Schedule.
func ParseAll(tables interface{}, lib Library) (Schedule, error) {
	var list []interface{}
	switch v := tables.(type) {
	case nil:
		return nil, nil
	case []map[string]interface{}:
		for _, t := range v {
			list = append(list, t)
		}
	default:
		var err error
		if list, err = cast.ToSliceE(tables); err != nil {
			return nil, fmt.Errorf("management: worksteps: %v", err)
		}
	}
	ws := make([]Workstep, len(list))
	for i, item := range list {
		t, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, fmt.Errorf("management: workstep %d: %v", i, err)
		}
		if ws[i], err = Parse(t, lib); err != nil {
			return nil, err
		}
	}
	return NewSchedule(ws...), nil
}

// parser reads typed entries from a workstep table, keeping the first
// error.
type parser struct {
	table map[string]interface{}
	typ   string
	err   error
}

func (p *parser) setErr(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("management: %s workstep %s: %v", p.typ, key, err)
	}
}

func (p *parser) str(key string) string {
	v, err := cast.ToStringE(p.table[key])
	if err == nil && v == "" {
		err = fmt.Errorf("missing")
	}
	if err != nil {
		p.setErr(key, err)
	}
	return v
}

// float returns 0 for missing entries.
func (p *parser) float(key string) float64 {
	if p.table[key] == nil {
		return 0
	}
	v, err := cast.ToFloat64E(p.table[key])
	if err != nil {
		p.setErr(key, err)
	}
	return v
}

func (p *parser) flag(key string) bool {
	if p.table[key] == nil {
		return false
	}
	v, err := cast.ToBoolE(p.table[key])
	if err != nil {
		p.setErr(key, err)
	}
	return v
}
