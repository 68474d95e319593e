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
	"testing"
	"time"

	"github.com/spatialmodel/soilcn"
)

type crop struct{ name string }

func (c *crop) NetPrimaryProduction() float64 { return 0 }
func (c *crop) NUptakeFromLayer(int) float64  { return 0 }
func (c *crop) RootDensity(int) float64       { return 0 }
func (c *crop) DeadRootBiomass() float64      { return 0 }
func (c *crop) ResidueParameters() *soilcn.OrganicMatterParameters {
	return &soilcn.OrganicMatterParameters{
		Name:                    c.name + " residue",
		AOMDryMatterContent:     0.86,
		AOMSlowDecCoeffStandard: 0.012,
		AOMFastDecCoeffStandard: 0.05,
		PartAOMToAOMSlow:        0.67,
		PartAOMToAOMFast:        0.33,
		CNRatioAOMSlow:          100,
		PartAOMSlowToSMBSlow:    0.5,
		PartAOMSlowToSMBFast:    0.5,
		NConcentration:          0.005,
	}
}

type library struct{}

func (library) OrganicFertiliser(name string) (*soilcn.OrganicMatterParameters, error) {
	if name != "slurry" {
		return nil, fmt.Errorf("unknown organic fertiliser %q", name)
	}
	return &soilcn.OrganicMatterParameters{
		Name:                    "slurry",
		AOMDryMatterContent:     0.08,
		AOMNH4Content:           0.05,
		AOMSlowDecCoeffStandard: 0.0004,
		AOMFastDecCoeffStandard: 0.08,
		PartAOMToAOMSlow:        0.72,
		PartAOMToAOMFast:        0.28,
		CNRatioAOMSlow:          10,
		CNRatioAOMFast:          5,
		PartAOMSlowToSMBFast:    1,
	}, nil
}

func (library) MineralFertiliser(name string) (*soilcn.MineralFertiliserParameters, error) {
	if name != "urea" {
		return nil, fmt.Errorf("unknown mineral fertiliser %q", name)
	}
	return &soilcn.MineralFertiliserParameters{Name: "urea", Carbamid: 1}, nil
}

func (library) Crop(name string) (soilcn.Crop, error) {
	if name != "wheat" {
		return nil, fmt.Errorf("unknown crop %q", name)
	}
	return &crop{name: name}, nil
}

// recorder is a Target that records the calls made to it.
type recorder struct {
	crop  soilcn.Crop
	calls []string
}

func (r *recorder) Crop() soilcn.Crop     { return r.crop }
func (r *recorder) PutCrop(c soilcn.Crop) { r.crop = c; r.calls = append(r.calls, "PutCrop") }
func (r *recorder) RemoveCrop()           { r.crop = nil; r.calls = append(r.calls, "RemoveCrop") }
func (r *recorder) AddOrganicMatter(p *soilcn.OrganicMatterParameters, a map[int]float64, n float64) error {
	r.calls = append(r.calls, fmt.Sprintf("AddOrganicMatter(%s, %g, %g)", p.Name, a[0], n))
	return nil
}
func (r *recorder) AddMineralFertiliser(p *soilcn.MineralFertiliserParameters, a float64) error {
	r.calls = append(r.calls, fmt.Sprintf("AddMineralFertiliser(%s, %g)", p.Name, a))
	return nil
}
func (r *recorder) ApplyTillage(d float64) error {
	r.calls = append(r.calls, fmt.Sprintf("ApplyTillage(%g)", d))
	return nil
}
func (r *recorder) SetIncorporation(b bool) {
	r.calls = append(r.calls, fmt.Sprintf("SetIncorporation(%v)", b))
}
func (r *recorder) AddIrrigationWater(a float64) {
	r.calls = append(r.calls, fmt.Sprintf("AddIrrigationWater(%g)", a))
}
func (r *recorder) AddIrrigationNitrate(a, c float64) {
	r.calls = append(r.calls, fmt.Sprintf("AddIrrigationNitrate(%g, %g)", a, c))
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		table map[string]interface{}
		want  Workstep
	}{
		{
			name:  "tillage",
			table: map[string]interface{}{"type": "Tillage", "date": "2019-09-01", "depth": 0.3},
			want:  TillageApplication{Date: date("2019-09-01"), Depth: 0.3},
		},
		{
			name:  "irrigation",
			table: map[string]interface{}{"Type": "irrigation", "Date": "2019-07-01", "Amount": "20", "Nitrate": 5},
			want:  IrrigationApplication{Date: date("2019-07-01"), Amount: 20, NitrateConcentration: 5},
		},
		{
			name:  "harvest",
			table: map[string]interface{}{"type": "harvest", "date": date("2019-08-01"), "residues": 4000, "exported": "false"},
			want:  Harvest{Date: date("2019-08-01"), Residues: 4000},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ws, err := Parse(test.table, library{})
			if err != nil {
				t.Fatal(err)
			}
			if ws != test.want {
				t.Errorf("have %#v, want %#v", ws, test.want)
			}
		})
	}

	t.Run("library", func(t *testing.T) {
		ws, err := Parse(map[string]interface{}{"type": "seed", "date": "2019-04-01", "crop": "wheat"}, library{})
		if err != nil {
			t.Fatal(err)
		}
		if s, ok := ws.(Seed); !ok || s.Crop.(*crop).name != "wheat" {
			t.Errorf("wrong workstep %#v", ws)
		}
		ws, err = Parse(map[string]interface{}{"type": "organicfertiliser", "date": "2019-04-01",
			"fertiliser": "slurry", "amount": 30000, "incorporation": true}, library{})
		if err != nil {
			t.Fatal(err)
		}
		o := ws.(OrganicFertiliserApplication)
		if o.Fertiliser.Name != "slurry" || o.Amount != 30000 || !o.Incorporation {
			t.Errorf("wrong workstep %#v", o)
		}
	})

	t.Run("errors", func(t *testing.T) {
		for name, table := range map[string]map[string]interface{}{
			"no type":        {"date": "2019-01-01"},
			"bad type":       {"type": "plough", "date": "2019-01-01"},
			"no date":        {"type": "tillage"},
			"bad date":       {"type": "tillage", "date": "yesterday"},
			"bad amount":     {"type": "irrigation", "date": "2019-01-01", "amount": "lots"},
			"no fertiliser":  {"type": "mineralfertiliser", "date": "2019-01-01", "amount": 10},
			"bad fertiliser": {"type": "mineralfertiliser", "date": "2019-01-01", "fertiliser": "lime"},
			"bad crop":       {"type": "seed", "date": "2019-01-01", "crop": "rice"},
		} {
			if _, err := Parse(table, library{}); err == nil {
				t.Errorf("%s: should fail", name)
			} else if !strings.HasPrefix(err.Error(), "management: ") {
				t.Errorf("%s: error %q should name the package", name, err)
			}
		}
	})
}

func TestParseAll(t *testing.T) {
	tables := []map[string]interface{}{
		{"type": "tillage", "date": "2019-09-01", "depth": 0.3},
		{"type": "mineralfertiliser", "date": "2019-04-01", "fertiliser": "urea", "amount": 60},
		{"type": "seed", "date": "2019-04-01", "crop": "wheat"},
	}
	s, err := ParseAll(tables, library{})
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 3 {
		t.Fatalf("have %d worksteps, want 3", len(s))
	}
	if _, ok := s[0].(MineralFertiliserApplication); !ok {
		t.Errorf("worksteps on the same day should keep their order: %#v", s[0])
	}
	if _, ok := s[2].(TillageApplication); !ok {
		t.Errorf("worksteps should be sorted by date: %#v", s[2])
	}

	var generic []interface{}
	for _, tb := range tables {
		generic = append(generic, tb)
	}
	if s, err = ParseAll(generic, library{}); err != nil || len(s) != 3 {
		t.Errorf("generic list: %v, %d worksteps", err, len(s))
	}
	if s, err = ParseAll(nil, library{}); err != nil || len(s) != 0 {
		t.Errorf("no worksteps: %v, %d worksteps", err, len(s))
	}
	if _, err = ParseAll("tillage", library{}); err == nil {
		t.Error("a string is not a list of worksteps")
	}
}

func TestApply(t *testing.T) {
	wheat := &crop{name: "wheat"}
	urea, _ := library{}.MineralFertiliser("urea")
	slurry, _ := library{}.OrganicFertiliser("slurry")
	s := NewSchedule(
		Harvest{Date: date("2019-08-01"), Residues: 4000},
		Seed{Date: date("2019-04-01"), Crop: wheat},
		MineralFertiliserApplication{Date: date("2019-04-01"), Fertiliser: urea, Amount: 60},
		OrganicFertiliserApplication{Date: date("2019-05-01"), Fertiliser: slurry, Amount: 30000, Incorporation: true},
		IrrigationApplication{Date: date("2019-07-01"), Amount: 20, NitrateConcentration: 5},
		TillageApplication{Date: date("2019-09-01"), Depth: 0.3},
	)
	r := new(recorder)
	for d := date("2019-01-01"); d.Year() == 2019; d = d.AddDate(0, 0, 1) {
		if err := s.Apply(r, d); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{
		"PutCrop",
		"AddMineralFertiliser(urea, 60)",
		"AddOrganicMatter(slurry, 30000, 0)",
		"SetIncorporation(true)",
		"AddIrrigationWater(20)",
		"AddIrrigationNitrate(20, 5)",
		"RemoveCrop",
		"AddOrganicMatter(wheat residue, 4000, 0)",
		"ApplyTillage(0.3)",
	}
	if strings.Join(r.calls, "\n") != strings.Join(want, "\n") {
		t.Errorf("have calls\n%s\nwant\n%s", strings.Join(r.calls, "\n"), strings.Join(want, "\n"))
	}

	t.Run("errors", func(t *testing.T) {
		for _, ws := range []Workstep{
			Harvest{Date: date("2019-08-01")},
			Seed{Date: date("2019-04-01")},
			MineralFertiliserApplication{Date: date("2019-04-01")},
			OrganicFertiliserApplication{Date: date("2019-04-01")},
		} {
			if err := Apply(new(recorder), ws); err == nil {
				t.Errorf("%T: should fail", ws)
			}
		}
	})
	t.Run("exported", func(t *testing.T) {
		r := &recorder{crop: wheat}
		if err := Apply(r, Harvest{Date: date("2019-08-01"), Residues: 4000, Exported: true}); err != nil {
			t.Fatal(err)
		}
		if len(r.calls) != 1 {
			t.Errorf("exported residues should not be returned: %v", r.calls)
		}
	})
}

func TestModelTarget(t *testing.T) {
	c := soilcn.NewFixedColumn(4, 0.1)
	site := soilcn.SiteParameters{SoilOrganicCarbon: []float64{0.012, 0.01, 0.008, 0.005}, SoilCNRatio: 10}
	m, err := soilcn.NewModel(c, site, soilcn.DefaultOrganicParameters(),
		soilcn.DefaultTransportParameters(), soilcn.Config{})
	if err != nil {
		t.Fatal(err)
	}
	c0 := m.TotalC()
	if err := Apply(m, Seed{Date: date("2019-04-01"), Crop: &crop{name: "wheat"}}); err != nil {
		t.Fatal(err)
	}
	if err := Apply(m, Harvest{Date: date("2019-08-01"), Residues: 1000}); err != nil {
		t.Fatal(err)
	}
	if m.Crop() != nil {
		t.Error("crop should be removed")
	}
	want := 1000 * 0.86 * 0.45 // kg C/ha
	if added := m.TotalC() - c0; added < want*0.999 || added > want*1.001 {
		t.Errorf("residue carbon: have %g, want %g", added, want)
	}
}
