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


package soilcnutil

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/soilcn"
)

// Library holds named fertilisers and crops. In TOML form each entry is a
// table such as [OrganicFertiliser.cattle_slurry], [MineralFertiliser.urea]
// or [Crop.winter_wheat]. Library implements management.Library.
type Library struct {
	OrganicFertilisers map[string]*soilcn.OrganicMatterParameters     `toml:"OrganicFertiliser"`
	MineralFertilisers map[string]*soilcn.MineralFertiliserParameters `toml:"MineralFertiliser"`
	Crops              map[string]*CropParameters                     `toml:"Crop"`

	// thickness of the soil layers the crops grow in [m]
	thickness []float64
}

const defaultLibrary = `
[MineralFertiliser.urea]
Name = "urea"
Carbamid = 1.0

[MineralFertiliser.ammonium_nitrate]
Name = "ammonium nitrate"
NH4 = 0.5
NO3 = 0.5

[MineralFertiliser.calcium_nitrate]
Name = "calcium nitrate"
NO3 = 1.0

[OrganicFertiliser.cattle_slurry]
Name = "cattle slurry"
AOM_DryMatterContent = 0.08
AOM_NH4Content = 0.05
AOM_CarbamidContent = 0.01
AOM_SlowDecCoeffStandard = 0.0004
AOM_FastDecCoeffStandard = 0.08
PartAOM_to_AOM_Slow = 0.72
PartAOM_to_AOM_Fast = 0.28
CN_Ratio_AOM_Slow = 10.0
CN_Ratio_AOM_Fast = 5.0
PartAOM_Slow_to_SMB_Slow = 0.0
PartAOM_Slow_to_SMB_Fast = 1.0

[OrganicFertiliser.cattle_manure]
Name = "cattle manure"
AOM_DryMatterContent = 0.22
AOM_NH4Content = 0.01
AOM_SlowDecCoeffStandard = 0.002
AOM_FastDecCoeffStandard = 0.1
PartAOM_to_AOM_Slow = 0.8
PartAOM_to_AOM_Fast = 0.2
CN_Ratio_AOM_Slow = 15.0
CN_Ratio_AOM_Fast = 8.0
PartAOM_Slow_to_SMB_Slow = 0.5
PartAOM_Slow_to_SMB_Fast = 0.5

[OrganicFertiliser.wheat_straw]
Name = "wheat straw"
AOM_DryMatterContent = 0.86
AOM_SlowDecCoeffStandard = 0.012
AOM_FastDecCoeffStandard = 0.05
PartAOM_to_AOM_Slow = 0.67
PartAOM_to_AOM_Fast = 0.33
CN_Ratio_AOM_Slow = 100.0
PartAOM_Slow_to_SMB_Slow = 0.5
PartAOM_Slow_to_SMB_Fast = 0.5
NConcentration = 0.005

[OrganicFertiliser.maize_residue]
Name = "maize residue"
AOM_DryMatterContent = 0.8
AOM_SlowDecCoeffStandard = 0.012
AOM_FastDecCoeffStandard = 0.05
PartAOM_to_AOM_Slow = 0.6
PartAOM_to_AOM_Fast = 0.4
CN_Ratio_AOM_Slow = 80.0
PartAOM_Slow_to_SMB_Slow = 0.5
PartAOM_Slow_to_SMB_Fast = 0.5
NConcentration = 0.008

[Crop.winter_wheat]
Name = "winter wheat"
SeasonLength = 280
PeakNPP = 45.0
NDemand = 180.0
RootDepth = 1.2
RootTurnover = 0.1
Residue = "wheat_straw"

[Crop.maize]
Name = "maize"
SeasonLength = 150
PeakNPP = 70.0
NDemand = 200.0
RootDepth = 1.0
RootTurnover = 0.1
Residue = "maize_residue"
`

// DefaultLibrary returns a library with common fertilisers and crops.
// The crops grow in soil layers with the given thicknesses [m].
func DefaultLibrary(thickness []float64) *Library {
	l := &Library{thickness: thickness}
	if err := l.Load(strings.NewReader(defaultLibrary)); err != nil {
		panic(err)
	}
	return l
}

// Load adds the entries in the TOML document r to the library, replacing
// entries with the same key.
func (l *Library) Load(r io.Reader) error {
	if _, err := toml.DecodeReader(r, l); err != nil {
		return fmt.Errorf("soilcnutil: reading library: %v", err)
	}
	for k, v := range l.OrganicFertilisers {
		if err := v.Check(); err != nil {
			return fmt.Errorf("soilcnutil: library entry %s: %v", k, err)
		}
	}
	for k, v := range l.MineralFertilisers {
		if err := v.Check(); err != nil {
			return fmt.Errorf("soilcnutil: library entry %s: %v", k, err)
		}
	}
	for k, v := range l.Crops {
		if err := v.check(); err != nil {
			return fmt.Errorf("soilcnutil: library entry %s: %v", k, err)
		}
		if _, ok := l.OrganicFertilisers[v.Residue]; !ok {
			return fmt.Errorf("soilcnutil: library entry %s: residue %q is not an organic fertiliser", k, v.Residue)
		}
	}
	return nil
}

// LoadFile adds the entries of the TOML file at path to the library.
func (l *Library) LoadFile(path string) error {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return fmt.Errorf("soilcnutil: opening library: %v", err)
	}
	defer f.Close()
	return l.Load(f)
}

func notFound(kind, name string, keys []string) error {
	sort.Strings(keys)
	return fmt.Errorf("soilcnutil: there is no %s named %q; options are %s", kind, name, strings.Join(keys, ", "))
}

// OrganicFertiliser returns the organic fertiliser with the given key.
func (l *Library) OrganicFertiliser(name string) (*soilcn.OrganicMatterParameters, error) {
	if p, ok := l.OrganicFertilisers[name]; ok {
		return p, nil
	}
	var keys []string
	for k := range l.OrganicFertilisers {
		keys = append(keys, k)
	}
	return nil, notFound("organic fertiliser", name, keys)
}

// MineralFertiliser returns the mineral fertiliser with the given key.
func (l *Library) MineralFertiliser(name string) (*soilcn.MineralFertiliserParameters, error) {
	if p, ok := l.MineralFertilisers[name]; ok {
		return p, nil
	}
	var keys []string
	for k := range l.MineralFertilisers {
		keys = append(keys, k)
	}
	return nil, notFound("mineral fertiliser", name, keys)
}

// Crop returns a newly sown crop of the type with the given key.
func (l *Library) Crop(name string) (soilcn.Crop, error) {
	p, ok := l.Crops[name]
	if !ok {
		var keys []string
		for k := range l.Crops {
			keys = append(keys, k)
		}
		return nil, notFound("crop", name, keys)
	}
	residue, err := l.OrganicFertiliser(p.Residue)
	if err != nil {
		return nil, err
	}
	c, err := NewPrescribedCrop(p, residue, l.thickness)
	if err != nil {
		return nil, err
	}
	return c, nil
}
