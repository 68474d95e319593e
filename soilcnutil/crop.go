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
	"math"

	"github.com/spatialmodel/soilcn"
	"gonum.org/v1/gonum/floats"
)

// CropParameters describe a crop whose growth follows a fixed seasonal
// course.
type CropParameters struct {
	Name string

	// SeasonLength is the number of days from sowing to maturity.
	SeasonLength int

	// PeakNPP is the net primary production at mid-season [kg C/ha/d].
	PeakNPP float64

	// NDemand is the nitrogen taken up over the season [kg N/ha].
	NDemand float64

	// RootDepth is the maximum rooting depth [m], reached at mid-season.
	RootDepth float64

	// RootTurnover is the fraction of daily production that enters the
	// soil as dead roots.
	RootTurnover float64

	// Residue names the organic fertiliser in the library that
	// describes the crop's residues.
	Residue string
}

func (p *CropParameters) check() error {
	if p.SeasonLength < 1 {
		return fmt.Errorf("soilcnutil: crop %s: SeasonLength=%d but should be >=1", p.Name, p.SeasonLength)
	}
	if p.PeakNPP < 0 || p.NDemand < 0 {
		return fmt.Errorf("soilcnutil: crop %s: PeakNPP and NDemand should be >=0", p.Name)
	}
	if !(p.RootDepth > 0) {
		return fmt.Errorf("soilcnutil: crop %s: RootDepth=%g but should be >0", p.Name, p.RootDepth)
	}
	if p.RootTurnover < 0 || p.RootTurnover > 1 {
		return fmt.Errorf("soilcnutil: crop %s: RootTurnover=%g but should be in [0,1]", p.Name, p.RootTurnover)
	}
	return nil
}

// PrescribedCrop is a soilcn.Crop whose production, nitrogen demand and
// rooting follow a sine-shaped seasonal course. Advance moves it on by
// one day.
type PrescribedCrop struct {
	params  *CropParameters
	residue *soilcn.OrganicMatterParameters

	// depth of the centre and thickness of each soil layer [m]
	centre, dz []float64
	age        int
}

// carbonFraction is the carbon content of root dry matter [kg C/kg DM].
const carbonFraction = 0.45

// NewPrescribedCrop returns a crop on the day of sowing in a soil with the
// given layer thicknesses [m].
func NewPrescribedCrop(p *CropParameters, residue *soilcn.OrganicMatterParameters, thickness []float64) (*PrescribedCrop, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	if residue == nil {
		return nil, fmt.Errorf("soilcnutil: crop %s has no residue parameters", p.Name)
	}
	c := &PrescribedCrop{
		params:  p,
		residue: residue,
		centre:  make([]float64, len(thickness)),
		dz:      append([]float64(nil), thickness...),
	}
	var top float64
	for i, dz := range thickness {
		c.centre[i] = top + dz/2
		top += dz
	}
	return c, nil
}

// Advance moves the crop on by one day.
func (c *PrescribedCrop) Advance() { c.age++ }

// Age returns the number of days since sowing.
func (c *PrescribedCrop) Age() int { return c.age }

// Name returns the name of the crop.
func (c *PrescribedCrop) Name() string { return c.params.Name }

// season returns the progress of the season in [0, 1], or a negative
// value after maturity.
func (c *PrescribedCrop) season() float64 {
	if c.age > c.params.SeasonLength {
		return -1
	}
	return float64(c.age) / float64(c.params.SeasonLength)
}

// NetPrimaryProduction implements soilcn.Crop.
func (c *PrescribedCrop) NetPrimaryProduction() float64 {
	s := c.season()
	if s < 0 {
		return 0
	}
	return c.params.PeakNPP * math.Sin(math.Pi*s)
}

// rootDepth returns the current rooting depth [m].
func (c *PrescribedCrop) rootDepth() float64 {
	s := c.season()
	if s < 0 {
		s = 1
	}
	return c.params.RootDepth * math.Min(1, 0.1+1.8*s)
}

// RootDensity implements soilcn.Crop. Root density decreases
// exponentially with depth down to the rooting depth.
func (c *PrescribedCrop) RootDensity(i int) float64 {
	if i < 0 || i >= len(c.centre) {
		return 0
	}
	d := c.rootDepth()
	if c.centre[i] > d {
		return 0
	}
	return math.Exp(-3 * c.centre[i] / d)
}

// NUptakeFromLayer implements soilcn.Crop. The seasonal demand is
// distributed over time like production and over layers by root density.
func (c *PrescribedCrop) NUptakeFromLayer(i int) float64 {
	s := c.season()
	if s < 0 || i < 0 || i >= len(c.dz) {
		return 0
	}
	daily := c.params.NDemand * math.Pi / (2 * float64(c.params.SeasonLength)) * math.Sin(math.Pi*s)
	w := make([]float64, len(c.dz))
	for j := range w {
		w[j] = c.RootDensity(j)
	}
	total := floats.Dot(w, c.dz)
	if total <= 0 {
		return 0
	}
	return daily / 1.e4 * w[i] * c.dz[i] / total
}

// DeadRootBiomass implements soilcn.Crop.
func (c *PrescribedCrop) DeadRootBiomass() float64 {
	return c.params.RootTurnover * c.NetPrimaryProduction() / carbonFraction
}

// ResidueParameters implements soilcn.Crop.
func (c *PrescribedCrop) ResidueParameters() *soilcn.OrganicMatterParameters { return c.residue }
