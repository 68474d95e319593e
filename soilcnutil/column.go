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
)

// SoilConfig holds the physical properties of a uniform soil profile.
type SoilConfig struct {
	NumLayers      int
	LayerThickness float64 // [m]

	FieldCapacity float64 // [m³/m³]
	Saturation    float64 // [m³/m³]
	WiltingPoint  float64 // [m³/m³]

	// Drainage is the fraction of the water above field capacity that
	// drains to the layer below each day.
	Drainage float64

	// Van Genuchten retention parameters.
	Alpha            float64 // [1/cm]
	N                float64
	ResidualMoisture float64 // [m³/m³]

	Clay        float64 // [kg/kg]
	PH          float64
	BulkDensity float64 // [kg/m³]

	// DampingDepth [m] sets how quickly soil temperature follows air
	// temperature with depth.
	DampingDepth float64

	// InitialTemperature [°C] of all layers.
	InitialTemperature float64
}

func (c *SoilConfig) check() error {
	if c.NumLayers < 1 {
		return fmt.Errorf("soilcnutil: Soil.NumLayers=%d but should be >=1", c.NumLayers)
	}
	if !(c.LayerThickness > 0) {
		return fmt.Errorf("soilcnutil: Soil.LayerThickness=%g but should be >0", c.LayerThickness)
	}
	if !(c.ResidualMoisture < c.WiltingPoint && c.WiltingPoint < c.FieldCapacity &&
		c.FieldCapacity < c.Saturation && c.Saturation <= 1) {
		return fmt.Errorf("soilcnutil: soil moisture constants should satisfy "+
			"ResidualMoisture (%g) < WiltingPoint (%g) < FieldCapacity (%g) < Saturation (%g) <= 1",
			c.ResidualMoisture, c.WiltingPoint, c.FieldCapacity, c.Saturation)
	}
	if !(c.Drainage > 0) || c.Drainage > 1 {
		return fmt.Errorf("soilcnutil: Soil.Drainage=%g but should be in (0,1]", c.Drainage)
	}
	if !(c.Alpha > 0) || !(c.N > 1) {
		return fmt.Errorf("soilcnutil: van Genuchten Alpha=%g and N=%g but should be >0 and >1", c.Alpha, c.N)
	}
	if c.Clay < 0 || c.Clay > 1 {
		return fmt.Errorf("soilcnutil: Soil.Clay=%g but should be in [0,1]", c.Clay)
	}
	if !(c.BulkDensity > 0) || !(c.DampingDepth > 0) {
		return fmt.Errorf("soilcnutil: Soil.BulkDensity=%g and Soil.DampingDepth=%g but should be >0",
			c.BulkDensity, c.DampingDepth)
	}
	return nil
}

// BucketColumn is a capacity-based soil water and heat model. A fixed
// fraction of the water above field capacity drains to the layer below
// each day and water above saturation passes through at once. Crop
// and soil evaporation dry the root zone down to the wilting point, and
// the temperature of each layer relaxes towards the air temperature at a
// rate that decreases with depth. BucketColumn implements
// soilcn.SoilColumn.
type BucketColumn struct {
	cfg SoilConfig

	theta, temp, perc []float64
	irrigation        float64
}

// NewBucketColumn returns a soil column at field capacity.
func NewBucketColumn(c SoilConfig) (*BucketColumn, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	b := &BucketColumn{
		cfg:   c,
		theta: make([]float64, c.NumLayers),
		temp:  make([]float64, c.NumLayers),
		perc:  make([]float64, c.NumLayers),
	}
	for i := range b.theta {
		b.theta[i] = c.FieldCapacity
		b.temp[i] = c.InitialTemperature
	}
	return b, nil
}

// evaporationDepth is the depth [m] from which water evaporates.
const evaporationDepth = 0.3

// Irrigate adds amount [mm] of water to the next update.
func (b *BucketColumn) Irrigate(amount float64) {
	b.irrigation += math.Max(0, amount)
}

// Update advances the water content and temperature of the column by
// one day of weather w.
func (b *BucketColumn) Update(w soilcn.Weather) {
	dzmm := b.cfg.LayerThickness * 1000

	// Potential evapotranspiration [mm/d] from air temperature.
	et := math.Max(0, 0.15*w.MeanAirTemperature)
	for i := 0; i < len(b.theta) && float64(i)*b.cfg.LayerThickness < evaporationDepth && et > 0; i++ {
		avail := math.Max(0, (b.theta[i]-b.cfg.WiltingPoint)*dzmm)
		take := math.Min(avail, et)
		b.theta[i] -= take / dzmm
		et -= take
	}

	in := math.Max(0, w.Precipitation) + b.irrigation
	b.irrigation = 0
	capacity := b.cfg.FieldCapacity * dzmm
	saturation := b.cfg.Saturation * dzmm
	for i := range b.theta {
		store := b.theta[i]*dzmm + in
		out := math.Max(0, store-saturation)
		store -= out
		if excess := store - capacity; excess > 0 {
			out += excess * b.cfg.Drainage
			store -= excess * b.cfg.Drainage
		}
		b.theta[i] = store / dzmm
		b.perc[i] = out
		in = out
	}

	for i := range b.temp {
		z := (float64(i) + 0.5) * b.cfg.LayerThickness
		b.temp[i] += (w.MeanAirTemperature - b.temp[i]) * math.Exp(-z/b.cfg.DampingDepth)
	}
}

// NumLayers implements soilcn.SoilColumn.
func (b *BucketColumn) NumLayers() int { return len(b.theta) }

// Thickness implements soilcn.SoilColumn.
func (b *BucketColumn) Thickness(int) float64 { return b.cfg.LayerThickness }

// Temperature implements soilcn.SoilColumn.
func (b *BucketColumn) Temperature(i int) float64 { return b.temp[i] }

// Moisture implements soilcn.SoilColumn.
func (b *BucketColumn) Moisture(i int) float64 { return b.theta[i] }

// MoisturePF implements soilcn.SoilColumn using the van Genuchten
// retention curve.
func (b *BucketColumn) MoisturePF(i int) float64 {
	m := 1 - 1/b.cfg.N
	se := (b.theta[i] - b.cfg.ResidualMoisture) / (b.cfg.Saturation - b.cfg.ResidualMoisture)
	se = math.Max(1.e-9, math.Min(1, se))
	h := math.Pow(math.Pow(se, -1/m)-1, 1/b.cfg.N) / b.cfg.Alpha // [cm]
	if h <= 1 {
		return 0
	}
	return math.Log10(h)
}

// FieldCapacity implements soilcn.SoilColumn.
func (b *BucketColumn) FieldCapacity(int) float64 { return b.cfg.FieldCapacity }

// Saturation implements soilcn.SoilColumn.
func (b *BucketColumn) Saturation(int) float64 { return b.cfg.Saturation }

// Clay implements soilcn.SoilColumn.
func (b *BucketColumn) Clay(int) float64 { return b.cfg.Clay }

// PH implements soilcn.SoilColumn.
func (b *BucketColumn) PH(int) float64 { return b.cfg.PH }

// BulkDensity implements soilcn.SoilColumn.
func (b *BucketColumn) BulkDensity(int) float64 { return b.cfg.BulkDensity }

// Percolation implements soilcn.SoilColumn.
func (b *BucketColumn) Percolation(i int) float64 { return b.perc[i] }
