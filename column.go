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

// SoilColumn is the external soil physical model that supplies the state
// of each soil layer. The layer count must not change during a run.
// A Profile holds a reference to its SoilColumn for the whole run and
// reads it at the beginning of every daily step.
type SoilColumn interface {
	NumLayers() int
	Thickness(i int) float64     // [m]
	Temperature(i int) float64   // [°C]
	Moisture(i int) float64      // [m³/m³]
	MoisturePF(i int) float64    // soil water tension [pF]
	FieldCapacity(i int) float64 // [m³/m³]
	Saturation(i int) float64    // [m³/m³]
	Clay(i int) float64          // [kg/kg]
	PH(i int) float64
	BulkDensity(i int) float64 // [kg/m³]

	// Percolation returns the water flux through the bottom of layer i
	// [mm/d]; positive values are downward.
	Percolation(i int) float64
}

// Crop is the external crop growth model. A crop is attached to the
// soil organic engine with PutCrop and detached with RemoveCrop; the
// engine does not keep it after it has been removed.
type Crop interface {
	// NetPrimaryProduction returns the net primary production of the
	// current day [kg C/ha/d].
	NetPrimaryProduction() float64

	// NUptakeFromLayer returns the nitrogen uptake demand of the crop from
	// layer i on the current day [kg N/m²/d].
	NUptakeFromLayer(i int) float64

	// RootDensity returns the relative root density in layer i. Layers
	// without roots return 0.
	RootDensity(i int) float64

	// DeadRootBiomass returns the root biomass that died on the current
	// day [kg DM/ha/d].
	DeadRootBiomass() float64

	// ResidueParameters returns the parameters describing dead crop
	// material when it is added to the soil.
	ResidueParameters() *OrganicMatterParameters
}

// FixedColumn is a SoilColumn whose state is held in slices that are set
// directly by the caller. It is useful for testing and for coupling to
// soil physics models that are not written in Go.
type FixedColumn struct {
	Dz       []float64 // layer thickness [m]
	T        []float64 // temperature [°C]
	Theta    []float64 // moisture [m³/m³]
	PF       []float64 // water tension [pF]
	FC       []float64 // field capacity [m³/m³]
	Sat      []float64 // saturation [m³/m³]
	ClayFrac []float64 // clay [kg/kg]
	PHValue  []float64
	BD       []float64 // bulk density [kg/m³]
	Perc     []float64 // percolation through layer bottom [mm/d]
}

// NewFixedColumn returns a FixedColumn with n layers of thickness dz [m]
// and a moist, temperate loam in every layer.
func NewFixedColumn(n int, dz float64) *FixedColumn {
	fill := func(v float64) []float64 {
		o := make([]float64, n)
		for i := range o {
			o[i] = v
		}
		return o
	}
	return &FixedColumn{
		Dz:       fill(dz),
		T:        fill(15),
		Theta:    fill(0.25),
		PF:       fill(2),
		FC:       fill(0.3),
		Sat:      fill(0.45),
		ClayFrac: fill(0.15),
		PHValue:  fill(6.5),
		BD:       fill(1400),
		Perc:     fill(0),
	}
}

// NumLayers implements SoilColumn.
func (c *FixedColumn) NumLayers() int { return len(c.Dz) }

// Thickness implements SoilColumn.
func (c *FixedColumn) Thickness(i int) float64 { return c.Dz[i] }

// Temperature implements SoilColumn.
func (c *FixedColumn) Temperature(i int) float64 { return c.T[i] }

// Moisture implements SoilColumn.
func (c *FixedColumn) Moisture(i int) float64 { return c.Theta[i] }

// MoisturePF implements SoilColumn.
func (c *FixedColumn) MoisturePF(i int) float64 { return c.PF[i] }

// FieldCapacity implements SoilColumn.
func (c *FixedColumn) FieldCapacity(i int) float64 { return c.FC[i] }

// Saturation implements SoilColumn.
func (c *FixedColumn) Saturation(i int) float64 { return c.Sat[i] }

// Clay implements SoilColumn.
func (c *FixedColumn) Clay(i int) float64 { return c.ClayFrac[i] }

// PH implements SoilColumn.
func (c *FixedColumn) PH(i int) float64 { return c.PHValue[i] }

// BulkDensity implements SoilColumn.
func (c *FixedColumn) BulkDensity(i int) float64 { return c.BD[i] }

// Percolation implements SoilColumn.
func (c *FixedColumn) Percolation(i int) float64 { return c.Perc[i] }
