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
	"errors"
	"fmt"
	"math"
	"reflect"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// Unit conversions.
const (
	m2PerHa       = 10000.
	secondsPerDay = 86400.
	mmPerM        = 1000.
)

// negligible is the pool size [kg/m³] below which an AOM cohort is
// removed and below which a negative pool result is treated as
// round-off.
const negligible = 1.e-7

// roundoff is the magnitude [kg/m³] of negative pool results that are
// cleared without a diagnostic.
const roundoff = 1.e-12

// ErrLayerOutOfRange is returned when a layer index does not exist
// in the profile.
var ErrLayerOutOfRange = errors.New("layer index out of range")

// LayerIndexError reports one or more invalid layer indices.
type LayerIndexError struct {
	Indices   []int
	NumLayers int
}

func (e *LayerIndexError) Error() string {
	return fmt.Sprintf("soilcn: layer index %v out of range [0, %d)", e.Indices, e.NumLayers)
}

// Is allows errors.Is(err, ErrLayerOutOfRange) to match.
func (e *LayerIndexError) Is(target error) bool { return target == ErrLayerOutOfRange }

// AOMPool holds the carbon of one added organic matter cohort in one
// layer. Cohorts created from the same parameter set and nitrogen content
// decompose identically and share a single AOMPool.
type AOMPool struct {
	Slow float64 // slowly decomposing carbon [kg C/m³]
	Fast float64 // rapidly decomposing carbon [kg C/m³]

	CNSlow, CNFast float64 // C:N ratios

	SlowDecCoeffStandard float64 // [1/d]
	FastDecCoeffStandard float64 // [1/d]

	PartSlowToSMBSlow float64 // fraction of assimilated slow carbon going to slow SMB
	PartSlowToSMBFast float64 // fraction of assimilated slow carbon going to fast SMB

	// Source identifies the parameter set the cohort was created from.
	Source string

	dSlow, dFast float64
}

// N returns the organic nitrogen in the cohort [kg N/m³].
func (a *AOMPool) N() float64 {
	var n float64
	if a.CNSlow > 0 {
		n += a.Slow / a.CNSlow
	}
	if a.CNFast > 0 {
		n += a.Fast / a.CNFast
	}
	return n
}

func (a *AOMPool) copy() *AOMPool {
	b := *a
	return &b
}

// Layer holds the carbon and nitrogen state of a single soil layer,
// together with a copy of the layer's physical state for the current day.
// Pools and rates are concentrations per bulk soil volume.
type Layer struct {
	Index   int
	Dz      float64 `desc:"Layer thickness" units:"m"`
	Depth   float64 `desc:"Depth of the layer bottom" units:"m"`
	Organic bool    // whether organic matter turnover is simulated

	Temperature   float64 `desc:"Soil temperature" units:"°C"`
	Moisture      float64 `desc:"Volumetric soil moisture" units:"m³/m³"`
	PF            float64 `desc:"Soil water tension" units:"pF"`
	FieldCapacity float64 `desc:"Field capacity" units:"m³/m³"`
	Saturation    float64 `desc:"Saturated water content" units:"m³/m³"`
	Clay          float64 `desc:"Clay content" units:"kg/kg"`
	PH            float64 `desc:"Soil pH" units:"-"`
	BulkDensity   float64 `desc:"Bulk density" units:"kg/m³"`
	Percolation   float64 `desc:"Water flux through the layer bottom" units:"mm/d"`

	AOM      []*AOMPool
	SMBSlow  float64 `desc:"Slow microbial biomass carbon" units:"kg C/m³"`
	SMBFast  float64 `desc:"Fast microbial biomass carbon" units:"kg C/m³"`
	SOMSlow  float64 `desc:"Slow soil organic matter carbon" units:"kg C/m³"`
	SOMFast  float64 `desc:"Fast soil organic matter carbon" units:"kg C/m³"`
	SOMInert float64 `desc:"Inert soil organic matter carbon" units:"kg C/m³"`
	CNSOM    float64 `desc:"C:N ratio of soil organic matter" units:"-"`
	CNSMB    float64 `desc:"C:N ratio of microbial biomass" units:"-"`

	NH4       float64 `desc:"Ammonium nitrogen" units:"kg N/m³"`
	NO2       float64 `desc:"Nitrite nitrogen" units:"kg N/m³"`
	NO3       float64 `desc:"Nitrate nitrogen" units:"kg N/m³"`
	Carbamide float64 `desc:"Urea nitrogen" units:"kg N/m³"`

	SMBCO2EvolutionRate    float64 `desc:"Decomposer respiration" units:"kg C/m³/d"`
	NetNMineralisationRate float64 `desc:"Net nitrogen mineralisation" units:"kg N/m³/d"`
	ImmobilisationDeficit  float64 `desc:"Unmet nitrogen immobilisation demand" units:"kg N/m³/d"`
	AmmoniaOxidationRate   float64 `desc:"Ammonium oxidation to nitrite" units:"kg N/m³/d"`
	NitrificationRate      float64 `desc:"Nitrite oxidation to nitrate" units:"kg N/m³/d"`
	DenitrificationRate    float64 `desc:"Denitrification" units:"kg N/m³/d"`
	N2OProductionRate      float64 `desc:"N2O production" units:"kg N/m³/d"`
	N2ONitrificationRate   float64 `desc:"N2O production from nitrification" units:"kg N/m³/d"`
	HydrolysisRate         float64 `desc:"Urea hydrolysis" units:"kg N/m³/d"`
	CInput                 float64 `desc:"Added organic carbon" units:"kg C/m³/d"`
	CBalance               float64 `desc:"Carbon input minus decomposer respiration" units:"kg C/m³/d"`

	dSMBSlow, dSMBFast, dSOMSlow, dSOMFast float64
	dNH4, dNO2, dNO3, dCarbamide           float64
	cAdded                                 float64 // carbon added since the last step

	sync.Mutex // Avoid the layer being edited by more than one subroutine.
}

// AOMSlowSum returns the slow AOM carbon summed over all cohorts [kg C/m³].
func (l *Layer) AOMSlowSum() float64 {
	var s float64
	for _, a := range l.AOM {
		s += a.Slow
	}
	return s
}

// AOMFastSum returns the fast AOM carbon summed over all cohorts [kg C/m³].
func (l *Layer) AOMFastSum() float64 {
	var s float64
	for _, a := range l.AOM {
		s += a.Fast
	}
	return s
}

// SoilOrganicC returns the total organic carbon in the layer [kg C/m³].
func (l *Layer) SoilOrganicC() float64 {
	return l.AOMSlowSum() + l.AOMFastSum() + l.SMBSlow + l.SMBFast +
		l.SOMSlow + l.SOMFast + l.SOMInert
}

// OrganicN returns the total organic nitrogen in the layer [kg N/m³].
func (l *Layer) OrganicN() float64 {
	var n float64
	for _, a := range l.AOM {
		n += a.N()
	}
	return n + (l.SMBSlow+l.SMBFast)/l.CNSMB +
		(l.SOMSlow+l.SOMFast+l.SOMInert)/l.CNSOM
}

// MineralN returns the total mineral nitrogen in the layer [kg N/m³].
func (l *Layer) MineralN() float64 {
	return l.NH4 + l.NO2 + l.NO3 + l.Carbamide
}

// Provisional values of the mineral N pools: start-of-day value plus the
// changes already computed for the day.
func (l *Layer) nh4() float64       { return l.NH4 + l.dNH4 }
func (l *Layer) no2() float64       { return l.NO2 + l.dNO2 }
func (l *Layer) no3() float64       { return l.NO3 + l.dNO3 }
func (l *Layer) carbamide() float64 { return l.Carbamide + l.dCarbamide }

// wfps returns the water-filled pore space.
func (l *Layer) wfps() float64 {
	if l.Saturation <= 0 {
		return 0
	}
	return l.Moisture / l.Saturation
}

// Diagnostic records a pool that would have become negative and was
// clamped to zero.
type Diagnostic struct {
	Day     int
	Layer   int
	Pool    string
	Deficit float64 // [kg/m³]
}

// Profile is the layer state store: it holds the carbon and nitrogen state
// of every soil layer. The soil organic and transport engines share one
// Profile and mutate it only from within their daily steps.
type Profile struct {
	Layers []*Layer

	// Column is the soil physical model. It is not owned by the Profile.
	Column SoilColumn

	// Day is the day of the current or most recent daily step, counted from
	// 1. It is advanced by the soil organic engine.
	Day int

	// Done is set by convergence checks to signal that a simulation can end.
	Done bool

	Log logrus.FieldLogger

	diagMu      sync.Mutex
	Diagnostics []Diagnostic
}

// LayerManipulator is a function that operates on a single soil layer
// over a time step Δt [d].
type LayerManipulator func(l *Layer, Δt float64)

// DomainManipulator is a function that operates on the whole profile.
type DomainManipulator func(p *Profile) error

// NewProfile creates a profile with the layers of column and initialises
// the soil organic matter and mineral N pools from site.
func NewProfile(column SoilColumn, site SiteParameters, params *OrganicParameters) (*Profile, error) {
	n := column.NumLayers()
	if n <= 0 {
		return nil, fmt.Errorf("soilcn: soil column has %d layers but should have >0", n)
	}
	if err := site.check(n); err != nil {
		return nil, err
	}
	p := &Profile{
		Column: column,
		Layers: make([]*Layer, n),
		Log:    logrus.StandardLogger(),
	}
	var depth float64
	for i := range p.Layers {
		l := &Layer{
			Index: i,
			CNSOM: site.SoilCNRatio,
			CNSMB: params.CNRatioSMB,
		}
		p.Layers[i] = l
		l.Dz = column.Thickness(i)
		if l.Dz <= 0 {
			return nil, fmt.Errorf("soilcn: layer %d thickness=%g but should be >0", i, l.Dz)
		}
		depth += l.Dz
		l.Depth = depth
		l.Organic = params.MaxMineralisationDepth <= 0 || depth-l.Dz < params.MaxMineralisationDepth
	}
	if err := p.ReadColumn(); err != nil {
		return nil, err
	}
	for i, l := range p.Layers {
		l.initializePools(site.SoilOrganicCarbon[i], params)
		if site.NH4 != nil {
			l.NH4 = site.NH4[i]
		}
		if site.NO3 != nil {
			l.NO3 = site.NO3[i]
		}
	}
	return p, nil
}

// initializePools partitions the soil organic carbon soc [kg C/kg soil]
// among the SOM and SMB pools. The inert fraction follows
// Falloon et al. (1998).
func (l *Layer) initializePools(soc float64, params *OrganicParameters) {
	total := soc * l.BulkDensity // kg C/m³
	if total <= 0 {
		return
	}
	tPerHa := total * l.Dz * m2PerHa / 1000.
	l.SOMInert = math.Min(total, 0.049*math.Pow(tPerHa, 1.139)*1000./m2PerHa/l.Dz)
	active := total - l.SOMInert
	l.SMBSlow = params.PartSOMToSMBSlow * active
	l.SMBFast = params.PartSOMToSMBFast * active
	rest := active - l.SMBSlow - l.SMBFast
	l.SOMFast = params.InitialSOMFastFraction * rest
	l.SOMSlow = rest - l.SOMFast
}

// ReadColumn copies the current physical state of the soil column into the
// layers.
func (p *Profile) ReadColumn() error {
	c := p.Column
	if n := c.NumLayers(); n != len(p.Layers) {
		return fmt.Errorf("soilcn: soil column has %d layers but the profile has %d", n, len(p.Layers))
	}
	for i, l := range p.Layers {
		l.Temperature = c.Temperature(i)
		l.Moisture = c.Moisture(i)
		l.PF = c.MoisturePF(i)
		l.FieldCapacity = c.FieldCapacity(i)
		l.Saturation = c.Saturation(i)
		l.Clay = c.Clay(i)
		l.PH = c.PH(i)
		l.BulkDensity = c.BulkDensity(i)
		l.Percolation = c.Percolation(i)
	}
	return nil
}

// ReadSoilColumn returns a function that refreshes the physical state of
// the layers from the soil column.
func ReadSoilColumn() DomainManipulator {
	return func(p *Profile) error { return p.ReadColumn() }
}

// Calculations returns a function that concurrently runs a series of
// calculations on all of the soil layers. Each layer only sees its own
// state, so the result does not depend on the order of the layers.
func Calculations(calculators ...LayerManipulator) DomainManipulator {

	nprocs := runtime.GOMAXPROCS(0) // number of processors
	var wg sync.WaitGroup

	return func(p *Profile) error {
		wg.Add(nprocs)
		for pp := 0; pp < nprocs; pp++ {
			go func(pp int) {
				var l *Layer
				for ii := pp; ii < len(p.Layers); ii += nprocs {
					l = p.Layers[ii]
					l.Lock()
					for _, f := range calculators {
						f(l, 1)
					}
					l.Unlock()
				}
				wg.Done()
			}(pp)
		}
		wg.Wait()
		return nil
	}
}

// layer returns layer i or an error if it does not exist.
func (p *Profile) layer(i int) (*Layer, error) {
	if i < 0 || i >= len(p.Layers) {
		return nil, &LayerIndexError{Indices: []int{i}, NumLayers: len(p.Layers)}
	}
	return p.Layers[i], nil
}

// nonNegative returns v, or zero if v is negative. Negative values larger
// than round-off are recorded as diagnostics and logged.
func (p *Profile) nonNegative(l *Layer, pool string, v float64) float64 {
	if v >= 0 {
		return v
	}
	if v < -roundoff {
		p.diagMu.Lock()
		p.Diagnostics = append(p.Diagnostics, Diagnostic{Day: p.Day, Layer: l.Index, Pool: pool, Deficit: -v})
		p.diagMu.Unlock()
		p.Log.WithFields(logrus.Fields{
			"day":     p.Day,
			"layer":   l.Index,
			"pool":    pool,
			"deficit": -v,
		}).Warn("soilcn: negative pool clamped to zero")
	}
	return 0
}

// derived are the reportable per-layer variables that are not Layer fields.
var derived = map[string]struct {
	units string
	f     func(*Layer) float64
}{
	"SoilOrganicC": {"kg C/m³", (*Layer).SoilOrganicC},
	"AOMSlowSum":   {"kg C/m³", (*Layer).AOMSlowSum},
	"AOMFastSum":   {"kg C/m³", (*Layer).AOMFastSum},
	"OrganicN":     {"kg N/m³", (*Layer).OrganicN},
	"MineralN":     {"kg N/m³", (*Layer).MineralN},
}

// Value returns the value of the named variable in layer i.
func (p *Profile) Value(varName string, i int) (float64, error) {
	l, err := p.layer(i)
	if err != nil {
		return math.NaN(), err
	}
	if d, ok := derived[varName]; ok {
		return d.f(l), nil
	}
	val := reflect.Indirect(reflect.ValueOf(l)).FieldByName(varName)
	if !val.IsValid() || val.Kind() != reflect.Float64 {
		return math.NaN(), fmt.Errorf("soilcn: unknown variable %s", varName)
	}
	return val.Float(), nil
}

// Units returns the units of the named per-layer variable.
func (p *Profile) Units(varName string) (string, error) {
	if d, ok := derived[varName]; ok {
		return d.units, nil
	}
	ftype, ok := reflect.TypeOf((*Layer)(nil)).Elem().FieldByName(varName)
	if !ok || ftype.Tag.Get("units") == "" {
		return "", fmt.Errorf("soilcn: unknown variable %s", varName)
	}
	return ftype.Tag.Get("units"), nil
}

// LayerVariables returns the names of all reportable per-layer variables.
func LayerVariables() []string {
	var o []string
	t := reflect.TypeOf((*Layer)(nil)).Elem()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("units") != "" {
			o = append(o, t.Field(i).Name)
		}
	}
	for _, n := range []string{"SoilOrganicC", "AOMSlowSum", "AOMFastSum", "OrganicN", "MineralN"} {
		o = append(o, n)
	}
	return o
}

func harmonicMean(a, b float64) float64 {
	if a+b == 0 {
		return 0
	}
	return 2. * a * b / (a + b)
}

// capped returns x limited to [0, avail].
func capped(x, avail float64) float64 {
	return math.Max(0, math.Min(x, avail))
}
