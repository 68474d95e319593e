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
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/soilcn/internal/hash"
)

// SoilOrganic is the soil organic engine. It simulates the turnover of
// organic carbon and nitrogen and the mineral nitrogen transformations in
// each layer of a Profile, one day at a time.
type SoilOrganic struct {
	p      *Profile
	params *OrganicParameters
	crop   Crop

	runFuncs []DomainManipulator

	// Weather and management of the current day.
	precip, irrigation, airTemp, windSpeed float64

	incorporation   bool
	surfaceAddition bool

	// Daily whole-profile fluxes [kg N/ha/d] or [kg C/ha/d].
	nh3, n2o, denit, gaseous, netMin float64
	respiration, nep                 float64
	sumNH3, sumN2O, sumDenit, sumGas float64
	sumNetMin, sumNetImmob           float64
}

// NewSoilOrganic creates a soil organic engine operating on p.
func NewSoilOrganic(p *Profile, params *OrganicParameters, cfg Config) (*SoilOrganic, error) {
	if err := params.Check(); err != nil {
		return nil, err
	}
	nitrification, err := nitrificationFormulation(cfg.Nitrification, params)
	if err != nil {
		return nil, err
	}
	denitrification, err := denitrificationFormulation(cfg.Denitrification, params)
	if err != nil {
		return nil, err
	}
	n2o, err := n2oFormulation(cfg.N2O, params)
	if err != nil {
		return nil, err
	}
	o := &SoilOrganic{p: p, params: params}
	o.runFuncs = []DomainManipulator{
		ReadSoilColumn(),
		o.deadRoots(),
		Calculations(resetRates),
		Calculations(o.hydrolysis(), o.mit()),
		o.volatilisation(),
		Calculations(nitrification, denitrification, n2o, o.poolUpdate()),
		o.sumFluxes(),
	}
	return o, nil
}

// Profile returns the layer state the engine operates on.
func (o *SoilOrganic) Profile() *Profile { return o.p }

// Step advances the engine by one day. precipitation is in [mm/d],
// meanAirTemperature in [°C] and windSpeed in [m/s].
func (o *SoilOrganic) Step(precipitation, meanAirTemperature, windSpeed float64) error {
	o.p.Day++
	o.precip, o.airTemp, o.windSpeed = precipitation, meanAirTemperature, windSpeed
	for _, f := range o.runFuncs {
		if err := f(o.p); err != nil {
			return err
		}
	}
	o.irrigation = 0
	o.surfaceAddition = false
	return nil
}

// resetRates clears the per-day rates and moves the carbon added since the
// last step into the day's carbon input.
func resetRates(l *Layer, _ float64) {
	l.SMBCO2EvolutionRate = 0
	l.NetNMineralisationRate = 0
	l.ImmobilisationDeficit = 0
	l.AmmoniaOxidationRate = 0
	l.NitrificationRate = 0
	l.DenitrificationRate = 0
	l.N2OProductionRate = 0
	l.N2ONitrificationRate = 0
	l.HydrolysisRate = 0
	l.CInput = l.cAdded
	l.cAdded = 0
	l.CBalance = 0
}

// sumFluxes returns a function that totals the layer fluxes of the day
// over the profile and updates the cumulative sums.
func (o *SoilOrganic) sumFluxes() DomainManipulator {
	return func(p *Profile) error {
		perHa := func(f func(*Layer) float64) float64 {
			var s float64
			for _, l := range p.Layers {
				s += f(l) * l.Dz * m2PerHa
			}
			return s
		}
		o.n2o = perHa(func(l *Layer) float64 { return l.N2OProductionRate })
		o.denit = perHa(func(l *Layer) float64 { return l.DenitrificationRate })
		o.netMin = perHa(func(l *Layer) float64 { return l.NetNMineralisationRate })
		o.respiration = perHa(func(l *Layer) float64 { return l.SMBCO2EvolutionRate })
		nitN2O := perHa(func(l *Layer) float64 { return l.N2ONitrificationRate })
		o.gaseous = o.nh3 + o.denit + nitN2O

		var npp float64
		if o.crop != nil {
			npp = o.crop.NetPrimaryProduction()
		}
		o.nep = npp - o.respiration

		o.sumNH3 += o.nh3
		o.sumN2O += o.n2o
		o.sumDenit += o.denit
		o.sumGas += o.gaseous
		if o.netMin > 0 {
			o.sumNetMin += o.netMin
		} else {
			o.sumNetImmob -= o.netMin
		}

		if o.incorporation && p.Layers[0].Carbamide < surfaceUreaThreshold {
			o.incorporation = false
		}
		return nil
	}
}

// AddOrganicMatter adds organic material described by params to the
// layers in amounts [kg FM/ha], keyed by layer index. nConcentration
// [kg N/kg DM] overrides params.NConcentration when it is >0. Invalid layer
// indices are reported in a *LayerIndexError after all valid layers have
// received their share.
func (o *SoilOrganic) AddOrganicMatter(params *OrganicMatterParameters, amounts map[int]float64, nConcentration float64) error {
	if err := params.Check(); err != nil {
		return err
	}
	idx := make([]int, 0, len(amounts))
	for i := range amounts {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	var bad []int
	for _, i := range idx {
		l, err := o.p.layer(i)
		if err != nil {
			bad = append(bad, i)
			o.p.Log.WithFields(logrus.Fields{
				"layer":  i,
				"amount": amounts[i],
				"matter": params.Name,
			}).Warn("soilcn: organic matter added to nonexistent layer ignored")
			continue
		}
		o.addToLayer(l, params, amounts[i], nConcentration)
	}
	if bad != nil {
		return &LayerIndexError{Indices: bad, NumLayers: len(o.p.Layers)}
	}
	return nil
}

// addToLayer adds amount [kg FM/ha] of organic matter to l.
func (o *SoilOrganic) addToLayer(l *Layer, params *OrganicMatterParameters, amount, nConcentration float64) {
	if amount <= 0 {
		return
	}
	dm := amount * params.AOMDryMatterContent / m2PerHa / l.Dz // kg DM/m³
	c := dm * o.params.AOMToC
	slow := c * params.PartAOMToAOMSlow
	fast := c * params.PartAOMToAOMFast

	nConc := params.NConcentration
	if nConcentration > 0 {
		nConc = nConcentration
	}
	cnFast := params.CNRatioAOMFast
	if nConc > 0 {
		// The fast pool holds the nitrogen not bound in the slow pool.
		nFast := dm*nConc - slow/params.CNRatioAOMSlow
		if nFast > 0 {
			cnFast = math.Min(fast/nFast, o.params.AOMFastMaxCToN)
		} else {
			cnFast = o.params.AOMFastMaxCToN
		}
	}
	if cnFast <= 0 {
		cnFast = o.params.AOMFastMaxCToN
	}

	l.NH4 += dm * params.AOMNH4Content
	l.NO3 += dm * params.AOMNO3Content
	l.Carbamide += dm * params.AOMCarbamidContent
	if l.Index == 0 && (params.AOMNH4Content > 0 || params.AOMCarbamidContent > 0) {
		o.surfaceAddition = true
	}
	l.cAdded += slow + fast

	key := hash.Key(params, nConc, cnFast)
	for _, a := range l.AOM {
		if a.Source == key {
			a.Slow += slow
			a.Fast += fast
			return
		}
	}
	l.AOM = append(l.AOM, &AOMPool{
		Slow:                 slow,
		Fast:                 fast,
		CNSlow:               params.CNRatioAOMSlow,
		CNFast:               cnFast,
		SlowDecCoeffStandard: params.AOMSlowDecCoeffStandard,
		FastDecCoeffStandard: params.AOMFastDecCoeffStandard,
		PartSlowToSMBSlow:    params.PartAOMSlowToSMBSlow,
		PartSlowToSMBFast:    params.PartAOMSlowToSMBFast,
		Source:               key,
	})
}

// AddIrrigationWater records irrigation water [mm] applied on the current
// day. It increases the water available for urea hydrolysis and dilutes
// surface ammonium.
func (o *SoilOrganic) AddIrrigationWater(amount float64) {
	o.irrigation += math.Max(0, amount)
}

// AddIrrigationNitrate adds the nitrate carried by amount [mm] of
// irrigation water with concentration [mg N/L] to the top layer.
func (o *SoilOrganic) AddIrrigationNitrate(amount, concentration float64) {
	if amount <= 0 || concentration <= 0 {
		return
	}
	kgPerHa := concentration * amount * 0.01
	l := o.p.Layers[0]
	l.NO3 += kgPerHa / m2PerHa / l.Dz
}

// AddMineralFertiliser adds amount [kg N/ha] of mineral fertiliser to the
// top layer.
func (o *SoilOrganic) AddMineralFertiliser(params *MineralFertiliserParameters, amount float64) error {
	if err := params.Check(); err != nil {
		return err
	}
	if amount <= 0 {
		return nil
	}
	l := o.p.Layers[0]
	n := amount / m2PerHa / l.Dz
	l.NH4 += n * params.NH4
	l.NO3 += n * params.NO3
	l.Carbamide += n * params.Carbamid
	if params.NH4 > 0 || params.Carbamid > 0 {
		o.surfaceAddition = true
	}
	return nil
}

// SetIncorporation marks surface-applied material as incorporated into the
// soil, which reduces ammonia volatilisation until the surface urea is
// used up.
func (o *SoilOrganic) SetIncorporation(incorporated bool) { o.incorporation = incorporated }

// Incorporation reports whether surface material is incorporated.
func (o *SoilOrganic) Incorporation() bool { return o.incorporation }

// PutCrop attaches a crop to the engine.
func (o *SoilOrganic) PutCrop(c Crop) { o.crop = c }

// RemoveCrop detaches the current crop.
func (o *SoilOrganic) RemoveCrop() { o.crop = nil }

// ResetSums sets all cumulative sums to zero.
func (o *SoilOrganic) ResetSums() {
	o.sumNH3, o.sumN2O, o.sumDenit, o.sumGas = 0, 0, 0, 0
	o.sumNetMin, o.sumNetImmob = 0, 0
}

// get returns f evaluated for layer i.
func (o *SoilOrganic) get(i int, f func(*Layer) float64) (float64, error) {
	l, err := o.p.layer(i)
	if err != nil {
		return math.NaN(), err
	}
	return f(l), nil
}

// SoilOrganicC returns the organic carbon of layer i [kg C/m³].
func (o *SoilOrganic) SoilOrganicC(i int) (float64, error) {
	return o.get(i, (*Layer).SoilOrganicC)
}

// AOMFastSum returns the fast AOM carbon of layer i [kg C/m³].
func (o *SoilOrganic) AOMFastSum(i int) (float64, error) { return o.get(i, (*Layer).AOMFastSum) }

// AOMSlowSum returns the slow AOM carbon of layer i [kg C/m³].
func (o *SoilOrganic) AOMSlowSum(i int) (float64, error) { return o.get(i, (*Layer).AOMSlowSum) }

// SMBFast returns the fast microbial biomass carbon of layer i [kg C/m³].
func (o *SoilOrganic) SMBFast(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.SMBFast })
}

// SMBSlow returns the slow microbial biomass carbon of layer i [kg C/m³].
func (o *SoilOrganic) SMBSlow(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.SMBSlow })
}

// SOMFast returns the fast soil organic matter carbon of layer i [kg C/m³].
func (o *SoilOrganic) SOMFast(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.SOMFast })
}

// SOMSlow returns the slow soil organic matter carbon of layer i [kg C/m³].
func (o *SoilOrganic) SOMSlow(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.SOMSlow })
}

// SOMInert returns the inert soil organic matter carbon of layer i [kg C/m³].
func (o *SoilOrganic) SOMInert(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.SOMInert })
}

// CBalance returns the carbon input minus decomposer respiration of layer i
// on the last day [kg C/m³/d].
func (o *SoilOrganic) CBalance(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.CBalance })
}

// SMBCO2EvolutionRate returns the decomposer respiration of layer i
// [kg C/m³/d].
func (o *SoilOrganic) SMBCO2EvolutionRate(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.SMBCO2EvolutionRate })
}

// ActDenitrificationRate returns the denitrification rate of layer i
// [kg N/m³/d].
func (o *SoilOrganic) ActDenitrificationRate(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.DenitrificationRate })
}

// NetNMineralisationRate returns the net N mineralisation of layer i
// [kg N/m³/d]. Negative values are net immobilisation.
func (o *SoilOrganic) NetNMineralisationRate(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.NetNMineralisationRate })
}

// ActAmmoniaOxidationRate returns the ammonium oxidation rate of layer i
// [kg N/m³/d].
func (o *SoilOrganic) ActAmmoniaOxidationRate(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.AmmoniaOxidationRate })
}

// ActNitrificationRate returns the nitrate production rate of layer i
// [kg N/m³/d].
func (o *SoilOrganic) ActNitrificationRate(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.NitrificationRate })
}

// N2OProductionRate returns the N2O production of layer i [kg N/m³/d].
func (o *SoilOrganic) N2OProductionRate(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.N2OProductionRate })
}

// ImmobilisationDeficit returns the N immobilisation demand of layer i
// that could not be met by mineral N on the last day [kg N/m³/d].
func (o *SoilOrganic) ImmobilisationDeficit(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.ImmobilisationDeficit })
}

// OrganicN returns the organic nitrogen of layer i [kg N/m³].
func (o *SoilOrganic) OrganicN(i int) (float64, error) { return o.get(i, (*Layer).OrganicN) }

// SoilNH4 returns the ammonium of layer i [kg N/m³].
func (o *SoilOrganic) SoilNH4(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.NH4 })
}

// SoilNO2 returns the nitrite of layer i [kg N/m³].
func (o *SoilOrganic) SoilNO2(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.NO2 })
}

// SoilNO3 returns the nitrate of layer i [kg N/m³].
func (o *SoilOrganic) SoilNO3(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.NO3 })
}

// SoilCarbamide returns the urea of layer i [kg N/m³].
func (o *SoilOrganic) SoilCarbamide(i int) (float64, error) {
	return o.get(i, func(l *Layer) float64 { return l.Carbamide })
}

// NumberOfCohorts returns the number of AOM cohorts in layer i.
func (o *SoilOrganic) NumberOfCohorts(i int) (int, error) {
	l, err := o.p.layer(i)
	if err != nil {
		return 0, err
	}
	return len(l.AOM), nil
}

// NH3Volatilised returns the ammonia volatilised on the last day [kg N/ha].
func (o *SoilOrganic) NH3Volatilised() float64 { return o.nh3 }

// SumNH3Volatilised returns the cumulative ammonia volatilisation [kg N/ha].
func (o *SoilOrganic) SumNH3Volatilised() float64 { return o.sumNH3 }

// N2OProduced returns the N2O produced on the last day [kg N/ha].
func (o *SoilOrganic) N2OProduced() float64 { return o.n2o }

// SumN2OProduced returns the cumulative N2O production [kg N/ha].
func (o *SoilOrganic) SumN2OProduced() float64 { return o.sumN2O }

// NetNMineralisation returns the net N mineralisation of the whole profile
// on the last day [kg N/ha]. Negative values are net immobilisation.
func (o *SoilOrganic) NetNMineralisation() float64 { return o.netMin }

// SumNetNMineralisation returns the cumulative net N mineralisation of the
// days with net mineralisation [kg N/ha].
func (o *SoilOrganic) SumNetNMineralisation() float64 { return o.sumNetMin }

// SumNetNImmobilisation returns the cumulative net N immobilisation of the
// days with net immobilisation [kg N/ha].
func (o *SoilOrganic) SumNetNImmobilisation() float64 { return o.sumNetImmob }

// Denitrification returns the N denitrified on the last day [kg N/ha].
func (o *SoilOrganic) Denitrification() float64 { return o.denit }

// SumDenitrification returns the cumulative denitrification [kg N/ha].
func (o *SoilOrganic) SumDenitrification() float64 { return o.sumDenit }

// GaseousNLoss returns the N lost to the atmosphere on the last day as
// NH3, denitrification products and N2O from nitrification [kg N/ha].
func (o *SoilOrganic) GaseousNLoss() float64 { return o.gaseous }

// SumGaseousNLoss returns the cumulative gaseous N loss [kg N/ha].
func (o *SoilOrganic) SumGaseousNLoss() float64 { return o.sumGas }

// DecomposerRespiration returns the decomposer respiration of the whole
// profile on the last day [kg C/ha/d].
func (o *SoilOrganic) DecomposerRespiration() float64 { return o.respiration }

// NEP returns the net ecosystem production of the last day [kg C/ha/d].
func (o *SoilOrganic) NEP() float64 { return o.nep }

// NEE returns the net ecosystem exchange of the last day [kg C/ha/d].
func (o *SoilOrganic) NEE() float64 { return -o.nep }
