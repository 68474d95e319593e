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
	"reflect"
	"strings"
)

// Formulation selects one of the published empirical rate laws for
// nitrification, denitrification or N2O production.
type Formulation string

// Available formulations.
const (
	// MONICA is the formulation of the MONICA model (Nendel et al., 2011).
	MONICA Formulation = "monica"

	// STICS is the formulation of the STICS model
	// (Bessou et al., 2010; Brisson et al., 2009).
	STICS Formulation = "stics"
)

// ErrInvalidFormulation is returned when a configuration names a
// formulation that does not exist.
var ErrInvalidFormulation = errors.New("invalid formulation")

// Config selects the formulations used by the soil organic engine.
// Empty fields select MONICA.
type Config struct {
	Nitrification   Formulation
	Denitrification Formulation
	N2O             Formulation
}

func formulationError(process string, f Formulation) error {
	return fmt.Errorf("soilcn: %s formulation %q: %w; options are %q and %q",
		process, string(f), ErrInvalidFormulation, MONICA, STICS)
}

// SiteParameters describes the initial state of the soil profile.
type SiteParameters struct {
	// SoilOrganicCarbon is the organic carbon content of each layer
	// [kg C/kg soil].
	SoilOrganicCarbon []float64

	// SoilCNRatio is the C:N ratio of soil organic matter.
	SoilCNRatio float64

	// NH4 and NO3 are the optional initial mineral N contents of each
	// layer [kg N/m³].
	NH4, NO3 []float64
}

func (s SiteParameters) check(n int) error {
	if len(s.SoilOrganicCarbon) != n {
		return fmt.Errorf("soilcn: site has %d soil organic carbon values but there are %d layers",
			len(s.SoilOrganicCarbon), n)
	}
	if s.SoilCNRatio <= 0 {
		return fmt.Errorf("soilcn: SoilCNRatio=%g but should be >0", s.SoilCNRatio)
	}
	for name, v := range map[string][]float64{"NH4": s.NH4, "NO3": s.NO3} {
		if v != nil && len(v) != n {
			return fmt.Errorf("soilcn: site has %d %s values but there are %d layers", len(v), name, n)
		}
	}
	return nil
}

// OrganicParameters are the rate constants and partitioning coefficients
// of the soil organic matter model. Rates are per day at optimal
// conditions.
type OrganicParameters struct {
	SOMSlowDecCoeffStandard  float64 `toml:"SOM_SlowDecCoeffStandard"`
	SOMFastDecCoeffStandard  float64 `toml:"SOM_FastDecCoeffStandard"`
	SMBSlowMaintRateStandard float64 `toml:"SMB_SlowMaintRateStandard"`
	SMBFastMaintRateStandard float64 `toml:"SMB_FastMaintRateStandard"`
	SMBSlowDeathRateStandard float64 `toml:"SMB_SlowDeathRateStandard"`
	SMBFastDeathRateStandard float64 `toml:"SMB_FastDeathRateStandard"`

	SMBUtilizationEfficiency     float64 `toml:"SMB_UtilizationEfficiency"`
	SOMSlowUtilizationEfficiency float64 `toml:"SOM_SlowUtilizationEfficiency"`
	SOMFastUtilizationEfficiency float64 `toml:"SOM_FastUtilizationEfficiency"`
	AOMSlowUtilizationEfficiency float64 `toml:"AOM_SlowUtilizationEfficiency"`
	AOMFastUtilizationEfficiency float64 `toml:"AOM_FastUtilizationEfficiency"`
	AOMFastMaxCToN               float64 `toml:"AOM_FastMaxC_to_N"`

	PartSOMFastToSOMSlow float64 `toml:"PartSOM_Fast_to_SOM_Slow"`
	PartSMBSlowToSOMFast float64 `toml:"PartSMB_Slow_to_SOM_Fast"`
	PartSMBFastToSOMFast float64 `toml:"PartSMB_Fast_to_SOM_Fast"`

	// Initial partitioning of active soil organic carbon.
	PartSOMToSMBSlow       float64 `toml:"PartSOM_to_SMB_Slow"`
	PartSOMToSMBFast       float64 `toml:"PartSOM_to_SMB_Fast"`
	InitialSOMFastFraction float64

	CNRatioSMB      float64 `toml:"CN_Ratio_SMB"`
	LimitClayEffect float64
	AOMToC          float64 `toml:"AOM_to_C"` // [kg C/kg DM]

	// MaxMineralisationDepth [m] limits organic matter turnover,
	// nitrification and denitrification to the layers whose top lies above
	// it. Zero means all layers.
	MaxMineralisationDepth float64

	AmmoniaOxidationRateCoeffStandard float64
	NitriteOxidationRateCoeffStandard float64
	TransportRateCoeff                float64
	SpecAnaerobDenitrification        float64 // [g N/g CO2-C]
	ImmobilisationRateCoeffNO3        float64
	ImmobilisationRateCoeffNH4        float64

	HydrolysisKM          float64 // [kg N/m³]
	ActivationEnergy      float64 // [J/mol]
	HydrolysisP1          float64 // [mol urea/g soil/s/%C]
	HydrolysisP2          float64 // [mol urea/g soil/s]
	AtmosphericResistance float64 // NH3 transfer coefficient per unit wind speed
	IncorporationFactor   float64 // volatilisation multiplier for incorporated material

	N2OProductionRate float64 // [1/d]
	DenitN2OFraction  float64 // N2O share of denitrified N
	InhibitorNH3      float64 `toml:"Inhibitor_NH3"` // [kg N/m³]

	Stics SticsParameters
}

// SticsParameters are the parameters of the STICS nitrification,
// denitrification and N2O formulations.
type SticsParameters struct {
	NitrificationMax     float64 // [kg N/m³/d]
	NitrificationKNH4    float64 // [kg N/m³]
	NitrificationTMin    float64 // [°C]
	NitrificationTOpt    float64 // [°C]
	NitrificationTMax    float64 // [°C]
	NitrificationPHMin   float64
	NitrificationPHMax   float64
	NitrificationWFPSMin float64
	NitrificationWFPSOpt float64
	NitrificationWFPSMax float64

	DenitPotential     float64 // [kg N/m³/d]
	DenitKNO3          float64 // [kg N/m³]
	DenitKCO2          float64 // [kg C/m³/d]
	DenitWFPSThreshold float64
	DenitWFPSExponent  float64
	DenitQ10           float64

	N2ONitrificationFraction float64
	N2ODenitRatioMax         float64
	N2OKNO3                  float64 // [kg N/m³]
}

// DefaultOrganicParameters returns the MONICA default parameters.
func DefaultOrganicParameters() *OrganicParameters {
	return &OrganicParameters{
		SOMSlowDecCoeffStandard:  4.3e-5,
		SOMFastDecCoeffStandard:  1.4e-4,
		SMBSlowMaintRateStandard: 1.0e-3,
		SMBFastMaintRateStandard: 1.0e-2,
		SMBSlowDeathRateStandard: 1.0e-3,
		SMBFastDeathRateStandard: 1.0e-2,

		SMBUtilizationEfficiency:     0.6,
		SOMSlowUtilizationEfficiency: 0.4,
		SOMFastUtilizationEfficiency: 0.5,
		AOMSlowUtilizationEfficiency: 0.4,
		AOMFastUtilizationEfficiency: 0.1,
		AOMFastMaxCToN:               1000,

		PartSOMFastToSOMSlow: 0.3,
		PartSMBSlowToSOMFast: 0.6,
		PartSMBFastToSOMFast: 0.6,

		PartSOMToSMBSlow:       0.015,
		PartSOMToSMBFast:       0.0002,
		InitialSOMFastFraction: 0.4,

		CNRatioSMB:             6.7,
		LimitClayEffect:        0.25,
		AOMToC:                 0.45,
		MaxMineralisationDepth: 0.4,

		AmmoniaOxidationRateCoeffStandard: 0.1,
		NitriteOxidationRateCoeffStandard: 0.9,
		TransportRateCoeff:                0.1,
		SpecAnaerobDenitrification:        0.1,
		ImmobilisationRateCoeffNO3:        0.5,
		ImmobilisationRateCoeffNH4:        0.5,

		HydrolysisKM:          0.00334,
		ActivationEnergy:      41000,
		HydrolysisP1:          4.259e-12,
		HydrolysisP2:          1.408e-12,
		AtmosphericResistance: 0.0025,
		IncorporationFactor:   0.3,

		N2OProductionRate: 0.5,
		DenitN2OFraction:  0.1,
		InhibitorNH3:      1.0,

		Stics: SticsParameters{
			NitrificationMax:     0.038,
			NitrificationKNH4:    0.034,
			NitrificationTMin:    5,
			NitrificationTOpt:    30,
			NitrificationTMax:    58,
			NitrificationPHMin:   4,
			NitrificationPHMax:   7.2,
			NitrificationWFPSMin: 0.05,
			NitrificationWFPSOpt: 0.6,
			NitrificationWFPSMax: 1.0,

			DenitPotential:     0.001,
			DenitKNO3:          0.03,
			DenitKCO2:          1.e-4,
			DenitWFPSThreshold: 0.62,
			DenitWFPSExponent:  1.74,
			DenitQ10:           2,

			N2ONitrificationFraction: 0.0016,
			N2ODenitRatioMax:         0.4,
			N2OKNO3:                  0.01,
		},
	}
}

// namedValue is a parameter checked by name so that errors are reported in
// a fixed order.
type namedValue struct {
	name string
	v    float64
}

// Check returns an error if any parameter is outside of its valid range.
func (p *OrganicParameters) Check() error {
	var msgs []string
	v := reflect.ValueOf(*p)
	for i := 0; i < v.NumField(); i++ {
		if f := v.Field(i); f.Kind() == reflect.Float64 && f.Float() < 0 {
			msgs = append(msgs, fmt.Sprintf("%s=%g but should be >=0", v.Type().Field(i).Name, f.Float()))
		}
	}
	for _, f := range []namedValue{
		{"CNRatioSMB", p.CNRatioSMB},
		{"AOMFastMaxCToN", p.AOMFastMaxCToN},
	} {
		if f.v <= 0 {
			msgs = append(msgs, fmt.Sprintf("%s=%g but should be >0", f.name, f.v))
		}
	}
	// Fractions and first-order rate coefficients of a daily step.
	for _, f := range []namedValue{
		{"SMBUtilizationEfficiency", p.SMBUtilizationEfficiency},
		{"SOMSlowUtilizationEfficiency", p.SOMSlowUtilizationEfficiency},
		{"SOMFastUtilizationEfficiency", p.SOMFastUtilizationEfficiency},
		{"AOMSlowUtilizationEfficiency", p.AOMSlowUtilizationEfficiency},
		{"AOMFastUtilizationEfficiency", p.AOMFastUtilizationEfficiency},
		{"PartSOMFastToSOMSlow", p.PartSOMFastToSOMSlow},
		{"PartSMBSlowToSOMFast", p.PartSMBSlowToSOMFast},
		{"PartSMBFastToSOMFast", p.PartSMBFastToSOMFast},
		{"InitialSOMFastFraction", p.InitialSOMFastFraction},
		{"DenitN2OFraction", p.DenitN2OFraction},
		{"IncorporationFactor", p.IncorporationFactor},
		{"ImmobilisationRateCoeffNO3", p.ImmobilisationRateCoeffNO3},
		{"ImmobilisationRateCoeffNH4", p.ImmobilisationRateCoeffNH4},
	} {
		if f.v > 1 {
			msgs = append(msgs, fmt.Sprintf("%s=%g but should be <=1", f.name, f.v))
		}
	}
	if p.LimitClayEffect > 0.5 {
		msgs = append(msgs, fmt.Sprintf("LimitClayEffect=%g but should be <=0.5", p.LimitClayEffect))
	}
	if s := p.PartSOMToSMBSlow + p.PartSOMToSMBFast; s > 1 {
		msgs = append(msgs, fmt.Sprintf("PartSOMToSMBSlow+PartSOMToSMBFast=%g but should be <=1", s))
	}
	if len(msgs) > 0 {
		return fmt.Errorf("soilcn: invalid organic parameters: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// OrganicMatterParameters describe a type of organic matter (crop residue,
// manure, slurry, ...) added to the soil.
type OrganicMatterParameters struct {
	Name string

	AOMDryMatterContent float64 `toml:"AOM_DryMatterContent"` // [kg DM/kg FM]
	AOMNH4Content       float64 `toml:"AOM_NH4Content"`       // [kg N/kg DM]
	AOMNO3Content       float64 `toml:"AOM_NO3Content"`       // [kg N/kg DM]
	AOMCarbamidContent  float64 `toml:"AOM_CarbamidContent"`  // [kg N/kg DM]

	AOMSlowDecCoeffStandard float64 `toml:"AOM_SlowDecCoeffStandard"` // [1/d]
	AOMFastDecCoeffStandard float64 `toml:"AOM_FastDecCoeffStandard"` // [1/d]

	PartAOMToAOMSlow float64 `toml:"PartAOM_to_AOM_Slow"`
	PartAOMToAOMFast float64 `toml:"PartAOM_to_AOM_Fast"`

	CNRatioAOMSlow float64 `toml:"CN_Ratio_AOM_Slow"`
	CNRatioAOMFast float64 `toml:"CN_Ratio_AOM_Fast"`

	PartAOMSlowToSMBSlow float64 `toml:"PartAOM_Slow_to_SMB_Slow"`
	PartAOMSlowToSMBFast float64 `toml:"PartAOM_Slow_to_SMB_Fast"`

	NConcentration float64 // [kg N/kg DM]; 0 derives N from the C:N ratios
}

// Check returns an error if the parameters cannot describe organic matter.
func (p *OrganicMatterParameters) Check() error {
	if p.AOMDryMatterContent <= 0 || p.AOMDryMatterContent > 1 {
		return fmt.Errorf("soilcn: organic matter %s: AOM_DryMatterContent=%g but should be in (0,1]",
			p.Name, p.AOMDryMatterContent)
	}
	if s := p.PartAOMToAOMSlow + p.PartAOMToAOMFast; s > 1+1.e-9 || s <= 0 {
		return fmt.Errorf("soilcn: organic matter %s: PartAOM_to_AOM_Slow+PartAOM_to_AOM_Fast=%g but should be in (0,1]",
			p.Name, s)
	}
	if p.CNRatioAOMSlow <= 0 {
		return fmt.Errorf("soilcn: organic matter %s: CN_Ratio_AOM_Slow=%g but should be >0",
			p.Name, p.CNRatioAOMSlow)
	}
	if s := p.PartAOMSlowToSMBSlow + p.PartAOMSlowToSMBFast; s > 1+1.e-9 {
		return fmt.Errorf("soilcn: organic matter %s: PartAOM_Slow_to_SMB_Slow+PartAOM_Slow_to_SMB_Fast=%g but should be <=1",
			p.Name, s)
	}
	for _, f := range []namedValue{
		{"AOM_NH4Content", p.AOMNH4Content},
		{"AOM_NO3Content", p.AOMNO3Content},
		{"AOM_CarbamidContent", p.AOMCarbamidContent},
		{"AOM_SlowDecCoeffStandard", p.AOMSlowDecCoeffStandard},
		{"AOM_FastDecCoeffStandard", p.AOMFastDecCoeffStandard},
		{"CN_Ratio_AOM_Fast", p.CNRatioAOMFast},
		{"NConcentration", p.NConcentration},
	} {
		if f.v < 0 {
			return fmt.Errorf("soilcn: organic matter %s: %s=%g but should be >=0", p.Name, f.name, f.v)
		}
	}
	return nil
}

// MineralFertiliserParameters describe the composition of a mineral
// fertiliser as fractions of its nitrogen.
type MineralFertiliserParameters struct {
	Name     string
	Carbamid float64
	NH4      float64
	NO3      float64
}

// Check returns an error if the fractions are negative or do not sum to 1.
func (p *MineralFertiliserParameters) Check() error {
	if p.Carbamid < 0 || p.NH4 < 0 || p.NO3 < 0 {
		return fmt.Errorf("soilcn: mineral fertiliser %s has negative fractions", p.Name)
	}
	if s := p.Carbamid + p.NH4 + p.NO3; s < 1-1.e-6 || s > 1+1.e-6 {
		return fmt.Errorf("soilcn: mineral fertiliser %s fractions sum to %g but should sum to 1", p.Name, s)
	}
	return nil
}

// TransportParameters are the parameters of nitrate transport.
type TransportParameters struct {
	DispersionLength             float64 // [m]
	AD                           float64 // impedance factor for diffusion
	DiffusionCoefficientStandard float64 // [m²/d]
	NDeposition                  float64 // [kg N/ha/y]
}

// DefaultTransportParameters returns the MONICA default parameters.
func DefaultTransportParameters() *TransportParameters {
	return &TransportParameters{
		DispersionLength:             0.049,
		AD:                           0.002,
		DiffusionCoefficientStandard: 2.14e-4,
		NDeposition:                  30,
	}
}

// Check returns an error if any parameter is negative.
func (p *TransportParameters) Check() error {
	for _, f := range []namedValue{
		{"DispersionLength", p.DispersionLength},
		{"AD", p.AD},
		{"DiffusionCoefficientStandard", p.DiffusionCoefficientStandard},
		{"NDeposition", p.NDeposition},
	} {
		if f.v < 0 {
			return fmt.Errorf("soilcn: transport parameter %s=%g but should be >=0", f.name, f.v)
		}
	}
	return nil
}
