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
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/soilcn"
	"github.com/spatialmodel/soilcn/management"
	"github.com/spf13/cast"
)

// SoilColumnConfig unmarshals a viper configuration for a bucket soil
// column.
func SoilColumnConfig(cfg *viper.Viper) (*BucketColumn, error) {
	return NewBucketColumn(SoilConfig{
		NumLayers:          cfg.GetInt("Soil.NumLayers"),
		LayerThickness:     cfg.GetFloat64("Soil.LayerThickness"),
		FieldCapacity:      cfg.GetFloat64("Soil.FieldCapacity"),
		Saturation:         cfg.GetFloat64("Soil.Saturation"),
		WiltingPoint:       cfg.GetFloat64("Soil.WiltingPoint"),
		Drainage:           cfg.GetFloat64("Soil.Drainage"),
		Alpha:              cfg.GetFloat64("Soil.VanGenuchtenAlpha"),
		N:                  cfg.GetFloat64("Soil.VanGenuchtenN"),
		ResidualMoisture:   cfg.GetFloat64("Soil.ResidualMoisture"),
		Clay:               cfg.GetFloat64("Soil.Clay"),
		PH:                 cfg.GetFloat64("Soil.PH"),
		BulkDensity:        cfg.GetFloat64("Soil.BulkDensity"),
		DampingDepth:       cfg.GetFloat64("Soil.DampingDepth"),
		InitialTemperature: cfg.GetFloat64("Soil.InitialTemperature"),
	})
}

// SiteConfig unmarshals the initial state of a soil profile with the
// given layer thicknesses [m]. Organic carbon is uniform down to
// Site.TopsoilDepth and decreases exponentially below it towards
// Site.SubsoilOrganicCarbon.
func SiteConfig(cfg *viper.Viper, thickness []float64) (soilcn.SiteParameters, error) {
	top := cfg.GetFloat64("Site.TopsoilOrganicCarbon")
	sub := cfg.GetFloat64("Site.SubsoilOrganicCarbon")
	depth := cfg.GetFloat64("Site.TopsoilDepth")
	vars := []float64{top, sub, depth}
	varNames := []string{"Site.TopsoilOrganicCarbon", "Site.SubsoilOrganicCarbon", "Site.TopsoilDepth"}
	for i, v := range vars {
		if !(v >= 0) {
			return soilcn.SiteParameters{}, fmt.Errorf("soilcnutil: %s=%g but should be >=0", varNames[i], v)
		}
	}
	s := soilcn.SiteParameters{
		SoilOrganicCarbon: make([]float64, len(thickness)),
		SoilCNRatio:       cfg.GetFloat64("Site.SoilCNRatio"),
		NH4:               make([]float64, len(thickness)),
		NO3:               make([]float64, len(thickness)),
	}
	var z float64
	for i, dz := range thickness {
		centre := z + dz/2
		z += dz
		s.SoilOrganicCarbon[i] = top
		if centre > depth {
			s.SoilOrganicCarbon[i] = sub + (top-sub)*math.Exp(-3*(centre-depth))
		}
		s.NH4[i] = cfg.GetFloat64("Site.NH4")
		s.NO3[i] = cfg.GetFloat64("Site.NO3")
	}
	return s, nil
}

// OrganicParametersConfig returns the default soil organic parameters,
// overridden by the entries of the TOML file named by
// OrganicParameterFile if there is one.
func OrganicParametersConfig(cfg *viper.Viper) (*soilcn.OrganicParameters, error) {
	p := soilcn.DefaultOrganicParameters()
	if f := os.ExpandEnv(cfg.GetString("OrganicParameterFile")); f != "" {
		if _, err := toml.DecodeFile(f, p); err != nil {
			return nil, fmt.Errorf("soilcnutil: reading OrganicParameterFile: %v", err)
		}
	}
	return p, p.Check()
}

// TransportConfig unmarshals the nitrate transport parameters.
func TransportConfig(cfg *viper.Viper) (*soilcn.TransportParameters, error) {
	p := &soilcn.TransportParameters{
		DispersionLength:             cfg.GetFloat64("Transport.DispersionLength"),
		AD:                           cfg.GetFloat64("Transport.AD"),
		DiffusionCoefficientStandard: cfg.GetFloat64("Transport.DiffusionCoefficientStandard"),
		NDeposition:                  cfg.GetFloat64("Transport.NDeposition"),
	}
	return p, p.Check()
}

// FormulationConfig unmarshals the process formulations. Invalid names
// are reported when the model is created.
func FormulationConfig(cfg *viper.Viper) soilcn.Config {
	get := func(name string) soilcn.Formulation {
		return soilcn.Formulation(strings.ToLower(os.ExpandEnv(cfg.GetString(name))))
	}
	return soilcn.Config{
		Nitrification:   get("Formulation.Nitrification"),
		Denitrification: get("Formulation.Denitrification"),
		N2O:             get("Formulation.N2O"),
	}
}

// LibraryConfig returns the default library extended by the file named by
// LibraryFile, if any.
func LibraryConfig(cfg *viper.Viper, thickness []float64) (*Library, error) {
	lib := DefaultLibrary(thickness)
	if f := cfg.GetString("LibraryFile"); f != "" {
		if err := lib.LoadFile(f); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// SimulationConfig creates a simulation from a viper configuration.
func SimulationConfig(cfg *viper.Viper) (*Simulation, error) {
	column, err := SoilColumnConfig(cfg)
	if err != nil {
		return nil, err
	}
	thickness := make([]float64, column.NumLayers())
	for i := range thickness {
		thickness[i] = column.Thickness(i)
	}
	site, err := SiteConfig(cfg, thickness)
	if err != nil {
		return nil, err
	}
	op, err := OrganicParametersConfig(cfg)
	if err != nil {
		return nil, err
	}
	tp, err := TransportConfig(cfg)
	if err != nil {
		return nil, err
	}
	m, err := soilcn.NewModel(column, site, op, tp, FormulationConfig(cfg))
	if err != nil {
		return nil, err
	}
	lib, err := LibraryConfig(cfg, thickness)
	if err != nil {
		return nil, err
	}
	schedule, err := management.ParseAll(cfg.Get("Worksteps"), lib)
	if err != nil {
		return nil, err
	}
	if cfg.GetString("WeatherFile") == "" {
		return nil, fmt.Errorf("soilcnutil: you need to specify a weather file " +
			"(for example: WeatherFile=\"weather.csv\")")
	}
	weather, err := ReadWeatherFile(cfg.GetString("WeatherFile"))
	if err != nil {
		return nil, err
	}
	return &Simulation{Model: m, Column: column, Weather: weather, Schedule: schedule}, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`soilcnutil: you need to specify an output file configuration variable (for example: OutputFile="output.csv")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("soilcnutil: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return os.ExpandEnv(logFile)
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// toIntSliceE converts a configuration value to a slice of ints,
// accounting for the fact that it might be a JSON list if it was set
// from a command line argument or environment variable.
func toIntSliceE(i interface{}) ([]int, error) {
	if s, ok := i.(string); ok {
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		var o []int
		d := json.NewDecoder(bytes.NewBufferString(s))
		if err := d.Decode(&o); err != nil {
			return nil, err
		}
		return o, nil
	}
	return cast.ToIntSliceE(i)
}
