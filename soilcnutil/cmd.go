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
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/soilcn"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to soilcn.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "WeatherFile",
			usage: `
              WeatherFile is the path to a CSV file of daily weather with the
              columns date (YYYY-MM-DD), precipitation [mm/d], temperature [°C]
              and wind [m/s]. It can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "LibraryFile",
			usage: `
              LibraryFile is the path to a TOML file of organic fertilisers,
              mineral fertilisers and crops that are added to the built-in
              library. It can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "OrganicParameterFile",
			usage: `
              OrganicParameterFile is the path to a TOML file overriding the
              default soil organic matter parameters. It can include
              environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Formulation.Nitrification",
			usage: `
              Formulation.Nitrification selects the nitrification formulation.
              Valid options are "monica" and "stics".`,
			defaultVal: string(soilcn.MONICA),
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Formulation.Denitrification",
			usage: `
              Formulation.Denitrification selects the denitrification formulation.
              Valid options are "monica" and "stics".`,
			defaultVal: string(soilcn.MONICA),
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Formulation.N2O",
			usage: `
              Formulation.N2O selects the N2O production formulation.
              Valid options are "monica" and "stics".`,
			defaultVal: string(soilcn.MONICA),
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.NumLayers",
			usage: `
              Soil.NumLayers is the number of soil layers.`,
			defaultVal: 20,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.LayerThickness",
			usage: `
              Soil.LayerThickness is the thickness of each soil layer [m].`,
			defaultVal: 0.1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.FieldCapacity",
			usage: `
              Soil.FieldCapacity is the volumetric water content at field capacity [m³/m³].`,
			defaultVal: 0.3,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.Saturation",
			usage: `
              Soil.Saturation is the volumetric water content at saturation [m³/m³].`,
			defaultVal: 0.45,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.WiltingPoint",
			usage: `
              Soil.WiltingPoint is the volumetric water content at the permanent
              wilting point [m³/m³].`,
			defaultVal: 0.12,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.ResidualMoisture",
			usage: `
              Soil.ResidualMoisture is the residual water content of the van
              Genuchten retention curve [m³/m³].`,
			defaultVal: 0.05,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.Drainage",
			usage: `
              Soil.Drainage is the fraction of the water above field capacity
              that drains from a layer each day.`,
			defaultVal: 0.5,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.VanGenuchtenAlpha",
			usage: `
              Soil.VanGenuchtenAlpha is the α parameter of the van Genuchten
              retention curve [1/cm].`,
			defaultVal: 0.02,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.VanGenuchtenN",
			usage: `
              Soil.VanGenuchtenN is the n parameter of the van Genuchten
              retention curve.`,
			defaultVal: 1.4,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.Clay",
			usage: `
              Soil.Clay is the clay content of the soil [kg/kg].`,
			defaultVal: 0.15,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.PH",
			usage: `
              Soil.PH is the pH of the soil.`,
			defaultVal: 6.5,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.BulkDensity",
			usage: `
              Soil.BulkDensity is the dry bulk density of the soil [kg/m³].`,
			defaultVal: 1400.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.DampingDepth",
			usage: `
              Soil.DampingDepth is the depth [m] over which the daily response of
              soil temperature to air temperature decreases by a factor of e.`,
			defaultVal: 0.5,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Soil.InitialTemperature",
			usage: `
              Soil.InitialTemperature is the temperature of all soil layers at
              the start of the simulation [°C].`,
			defaultVal: 8.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Site.TopsoilOrganicCarbon",
			usage: `
              Site.TopsoilOrganicCarbon is the organic carbon content of the
              topsoil [kg C/kg soil].`,
			defaultVal: 0.012,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Site.SubsoilOrganicCarbon",
			usage: `
              Site.SubsoilOrganicCarbon is the organic carbon content that the
              subsoil approaches with depth [kg C/kg soil].`,
			defaultVal: 0.002,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Site.TopsoilDepth",
			usage: `
              Site.TopsoilDepth is the depth of the topsoil [m].`,
			defaultVal: 0.3,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Site.SoilCNRatio",
			usage: `
              Site.SoilCNRatio is the C:N ratio of soil organic matter.`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Site.NH4",
			usage: `
              Site.NH4 is the initial ammonium content of every layer [kg N/m³].`,
			defaultVal: 0.0005,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Site.NO3",
			usage: `
              Site.NO3 is the initial nitrate content of every layer [kg N/m³].`,
			defaultVal: 0.003,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Transport.DispersionLength",
			usage: `
              Transport.DispersionLength is the dispersion length of nitrate
              transport [m].`,
			defaultVal: soilcn.DefaultTransportParameters().DispersionLength,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Transport.AD",
			usage: `
              Transport.AD is the impedance factor for nitrate diffusion.`,
			defaultVal: soilcn.DefaultTransportParameters().AD,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Transport.DiffusionCoefficientStandard",
			usage: `
              Transport.DiffusionCoefficientStandard is the diffusion coefficient
              of nitrate in free water [m²/d].`,
			defaultVal: soilcn.DefaultTransportParameters().DiffusionCoefficientStandard,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "Transport.NDeposition",
			usage: `
              Transport.NDeposition is the atmospheric nitrogen deposition
              [kg N/ha/y].`,
			defaultVal: soilcn.DefaultTransportParameters().NDeposition,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), spinupCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output CSV file location. It can
              include environment variables.`,
			defaultVal: "soilcn_output.csv",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies which model variables should be included
              in the output file. Layer variables are written for every layer in
              OutputLayers.`,
			defaultVal: []string{"SoilOrganicC", "NO3", "NH4", "NLeaching", "GaseousNLoss", "NEP"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputLayers",
			usage: `
              OutputLayers specifies the indices of the layers for which layer
              variables are written, starting at 0 for the top layer.`,
			defaultVal: []int{0, 1, 2},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile is the path to an optional PNG plot of the output variables.
              It can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, the logfile will be saved in
              the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum severity of log messages. Valid options are
              "debug", "info", "warning" and "error".`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Spinup.Tolerance",
			usage: `
              Spinup.Tolerance is the fractional change in profile organic carbon
              over one repetition of the weather below which the spin-up is
              considered converged.`,
			defaultVal: 1.e-4,
			flagsets:   []*pflag.FlagSet{spinupCmd.Flags()},
		},
		{
			name: "Spinup.MaxCycles",
			usage: `
              Spinup.MaxCycles is the maximum number of repetitions of the weather
              during spin-up.`,
			defaultVal: 500,
			flagsets:   []*pflag.FlagSet{spinupCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SOILCN")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(spinupCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("soilcnutil: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "soilcn",
	Short: "A soil carbon and nitrogen model.",
	Long: `soilcn simulates the daily carbon and nitrogen dynamics of a layered
agricultural soil: decomposition of crop residues, manures and native organic
matter, microbial turnover, urea hydrolysis, ammonia volatilisation,
nitrification, denitrification, N2O production and nitrate leaching.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'SOILCN_var' where 'var' is the
name of the variable to be set, with '.' replaced by '_'. Many configuration
variables are additionally allowed to contain environment variables within them.
Management worksteps can only be set in the configuration file, as an array
of [[Worksteps]] tables.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of soilcn.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("soilcn v%s\n", soilcn.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that runs a daily simulation.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model.",
	Long: `run simulates every day of the weather file, applying the management
worksteps in the configuration file, and writes the requested output variables
to a CSV file with one row per day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		layers, err := toIntSliceE(Cfg.Get("OutputLayers"))
		if err != nil {
			return fmt.Errorf("soilcnutil: reading OutputLayers: %v", err)
		}
		log, closeLog, err := NewLogger(cmd.OutOrStdout(),
			checkLogFile(Cfg.GetString("LogFile"), outputFile), Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		defer closeLog()

		s, err := SimulationConfig(Cfg)
		if err != nil {
			return err
		}
		s.Model.Log = log

		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("soilcnutil: problem creating output file: %v", err)
		}
		defer f.Close()
		o, err := NewOutputter(f, s.Model, expandStringSlice(Cfg.GetStringSlice("OutputVariables")), layers)
		if err != nil {
			return err
		}
		if err := s.Run(o); err != nil {
			return err
		}
		if p := os.ExpandEnv(Cfg.GetString("PlotFile")); p != "" {
			pf, err := os.Create(p)
			if err != nil {
				return fmt.Errorf("soilcnutil: problem creating plot file: %v", err)
			}
			defer pf.Close()
			if err := o.Plot(pf); err != nil {
				return err
			}
		}
		return f.Close()
	},
	DisableAutoGenTag: true,
}

// spinupCmd is a command that brings the soil organic matter pools into
// equilibrium with the weather and management.
var spinupCmd = &cobra.Command{
	Use:   "spinup",
	Short: "Bring the organic matter pools into equilibrium.",
	Long: `spinup repeats the weather file and management worksteps until the
organic carbon of the soil profile stops changing, and prints the
resulting carbon pools and mineral nitrogen of each layer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := NewLogger(cmd.OutOrStderr(), "", Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		defer closeLog()

		s, err := SimulationConfig(Cfg)
		if err != nil {
			return err
		}
		s.Model.Log = log
		cycles, converged, err := s.Spinup(Cfg.GetFloat64("Spinup.Tolerance"), Cfg.GetInt("Spinup.MaxCycles"))
		if err != nil {
			return err
		}
		cmd.Printf("spin-up: %d cycles, converged=%v\n", cycles, converged)
		return WritePools(cmd.OutOrStdout(), s.Model)
	},
	DisableAutoGenTag: true,
}
