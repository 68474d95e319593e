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
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/soilcn"
	"github.com/spatialmodel/soilcn/management"
)

// target lets irrigation worksteps wet the soil column as well as supply
// water to the soil organic engine.
type target struct {
	*soilcn.Model
	column *BucketColumn
}

func (t target) AddIrrigationWater(amount float64) {
	t.Model.AddIrrigationWater(amount)
	t.column.Irrigate(amount)
}

// PutCrop restarts the season of prescribed crops, which are sown again
// in every spin-up cycle.
func (t target) PutCrop(c soilcn.Crop) {
	if pc, ok := c.(*PrescribedCrop); ok {
		pc.age = 0
	}
	t.Model.PutCrop(c)
}

// Simulation is a soil model driven by a bucket soil column, daily
// weather and a management schedule.
type Simulation struct {
	Model    *soilcn.Model
	Column   *BucketColumn
	Weather  []DailyWeather
	Schedule management.Schedule
}

// day simulates one day of weather w.
func (s *Simulation) day(w DailyWeather) error {
	if err := s.Schedule.Apply(target{Model: s.Model, column: s.Column}, w.Date); err != nil {
		return err
	}
	s.Column.Update(w.Weather)
	if err := s.Model.Step(w.Weather); err != nil {
		return fmt.Errorf("soilcnutil: %s: %v", w.Date.Format("2006-01-02"), err)
	}
	if c, ok := s.Model.Crop().(*PrescribedCrop); ok {
		c.Advance()
	}
	return nil
}

// NewLogger returns a logger writing to w and, if logFile is not empty,
// to that file. The returned function closes the file.
func NewLogger(w io.Writer, logFile, level string) (*logrus.Logger, func() error, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("soilcnutil: LogLevel: %v", err)
	}
	log := logrus.New()
	log.Level = lvl
	log.Out = w
	closer := func() error { return nil }
	if logFile != "" {
		f, err := os.Create(os.ExpandEnv(logFile))
		if err != nil {
			return nil, nil, fmt.Errorf("soilcnutil: problem creating log file: %v", err)
		}
		log.Out = io.MultiWriter(w, f)
		closer = f.Close
	}
	return log, closer, nil
}

// Run simulates every day of the weather, writing daily output to o.
func (s *Simulation) Run(o *Outputter) error {
	startTime := time.Now()
	s.Model.Log.WithFields(logrus.Fields{
		"days":       len(s.Weather),
		"worksteps":  len(s.Schedule),
		"layers":     len(s.Model.Layers),
		"start date": s.Weather[0].Date.Format("2006-01-02"),
	}).Info("soilcn: starting simulation")
	for _, w := range s.Weather {
		if err := s.day(w); err != nil {
			return err
		}
		if err := o.Output(s.Model, w.Date); err != nil {
			return err
		}
	}
	if err := o.Flush(); err != nil {
		return err
	}
	s.Model.Log.WithFields(logrus.Fields{
		"walltime":        time.Since(startTime).String(),
		"organic C":       s.Model.TotalC(),
		"N leaching":      s.Model.Transport.SumNLeaching(),
		"gaseous N loss":  s.Model.Organic.SumGaseousNLoss(),
		"diagnostic logs": len(s.Model.Diagnostics),
	}).Info("soilcn: simulation finished")
	return nil
}

// Spinup repeats the weather and management until the organic carbon of
// the profile changes by less than the fraction tolerance from one
// repetition to the next, or for maxCycles repetitions. It returns the
// number of repetitions and whether the profile converged.
func (s *Simulation) Spinup(tolerance float64, maxCycles int) (int, bool, error) {
	if maxCycles < 1 {
		return 0, false, fmt.Errorf("soilcnutil: Spinup.MaxCycles=%d but should be >=1", maxCycles)
	}
	period := len(s.Weather)
	funcs := s.Model.RunFuncs
	defer func() { s.Model.RunFuncs = funcs }()
	s.Model.RunFuncs = append(append([]soilcn.DomainManipulator(nil), funcs...),
		soilcn.EquilibriumCheck(tolerance, period, 0))
	s.Model.Done = false
	for cycle := 1; cycle <= maxCycles; cycle++ {
		for _, w := range s.Weather {
			if err := s.day(w); err != nil {
				return cycle, false, err
			}
		}
		s.Model.Organic.ResetSums()
		s.Model.Transport.ResetSums()
		if s.Model.Done {
			return cycle, true, nil
		}
	}
	s.Model.Log.WithFields(logrus.Fields{
		"cycles":    maxCycles,
		"tolerance": tolerance,
	}).Warn("soilcn: spin-up did not converge")
	return maxCycles, false, nil
}

// WritePools writes a table of the organic carbon pools and mineral
// nitrogen of each layer to w.
func WritePools(w io.Writer, m *soilcn.Model) error {
	vars := []string{"SMBSlow", "SMBFast", "SOMSlow", "SOMFast", "SOMInert", "AOMSlowSum", "AOMFastSum", "NH4", "NO3"}
	if _, err := fmt.Fprintf(w, "%-6s", "layer"); err != nil {
		return err
	}
	for _, v := range vars {
		fmt.Fprintf(w, " %12s", v)
	}
	fmt.Fprintln(w)
	for i := range m.Layers {
		fmt.Fprintf(w, "%-6d", i)
		for _, v := range vars {
			x, err := m.Value(v, i)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, " %12.6g", x)
		}
		fmt.Fprintln(w)
	}
	return nil
}
