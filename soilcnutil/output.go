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
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spatialmodel/soilcn"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// runVariable is a model output that is not specific to a layer.
type runVariable struct {
	units string
	f     func(*soilcn.Model) float64
}

// runVariables are the run-level outputs available by name.
var runVariables = map[string]runVariable{
	"TotalC":                {"kg C/ha", (*soilcn.Model).TotalC},
	"TotalN":                {"kg N/ha", (*soilcn.Model).TotalN},
	"NH3Volatilised":        {"kg N/ha/d", func(m *soilcn.Model) float64 { return m.Organic.NH3Volatilised() }},
	"N2OProduced":           {"kg N/ha/d", func(m *soilcn.Model) float64 { return m.Organic.N2OProduced() }},
	"Denitrification":       {"kg N/ha/d", func(m *soilcn.Model) float64 { return m.Organic.Denitrification() }},
	"NetNMineralisation":    {"kg N/ha/d", func(m *soilcn.Model) float64 { return m.Organic.NetNMineralisation() }},
	"GaseousNLoss":          {"kg N/ha/d", func(m *soilcn.Model) float64 { return m.Organic.GaseousNLoss() }},
	"DecomposerRespiration": {"kg C/ha/d", func(m *soilcn.Model) float64 { return m.Organic.DecomposerRespiration() }},
	"NEP":                   {"kg C/ha/d", func(m *soilcn.Model) float64 { return m.Organic.NEP() }},
	"NEE":                   {"kg C/ha/d", func(m *soilcn.Model) float64 { return m.Organic.NEE() }},
	"NLeaching":             {"kg N/ha/d", func(m *soilcn.Model) float64 { return m.Transport.NLeaching() }},
	"SumNH3Volatilised":     {"kg N/ha", func(m *soilcn.Model) float64 { return m.Organic.SumNH3Volatilised() }},
	"SumN2OProduced":        {"kg N/ha", func(m *soilcn.Model) float64 { return m.Organic.SumN2OProduced() }},
	"SumDenitrification":    {"kg N/ha", func(m *soilcn.Model) float64 { return m.Organic.SumDenitrification() }},
	"SumGaseousNLoss":       {"kg N/ha", func(m *soilcn.Model) float64 { return m.Organic.SumGaseousNLoss() }},
	"SumNLeaching":          {"kg N/ha", func(m *soilcn.Model) float64 { return m.Transport.SumNLeaching() }},
}

// OutputVariables returns the names of the available output variables.
func OutputVariables() []string {
	o := soilcn.LayerVariables()
	for k := range runVariables {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// column is one output column.
type column struct {
	name, units string
	value       func(*soilcn.Model) (float64, error)
}

// Outputter writes daily model results to CSV and keeps them for
// plotting.
type Outputter struct {
	w       *csv.Writer
	columns []column
	days    []time.Time
	values  [][]float64
}

// NewOutputter returns an Outputter writing the given variables to w.
// Layer variables are written for each of layers with the layer index
// in brackets, e.g. NO3[0]. A header row and a units row are written at
// once.
func NewOutputter(w io.Writer, m *soilcn.Model, variables []string, layers []int) (*Outputter, error) {
	if len(variables) == 0 {
		return nil, fmt.Errorf("soilcnutil: there are no variables specified for output; " +
			"please fill in the OutputVariables configuration and try again")
	}
	o := &Outputter{w: csv.NewWriter(w)}
	for _, v := range variables {
		if rv, ok := runVariables[v]; ok {
			f := rv.f
			o.columns = append(o.columns, column{
				name:  v,
				units: rv.units,
				value: func(m *soilcn.Model) (float64, error) { return f(m), nil },
			})
			continue
		}
		units, err := m.Units(v)
		if err != nil {
			return nil, fmt.Errorf("soilcnutil: invalid output variable %q; options are %s",
				v, strings.Join(OutputVariables(), ", "))
		}
		if len(layers) == 0 {
			return nil, fmt.Errorf("soilcnutil: layer variable %s requested but OutputLayers is empty", v)
		}
		for _, i := range layers {
			if i < 0 || i >= len(m.Layers) {
				return nil, &soilcn.LayerIndexError{Indices: []int{i}, NumLayers: len(m.Layers)}
			}
			name, layer := v, i
			o.columns = append(o.columns, column{
				name:  fmt.Sprintf("%s[%d]", v, i),
				units: units,
				value: func(m *soilcn.Model) (float64, error) { return m.Value(name, layer) },
			})
		}
	}
	header := []string{"Date"}
	units := []string{""}
	for _, c := range o.columns {
		header = append(header, c.name)
		units = append(units, c.units)
	}
	if err := o.w.Write(header); err != nil {
		return nil, err
	}
	if err := o.w.Write(units); err != nil {
		return nil, err
	}
	return o, nil
}

// Output writes the current state of m for date.
func (o *Outputter) Output(m *soilcn.Model, date time.Time) error {
	rec := make([]string, len(o.columns)+1)
	vals := make([]float64, len(o.columns))
	rec[0] = date.Format("2006-01-02")
	for i, c := range o.columns {
		v, err := c.value(m)
		if err != nil {
			return err
		}
		vals[i] = v
		rec[i+1] = strconv.FormatFloat(v, 'g', 8, 64)
	}
	o.days = append(o.days, date)
	o.values = append(o.values, vals)
	return o.w.Write(rec)
}

// Flush writes any buffered data.
func (o *Outputter) Flush() error {
	o.w.Flush()
	return o.w.Error()
}

// Plot writes a PNG line plot of every output column against the day of
// the simulation.
func (o *Outputter) Plot(w io.Writer) error {
	if len(o.days) == 0 {
		return fmt.Errorf("soilcnutil: there is no output to plot")
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("soilcn %s to %s",
		o.days[0].Format("2006-01-02"), o.days[len(o.days)-1].Format("2006-01-02"))
	p.X.Label.Text = "Day"
	var lines []interface{}
	for j, c := range o.columns {
		xy := make(plotter.XYs, len(o.days))
		for i := range o.days {
			xy[i].X = float64(i + 1)
			xy[i].Y = o.values[i][j]
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", c.name, c.units), xy)
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
