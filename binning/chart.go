package binning

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/reference"
)

// SaveChart writes a bar chart of the per-bin WOE of one variable to path.
// The image format follows the file extension (png, svg, pdf, ...).
func SaveChart(rows []reference.WoeRow, path string) error {
	if len(rows) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "SaveChart")
	}

	p := plot.New()
	p.Title.Text = rows[0].VarName
	p.Y.Label.Text = "WOE"

	values := make(plotter.Values, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		values[i] = r.RefValue
		labels[i] = r.VarValue
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return errors.Wrap(err, "failed to build bar chart")
	}
	bars.Color = color.RGBA{R: 70, G: 110, B: 180, A: 255}
	p.Add(bars, plotter.NewGrid())
	p.NominalX(labels...)

	width := vg.Length(len(rows)+2) * vg.Inch
	if width < 4*vg.Inch {
		width = 4 * vg.Inch
	}
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save chart %s", path)
	}
	return nil
}
