package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/signalnine/tspselect/internal/result"
)

// Curves names the learning-curve images Plot writes.
var Curves = []string{"ratio.png", "accuracy.png"}

// Plot draws validation ratio and accuracy per epoch, one line per fold,
// into outDir.
func Plot(runDir, outDir string) error {
	metas, err := CollectMetas(runDir)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		return fmt.Errorf("%s: %w", runDir, ErrNoFolds)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}
	if err := curve(metas, "Validation ratio to virtual best", "ratio",
		func(e result.Epoch) float64 { return e.Val.Ratio },
		filepath.Join(outDir, Curves[0])); err != nil {
		return err
	}
	return curve(metas, "Validation accuracy", "accuracy",
		func(e result.Epoch) float64 { return e.Val.Accuracy },
		filepath.Join(outDir, Curves[1]))
}

func curve(metas []*result.FoldMeta, title, ylabel string, y func(result.Epoch) float64, outPath string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	for i, m := range metas {
		pts := make(plotter.XYs, len(m.Epochs))
		for j, e := range m.Epochs {
			pts[j].X = float64(e.Epoch)
			pts[j].Y = y(e)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("fold %d: %w", m.Fold, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("fold %d", m.Fold), line)
	}
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 4*vg.Inch, outPath); err != nil {
		return fmt.Errorf("saving %s: %w", filepath.Base(outPath), err)
	}
	return nil
}
