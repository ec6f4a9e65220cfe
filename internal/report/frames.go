package report

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/cwbudde/blendga/internal/ga"
)

// FrameWriter saves one design-space PNG per generation: every individual as a
// red dot, the best one as a large black dot. Generation g (g >= 1) is written
// to frame{g-1:02d}.png; the initial population is not written.
//
// Plotting errors never reach the engine. The first one is kept and returned
// by Err.
type FrameWriter struct {
	dir     string
	bounds  []ga.Bound
	written int
	err     error
}

// NewFrameWriter creates dir if needed.
func NewFrameWriter(dir string, bounds []ga.Bound) (*FrameWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}
	return &FrameWriter{
		dir:    dir,
		bounds: append([]ga.Bound(nil), bounds...),
	}, nil
}

// ObserveGeneration implements ga.Observer.
func (fw *FrameWriter) ObserveGeneration(s ga.Snapshot) {
	if s.Generation == 0 {
		return
	}
	path := filepath.Join(fw.dir, fmt.Sprintf("frame%02d.png", s.Generation-1))
	if err := fw.writeFrame(s, path); err != nil {
		if fw.err == nil {
			fw.err = err
		}
		slog.Warn("Failed to write frame", "generation", s.Generation, "path", path, "error", err)
		return
	}
	fw.written++
}

// Written returns the number of frames saved.
func (fw *FrameWriter) Written() int {
	return fw.written
}

// Err returns the first plotting error, if any.
func (fw *FrameWriter) Err() error {
	return fw.err
}

func (fw *FrameWriter) writeFrame(s ga.Snapshot, path string) error {
	if len(s.Population) == 0 {
		return fmt.Errorf("empty population")
	}

	// With a single gene the vertical axis shows fitness instead.
	point := func(ind ga.Individual) plotter.XY {
		if len(ind.Genes) > 1 {
			return plotter.XY{X: ind.Genes[0], Y: ind.Genes[1]}
		}
		return plotter.XY{X: ind.Genes[0], Y: ind.Fitness}
	}

	pts := make(plotter.XYs, len(s.Population))
	for i, ind := range s.Population {
		pts[i] = point(ind)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("design space (generation %d)", s.Generation)
	p.X.Label.Text = "design parameter x"
	p.Y.Label.Text = "design parameter y"

	all, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	all.GlyphStyle.Color = color.RGBA{R: 220, A: 255}
	all.GlyphStyle.Shape = draw.CircleGlyph{}
	all.GlyphStyle.Radius = vg.Points(3)

	best, err := plotter.NewScatter(plotter.XYs{point(s.Population[0])})
	if err != nil {
		return fmt.Errorf("failed to build best marker: %w", err)
	}
	best.GlyphStyle.Color = color.Black
	best.GlyphStyle.Shape = draw.CircleGlyph{}
	best.GlyphStyle.Radius = vg.Points(6)

	p.Add(all, best)

	p.X.Min, p.X.Max = fw.bounds[0].Min, fw.bounds[0].Max
	if len(fw.bounds) > 1 {
		p.Y.Min, p.Y.Max = fw.bounds[1].Min, fw.bounds[1].Max
	} else {
		p.Y.Label.Text = "objective"
	}

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save frame: %w", err)
	}
	return nil
}

// WriteConvergence plots best fitness against generation.
func WriteConvergence(history []ga.GenerationRecord, path string) error {
	if len(history) == 0 {
		return fmt.Errorf("empty history")
	}

	pts := make(plotter.XYs, len(history))
	for i, rec := range history {
		pts[i] = plotter.XY{X: float64(rec.Generation), Y: rec.BestFitness}
	}

	p := plot.New()
	p.Title.Text = "objective space"
	p.X.Label.Text = "Number of generations"
	p.Y.Label.Text = "Best objective value"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build line: %w", err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save convergence plot: %w", err)
	}
	return nil
}
