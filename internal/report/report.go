package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"

	"github.com/signalnine/tspselect/internal/result"
)

var ErrNoFolds = errors.New("no fold results found")

type FoldSummary struct {
	Fold            int     `json:"fold"`
	Loss            string  `json:"loss"`
	Epochs          int     `json:"epochs"`
	BestAccuracy    float64 `json:"best_accuracy"`
	BestRatio       float64 `json:"best_ratio"`
	BestImproveRate float64 `json:"best_improve_rate"`
	FinalAccuracy   float64 `json:"final_accuracy"`
	FinalRatio      float64 `json:"final_ratio"`
	SingleBestRatio float64 `json:"single_best_ratio"`
}

type Report struct {
	Folds []FoldSummary `json:"folds"`
	Mean  FoldSummary   `json:"mean"`
}

// Generate reads fold results under runDir and renders them as a table,
// markdown or json.
func Generate(runDir, format string, w io.Writer) error {
	metas, err := CollectMetas(runDir)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		return fmt.Errorf("%s: %w", runDir, ErrNoFolds)
	}
	rep := aggregate(metas)

	switch format {
	case "markdown":
		return writeMarkdown(rep, w)
	case "json":
		return writeJSON(rep, w)
	default:
		return writeTable(rep, w)
	}
}

// CollectMetas loads every fold meta.json under runDir, ordered by fold.
// Unreadable files are skipped.
func CollectMetas(runDir string) ([]*result.FoldMeta, error) {
	var metas []*result.FoldMeta
	err := filepath.Walk(runDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Name() == "meta.json" {
			meta, err := result.ReadFoldMeta(path)
			if err != nil {
				return nil
			}
			metas = append(metas, meta)
		}
		return nil
	})
	sort.Slice(metas, func(i, j int) bool { return metas[i].Fold < metas[j].Fold })
	return metas, err
}

func aggregate(metas []*result.FoldMeta) Report {
	var rep Report
	cols := make([][]float64, 6)
	for _, m := range metas {
		s := FoldSummary{
			Fold:            m.Fold,
			Loss:            m.Loss,
			Epochs:          len(m.Epochs),
			BestAccuracy:    m.Best.Accuracy,
			BestRatio:       m.Best.Ratio,
			BestImproveRate: m.Best.ImproveRate,
			FinalAccuracy:   m.Final.Accuracy,
			FinalRatio:      m.Final.Ratio,
		}
		if m.Final.VirtualBest > 0 {
			s.SingleBestRatio = m.Final.SingleBest / m.Final.VirtualBest
		}
		rep.Folds = append(rep.Folds, s)
		for i, v := range []float64{s.BestAccuracy, s.BestRatio, s.BestImproveRate, s.FinalAccuracy, s.FinalRatio, s.SingleBestRatio} {
			cols[i] = append(cols[i], v)
		}
	}
	rep.Mean = FoldSummary{
		Fold:            -1,
		Loss:            metas[0].Loss,
		BestAccuracy:    stat.Mean(cols[0], nil),
		BestRatio:       stat.Mean(cols[1], nil),
		BestImproveRate: stat.Mean(cols[2], nil),
		FinalAccuracy:   stat.Mean(cols[3], nil),
		FinalRatio:      stat.Mean(cols[4], nil),
		SingleBestRatio: stat.Mean(cols[5], nil),
	}
	return rep
}

func writeTable(rep Report, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FOLD\tLOSS\tEPOCHS\tBEST ACC\tBEST RATIO\tBEST IMPROVE\tFINAL ACC\tFINAL RATIO\tSBS RATIO")
	fmt.Fprintln(tw, strings.Repeat("-", 96))
	for _, s := range rep.Folds {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.1f%%\t%.3f\t%.1f%%\t%.1f%%\t%.3f\t%.3f\n",
			s.Fold, s.Loss, s.Epochs, s.BestAccuracy*100, s.BestRatio, s.BestImproveRate*100,
			s.FinalAccuracy*100, s.FinalRatio, s.SingleBestRatio)
	}
	m := rep.Mean
	fmt.Fprintf(tw, "MEAN\t%s\t\t%.1f%%\t%.3f\t%.1f%%\t%.1f%%\t%.3f\t%.3f\n",
		m.Loss, m.BestAccuracy*100, m.BestRatio, m.BestImproveRate*100,
		m.FinalAccuracy*100, m.FinalRatio, m.SingleBestRatio)
	return tw.Flush()
}

func writeMarkdown(rep Report, w io.Writer) error {
	fmt.Fprintln(w, "| Fold | Loss | Epochs | Best Acc | Best Ratio | Best Improve | Final Acc | Final Ratio | SBS Ratio |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|---|---|---|")
	for _, s := range rep.Folds {
		fmt.Fprintf(w, "| %d | %s | %d | %.1f%% | %.3f | %.1f%% | %.1f%% | %.3f | %.3f |\n",
			s.Fold, s.Loss, s.Epochs, s.BestAccuracy*100, s.BestRatio, s.BestImproveRate*100,
			s.FinalAccuracy*100, s.FinalRatio, s.SingleBestRatio)
	}
	m := rep.Mean
	fmt.Fprintf(w, "| **mean** | %s | | %.1f%% | %.3f | %.1f%% | %.1f%% | %.3f | %.3f |\n",
		m.Loss, m.BestAccuracy*100, m.BestRatio, m.BestImproveRate*100,
		m.FinalAccuracy*100, m.FinalRatio, m.SingleBestRatio)
	return nil
}

func writeJSON(rep Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
