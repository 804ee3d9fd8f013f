// Command nestplot runs a nested-sampling scenario and renders an
// interactive HTML diagnostic page: a posterior scatter (colored by
// weight) and a cumulative-weight convergence line. Adapts the
// go-echarts page/scatter/line construction shape of the teacher's
// JonasLazardGIT-SPRUCE/Additionnals/plot_pacs_sweep.go to sampler
// output instead of proof-size sweep rows.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/vishalbelsare/DIAMONDS/likelihood"
	"github.com/vishalbelsare/DIAMONDS/nested"
	"github.com/vishalbelsare/DIAMONDS/prior"
	"github.com/vishalbelsare/DIAMONDS/reducer"
)

func main() {
	scenario := flag.String("scenario", "himmelblau", "gaussian2d|himmelblau|eggbox")
	outPath := flag.String("out", "nestplot.html", "output HTML file")
	flag.Parse()

	pr, like, err := buildScenario(*scenario)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scenario error:", err)
		os.Exit(1)
	}
	if pr.Dim() < 2 {
		fmt.Fprintln(os.Stderr, "nestplot requires a 2-D scenario")
		os.Exit(1)
	}

	cfg := nested.DefaultConfig()
	sampler, err := nested.New(cfg, pr, like, reducer.Feroz{Tolerance: 0.01}, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sampler error:", err)
		os.Exit(1)
	}
	res, err := sampler.Run(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "run error:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "logZ = %.6f, iterations = %d, posterior samples = %d\n", res.LogZ, res.Iterations, len(res.Posterior))

	page := components.NewPage().SetPageTitle("Nested Sampling Diagnostics")
	page.AddCharts(
		posteriorScatter(res, *scenario),
		weightConvergenceLine(res),
	)

	f, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create error:", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		fmt.Fprintln(os.Stderr, "render error:", err)
		os.Exit(1)
	}
}

func buildScenario(name string) (prior.Prior, nested.LikelihoodFunc, error) {
	switch name {
	case "gaussian2d":
		bx, err := prior.NewBox([][2]float64{{-5, 5}, {-5, 5}})
		return bx, likelihood.UnitGaussian, err
	case "himmelblau":
		bx, err := prior.NewBox([][2]float64{{-5, 5}, {-5, 5}})
		return bx, likelihood.Himmelblau, err
	case "eggbox":
		hi := 10 * math.Pi
		bx, err := prior.NewBox([][2]float64{{0, hi}, {0, hi}})
		return bx, likelihood.Eggbox, err
	default:
		return nil, nil, fmt.Errorf("unknown scenario %q", name)
	}
}

func posteriorScatter(res nested.Result, title string) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Posterior samples: " + title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "theta[0]", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "theta[1]", Type: "value"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Type:       "continuous",
			Dimension:  "2",
			Calculable: opts.Bool(true),
			InRange:    &opts.VisualMapInRange{Color: []string{"#0ea5e9", "#22c55e", "#ef4444"}},
		}),
	)

	items := make([]opts.ScatterData, 0, len(res.Posterior))
	for _, p := range res.Posterior {
		w := math.Exp(p.LogW - res.LogZ)
		items = append(items, opts.ScatterData{Value: []interface{}{p.Phys[0], p.Phys[1], w}})
	}
	sc.AddSeries("posterior", items, charts.WithScatterChartOpts(opts.ScatterChart{Symbol: "circle", SymbolSize: 4}))
	return sc
}

func weightConvergenceLine(res nested.Result) *charts.Line {
	weights := make([]float64, len(res.Posterior))
	for i, p := range res.Posterior {
		weights[i] = math.Exp(p.LogW - res.LogZ)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(weights)))

	xs := make([]string, len(weights))
	ys := make([]opts.LineData, len(weights))
	var cum float64
	for i, w := range weights {
		cum += w
		xs[i] = fmt.Sprintf("%d", i)
		ys[i] = opts.LineData{Value: cum}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Cumulative posterior weight (sorted descending)"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "rank"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cumulative weight"}),
	)
	line.SetXAxis(xs).AddSeries("cumulative weight", ys)
	return line
}
