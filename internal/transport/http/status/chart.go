package statushttp

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"sigcopy/internal/ledger"
)

const (
	colorBackground  = "#060c1b"
	colorTextPrimary = "#eceff4"
	chartWidth       = "900px"
	chartHeight      = "420px"
)

// reportChart renders the execution-history page: outcome totals plus a
// per-symbol breakdown of recent signals.
func (h *handlers) reportChart(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.ledger.Stats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	entries, err := h.ledger.Entries(ctx, defaultEntryLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(buildOutcomeChart(stats), buildSymbolChart(entries))

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func buildOutcomeChart(stats ledger.Stats) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           chartWidth,
			Height:          chartHeight,
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      "Execution Outcomes",
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	bar.SetXAxis([]string{"submitted", "filled", "rejected", "failed"})
	bar.AddSeries("attempts", []opts.BarData{
		{Value: stats.Submitted},
		{Value: stats.Filled},
		{Value: stats.Rejected},
		{Value: stats.Failed},
	})
	return bar
}

func buildSymbolChart(entries []ledger.Entry) *charts.Bar {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Signal.Symbol]++
	}
	symbols := make([]string, 0, len(counts))
	for sym := range counts {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	data := make([]opts.BarData, 0, len(symbols))
	for _, sym := range symbols {
		data = append(data, opts.BarData{Value: counts[sym]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           chartWidth,
			Height:          chartHeight,
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      "Recent Signals by Symbol",
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	bar.SetXAxis(symbols)
	bar.AddSeries("signals", data)
	return bar
}
