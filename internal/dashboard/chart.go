package dashboard

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// BuildLineChart renders a series as a go-echarts line chart. Fields
// classified onto the secondary axis get their own y-axis so small-valued
// metrics are not flattened by large ones.
func BuildLineChart(series *Series, title string) *charts.Line {
	line := charts.NewLine()

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "macarons"}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{
				Rotate: 45,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
			AxisPointer: &opts.AxisPointer{
				Type: "cross",
			},
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Bottom: "bottom",
		}),
	)

	if len(series.Axes.Secondary) > 0 {
		line.ExtendYAxis(opts.YAxis{
			Type:  "value",
			Scale: opts.Bool(true),
		})
	}

	xLabels := make([]string, 0, len(series.Buckets))
	for _, bucket := range series.Buckets {
		xLabels = append(xLabels, bucket.DisplayLabel)
	}
	line.SetXAxis(xLabels)

	addFieldSeries := func(fields []string, yAxisIndex int) {
		for _, field := range fields {
			data := make([]opts.LineData, 0, len(series.Buckets))
			for _, bucket := range series.Buckets {
				if value := bucket.MetricAverages[field]; value != nil {
					data = append(data, opts.LineData{Value: *value})
				} else {
					data = append(data, opts.LineData{Value: nil})
				}
			}
			line.AddSeries(
				series.Labels[field], data,
				charts.WithLineChartOpts(opts.LineChart{
					Smooth:     opts.Bool(true),
					YAxisIndex: yAxisIndex,
				}),
			)
		}
	}

	addFieldSeries(series.Axes.Primary, 0)
	addFieldSeries(series.Axes.Secondary, 1)

	return line
}
