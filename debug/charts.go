package debug

import (
	"io"
	"log"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Charts 曲线绘制
type Charts struct {
	Record
}

// Render 格式化
func (c *Charts) Render(w io.Writer) error {
	// 电离度曲线
	lineX := charts.NewLine()
	lineX.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "电离历史",
			Subtitle: "电离度随红移变化曲线",
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      50,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(true),
	)
	// 温度曲线
	lineT := charts.NewLine()
	lineT.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "温度历史",
			Subtitle: "重子温度与辐射温度随红移变化曲线",
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      50,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(true),
	)
	// 可见度曲线
	lineG := charts.NewLine()
	lineG.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "可见度函数",
			Subtitle: "可见度函数与散射率随红移变化曲线",
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      50,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(true),
	)
	// 处理数据
	{
		addSeries := func(line *charts.Line, name string, ys []float64) {
			items := make([]opts.LineData, len(ys))
			for i, v := range ys {
				items[i].Value = v
			}
			s := charts.SingleSeries{
				Name: name,
				Data: items,
				Type: types.ChartLine,
			}
			s.InitSeriesDefaultOpts(line.BaseConfiguration)
			line.MultiSeries = append(line.MultiSeries, s)
		}
		lineX.SetXAxis(c.Z)
		addSeries(lineX, "x_e", c.Xe)
		addSeries(lineX, "x_H", c.XH)
		addSeries(lineX, "x_He", c.XHe)

		lineT.SetXAxis(c.Z)
		addSeries(lineT, "T_b", c.Tb)
		addSeries(lineT, "T_rad", c.Trad)

		lineG.SetXAxis(c.Z)
		addSeries(lineG, "g", c.G)
		addSeries(lineG, "dkappa/dtau", c.DKappa)
	}
	// 构建界面
	page := components.NewPage()
	page.AddCharts(
		lineX,
		lineT,
		lineG,
	)
	return page.Render(w)
}

// Handler 发布到网页面
func (c *Charts) Handler(w http.ResponseWriter, _ *http.Request) {
	c.Render(w)
}

func (c *Charts) Error(err error) { log.Println(err) }
