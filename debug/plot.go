package debug

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SaveIonizationPNG 输出电离历史图像，横轴为 log10(1+z)
func (c *Charts) SaveIonizationPNG(path string) error {
	p := plot.New()
	p.Title.Text = "Ionization history"
	p.X.Label.Text = "log10(1+z)"
	p.Y.Label.Text = "x_e"

	curves := []struct {
		name string
		ys   []float64
	}{
		{"x_e", c.Xe},
		{"x_H", c.XH},
		{"x_He", c.XHe},
	}
	for _, cur := range curves {
		xy := make(plotter.XYs, len(c.Z))
		for i := range c.Z {
			xy[i].X = math.Log10(1 + c.Z[i])
			xy[i].Y = cur.ys[i]
		}
		line, err := plotter.NewLine(xy)
		if err != nil {
			return fmt.Errorf("曲线构建失败: %w", err)
		}
		p.Add(line)
		p.Legend.Add(cur.name, line)
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// SaveVisibilityPNG 输出可见度函数图像
func (c *Charts) SaveVisibilityPNG(path string) error {
	p := plot.New()
	p.Title.Text = "Visibility function"
	p.X.Label.Text = "z"
	p.Y.Label.Text = "g [1/Mpc]"

	xy := make(plotter.XYs, 0, len(c.Z))
	for i := range c.Z {
		// 聚焦复合峰附近
		if c.Z[i] > 3000 {
			continue
		}
		xy = append(xy, plotter.XY{X: c.Z[i], Y: c.G[i]})
	}
	line, err := plotter.NewLine(xy)
	if err != nil {
		return fmt.Errorf("曲线构建失败: %w", err)
	}
	p.Add(line)
	p.Legend.Add("g", line)
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
