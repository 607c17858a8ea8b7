package history

import (
	"math"
	"testing"

	"thermo/types"
)

func TestCambProfile(t *testing.T) {
	r := ReioParams{
		Parametrization: types.ReioCamb,
		ZReio:           7.68,
		Exponent:        1.5,
		Width:           0.5,
		HeZ:             3.5,
		HeWidth:         0.5,
		XeAfter:         1.08,
		XeBefore:        2e-4,
		HeAmp:           0.08,
		ZStart:          50,
	}
	// 1.起始红移之上恒为复合末端值
	for _, z := range []float64{50, 60, 100} {
		x, err := r.Xe(z)
		if err != nil {
			t.Fatal("轮廓计算失败:", err)
		}
		if x != r.XeBefore {
			t.Fatalf("起始红移之上轮廓错误: xe(%g)=%g", z, x)
		}
	}
	// 2.中心红移处氢贡献为台阶中点
	x, err := r.Xe(r.ZReio)
	if err != nil {
		t.Fatal("轮廓计算失败:", err)
	}
	mid := r.XeBefore + (r.XeAfter-r.XeBefore)/2
	if math.Abs(x-mid) > 0.01 {
		t.Fatalf("中心红移处轮廓偏离中点: %g 期望约 %g", x, mid)
	}
	// 3.今日包含氦的第二次再电离贡献
	x0, err := r.Xe(0)
	if err != nil {
		t.Fatal("轮廓计算失败:", err)
	}
	if math.Abs(x0-(r.XeAfter+r.HeAmp)) > 1e-3 {
		t.Fatalf("今日电离度错误: %g 期望约 %g", x0, r.XeAfter+r.HeAmp)
	}
	// 4.轮廓随红移单调下降
	prev := x0
	for z := 0.5; z < 49; z += 0.5 {
		x, err := r.Xe(z)
		if err != nil {
			t.Fatal("轮廓计算失败:", err)
		}
		if x > prev+1e-12 {
			t.Fatalf("camb 轮廓不单调: xe(%g)=%g > %g", z, x, prev)
		}
		prev = x
	}
}

func TestBinsProfile(t *testing.T) {
	r := ReioParams{
		Parametrization: types.ReioBinsTanh,
		BinZ:            []float64{5, 8, 12},
		BinXe:           []float64{1.0, 0.5, 0.1},
		Sharpness:       0.3,
		XeBefore:        2e-4,
		ZStart:          50,
	}
	// 桶心处精确取桶值
	for i, z := range r.BinZ {
		x, err := r.Xe(z)
		if err != nil {
			t.Fatal("轮廓计算失败:", err)
		}
		if math.Abs(x-r.BinXe[i]) > 1e-9 {
			t.Fatalf("桶心 z=%g 处轮廓错误: %g 期望 %g", z, x, r.BinXe[i])
		}
	}
	// 首桶之下保持首桶值
	x, err := r.Xe(1)
	if err != nil {
		t.Fatal("轮廓计算失败:", err)
	}
	if x != r.BinXe[0] {
		t.Fatalf("首桶之下轮廓错误: %g", x)
	}
	// 末桶之上回落到复合末端值
	x, err = r.Xe(45)
	if err != nil {
		t.Fatal("轮廓计算失败:", err)
	}
	if x != r.XeBefore {
		t.Fatalf("末桶之上轮廓错误: %g", x)
	}
}

func TestManyTanhProfile(t *testing.T) {
	r := ReioParams{
		Parametrization: types.ReioManyTanh,
		BinZ:            []float64{3.5, 10},
		BinXe:           []float64{1.16, 1.08},
		Width:           0.5,
		XeBefore:        2e-4,
		ZStart:          50,
	}
	// 台阶之间逼近目标平台值
	x, err := r.Xe(7)
	if err != nil {
		t.Fatal("轮廓计算失败:", err)
	}
	if math.Abs(x-1.08) > 0.01 {
		t.Fatalf("中间平台值错误: %g 期望约 1.08", x)
	}
	x, err = r.Xe(0)
	if err != nil {
		t.Fatal("轮廓计算失败:", err)
	}
	if math.Abs(x-1.16) > 0.01 {
		t.Fatalf("今日平台值错误: %g 期望约 1.16", x)
	}
	x, err = r.Xe(30)
	if err != nil {
		t.Fatal("轮廓计算失败:", err)
	}
	if math.Abs(x-r.XeBefore) > 0.01 {
		t.Fatalf("高红移平台值错误: %g", x)
	}
}

func TestInterProfile(t *testing.T) {
	r := ReioParams{
		Parametrization: types.ReioInter,
		BinZ:            []float64{0, 6, 20},
		BinXe:           []float64{1.1, 0.8, 0.05},
		XeBefore:        2e-4,
		ZStart:          50,
	}
	// 节点处精确取节点值
	for i, z := range r.BinZ {
		x, err := r.Xe(z)
		if err != nil {
			t.Fatal("轮廓计算失败:", err)
		}
		if math.Abs(x-r.BinXe[i]) > 1e-12 {
			t.Fatalf("节点 z=%g 处轮廓错误: %g 期望 %g", z, x, r.BinXe[i])
		}
	}
	// 节点之间线性
	x, err := r.Xe(3)
	if err != nil {
		t.Fatal("轮廓计算失败:", err)
	}
	if math.Abs(x-0.95) > 1e-12 {
		t.Fatalf("节点间线性插值错误: %g 期望 0.95", x)
	}
	// 末节点之上向复合末端值过渡
	x, err = r.Xe(35)
	if err != nil {
		t.Fatal("轮廓计算失败:", err)
	}
	if x >= 0.05 || x < r.XeBefore {
		t.Fatalf("末节点之上轮廓错误: %g", x)
	}
}
