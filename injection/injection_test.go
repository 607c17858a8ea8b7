package injection

import (
	"math"
	"testing"

	"thermo/types"
)

func TestDisabledByDefault(t *testing.T) {
	par := types.DefaultParams()
	m, err := New(&par)
	if err != nil {
		t.Fatal("模型构建失败:", err)
	}
	if m.Enabled() {
		t.Fatal("默认参数下不应有能量注入")
	}
	r, err := m.Rate(1000)
	if err != nil {
		t.Fatal("速率查询失败:", err)
	}
	if r != 0 {
		t.Fatalf("默认参数下速率应为零: %g", r)
	}
}

func TestAnnihilationWindow(t *testing.T) {
	par := types.DefaultParams()
	par.Annihilation = 1e-30
	par.AnnihilationVariation = -0.1
	par.AnnihilationZ = 1000
	par.AnnihilationZmax = 2500
	par.AnnihilationZmin = 30
	m, err := New(&par)
	if err != nil {
		t.Fatal("模型构建失败:", err)
	}
	// 1.定义点处取输入值
	if got := m.annihilationAt(par.AnnihilationZ); math.Abs(got-par.Annihilation)/par.Annihilation > 1e-12 {
		t.Fatalf("定义点处湮灭参数错误: 得到 %g 期望 %g", got, par.Annihilation)
	}
	// 2.窗口边界处值连续
	for _, edge := range []float64{par.AnnihilationZmin, par.AnnihilationZmax} {
		in := m.annihilationAt(edge * 1.0001)
		out := m.annihilationAt(edge * 0.9999)
		if math.Abs(in-out)/in > 1e-3 {
			t.Fatalf("窗口边界 z=%g 处不连续: %g vs %g", edge, in, out)
		}
	}
	// 3.窗口边界处导数趋零：边界附近的相对变化远小于窗口中部
	slope := func(z float64) float64 {
		h := z * 1e-4
		return math.Abs(m.annihilationAt(z+h)-m.annihilationAt(z-h)) / h / m.annihilationAt(z)
	}
	if s := slope(par.AnnihilationZmax * 0.999); s > slope(300)*0.1 {
		t.Fatalf("窗口上边界处导数未趋零: %g", s)
	}
	// 4.峰值位于窗口上边界
	if m.annihilationAt(par.AnnihilationZmax) < m.annihilationAt(par.AnnihilationZ) {
		t.Fatal("湮灭参数峰值应位于窗口上边界")
	}
	// 5.窗口外保持边界值
	if m.annihilationAt(5000) != m.annihilationAt(par.AnnihilationZmax) {
		t.Fatal("窗口上方应保持边界值")
	}
	if m.annihilationAt(1) != m.annihilationAt(10) {
		t.Fatal("窗口下方应保持边界值")
	}
}

func TestDecayScaling(t *testing.T) {
	par := types.DefaultParams()
	par.Decay = 1e-25
	m, err := New(&par)
	if err != nil {
		t.Fatal("模型构建失败:", err)
	}
	if !m.Enabled() {
		t.Fatal("衰变参数非零时应启用能量注入")
	}
	// 就地沉积下衰变速率按 (1+z)^3 缩放
	r1, err := m.Rate(100)
	if err != nil {
		t.Fatal("速率查询失败:", err)
	}
	r2, err := m.Rate(201)
	if err != nil {
		t.Fatal("速率查询失败:", err)
	}
	if math.Abs(r2/r1-8) > 1e-9 {
		t.Fatalf("衰变速率缩放错误: 比值 %g 期望 8", r2/r1)
	}
}

func TestDepositionTableLimit(t *testing.T) {
	par := types.DefaultParams()
	par.Decay = 1e-25
	par.OnTheSpot = false
	m, err := New(&par)
	if err != nil {
		t.Fatal("模型构建失败:", err)
	}
	// 高红移强吸收极限下退化为就地沉积
	r, err := m.Rate(3000)
	if err != nil {
		t.Fatal("速率查询失败:", err)
	}
	spot := m.onTheSpotRate(3000)
	if math.Abs(r-spot)/spot > 0.05 {
		t.Fatalf("强吸收极限偏离就地沉积: %g vs %g", r, spot)
	}
	// 低红移沉积速率为有限正值
	r, err = m.Rate(10)
	if err != nil {
		t.Fatal("速率查询失败:", err)
	}
	if r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
		t.Fatalf("低红移沉积速率非法: %g", r)
	}
}
