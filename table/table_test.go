package table

import (
	"math"
	"sync"
	"testing"

	"thermo/background"
	"thermo/history"
	"thermo/injection"
	"thermo/types"
)

var (
	buildOnce sync.Once
	builtTab  *Table
	builtBg   *background.LCDM
	builtRes  *history.Result
)

// buildDefault 默认参数构建表格（进程内只算一次）
func buildDefault(t *testing.T) (*Table, *background.LCDM, *history.Result) {
	t.Helper()
	buildOnce.Do(func() {
		par := types.DefaultParams()
		pre := types.DefaultPrecision()
		pre.NzRecoLog = 200
		pre.NzRecoLin = 4000
		pre.NzReio = 500

		bg, err := background.NewLCDM(&par, pre.ZIni)
		if err != nil {
			t.Fatal("背景模型构建失败:", err)
		}
		inj, err := injection.New(&par)
		if err != nil {
			t.Fatal("能量注入模型构建失败:", err)
		}
		ws, err := history.NewWorkspace(&par, &pre, bg, inj)
		if err != nil {
			t.Fatal("工作区构建失败:", err)
		}
		res, err := ws.Solve()
		if err != nil {
			t.Fatal("历史求解失败:", err)
		}
		tab, err := Build(&par, bg, res)
		if err != nil {
			t.Fatal("表格组装失败:", err)
		}
		builtTab, builtBg, builtRes = tab, bg, res
	})
	if builtTab == nil {
		t.Fatal("默认表格未完成构建")
	}
	return builtTab, builtBg, builtRes
}

func TestTableNodeRoundTrip(t *testing.T) {
	tab, _, _ := buildDefault(t)
	// 节点红移处查询返回存储的行
	out := make([]float64, NumCols)
	var hint Hint
	for _, i := range []int{0, 1, 137, len(tab.Z) / 2, len(tab.Z) - 1} {
		if err := tab.At(tab.Z[i], &hint, out); err != nil {
			t.Fatal("表格查询失败:", err)
		}
		for c := 0; c < NumCols; c++ {
			want := tab.Data[i*NumCols+c]
			tol := 1e-9 * (1 + math.Abs(want))
			if math.Abs(out[c]-want) > tol {
				t.Fatalf("节点 %d 列 %d 查询偏离存储值: %g != %g", i, c, out[c], want)
			}
		}
	}
}

func TestVisibilityNormalization(t *testing.T) {
	tab, _, _ := buildDefault(t)
	// 可见度函数对共形时间的积分 = 1 - exp(-kappa_max) ≈ 1
	var integ float64
	n := len(tab.Z)
	for i := 0; i+1 < n; i++ {
		g0 := tab.Data[i*NumCols+ColG]
		g1 := tab.Data[(i+1)*NumCols+ColG]
		integ += 0.5 * (g0 + g1) * (tab.Tau[i] - tab.Tau[i+1])
	}
	if math.Abs(integ-1) > 0.01 {
		t.Fatalf("可见度函数归一化偏差过大: %g", integ)
	}
	// 可见度峰值在复合附近
	iMax := 0
	for i := range tab.Z {
		if tab.Data[i*NumCols+ColG] > tab.Data[iMax*NumCols+ColG] {
			iMax = i
		}
	}
	if z := tab.Z[iMax]; z < 1000 || z > 1200 {
		t.Fatalf("可见度峰值红移超出预期: %g", z)
	}
}

func TestOpticalDepthColumns(t *testing.T) {
	tab, _, _ := buildDefault(t)
	n := len(tab.Z)
	for i := 0; i < n; i++ {
		row := tab.Data[i*NumCols:]
		// e^{-kappa} 单调不增（随红移），且取值物理；深入不透明区后下溢为 0
		if row[ColExpMKappa] < 0 || row[ColExpMKappa] > 1 {
			t.Fatalf("光深因子非法: z=%g exp(-kappa)=%g", tab.Z[i], row[ColExpMKappa])
		}
		if i > 0 && row[ColExpMKappa] > tab.Data[(i-1)*NumCols+ColExpMKappa]+1e-12 {
			t.Fatalf("光深因子不单调: z=%g", tab.Z[i])
		}
		// 拖曳光深单调增长
		if i > 0 && row[ColTauD] < tab.Data[(i-1)*NumCols+ColTauD] {
			t.Fatalf("拖曳光深不单调: z=%g", tab.Z[i])
		}
	}
	// 高红移处完全不透明，κ 巨大使 e^{-kappa} 下溢为精确的 0
	if v := tab.Data[(n-1)*NumCols+ColExpMKappa]; v != 0 {
		t.Fatalf("高红移处光深不足: exp(-kappa)=%g", v)
	}
}

func TestEpochs(t *testing.T) {
	tab, bg, _ := buildDefault(t)
	e := tab.Epochs
	// 复合红移窗口（标准宇宙 ~1090）
	if e.ZRec < 1050 || e.ZRec > 1150 {
		t.Fatalf("复合红移超出预期窗口: %g", e.ZRec)
	}
	// 拖曳红移略低（标准宇宙 ~1060）
	if e.ZDrag < 980 || e.ZDrag > 1120 {
		t.Fatalf("拖曳红移超出预期窗口: %g", e.ZDrag)
	}
	if e.ZDrag >= e.ZRec+50 {
		t.Fatalf("拖曳红移反常偏高: z_d=%g z_rec=%g", e.ZDrag, e.ZRec)
	}
	// 声视界与距离的一致性
	if e.RsRec <= 0 || e.RsDrag <= e.RsRec {
		t.Fatalf("声视界次序反常: rs_rec=%g rs_d=%g", e.RsRec, e.RsDrag)
	}
	if math.Abs(e.RaRec-(e.Tau0-e.TauRec)) > 1e-9*e.Tau0 {
		t.Fatalf("共形距离不自洽: %g != %g", e.RaRec, e.Tau0-e.TauRec)
	}
	if math.Abs(e.DaRec-e.RaRec/(1+e.ZRec)) > 1e-9*e.DaRec {
		t.Fatalf("角直径距离不自洽")
	}
	if e.Tau0 != bg.ConformalAge() {
		t.Fatalf("共形年龄不一致: %g != %g", e.Tau0, bg.ConformalAge())
	}
	// 阻尼尺度在复合时为几十 Mpc 量级
	if e.RdRec < 1 || e.RdRec > 1000 {
		t.Fatalf("阻尼尺度超出合理范围: %g", e.RdRec)
	}
}

func TestCb2Column(t *testing.T) {
	tab, _, _ := buildDefault(t)
	n := len(tab.Z)
	for i := 0; i < n; i++ {
		cb2 := tab.Data[i*NumCols+ColCb2]
		// 声速平方非负且远小于光速平方（本列以 c=1 计）
		// 再电离起点附近导数项可把原始值压到负的舍入量级，组装时钳制为 0
		if cb2 < 0 || cb2 > 1e-5 {
			t.Fatalf("重子声速平方非法: z=%g cb2=%g", tab.Z[i], cb2)
		}
		if tab.Z[i] > 50 && cb2 <= 0 {
			t.Fatalf("再电离区以外声速平方不应为零: z=%g", tab.Z[i])
		}
	}
	// 紧耦合极限 cb2 = (4/3) kB*T/(mu*mH*c^2)
	i := n - 1
	z := tab.Z[i]
	tb := tab.Data[i*NumCols+ColTb]
	x := tab.Data[i*NumCols+ColXe]
	par := types.DefaultParams()
	muInv := 1 + (1/types.Not4-1)*par.YHe + x*(1-par.YHe)
	want := 4.0 / 3.0 * types.KBoltz / (types.CLight * types.CLight * types.MHydrogen) * muInv * tb
	got := tab.Data[i*NumCols+ColCb2]
	if math.Abs(got-want)/want > 0.01 {
		t.Fatalf("紧耦合声速偏差过大: z=%g 得到 %g 期望 %g", z, got, want)
	}
}

func TestClampVersusError(t *testing.T) {
	tab, _, _ := buildDefault(t)
	out := make([]float64, NumCols)
	// 默认（未钳制）下越界查询报错
	if !tab.clamp {
		if err := tab.At(tab.Z[len(tab.Z)-1]+1, nil, out); err == nil {
			t.Fatal("越界查询应当报错")
		}
	}
	// 钳制模式下返回边界行
	clamped := *tab
	clamped.clamp = true
	if err := clamped.At(tab.Z[len(tab.Z)-1]+1, nil, out); err != nil {
		t.Fatal("钳制查询失败:", err)
	}
	if out[ColXe] != tab.Data[(len(tab.Z)-1)*NumCols+ColXe] {
		t.Fatal("钳制查询未返回边界行")
	}
}

func TestTauAt(t *testing.T) {
	tab, bg, _ := buildDefault(t)
	var hint Hint
	var bgHint background.Hint
	for _, z := range []float64{0, 10, 1090, 5000} {
		got, err := tab.TauAt(z, &hint)
		if err != nil {
			t.Fatal("共形时间查询失败:", err)
		}
		v, err := bg.At(z, &bgHint)
		if err != nil {
			t.Fatal("背景查询失败:", err)
		}
		if math.Abs(got-v.Tau)/v.Tau > 1e-6 {
			t.Fatalf("共形时间不一致: z=%g %g != %g", z, got, v.Tau)
		}
	}
}
