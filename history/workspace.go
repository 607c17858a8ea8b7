// Package history 实现电离与温度历史求解器：
// 近似方案状态机、RECFAST 型微分方程、区间积分驱动与再电离射靶求解。
package history

import (
	"fmt"
	"math"

	"thermo/background"
	"thermo/evolver"
	"thermo/injection"
	"thermo/types"
)

// State 积分变量的强类型状态
// 活跃子集由当前近似方案决定，方案切换时通过显式转换函数迁移。
type State struct {
	XH   float64 // 氢电离度（TrackXH 时参与积分）
	XHe  float64 // 氦电离度（TrackXHe 时参与积分）
	Tmat float64 // 物质温度 [K]（始终参与积分）

	TrackXH  bool
	TrackXHe bool
}

// Dim 当前活跃积分变量个数
func (s *State) Dim() int {
	n := 1
	if s.TrackXH {
		n++
	}
	if s.TrackXHe {
		n++
	}
	return n
}

// ToVec 将活跃变量打包为积分器使用的扁平向量
// 排列约定：[xH?, xHe?, Tmat]
func (s *State) ToVec(y []float64) {
	i := 0
	if s.TrackXH {
		y[i] = s.XH
		i++
	}
	if s.TrackXHe {
		y[i] = s.XHe
		i++
	}
	y[i] = s.Tmat
}

// FromVec 从扁平向量恢复活跃变量
func (s *State) FromVec(y []float64) {
	i := 0
	if s.TrackXH {
		s.XH = y[i]
		i++
	}
	if s.TrackXHe {
		s.XHe = y[i]
		i++
	}
	s.Tmat = y[i]
}

// Interval 近似方案区间：红移域 (ZMin, ZMax]，进入时的平滑宽度 Delta
type Interval struct {
	Regime types.Regime
	ZMax   float64
	ZMin   float64
	Delta  float64
}

// Sample 驱动器在每个输出红移记录的状态样本
type Sample struct {
	Z      float64
	X      float64 // 总电离度 x_e
	XH     float64
	XHe    float64
	Tb     float64 // 物质（重子）温度 [K]
	DTb    float64 // dTb/dz
	DKappa float64 // 汤姆孙散射率 dkappa/dtau [1/Mpc]
	H      float64 // 哈勃率 [1/Mpc]
	Tau    float64 // 共形时间 [Mpc]
	R      float64 // 重子-光子比
}

// Result 一次完整历史求解的输出
type Result struct {
	Samples []Sample // 按红移递减（时间递增）排列
	TauReio float64  // 再电离光学深度（射靶模式下等于目标值）
	ZReio   float64  // 实际采用的再电离红移
}

// Workspace 单次历史计算的全部工作状态
// 每次计算独立构造，不得跨并发计算共享。
type Workspace struct {
	Par *types.Params
	Pre *types.Precision
	Bg  background.Model
	Inj *injection.Model

	FHe       float64 // 氦氢数密度比
	NH0       float64 // 今日氢核数密度 [1/m^3]
	Tcmb      float64
	fu        float64 // 氢修正因子
	corrected bool    // 算法B：启用高斯修正函数

	Intervals []Interval
	Reio      ReioParams

	hint background.Hint
}

// NewWorkspace 校验参数、计算派生量并构建近似方案区间表
func NewWorkspace(par *types.Params, pre *types.Precision, bg background.Model, inj *injection.Model) (*Workspace, error) {
	if err := par.Check(); err != nil {
		return nil, fmt.Errorf("参数检查失败: %w", err)
	}
	if err := pre.Check(); err != nil {
		return nil, fmt.Errorf("精度参数检查失败: %w", err)
	}
	if bg.ZMax() < pre.ZIni {
		return nil, fmt.Errorf("背景表格未覆盖积分起点: zmax=%g < zini=%g", bg.ZMax(), pre.ZIni)
	}

	h0SI := par.H100 * 1e5 / types.MpcOverM
	ws := &Workspace{
		Par:       par,
		Pre:       pre,
		Bg:        bg,
		Inj:       inj,
		FHe:       par.FHe(),
		NH0:       3 * h0SI * h0SI * par.OmegaB / (8 * math.Pi * types.GNewton * types.MHydrogen) * (1 - par.YHe),
		Tcmb:      par.Tcmb,
		fu:        types.FudgeH,
		corrected: par.Recombination == types.RecombinationCorrected,
	}
	if ws.corrected {
		ws.fu += types.FudgeHDelta
	}
	if err := ws.buildIntervals(); err != nil {
		return nil, err
	}
	ws.initReio()
	return ws, nil
}

// newIntegrator 按精度设置创建积分器
func (ws *Workspace) newIntegrator() evolver.Integrator {
	if ws.Pre.Evolver == types.EvolverRKCK {
		return evolver.NewRKCK()
	}
	return evolver.NewBDF()
}

// tracked 各近似方案的活跃变量集合
func tracked(r types.Regime) (xH, xHe bool) {
	switch r {
	case types.RegimeHRec:
		return false, true
	case types.RegimeFRec, types.RegimeReio:
		return true, true
	}
	return false, false
}

// enterRegime 方案切换时的状态转换：
// 连续变量直接携带，新激活的变量由上一方案的解析公式播种。
func (ws *Workspace) enterRegime(iv Interval, z float64, st *State) {
	xH, xHe := tracked(iv.Regime)
	if xHe && !st.TrackXHe {
		// 氦电离度由第二次氦复合的 Saha 公式播种
		x := ws.sahaHeII(z, st.Tmat)
		st.XHe = clamp((x-1)/ws.FHe, 0, 1)
	}
	if xH && !st.TrackXH {
		// 氢电离度由 Saha 公式播种（边界处等于触发阈值）
		st.XH = clamp(ws.sahaXH(z, st.Tmat), 0, 1)
	}
	st.TrackXH = xH
	st.TrackXHe = xHe
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
