package history

import (
	"math"

	"thermo/types"
)

// nH 红移 z 处的氢核数密度 [1/m^3]
func (ws *Workspace) nH(z float64) float64 {
	zp := 1 + z
	return ws.NH0 * zp * zp * zp
}

// sahaRHS Saha 方程右端 (CR·Tm)^1.5·exp(−E/Tm)/nH，E 以波数温标 cb1 给出
func (ws *Workspace) sahaRHS(z, tmat, cb1 float64) float64 {
	return math.Exp(1.5*math.Log(types.CR*tmat)-cb1/tmat) / ws.nH(z)
}

// sahaXH 氢的 Saha 电离度（视氦电离度独立处理）
func (ws *Workspace) sahaXH(z, tmat float64) float64 {
	rhs := ws.sahaRHS(z, tmat, types.CB1)
	return 0.5 * (math.Sqrt(rhs*rhs+4*rhs) - rhs)
}

// sahaHeII 第二次氦复合（HeII→HeI）期间的 Saha 总电离度，氢视为完全电离
func (ws *Workspace) sahaHeII(z, tmat float64) float64 {
	rhs := ws.sahaRHS(z, tmat, types.CB1He1)
	return 0.5 * (math.Sqrt((rhs-1)*(rhs-1)+4*(1+ws.FHe)*rhs) - (rhs - 1))
}

// sahaHeIII 第一次氦复合（HeIII→HeII）期间的 Saha 总电离度
func (ws *Workspace) sahaHeIII(z, tmat float64) float64 {
	rhs := ws.sahaRHS(z, tmat, types.CB1He2)
	b := rhs - 1 - ws.FHe
	return 0.5 * (math.Sqrt(b*b+4*(1+2*ws.FHe)*rhs) - b)
}

// xRegime 按指定方案的自有公式计算总电离度
// 解析方案给出闭式结果，积分方案从状态变量组装。
func (ws *Workspace) xRegime(r types.Regime, z float64, st *State) float64 {
	switch r {
	case types.RegimeBRec:
		return 1 + 2*ws.FHe
	case types.RegimeHeI:
		return ws.sahaHeIII(z, st.Tmat)
	case types.RegimeHeIf:
		return 1 + ws.FHe
	case types.RegimeHeII:
		return ws.sahaHeII(z, st.Tmat)
	case types.RegimeHRec:
		return ws.sahaXH(z, st.Tmat) + ws.FHe*st.XHe
	case types.RegimeFRec:
		return st.XH + ws.FHe*st.XHe
	}
	// 再电离：轮廓函数给出总电离度
	x, err := ws.Reio.Xe(z)
	if err != nil {
		return st.XH + ws.FHe*st.XHe
	}
	return x
}

// ionization 区间 idx 内红移 z 处的总电离度，进入边界附近与上一方案平滑过渡
// 过渡窗口 [ZMax−2Δ, ZMax]，权重为 smoothstep；边界处严格等于上一方案的值。
func (ws *Workspace) ionization(idx int, z float64, st *State) float64 {
	iv := ws.Intervals[idx]
	x := ws.xRegime(iv.Regime, z, st)
	if idx == 0 || iv.Delta <= 0 {
		return x
	}
	lo := iv.ZMax - 2*iv.Delta
	if z <= lo {
		return x
	}
	// 积分方案通过播种保证连续，不再叠加混合
	if iv.Regime == types.RegimeFRec || iv.Regime == types.RegimeReio {
		return x
	}
	xPrev := ws.xRegime(ws.Intervals[idx-1].Regime, z, st)
	w := types.Smoothstep((iv.ZMax - z) / (2 * iv.Delta))
	return (1-w)*xPrev + w*x
}
