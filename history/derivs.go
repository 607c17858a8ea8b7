package history

import (
	"fmt"
	"math"

	"thermo/evolver"
	"thermo/types"
)

// derivs 返回区间 idx 的微分方程右端
// 积分变量沿 mz=−z 推进，内部按 dz 记号推导后取负号。
func (ws *Workspace) derivs(idx int) evolver.Fcn {
	iv := ws.Intervals[idx]
	xH, xHe := tracked(iv.Regime)
	st := State{TrackXH: xH, TrackXHe: xHe}

	return func(mz float64, y, dy []float64) error {
		z := -mz
		st.FromVec(y)
		tmat := st.Tmat
		if tmat <= 0 || math.IsNaN(tmat) {
			return fmt.Errorf("物质温度越界: Tmat=%g (z=%g)", tmat, z)
		}

		bg, err := ws.Bg.At(z, &ws.hint)
		if err != nil {
			return err
		}
		hzSI := bg.H * types.CLight / types.MpcOverM // [1/s]
		nH := ws.nH(z)
		trad := ws.Tcmb * (1 + z)
		x := ws.ionization(idx, z, &st)
		if x < 0 || x > 1+2*ws.FHe+0.1 || math.IsNaN(x) {
			return fmt.Errorf("电离度越界: x=%g (z=%g)", x, z)
		}

		i := 0
		if st.TrackXH {
			dy[i] = -ws.dxHdz(z, x, st.XH, tmat, nH, hzSI)
			i++
		}
		if st.TrackXHe {
			dy[i] = -ws.dxHedz(z, x, st.XHe, tmat, nH, hzSI)
			i++
		}

		// 物质温度：康普顿耦合 + 绝热膨胀 + 能量注入加热
		dTdz := types.CompT*trad*trad*trad*trad*x/(1+x+ws.FHe)*(tmat-trad)/(hzSI*(1+z)) +
			2*tmat/(1+z)
		if ws.Inj != nil && ws.Inj.Enabled() {
			rate, err := ws.Inj.Rate(z)
			if err != nil {
				return err
			}
			dTdz -= 2.0 / (3 * types.KBoltz) * rate / (nH * (1 + ws.FHe + x)) / (hzSI * (1 + z))
		}
		dy[i] = -dTdz
		return nil
	}
}

// dxHdz 氢电离度方程（case-B 复合率 + Peebles 逃逸因子 + 修正因子）
func (ws *Workspace) dxHdz(z, x, xH, tmat, nH, hz float64) float64 {
	t4 := tmat / 1e4
	rdown := 1e-19 * types.APPB * math.Pow(t4, types.BPPB) / (1 + types.CPPB*math.Pow(t4, types.DPPB))
	rup := rdown * math.Pow(types.CR*tmat, 1.5) * math.Exp(-types.CDB/tmat)

	k := types.CK / hz
	if ws.corrected {
		// Lyman-alpha 逃逸率的双高斯修正
		l := math.Log(1 + z)
		g1 := (l - types.ZGauss1) / types.WGauss1
		g2 := (l - types.ZGauss2) / types.WGauss2
		k *= 1 + types.AGauss1*math.Exp(-g1*g1) + types.AGauss2*math.Exp(-g2*g2)
	}

	n1s := (1 - xH) * nH
	num := (x*xH*nH*rdown - rup*(1-xH)*math.Exp(-types.CL/tmat)) *
		(1 + k*types.LambdaH*n1s)
	den := hz * (1 + z) * (1/ws.fu + k*types.LambdaH*n1s/ws.fu + k*rup*n1s)
	return num / den
}

// dxHedz 氦电离度方程（Verner-Ferland 拟合 + 三重态逃逸因子）
func (ws *Workspace) dxHedz(z, x, xHe, tmat, nH, hz float64) float64 {
	sq0 := math.Sqrt(tmat / types.TVF0)
	sq1 := math.Sqrt(tmat / types.TVF1)
	rdown := types.AVF / (sq0 * math.Pow(1+sq0, 1-types.BVF) * math.Pow(1+sq1, 1+types.BVF))
	rup := 4 * rdown * math.Pow(types.CR*tmat, 1.5) * math.Exp(-types.CDBHe/tmat)

	// 玻尔兹曼因子限幅，避免低温下指数溢出
	boltz := math.Exp(math.Min(680, types.Bfact/tmat))
	kHe := types.CKHe / hz
	n1s := (1 - xHe) * ws.FHe * nH

	num := (x*xHe*nH*rdown - rup*(1-xHe)*math.Exp(-types.CLHe/tmat)) *
		(1 + kHe*types.LambdaHe*n1s*boltz)
	den := hz * (1 + z) * (1 + kHe*(types.LambdaHe+rup)*n1s*boltz)
	return num / den
}
