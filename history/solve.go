package history

import (
	"fmt"
	"math"

	"thermo/evolver"
	"thermo/types"
)

// zGrid 构建输出红移网格（严格递减，直至 z=0）：
// 高红移段对数采样，复合段线性加密，再电离段单独细分。
func (ws *Workspace) zGrid() []float64 {
	pre := ws.Pre
	zs := make([]float64, 0, pre.NzRecoLog+pre.NzRecoLin+pre.NzReio+1)
	lnTop := math.Log(pre.ZIni)
	lnSw := math.Log(pre.ZLogSwitch)
	for i := 0; i < pre.NzRecoLog; i++ {
		z := math.Exp(lnTop + (lnSw-lnTop)*float64(i)/float64(pre.NzRecoLog))
		// exp(log(zini)) 可能高出 zini 一个舍入单位，越出背景表格域
		if z > pre.ZIni {
			z = pre.ZIni
		}
		zs = append(zs, z)
	}
	for i := 0; i < pre.NzRecoLin; i++ {
		zs = append(zs, pre.ZLogSwitch+(pre.ReioZStartMax-pre.ZLogSwitch)*float64(i)/float64(pre.NzRecoLin))
	}
	for i := 0; i <= pre.NzReio; i++ {
		zs = append(zs, pre.ReioZStartMax*(1-float64(i)/float64(pre.NzReio)))
	}
	return zs
}

// Solve 运行完整的电离与温度历史计算
// 逐区间推进积分状态机；光学深度输入模式下先对再电离红移射靶。
func (ws *Workspace) Solve() (*Result, error) {
	grid := ws.zGrid()
	samples := make([]Sample, len(grid))
	st := State{Tmat: ws.Tcmb * (1 + grid[0])}
	zCur := grid[0]
	k := 0

	reioIdx := -1
	for i, iv := range ws.Intervals {
		if iv.Regime == types.RegimeReio {
			reioIdx = i
		}
	}
	nPre := len(ws.Intervals)
	if reioIdx >= 0 {
		nPre = reioIdx
	}

	var err error
	for idx := 0; idx < nPre; idx++ {
		k, zCur, err = ws.integrateInterval(idx, grid, samples, k, zCur, &st)
		if err != nil {
			return nil, err
		}
	}

	res := &Result{ZReio: ws.Par.ZReio}
	if reioIdx < 0 {
		if k != len(grid) {
			return nil, fmt.Errorf("内部错误: 输出网格未全部覆盖 (%d/%d)", k, len(grid))
		}
		res.Samples = samples
		res.TauReio = tauTrapz(samples[len(samples)-ws.Pre.NzReio-1:])
		return res, nil
	}

	// 再电离入口：记录复合末端电离度，供轮廓函数衔接
	ws.Reio.XeBefore = st.XH + ws.FHe*st.XHe
	kReio, zEntry, stEntry := k, zCur, st

	if ws.Par.ReioInput == types.ReioInputTau {
		zre, err := ws.shootReionization(grid, samples, kReio, zEntry, stEntry, reioIdx)
		if err != nil {
			return nil, err
		}
		ws.Reio.ZReio = zre
		res.ZReio = zre
	}

	st = stEntry
	k, _, err = ws.integrateInterval(reioIdx, grid, samples, kReio, zEntry, &st)
	if err != nil {
		return nil, err
	}
	if k != len(grid) {
		return nil, fmt.Errorf("内部错误: 输出网格未全部覆盖 (%d/%d)", k, len(grid))
	}
	res.Samples = samples
	res.TauReio = tauTrapz(samples[kReio:])
	if ws.Par.ReioInput == types.ReioInputTau &&
		math.Abs(res.TauReio-ws.Par.TauReio) > ws.Pre.ReioTauTol {
		return nil, fmt.Errorf("再电离射靶未收敛: tau=%g 目标=%g", res.TauReio, ws.Par.TauReio)
	}
	return res, nil
}

// integrateInterval 在区间 idx 内推进状态并采样所属输出点
// 返回下一个待采样下标与新的当前红移（恰为区间下边界）。
func (ws *Workspace) integrateInterval(idx int, grid []float64, samples []Sample, k int, zCur float64, st *State) (int, float64, error) {
	iv := ws.Intervals[idx]
	ws.enterRegime(iv, zCur, st)
	fcn := ws.derivs(idx)

	// 当前位置恰为输出点时直接采样
	if k < len(grid) && math.Abs(grid[k]-zCur) <= 1e-9*(1+zCur) {
		if err := ws.capture(idx, zCur, st, fcn, &samples[k]); err != nil {
			return k, zCur, err
		}
		k++
	}

	eps := 1e-9 * (1 + iv.ZMin)
	k0 := k
	for k < len(grid) && grid[k] > iv.ZMin+eps {
		k++
	}
	// 末区间下边界上的输出点没有后继区间接手，在此采样
	if idx == len(ws.Intervals)-1 {
		for k < len(grid) && grid[k] >= iv.ZMin-eps {
			k++
		}
	}
	nOut := k - k0
	mzOut := make([]float64, 0, nOut+1)
	for j := k0; j < k; j++ {
		mzOut = append(mzOut, -grid[j])
	}
	// 末端补一个精确的边界停靠点，便于方案切换
	if len(mzOut) == 0 || -iv.ZMin-mzOut[len(mzOut)-1] > eps {
		mzOut = append(mzOut, -iv.ZMin)
	}

	obs := State{TrackXH: st.TrackXH, TrackXHe: st.TrackXHe}
	cfg := &evolver.Config{
		Fcn:    fcn,
		AbsTol: ws.Pre.AbsTol,
		RelTol: ws.Pre.RelTol,
		Observer: func(i int, x float64, y, dy []float64) error {
			if i >= nOut {
				return nil
			}
			obs.FromVec(y)
			return ws.captureAt(idx, -x, &obs, dy, &samples[k0+i])
		},
	}

	y := make([]float64, st.Dim())
	st.ToVec(y)
	integ := ws.newIntegrator()
	if _, err := integ.Integrate(-zCur, mzOut, y, cfg); err != nil {
		return k, zCur, fmt.Errorf("区间 %v 积分失败: %w", iv.Regime, err)
	}
	st.FromVec(y)
	return k, iv.ZMin, nil
}

// capture 在区间起点处采样（需先求一次右端以获得温度导数）
func (ws *Workspace) capture(idx int, z float64, st *State, fcn evolver.Fcn, s *Sample) error {
	y := make([]float64, st.Dim())
	dy := make([]float64, st.Dim())
	st.ToVec(y)
	if err := fcn(-z, y, dy); err != nil {
		return err
	}
	return ws.captureAt(idx, z, st, dy, s)
}

// captureAt 将当前状态转化为输出样本
func (ws *Workspace) captureAt(idx int, z float64, st *State, dy []float64, s *Sample) error {
	bg, err := ws.Bg.At(z, &ws.hint)
	if err != nil {
		return err
	}
	x := ws.ionization(idx, z, st)
	xH, xHe := st.XH, st.XHe
	if !st.TrackXH {
		if ws.Intervals[idx].Regime == types.RegimeHRec {
			xH = clamp(ws.sahaXH(z, st.Tmat), 0, 1)
		} else {
			xH = 1
		}
	}
	if !st.TrackXHe {
		xHe = clamp((x-xH)/ws.FHe, 0, 2)
	}
	zp := 1 + z
	s.Z = z
	s.X = x
	s.XH = xH
	s.XHe = xHe
	s.Tb = st.Tmat
	s.DTb = -dy[st.Dim()-1]
	s.DKappa = zp * zp * ws.NH0 * x * types.SigmaTh * types.MpcOverM
	s.H = bg.H
	s.Tau = bg.Tau
	s.R = bg.R
	return nil
}

// tauTrapz 对样本区段（红移递减排列）作 ∫ (dκ/dτ)/H dz 的梯形积分
func tauTrapz(region []Sample) float64 {
	var tau float64
	for i := 0; i+1 < len(region); i++ {
		hi, lo := region[i], region[i+1]
		tau += 0.5 * (hi.DKappa/hi.H + lo.DKappa/lo.H) * (hi.Z - lo.Z)
	}
	return tau
}
