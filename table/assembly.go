package table

import (
	"fmt"
	"math"

	"thermo/background"
	"thermo/history"
	"thermo/maths"
	"thermo/types"
)

// Build 将历史求解结果组装为查询表格
// 样本按时间顺序（红移递减）给出，表格按红移递增存储。
func Build(par *types.Params, bg background.Model, res *history.Result) (*Table, error) {
	n := len(res.Samples)
	if n < 3 {
		return nil, fmt.Errorf("样本数过少: %d", n)
	}

	t := &Table{
		Z:     make([]float64, n),
		Tau:   make([]float64, n),
		Data:  make([]float64, n*NumCols),
		clamp: par.ClampQueries,
	}
	dk := make([]float64, n)
	for i := 0; i < n; i++ {
		s := res.Samples[n-1-i]
		t.Z[i] = s.Z
		t.Tau[i] = s.Tau
		dk[i] = s.DKappa
		row := t.Data[i*NumCols:]
		row[ColXe] = s.X
		row[ColDKappa] = s.DKappa
		row[ColTb] = s.Tb
	}

	// 散射率对共形时间的高阶导数：在 τ 递增视图上逐级样条求导
	ddk, dddk, err := kappaDerivs(t.Tau, dk)
	if err != nil {
		return nil, err
	}

	// κ 与拖曳光深：自今日（κ=0）向早期累积
	var kappa, tauD float64
	for i := 0; i < n; i++ {
		if i > 0 {
			dTau := t.Tau[i-1] - t.Tau[i]
			kappa += 0.5 * (dk[i] + dk[i-1]) * dTau
			rLo := res.Samples[n-i].R
			rHi := res.Samples[n-1-i].R
			tauD += 0.5 * (dk[i]/rHi + dk[i-1]/rLo) * dTau
		}
		expmk := math.Exp(-kappa)
		g := dk[i] * expmk
		dg := (ddk[i] - dk[i]*dk[i]) * expmk
		ddg := (dddk[i] - 3*dk[i]*ddk[i] + dk[i]*dk[i]*dk[i]) * expmk
		row := t.Data[i*NumCols:]
		row[ColTauD] = tauD
		row[ColDDKappa] = ddk[i]
		row[ColDDDKappa] = dddk[i]
		row[ColExpMKappa] = expmk
		row[ColG] = g
		row[ColDG] = dg
		row[ColDDG] = ddg

		// 变化率启发量，供外部采样器确定步长
		gg := ddk[i]/dk[i] - dk[i]
		row[ColRate] = math.Sqrt(dk[i]*dk[i] + (ddk[i]/dk[i])*(ddk[i]/dk[i]) + gg*gg)
	}

	if err := t.fillCb2(par, res); err != nil {
		return nil, err
	}
	if par.ComputeDampingScale {
		t.fillDamping(res, dk)
	}

	t.D2, err = maths.SplineTableLines(t.Z, t.Data, NumCols)
	if err != nil {
		return nil, err
	}
	t.tauD2, err = maths.SplineNatural(t.Z, t.Tau)
	if err != nil {
		return nil, err
	}
	if err := t.findEpochs(bg, res); err != nil {
		return nil, err
	}
	return t, nil
}

// kappaDerivs 在 τ 递增视图上对散射率逐级样条求导，返回按红移递增排列的结果
func kappaDerivs(tau, dk []float64) (ddk, dddk []float64, err error) {
	n := len(tau)
	tauAsc := make([]float64, n)
	dkAsc := make([]float64, n)
	for i := 0; i < n; i++ {
		tauAsc[i] = tau[n-1-i]
		dkAsc[i] = dk[n-1-i]
	}
	ddkAsc, err := splineDerivAtNodes(tauAsc, dkAsc)
	if err != nil {
		return nil, nil, fmt.Errorf("散射率二阶导计算失败: %w", err)
	}
	dddkAsc, err := splineDerivAtNodes(tauAsc, ddkAsc)
	if err != nil {
		return nil, nil, fmt.Errorf("散射率三阶导计算失败: %w", err)
	}
	ddk = make([]float64, n)
	dddk = make([]float64, n)
	for i := 0; i < n; i++ {
		ddk[i] = ddkAsc[n-1-i]
		dddk[i] = dddkAsc[n-1-i]
	}
	return ddk, dddk, nil
}

// splineDerivAtNodes 样条一阶导数在全部节点处的值
func splineDerivAtNodes(x, y []float64) ([]float64, error) {
	y2, err := maths.SplineNatural(x, y)
	if err != nil {
		return nil, err
	}
	d := make([]float64, len(x))
	last := 0
	for i := range x {
		v, err := maths.SplineDeriv(x, y, y2, x[i], &last, maths.ModeCloseby)
		if err != nil {
			return nil, err
		}
		d[i] = v
	}
	return d, nil
}

// fillCb2 重子声速平方及其对共形时间的导数列
// cb² = (k_B/μ m_H c²)·Tb·(1 + (1+z)·(dTb/dz)/(3Tb))
func (t *Table) fillCb2(par *types.Params, res *history.Result) error {
	n := len(t.Z)
	for i := 0; i < n; i++ {
		s := res.Samples[n-1-i]
		muInv := 1 + (1/types.Not4-1)*par.YHe + s.X*(1-par.YHe)
		cb2 := types.KBoltz / (types.CLight * types.CLight * types.MHydrogen) * muInv *
			s.Tb * (1 + (1+s.Z)*s.DTb/(3*s.Tb))
		// 再电离加热使 dTb/dz 急剧变号，导数项可把 cb² 压到负的舍入量级
		if cb2 < 0 {
			cb2 = 0
		}
		t.Data[i*NumCols+ColCb2] = cb2
	}
	if !par.ComputeCb2Derivatives {
		return nil
	}
	tauAsc := make([]float64, n)
	cb2Asc := make([]float64, n)
	for i := 0; i < n; i++ {
		tauAsc[i] = t.Tau[n-1-i]
		cb2Asc[i] = t.Data[(n-1-i)*NumCols+ColCb2]
	}
	dcb2, err := splineDerivAtNodes(tauAsc, cb2Asc)
	if err != nil {
		return fmt.Errorf("声速导数计算失败: %w", err)
	}
	ddcb2, err := splineDerivAtNodes(tauAsc, dcb2)
	if err != nil {
		return fmt.Errorf("声速二阶导计算失败: %w", err)
	}
	for i := 0; i < n; i++ {
		t.Data[i*NumCols+ColDCb2] = dcb2[n-1-i]
		t.Data[i*NumCols+ColDDCb2] = ddcb2[n-1-i]
	}
	return nil
}

// fillDamping 光子扩散尺度：自早期向晚期累积
// r_d = 2π √( ∫ dτ (R² + 16(1+R)/15) / (6 (1+R)² κ') )
func (t *Table) fillDamping(res *history.Result, dk []float64) {
	n := len(t.Z)
	f := make([]float64, n)
	for i := 0; i < n; i++ {
		r := res.Samples[n-1-i].R
		f[i] = (r*r + 16*(1+r)/15) / (6 * (1 + r) * (1 + r) * dk[i])
	}
	var rd2 float64
	t.Data[(n-1)*NumCols+ColRD] = 0
	for i := n - 2; i >= 0; i-- {
		rd2 += 0.5 * (f[i] + f[i+1]) * (t.Tau[i] - t.Tau[i+1])
		t.Data[i*NumCols+ColRD] = 2 * math.Pi * math.Sqrt(rd2)
	}
}

// findEpochs 定位特征时期：可见度峰（复合）与拖曳光深过 1（拖曳期）
func (t *Table) findEpochs(bg background.Model, res *history.Result) error {
	n := len(t.Z)

	// 可见度函数最大值，抛物线顶点细化
	iMax := 1
	gMax := 0.0
	for i := 1; i < n-1; i++ {
		if g := t.Data[i*NumCols+ColG]; g > gMax {
			gMax = g
			iMax = i
		}
	}
	zRec := parabolaVertex(
		t.Z[iMax-1], t.Data[(iMax-1)*NumCols+ColG],
		t.Z[iMax], t.Data[iMax*NumCols+ColG],
		t.Z[iMax+1], t.Data[(iMax+1)*NumCols+ColG],
	)
	if zRec < types.ZRecMin || zRec > types.ZRecMax {
		return fmt.Errorf("复合红移超出合理范围 [%g,%g]: %g", types.ZRecMin, types.ZRecMax, zRec)
	}

	var hint background.Hint
	bgRec, err := bg.At(zRec, &hint)
	if err != nil {
		return err
	}
	var th Hint
	row := make([]float64, NumCols)
	if err := t.At(zRec, &th, row); err != nil {
		return err
	}
	e := &t.Epochs
	e.ZRec = zRec
	e.TauRec = bgRec.Tau
	e.RsRec = bgRec.Rs
	e.DsRec = bgRec.Rs / (1 + zRec)
	e.Tau0 = bg.ConformalAge()
	e.RaRec = e.Tau0 - bgRec.Tau
	e.DaRec = e.RaRec / (1 + zRec)
	e.RdRec = row[ColRD]

	// 拖曳期：τ_d 升过 1 的红移（线性内插）
	iDrag := -1
	for i := 0; i < n; i++ {
		if t.Data[i*NumCols+ColTauD] >= 1 {
			iDrag = i
			break
		}
	}
	if iDrag <= 0 {
		return fmt.Errorf("拖曳光深未跨越 1, 无法确定拖曳红移")
	}
	d0 := t.Data[(iDrag-1)*NumCols+ColTauD]
	d1 := t.Data[iDrag*NumCols+ColTauD]
	zDrag := t.Z[iDrag-1] + (1-d0)/(d1-d0)*(t.Z[iDrag]-t.Z[iDrag-1])
	bgDrag, err := bg.At(zDrag, &hint)
	if err != nil {
		return err
	}
	e.ZDrag = zDrag
	e.TauDrag = bgDrag.Tau
	e.RsDrag = bgDrag.Rs
	e.DsDrag = bgDrag.Rs / (1 + zDrag)

	e.ZReio = res.ZReio
	e.TauReio = res.TauReio
	return nil
}

// parabolaVertex 三点抛物线顶点横坐标
func parabolaVertex(x0, y0, x1, y1, x2, y2 float64) float64 {
	d01 := (y1 - y0) / (x1 - x0)
	d12 := (y2 - y1) / (x2 - x1)
	c := (d12 - d01) / (x2 - x0)
	if c == 0 {
		return x1
	}
	return 0.5 * (x0 + x1 - d01/c)
}
