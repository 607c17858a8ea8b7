package history

import (
	"fmt"
	"math"

	"thermo/maths"
	"thermo/types"
)

// ReioParams 再电离轮廓参数
// XeBefore 在复合阶段求解完成后由驱动器回填。
type ReioParams struct {
	Parametrization types.ReioParametrization

	// camb 轮廓
	ZReio    float64 // 氢再电离中心红移（射靶模式下为求解结果）
	Exponent float64
	Width    float64
	HeZ      float64 // 氦第二次再电离中心
	HeWidth  float64

	// 分段轮廓
	BinZ      []float64
	BinXe     []float64
	Sharpness float64

	XeAfter   float64 // 氢与氦首次再电离完成后的电离度
	XeBefore  float64
	HeAmp     float64 // 氦第二次再电离的幅度 fHe
	ZStart    float64
}

// initReio 从输入参数装配轮廓
func (ws *Workspace) initReio() {
	par := ws.Par
	r := ReioParams{
		Parametrization: par.ReioParametrization,
		ZReio:           par.ZReio,
		Exponent:        par.ReioExponent,
		Width:           par.ReioWidth,
		HeZ:             par.HeliumReioZ,
		HeWidth:         par.HeliumReioWidth,
		Sharpness:       par.BinnedReioSharpness,
		XeAfter:         1 + ws.FHe,
		HeAmp:           ws.FHe,
		ZStart:          ws.Pre.ReioZStartMax,
	}
	switch par.ReioParametrization {
	case types.ReioBinsTanh:
		r.BinZ = append([]float64(nil), par.BinnedReioZ...)
		r.BinXe = append([]float64(nil), par.BinnedReioXe...)
		if r.Sharpness <= 0 {
			r.Sharpness = 0.3
		}
	case types.ReioManyTanh:
		r.BinZ = append([]float64(nil), par.ManyTanhZ...)
		r.BinXe = append([]float64(nil), par.ManyTanhXe...)
		r.Width = par.ManyTanhWidth
		if r.Width <= 0 {
			r.Width = 0.5
		}
	case types.ReioInter:
		r.BinZ = append([]float64(nil), par.InterReioZ...)
		r.BinXe = append([]float64(nil), par.InterReioXe...)
	}
	ws.Reio = r
}

// Xe 红移 z 处的再电离电离度轮廓
func (r *ReioParams) Xe(z float64) (float64, error) {
	if z >= r.ZStart {
		return r.XeBefore, nil
	}
	switch r.Parametrization {
	case types.ReioCamb:
		return r.xeCamb(z), nil
	case types.ReioBinsTanh:
		return r.xeBins(z), nil
	case types.ReioManyTanh:
		return r.xeManyTanh(z), nil
	case types.ReioInter:
		return r.xeInter(z)
	}
	return 0, fmt.Errorf("未知的再电离参数化: %v", r.Parametrization)
}

// xeCamb 广义 tanh 轮廓：氢（带幂指数的自变量）加氦的独立 tanh 台阶
func (r *ReioParams) xeCamb(z float64) float64 {
	zp := 1 + r.ZReio
	arg := (math.Pow(zp, r.Exponent) - math.Pow(1+z, r.Exponent)) /
		(r.Exponent * math.Pow(zp, r.Exponent-1)) / r.Width
	x := r.XeBefore + (r.XeAfter-r.XeBefore)*(math.Tanh(arg)+1)/2
	x += r.HeAmp * (math.Tanh((r.HeZ-z)/r.HeWidth) + 1) / 2
	return x
}

// xeBins 分桶 tanh 轮廓：相邻桶心之间以归一化 tanh 台阶衔接，
// 末桶之上回落到复合末端电离度。
func (r *ReioParams) xeBins(z float64) float64 {
	zb := r.BinZ
	xb := r.BinXe
	n := len(zb)
	if z <= zb[0] {
		return xb[0]
	}
	// 顶端延拓桶：中心取末桶与起始红移的中点，值为 XeBefore
	zTop := 0.5 * (zb[n-1] + r.ZStart)
	if z >= zTop {
		return r.XeBefore
	}
	zAug := append(append([]float64(nil), zb...), zTop)
	xAug := append(append([]float64(nil), xb...), r.XeBefore)
	for i := 0; i+1 < len(zAug); i++ {
		if z <= zAug[i+1] {
			u := 2*(z-zAug[i])/(zAug[i+1]-zAug[i]) - 1
			w := (math.Tanh(u/r.Sharpness)/math.Tanh(1/r.Sharpness) + 1) / 2
			return xAug[i] + w*(xAug[i+1]-xAug[i])
		}
	}
	return r.XeBefore
}

// xeManyTanh 多台阶 tanh 轮廓：自高红移向低红移依次叠加跃迁
func (r *ReioParams) xeManyTanh(z float64) float64 {
	x := r.XeBefore
	prev := r.XeBefore
	for i := len(r.BinZ) - 1; i >= 0; i-- {
		x += (r.BinXe[i] - prev) * (math.Tanh((r.BinZ[i]-z)/r.Width) + 1) / 2
		prev = r.BinXe[i]
	}
	return x
}

// xeInter 节点线性插值轮廓，末节点之上接复合末端电离度
func (r *ReioParams) xeInter(z float64) (float64, error) {
	zb := r.BinZ
	xb := r.BinXe
	n := len(zb)
	if n < 2 {
		return 0, fmt.Errorf("插值再电离至少需要两个节点")
	}
	if z >= zb[n-1] {
		// 末节点与起始红移之间线性过渡
		w := (z - zb[n-1]) / (r.ZStart - zb[n-1])
		return xb[n-1] + w*(r.XeBefore-xb[n-1]), nil
	}
	for i := 0; i+1 < n; i++ {
		if z <= zb[i+1] {
			w := (z - zb[i]) / (zb[i+1] - zb[i])
			return xb[i] + w*(xb[i+1]-xb[i]), nil
		}
	}
	return xb[n-1], nil
}

// shootReionization 对再电离红移射靶：
// 以纯闭包形式重复求解再电离区间，使其光学深度命中目标值。
func (ws *Workspace) shootReionization(grid []float64, samples []Sample, kReio int, zEntry float64, stEntry State, reioIdx int) (float64, error) {
	target := ws.Par.TauReio
	saved := ws.Reio.ZReio
	defer func() { ws.Reio.ZReio = saved }()

	tauOf := func(zre float64) (float64, error) {
		ws.Reio.ZReio = zre
		st := stEntry
		if _, _, err := ws.integrateInterval(reioIdx, grid, samples, kReio, zEntry, &st); err != nil {
			return 0, err
		}
		return tauTrapz(samples[kReio:]), nil
	}

	lo, hi := 0.0, ws.Pre.ReioZStartMax-1
	fLo, err := tauOf(lo)
	if err != nil {
		return 0, err
	}
	fHi, err := tauOf(hi)
	if err != nil {
		return 0, err
	}
	if target < fLo || target > fHi {
		return 0, fmt.Errorf("目标光学深度 %g 超出可行范围 [%g, %g]", target, fLo, fHi)
	}

	zre, err := maths.Ridders(func(z float64) (float64, error) {
		tau, err := tauOf(z)
		return tau - target, err
	}, lo, hi, 1e-6, ws.Pre.ShootingMaxIter)
	if err != nil {
		return 0, fmt.Errorf("再电离射靶求根失败: %w", err)
	}
	return zre, nil
}
