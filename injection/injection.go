// Package injection 实现外源能量注入模型：
// 暗物质湮灭（含晕增强）与衰变对气体的加热率，作为红移的纯函数。
package injection

import (
	"fmt"
	"math"

	"thermo/maths"
	"thermo/types"
)

// 非就地沉积效率表的采样设置
const (
	feffGridSize = 512
	feffZMax     = 5000.0
)

// Model 能量注入模型（构建后不可变）
type Model struct {
	annihilation float64
	variation    float64
	zPeak        float64 // 湮灭参数定义点
	zMax         float64 // 抛物线窗口上边界（速率最大值所在）
	zMin         float64 // 抛物线窗口下边界
	fHalo        float64
	zHalo        float64
	decay        float64
	onTheSpot    bool

	rhoCdm float64 // 今日冷暗物质能量密度 [J/m^3]
	factor float64 // 吸收光学深度因子 c*sigma_T*n_H(0)/(H0*sqrt(Omega_m))

	// 预制的沉积速率表（非就地沉积模式）
	lz   []float64
	dep  []float64
	dep2 []float64
}

// New 构建能量注入模型；参数必须已通过 types.Params 校验
func New(par *types.Params) (*Model, error) {
	if par.AnnihilationVariation > 0 {
		return nil, fmt.Errorf("湮灭曲率参数必须为非正数: %g", par.AnnihilationVariation)
	}
	if par.Annihilation != 0 && par.AnnihilationZmin >= par.AnnihilationZmax {
		return nil, fmt.Errorf("湮灭窗口边界反转: zmin=%g >= zmax=%g", par.AnnihilationZmin, par.AnnihilationZmax)
	}

	h0SI := par.H100 * 1e5 / types.MpcOverM
	rhoCrit := 3 * h0SI * h0SI / (8 * math.Pi * types.GNewton) * types.CLight * types.CLight
	nH0 := 3 * h0SI * h0SI * par.OmegaB / (8 * math.Pi * types.GNewton * types.MHydrogen) * (1 - par.YHe)
	omegaM := par.OmegaB + par.OmegaCDM

	m := &Model{
		annihilation: par.Annihilation,
		variation:    par.AnnihilationVariation,
		zPeak:        par.AnnihilationZ,
		zMax:         par.AnnihilationZmax,
		zMin:         par.AnnihilationZmin,
		fHalo:        par.AnnihilationFHalo,
		zHalo:        par.AnnihilationZHalo,
		decay:        par.Decay,
		onTheSpot:    par.OnTheSpot,
		rhoCdm:       par.OmegaCDM * rhoCrit,
		factor:       types.SigmaTh * nH0 * types.CLight / (h0SI * math.Sqrt(omegaM)),
	}

	if !m.onTheSpot && (m.annihilation != 0 || m.decay != 0) {
		if err := m.buildDepositionTable(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Enabled 模型是否产生非零加热率
func (m *Model) Enabled() bool {
	return m.annihilation != 0 || m.decay != 0
}

// annihilationAt 湮灭参数随红移的变化 F(z)
// 窗口 [zmin,zmax] 内为对数-对数抛物线（用端点导数为零的
// 平滑多项式调制，保证窗口边界处值与一阶导数同时连续），
// 峰值位于 zmax，窗口外保持边界值。
func (m *Model) annihilationAt(z float64) float64 {
	if m.variation == 0 {
		return m.annihilation
	}
	lMin := math.Log1p(m.zMin)
	lMax := math.Log1p(m.zMax)
	dl := lMax - lMin
	// 归一化：F(zPeak) = annihilation
	shape := func(l float64) float64 {
		u := (l - lMin) / dl
		if u < 0 {
			u = 0
		}
		if u > 1 {
			u = 1
		}
		// g(0)=1, g(1)=0, 两端导数为零
		g := (1 - u) * (1 - u) * (1 + 2*u)
		return m.variation * dl * dl * g
	}
	logFmax := math.Log(m.annihilation) - shape(math.Log1p(m.zPeak))
	l := math.Log1p(z)
	switch {
	case z >= m.zMax:
		return math.Exp(logFmax)
	case z <= m.zMin:
		return math.Exp(logFmax + shape(lMin))
	}
	return math.Exp(logFmax + shape(l))
}

// onTheSpotRate 就地沉积近似下的注入加热率 [J/m^3/s]
func (m *Model) onTheSpotRate(z float64) float64 {
	zp := 1 + z
	var rate float64
	if m.annihilation != 0 {
		ann := m.annihilationAt(z)
		halo := m.fHalo * math.Erfc(zp/(1+m.zHalo))
		rate += m.rhoCdm * m.rhoCdm / (types.CLight * types.CLight) *
			zp * zp * zp * (zp*zp*zp*ann + halo)
	}
	if m.decay != 0 {
		rate += m.rhoCdm * zp * zp * zp * m.decay
	}
	return rate
}

// buildDepositionTable 预制非就地沉积的有效加热率表
// 注入能量按吸收核 exp(-(2/3)*factor*((1+z')^1.5-(1+z)^1.5)) 存活、
// 随膨胀红移并稀释后在 z 处沉积；核在强吸收极限下退化为就地沉积。
func (m *Model) buildDepositionTable() error {
	n := feffGridSize
	m.lz = make([]float64, n)
	m.dep = make([]float64, n)
	lzTop := math.Log1p(feffZMax)
	for i := 0; i < n; i++ {
		m.lz[i] = lzTop * float64(i) / float64(n-1)
	}
	// 对每个沉积红移，以 w = 1-exp(-k*u) 为积分变量
	// （u = (1+z')^1.5-(1+z)^1.5），吸收核被精确吸收进测度，
	// 中点法则在任意吸收强度下都能分辨核的尺度。
	const nInner = 512
	k := 2.0 / 3.0 * m.factor
	for i := 0; i < n; i++ {
		z := math.Expm1(m.lz[i])
		opz15 := math.Pow(1+z, 1.5)
		var sum float64
		for j := 0; j < nInner; j++ {
			w := (float64(j) + 0.5) / nInner
			u := -math.Log(1-w) / k
			zp := math.Pow(opz15+u, 2.0/3.0) - 1
			dzpdu := 1 / (1.5 * math.Sqrt(1+zp))
			sum += m.onTheSpotRate(zp) * math.Pow(1+zp, -6.5) * dzpdu
		}
		sum /= k * nInner
		m.dep[i] = m.factor * math.Pow(1+z, 7) * sum
	}
	var err error
	m.dep2, err = maths.SplineNatural(m.lz, m.dep)
	if err != nil {
		return fmt.Errorf("能量沉积效率表样条构建失败: %w", err)
	}
	return nil
}

// Rate 红移 z 处沉积到气体的加热率 [J/m^3/s]
func (m *Model) Rate(z float64) (float64, error) {
	if !m.Enabled() {
		return 0, nil
	}
	if m.onTheSpot || z >= feffZMax {
		// 高红移气体不透明，沉积即就地
		return m.onTheSpotRate(z), nil
	}
	v, err := maths.SplineEval(m.lz, m.dep, m.dep2, math.Log1p(z), nil, maths.ModeNormal)
	if err != nil {
		return 0, fmt.Errorf("能量沉积效率表查询失败: %w", err)
	}
	return v, nil
}
