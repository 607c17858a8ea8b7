package background

import (
	"fmt"
	"math"

	"thermo/maths"
	"thermo/types"
)

// 表格默认分辨率
const defaultGridSize = 4096

// LCDM 平坦 Lambda-CDM（含辐射）背景模型
// 共动距离与声视界在 log(1+z) 网格上预制表格并用样条插值，
// 哈勃率与重子-光子比为解析表达式。
type LCDM struct {
	H0     float64 // [1/Mpc]
	OmegaM float64
	OmegaR float64
	OmegaG float64
	OmegaL float64
	OmegaB float64

	zMax float64
	tau0 float64

	lz   []float64 // log(1+z) 网格（递增）
	chi  []float64
	chi2 []float64
	rs   []float64
	rs2  []float64
}

// NewLCDM 根据参数构建背景表格，覆盖 [0, zMax]
func NewLCDM(par *types.Params, zMax float64) (*LCDM, error) {
	if err := par.Check(); err != nil {
		return nil, err
	}
	if zMax <= 0 {
		return nil, fmt.Errorf("背景表格最大红移非法: %g", zMax)
	}

	m := &LCDM{
		H0:     par.H100 / 2997.92458,
		OmegaB: par.OmegaB,
		OmegaG: par.OmegaG(),
		zMax:   zMax,
	}
	omegaNu := par.Neff * 7.0 / 8.0 * math.Pow(4.0/11.0, 4.0/3.0) * m.OmegaG
	m.OmegaR = m.OmegaG + omegaNu
	m.OmegaM = par.OmegaB + par.OmegaCDM
	m.OmegaL = 1 - m.OmegaM - m.OmegaR

	n := defaultGridSize
	m.lz = make([]float64, n)
	m.chi = make([]float64, n)
	m.rs = make([]float64, n)
	lzMax := math.Log1p(zMax)
	for i := 0; i < n; i++ {
		m.lz[i] = lzMax * float64(i) / float64(n-1)
	}

	// 共动距离：chi(z) = 积分 dz'/H，梯形法累积（dchi/dlz = (1+z)/H）
	integ := make([]float64, n)
	for i := 0; i < n; i++ {
		zp := math.Expm1(m.lz[i])
		integ[i] = (1 + zp) / m.Hubble(zp)
	}
	maths.CumulativeTrapz(m.lz, integ, m.chi)

	// 辐射主导尾部的解析贡献，给出共形年龄
	tail := 1 / (m.H0 * math.Sqrt(m.OmegaR) * (1 + zMax))
	m.tau0 = m.chi[n-1] + tail

	// 共动声视界：rs(z) = 积分_z^inf cs dz'/H，由高红移端向下累积
	for i := 0; i < n; i++ {
		zp := math.Expm1(m.lz[i])
		cs := 1 / math.Sqrt(3*(1+m.Rba(zp)))
		integ[i] = cs * (1 + zp) / m.Hubble(zp)
	}
	rsTail := tail / math.Sqrt(3)
	m.rs[n-1] = rsTail
	for i := n - 2; i >= 0; i-- {
		m.rs[i] = m.rs[i+1] + 0.5*(integ[i]+integ[i+1])*(m.lz[i+1]-m.lz[i])
	}

	var err error
	if m.chi2, err = maths.SplineNatural(m.lz, m.chi); err != nil {
		return nil, fmt.Errorf("背景共动距离样条构建失败: %w", err)
	}
	if m.rs2, err = maths.SplineNatural(m.lz, m.rs); err != nil {
		return nil, fmt.Errorf("背景声视界样条构建失败: %w", err)
	}
	return m, nil
}

// Hubble 哈勃率 [1/Mpc]
func (m *LCDM) Hubble(z float64) float64 {
	zp := 1 + z
	return m.H0 * math.Sqrt(m.OmegaR*zp*zp*zp*zp+m.OmegaM*zp*zp*zp+m.OmegaL)
}

// Rba 重子-光子动量密度比 R = 3*rho_b/(4*rho_g)
func (m *LCDM) Rba(z float64) float64 {
	return 3 * m.OmegaB / (4 * m.OmegaG * (1 + z))
}

// ConformalAge 今日共形时间 [Mpc]
func (m *LCDM) ConformalAge() float64 { return m.tau0 }

// ZMax 表格覆盖的最大红移
func (m *LCDM) ZMax() float64 { return m.zMax }

// At 查询红移 z 处的背景量
func (m *LCDM) At(z float64, hint *Hint) (Vec, error) {
	if z < 0 || z > m.zMax {
		return Vec{}, fmt.Errorf("背景查询红移超出范围 [0,%g]: %g", m.zMax, z)
	}
	lz := math.Log1p(z)
	mode := maths.ModeNormal
	var last *int
	if hint != nil {
		mode = maths.ModeCloseby
		last = &hint.last
	}
	chi, err := maths.SplineEval(m.lz, m.chi, m.chi2, lz, last, mode)
	if err != nil {
		return Vec{}, err
	}
	rs, err := maths.SplineEval(m.lz, m.rs, m.rs2, lz, last, mode)
	if err != nil {
		return Vec{}, err
	}
	return Vec{
		H:   m.Hubble(z),
		Tau: m.tau0 - chi,
		Chi: chi,
		R:   m.Rba(z),
		Rs:  rs,
	}, nil
}
