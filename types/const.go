package types

import "math"

// 基础物理常量定义（SI单位制）
const (
	CLight   = 2.99792458e8   // 光速 [m/s]
	KBoltz   = 1.3806504e-23  // 玻尔兹曼常数 [J/K]
	HPlanck  = 6.62606896e-34 // 普朗克常数 [J·s]
	GNewton  = 6.67428e-11    // 引力常数 [m^3/kg/s^2]
	MpcOverM = 3.085677581282e22 // 兆秒差距 [m]

	MElectron = 9.10938215e-31 // 电子质量 [kg]
	MProton   = 1.672621637e-27 // 质子质量 [kg]
	MHydrogen = 1.673575e-27   // 氢原子质量 [kg]
	Not4      = 3.9715         // 氦氢质量比（不完全等于4）
	SigmaTh   = 6.6524616e-29  // 汤姆孙散射截面 [m^2]
	ARad      = 7.565914e-16   // 辐射能量密度常数 [J/m^3/K^4]
)

// RECFAST 原子物理常量定义（能级波数单位 [1/m]）
const (
	LHIon    = 1.096787737e7  // 氢电离能级
	LHAlpha  = 8.225916453e6  // 氢 Lyman-alpha 能级
	LHe1Ion  = 1.98310772e7   // 中性氦电离能级
	LHe2Ion  = 4.389088863e7  // 一次电离氦的电离能级
	LHe2s    = 1.66277434e7   // 氦 2s 能级
	LHe2p    = 1.66277434e7 + 4.857457e4 // 氦 2p 能级（2s + 2p-2s 间隔）

	LambdaH  = 8.2245809 // 氢 2s->1s 双光子衰变率 [1/s]
	LambdaHe = 51.3      // 氦 2s->1s 双光子衰变率 [1/s]
)

// RECFAST 复合系数拟合常量
const (
	APPB = 4.309   // 氢 case-B 复合系数拟合参数 a
	BPPB = -0.6166 // 拟合参数 b
	CPPB = 0.6703  // 拟合参数 c
	DPPB = 0.5300  // 拟合参数 d

	BVF = 0.711 // 氦 Verner-Ferland 拟合参数 b
)

// 派生常量（由基础常量组合，初始化时计算一次）
var (
	AVF  = math.Pow(10, -16.744)   // 氦 Verner-Ferland 拟合参数 a
	TVF0 = math.Pow(10, 0.477121)  // Verner-Ferland 特征温度 T0 [K]
	TVF1 = math.Pow(10, 5.114)     // Verner-Ferland 特征温度 T1 [K]

	CR     = 2 * math.Pi * (MElectron / HPlanck) * (KBoltz / HPlanck) // Saha 方程因子 [1/m^2/K]
	CB1    = HPlanck * CLight * LHIon / KBoltz                        // 氢电离温度 [K]
	CDB    = HPlanck * CLight * (LHIon - LHAlpha) / KBoltz            // 氢 n=2 束缚温度 [K]
	CK     = 1 / (LHAlpha * LHAlpha * LHAlpha * 8 * math.Pi)          // 氢 Lyman-alpha 红移逃逸因子（波长立方）[m^3]
	CL     = CLight * HPlanck * LHAlpha / KBoltz                      // 氢 Lyman-alpha 温度 [K]
	CB1He1 = HPlanck * CLight * LHe1Ion / KBoltz                      // 中性氦电离温度 [K]
	CB1He2 = HPlanck * CLight * LHe2Ion / KBoltz                      // 一次电离氦电离温度 [K]
	CDBHe  = HPlanck * CLight * (LHe1Ion - LHe2s) / KBoltz            // 氦 2s 束缚温度 [K]
	CLHe   = CLight * HPlanck * LHe2s / KBoltz                        // 氦 2s 激发温度 [K]
	CKHe   = 1 / (LHe2p * LHe2p * LHe2p * 8 * math.Pi)                // 氦 2p 红移逃逸因子（波长立方）[m^3]
	Bfact  = HPlanck * CLight * (LHe2p - LHe2s) / KBoltz              // 氦 2p-2s 玻尔兹曼温度 [K]

	CompT = 8.0 / 3.0 * SigmaTh * ARad / (MElectron * CLight) // 康普顿耦合系数 [1/s/K^4]
)

// RECFAST 修正常量（算法B：recfast 1.5 的氢修正函数）
const (
	FudgeH      = 1.14   // 算法A基础氢修正因子
	FudgeHDelta = -0.015 // 算法B修正因子增量
	AGauss1     = -0.14  // 高斯修正1幅度
	AGauss2     = 0.079  // 高斯修正2幅度
	ZGauss1     = 7.28   // 高斯修正1中心（ln(1+z)）
	ZGauss2     = 6.73   // 高斯修正2中心（ln(1+z)）
	WGauss1     = 0.18   // 高斯修正1宽度
	WGauss2     = 0.33   // 高斯修正2宽度
)

// 复合红移合理范围限制
const (
	ZRecMax = 2000.0 // 复合红移上限
	ZRecMin = 500.0  // 复合红移下限
)

// Smoothstep 平滑过渡函数：s 从 0 到 1 时输出从 0 到 1，端点导数为零。
// 用于近似方案切换窗口内的混合权重，保证轨迹一阶导数连续。
func Smoothstep(s float64) float64 {
	switch {
	case s <= 0:
		return 0
	case s >= 1:
		return 1
	}
	return s * s * (3 - 2*s)
}
