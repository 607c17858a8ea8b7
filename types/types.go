package types

import (
	"fmt"
	"math"
)

// RecombinationAlgorithm 复合算法选择
type RecombinationAlgorithm int

const (
	RecombinationBase      RecombinationAlgorithm = iota // 算法A：基础 RECFAST
	RecombinationCorrected                               // 算法B：带高斯修正函数的 RECFAST
)

func (a RecombinationAlgorithm) String() string {
	switch a {
	case RecombinationBase:
		return "recfast-base"
	case RecombinationCorrected:
		return "recfast-corrected"
	}
	return "unknown"
}

// ReioParametrization 再电离参数化方案
type ReioParametrization int

const (
	ReioNone     ReioParametrization = iota // 不考虑再电离
	ReioCamb                                // 单个 tanh 轮廓（CAMB 形式）
	ReioBinsTanh                            // 分箱 tanh 插值
	ReioManyTanh                            // 多个 tanh 跳变
	ReioInter                               // 给定点之间线性插值
)

func (r ReioParametrization) String() string {
	switch r {
	case ReioNone:
		return "none"
	case ReioCamb:
		return "camb"
	case ReioBinsTanh:
		return "bins_tanh"
	case ReioManyTanh:
		return "many_tanh"
	case ReioInter:
		return "inter"
	}
	return "unknown"
}

// ReioInput 再电离输入模式：给定红移或给定光学深度（互斥）
type ReioInput int

const (
	ReioInputZ   ReioInput = iota // 输入为再电离红移
	ReioInputTau                  // 输入为目标光学深度（射靶求解红移）
)

// Regime 近似方案枚举，按起始红移从高到低排列
type Regime int

const (
	RegimeBRec Regime = iota // 复合前：氢氦完全电离
	RegimeHeI                // 第一次氦复合（HeIII->HeII，Saha）
	RegimeHeIf               // 两次氦复合之间的平台
	RegimeHeII               // 第二次氦复合（HeII->HeI，Saha）
	RegimeHRec               // 氢复合开始：氢 Saha + 氦积分
	RegimeFRec               // 完全复合：全部变量积分
	RegimeReio               // 再电离（轮廓函数驱动）
)

func (r Regime) String() string {
	switch r {
	case RegimeBRec:
		return "brec"
	case RegimeHeI:
		return "He1"
	case RegimeHeIf:
		return "He1f"
	case RegimeHeII:
		return "He2"
	case RegimeHRec:
		return "H"
	case RegimeFRec:
		return "frec"
	case RegimeReio:
		return "reio"
	}
	return "unknown"
}

// EvolverKind 刚性积分器选择
type EvolverKind int

const (
	EvolverBDF  EvolverKind = iota // 隐式 Gear/BDF（默认，适合刚性区间）
	EvolverRKCK                    // 显式嵌入式 Cash-Karp RK
)

// Params 热力学历史计算的全部输入参数
type Params struct {
	// 宇宙学背景参数
	H100     float64 // 无量纲哈勃参数 h
	OmegaB   float64 // 重子密度参数
	OmegaCDM float64 // 冷暗物质密度参数
	Tcmb     float64 // 今日光子温度 [K]
	YHe      float64 // 原初氦质量丰度
	Neff     float64 // 有效中微子种类数

	// 复合与再电离方案
	Recombination       RecombinationAlgorithm
	ReioParametrization ReioParametrization
	ReioInput           ReioInput
	ZReio               float64 // ReioInputZ 模式的输入红移
	TauReio             float64 // ReioInputTau 模式的目标光学深度

	// 单 tanh（CAMB 形式）轮廓参数
	ReioExponent    float64 // 轮廓指数
	ReioWidth       float64 // 氢再电离宽度
	HeliumReioZ     float64 // 氦完全再电离红移
	HeliumReioWidth float64 // 氦完全再电离宽度

	// 分箱 tanh 轮廓参数
	BinnedReioZ         []float64
	BinnedReioXe        []float64
	BinnedReioSharpness float64

	// 多 tanh 轮廓参数
	ManyTanhZ     []float64
	ManyTanhXe    []float64
	ManyTanhWidth float64

	// 线性插值轮廓参数
	InterReioZ  []float64
	InterReioXe []float64

	// 能量注入参数
	Annihilation          float64 // 湮灭参数 f<sigma v>/m [m^3/s/kg]
	AnnihilationVariation float64 // 对数抛物线曲率（必须<=0）
	AnnihilationZ         float64 // 湮灭参数定义点红移
	AnnihilationZmax      float64 // 抛物线窗口上边界
	AnnihilationZmin      float64 // 抛物线窗口下边界
	AnnihilationFHalo     float64 // 晕贡献因子
	AnnihilationZHalo     float64 // 晕特征红移
	Decay                 float64 // 衰变参数 f/tau [1/s]
	OnTheSpot             bool    // 能量就地沉积近似

	// 输出选项
	ComputeCb2Derivatives bool // 是否计算声速平方的导数列
	ComputeDampingScale   bool // 是否计算光子扩散尺度列
	ClampQueries          bool // 超出表格范围的查询：钳制而非报错
	Verbose               int  // 信息输出级别
}

// DefaultParams 返回一组标准的平坦宇宙参数
func DefaultParams() Params {
	return Params{
		H100:     0.6732,
		OmegaB:   0.04939,
		OmegaCDM: 0.2645,
		Tcmb:     2.7255,
		YHe:      0.2454,
		Neff:     3.044,

		Recombination:       RecombinationBase,
		ReioParametrization: ReioCamb,
		ReioInput:           ReioInputZ,
		ZReio:               7.68,

		ReioExponent:    1.5,
		ReioWidth:       0.5,
		HeliumReioZ:     3.5,
		HeliumReioWidth: 0.5,

		AnnihilationZ:     1000,
		AnnihilationZmax:  2500,
		AnnihilationZmin:  30,
		AnnihilationZHalo: 30,
		OnTheSpot:         true,

		ComputeCb2Derivatives: true,
		ComputeDampingScale:   true,
	}
}

// FHe 氦相对氢的数密度比
func (p *Params) FHe() float64 {
	return p.YHe / (Not4 * (1 - p.YHe))
}

// OmegaG 今日光子密度参数
func (p *Params) OmegaG() float64 {
	h0 := p.H100 * 1e5 / MpcOverM // H0 [1/s]
	rhoCrit := 3 * h0 * h0 / (8 * math.Pi * GNewton) // [kg/m^3]
	rhoG := ARad * p.Tcmb * p.Tcmb * p.Tcmb * p.Tcmb / (CLight * CLight)
	return rhoG / rhoCrit
}

// Check 参数一致性检查，在积分开始前执行
func (p *Params) Check() error {
	if p.H100 <= 0 || p.OmegaB <= 0 || p.Tcmb <= 0 {
		return fmt.Errorf("非法背景参数: h=%g omega_b=%g Tcmb=%g", p.H100, p.OmegaB, p.Tcmb)
	}
	if p.YHe < 0.01 || p.YHe > 0.5 {
		return fmt.Errorf("氦丰度超出允许范围 [0.01,0.5]: %g", p.YHe)
	}
	if p.Recombination != RecombinationBase && p.Recombination != RecombinationCorrected {
		return fmt.Errorf("未知复合算法: %d", p.Recombination)
	}
	if p.AnnihilationVariation > 0 {
		return fmt.Errorf("湮灭曲率参数必须为非正数: %g", p.AnnihilationVariation)
	}
	if p.Annihilation != 0 && p.AnnihilationZmin >= p.AnnihilationZmax {
		return fmt.Errorf("湮灭窗口边界反转: zmin=%g >= zmax=%g", p.AnnihilationZmin, p.AnnihilationZmax)
	}
	if p.ReioInput == ReioInputTau && p.ReioParametrization != ReioCamb {
		return fmt.Errorf("光学深度输入仅支持 camb 再电离参数化, 当前为 %v", p.ReioParametrization)
	}
	switch p.ReioParametrization {
	case ReioNone:
	case ReioCamb:
		if p.ReioInput == ReioInputZ && p.ZReio < 0 {
			return fmt.Errorf("再电离红移为负: %g", p.ZReio)
		}
		if p.ReioInput == ReioInputTau && (p.TauReio <= 0 || p.TauReio >= 1) {
			return fmt.Errorf("目标光学深度超出物理范围 (0,1): %g", p.TauReio)
		}
	case ReioBinsTanh:
		if len(p.BinnedReioZ) == 0 || len(p.BinnedReioZ) != len(p.BinnedReioXe) {
			return fmt.Errorf("分箱再电离的 z/xe 数组长度不一致: %d/%d", len(p.BinnedReioZ), len(p.BinnedReioXe))
		}
		if !ascending(p.BinnedReioZ) {
			return fmt.Errorf("分箱再电离的 z 数组必须严格递增")
		}
	case ReioManyTanh:
		if len(p.ManyTanhZ) == 0 || len(p.ManyTanhZ) != len(p.ManyTanhXe) {
			return fmt.Errorf("多 tanh 再电离的 z/xe 数组长度不一致: %d/%d", len(p.ManyTanhZ), len(p.ManyTanhXe))
		}
		if !ascending(p.ManyTanhZ) {
			return fmt.Errorf("多 tanh 再电离的 z 数组必须严格递增")
		}
	case ReioInter:
		if len(p.InterReioZ) < 2 || len(p.InterReioZ) != len(p.InterReioXe) {
			return fmt.Errorf("线性插值再电离的 z/xe 数组长度不一致: %d/%d", len(p.InterReioZ), len(p.InterReioXe))
		}
		if !ascending(p.InterReioZ) {
			return fmt.Errorf("线性插值再电离的 z 数组必须严格递增")
		}
		if p.InterReioZ[0] != 0 {
			return fmt.Errorf("线性插值再电离的第一个 z 必须为 0, 得到 %g", p.InterReioZ[0])
		}
	default:
		return fmt.Errorf("未知再电离参数化方案: %d", p.ReioParametrization)
	}
	return nil
}

func ascending(x []float64) bool {
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return false
		}
	}
	return true
}

// Precision 数值精度旋钮集合
type Precision struct {
	ZIni float64 // 积分起始红移

	// 固定的近似方案边界红移
	ZHeI  float64 // 第一次氦复合起始
	ZHeIf float64 // 第一次氦复合结束
	ZHeII float64 // 第二次氦复合起始

	// 由 Saha 方程求根得到的边界触发条件
	HeIITrigger float64 // 氦 Saha 电离度降至该值时进入氢复合方案
	HTrigger    float64 // 氢 Saha 电离度降至该值时进入完全复合方案

	// 各边界的平滑过渡宽度（红移单位）
	DeltaHeI  float64
	DeltaHeIf float64
	DeltaHeII float64
	DeltaHRec float64
	DeltaFRec float64

	// 输出网格采样数
	NzRecoLog  int     // 对数采样段点数（高红移）
	NzRecoLin  int     // 线性采样段点数（复合区）
	NzReio     int     // 再电离区点数
	ZLogSwitch float64 // 对数/线性采样分界红移

	// 再电离与射靶求解
	ReioZStartMax   float64 // 再电离方案起始红移上限
	ReioTauTol      float64 // 光学深度匹配容差
	ShootingMaxIter int     // 射靶最大迭代次数

	// 积分器设置
	Evolver EvolverKind
	AbsTol  float64 // 绝对误差容差（对电离度变量）
	RelTol  float64 // 相对误差容差
}

// DefaultPrecision 默认精度设置
func DefaultPrecision() Precision {
	return Precision{
		ZIni: 1e4,

		ZHeI:  8000,
		ZHeIf: 5000,
		ZHeII: 3500,

		HeIITrigger: 0.995,
		HTrigger:    0.995,

		DeltaHeI:  50,
		DeltaHeIf: 100,
		DeltaHeII: 50,
		DeltaHRec: 50,
		DeltaFRec: 50,

		NzRecoLog:  500,
		NzRecoLin:  20000,
		NzReio:     1000,
		ZLogSwitch: 8050,

		ReioZStartMax:   50,
		ReioTauTol:      1e-4,
		ShootingMaxIter: 60,

		Evolver: EvolverBDF,
		AbsTol:  1e-8,
		RelTol:  1e-6,
	}
}

// Check 精度参数一致性检查
func (p *Precision) Check() error {
	if !(p.ZIni > p.ZHeI && p.ZHeI > p.ZHeIf && p.ZHeIf > p.ZHeII && p.ZHeII > p.ReioZStartMax) {
		return fmt.Errorf("近似方案边界红移必须严格递减: %g > %g > %g > %g > %g",
			p.ZIni, p.ZHeI, p.ZHeIf, p.ZHeII, p.ReioZStartMax)
	}
	if p.HeIITrigger <= 0 || p.HeIITrigger >= 1 || p.HTrigger <= 0 || p.HTrigger >= 1 {
		return fmt.Errorf("Saha 触发阈值必须位于 (0,1): He=%g H=%g", p.HeIITrigger, p.HTrigger)
	}
	if p.NzRecoLin < 2 || p.NzRecoLog < 2 || p.NzReio < 2 {
		return fmt.Errorf("采样点数过少: log=%d lin=%d reio=%d", p.NzRecoLog, p.NzRecoLin, p.NzReio)
	}
	if p.ReioTauTol <= 0 || p.ShootingMaxIter < 1 {
		return fmt.Errorf("射靶求解设置非法: tol=%g maxIter=%d", p.ReioTauTol, p.ShootingMaxIter)
	}
	return nil
}
