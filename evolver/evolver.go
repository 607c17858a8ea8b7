package evolver

import "math"

// Fcn 常微分方程右端函数 dy = f(x, y)
type Fcn func(x float64, y, dy []float64) error

// Observer 在每个请求的输出点被调用一次，idx 为输出点序号
type Observer func(idx int, x float64, y, dy []float64) error

// Config 积分配置
type Config struct {
	Fcn      Fcn
	Observer Observer

	AbsTol float64 // 绝对误差容差，<=0 时取默认值
	RelTol float64 // 相对误差容差，<=0 时取默认值

	InitialStep float64 // 初始步长，<=0 时自动估计
	MinStep     float64 // 最小允许步长，低于该值报告积分失败
	MaxStep     float64 // 最大允许步长
	MaxSteps    int     // 最大步数预算，超出报告积分失败
}

// Statistics 积分统计信息
type Statistics struct {
	Steps    int     // 接受的步数
	Rejected int     // 被拒绝的步数
	Evals    int     // 右端函数求值次数
	JacEvals int     // 雅可比矩阵求值次数
	LastStep float64 // 最后一步的步长
}

// Info 积分器描述
type Info struct {
	Name  string
	Order int
}

// Integrator 刚性/非刚性常微分方程积分器
// 从 x0 出发沿严格递增的输出点序列 xOut 积分，y 为初值（被就地推进），
// 在每个输出点精确落点并回调 Observer。
type Integrator interface {
	Info() Info
	Integrate(x0 float64, xOut []float64, y []float64, cfg *Config) (Statistics, error)
}

// 通用默认参数与步长调整常量
const (
	defaultAbsTol  = 1e-8
	defaultRelTol  = 1e-6
	defaultMinStep = 1e-14

	stepSafety   = 0.85 // 步长调整安全系数
	maxStepScale = 2.5  // 最大步长增长倍数
	minStepScale = 0.4  // 最小步长缩减倍数
)

func fillDefaults(cfg *Config, span float64) {
	if cfg.AbsTol <= 0 {
		cfg.AbsTol = defaultAbsTol
	}
	if cfg.RelTol <= 0 {
		cfg.RelTol = defaultRelTol
	}
	if cfg.MaxStep <= 0 {
		cfg.MaxStep = span
	}
	if cfg.MinStep <= 0 {
		cfg.MinStep = defaultMinStep * span
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 1000000
	}
}

// errQuotient 按分量容差归一化的误差商（加权均方根）
func errQuotient(yErr, y []float64, absTol, relTol float64) float64 {
	var sum float64
	for i := range yErr {
		tol := absTol + relTol*math.Abs(y[i])
		q := yErr[i] / tol
		sum += q * q
	}
	return math.Sqrt(sum / float64(len(yErr)))
}
