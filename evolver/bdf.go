package evolver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// 牛顿迭代参数
const (
	newtonMaxIter = 12   // 单步最大牛顿迭代次数
	newtonTolFact = 0.1  // 牛顿收敛判据相对误差容差的收紧倍数
)

type bdf struct {
	info Info
}

// NewBDF 创建隐式 Gear/BDF 积分器（变步长，阶数1-2）
// 刚性复合方程的默认选择：牛顿迭代求解隐式方程，
// 雅可比矩阵由前向差分近似并用 LU 分解求解。
func NewBDF() Integrator {
	return &bdf{info: Info{Name: "bdf", Order: 2}}
}

func (b *bdf) Info() Info { return b.info }

type bdfState struct {
	n int

	yPrev []float64 // y_{n-1}（上一步之前的解）
	hPrev float64   // 上一步步长
	haveP bool      // 历史是否已建立（决定可用阶数）

	dy    []float64
	yNew  []float64
	yPred []float64
	rhs   []float64
	resid []float64
	delta []float64
	scr   []float64

	jac *mat.Dense
	g   *mat.Dense
	lu  mat.LU
}

func newBDFState(n int) *bdfState {
	return &bdfState{
		n:     n,
		yPrev: make([]float64, n),
		dy:    make([]float64, n),
		yNew:  make([]float64, n),
		yPred: make([]float64, n),
		rhs:   make([]float64, n),
		resid: make([]float64, n),
		delta: make([]float64, n),
		scr:   make([]float64, n),
		jac:   mat.NewDense(n, n, nil),
		g:     mat.NewDense(n, n, nil),
	}
}

func (b *bdf) Integrate(x0 float64, xOut []float64, y []float64, cfg *Config) (stat Statistics, err error) {
	if len(xOut) == 0 {
		return stat, nil
	}
	span := xOut[len(xOut)-1] - x0
	if span <= 0 {
		return stat, fmt.Errorf("bdf: 输出点必须位于起点之后: x0=%g xEnd=%g", x0, xOut[len(xOut)-1])
	}
	fillDefaults(cfg, span)

	st := newBDFState(len(y))
	x := x0
	if err = cfg.Fcn(x, y, st.dy); err != nil {
		return stat, err
	}
	stat.Evals++

	h := cfg.InitialStep
	if h <= 0 {
		h = span / 1000
	}
	if h > cfg.MaxStep {
		h = cfg.MaxStep
	}

	for idx := 0; idx < len(xOut); {
		target := xOut[idx]
		if target <= x {
			return stat, fmt.Errorf("bdf: 输出点序列必须严格递增: x=%g target=%g", x, target)
		}
		hitTarget := false
		if x+h >= target {
			h = target - x
			hitTarget = true
		}

		ok, errQ, stepErr := b.step(x, h, y, st, cfg, &stat)
		if stepErr != nil {
			return stat, stepErr
		}

		if !ok || errQ > 1 {
			// 牛顿不收敛或局部误差超标：缩小步长重试
			stat.Rejected++
			shrink := minStepScale
			if ok && errQ > 1 {
				shrink = math.Max(minStepScale, stepSafety*math.Pow(errQ, -1.0/3.0))
			}
			h *= shrink
			if h < cfg.MinStep {
				return stat, fmt.Errorf("bdf: 步长降至下限 %g 仍无法收敛 (x=%g)", cfg.MinStep, x)
			}
		} else {
			// 接受该步并推进历史
			copy(st.yPrev, y)
			st.hPrev = h
			st.haveP = true
			copy(y, st.yNew)
			x += h
			stat.Steps++
			stat.LastStep = h
			if err = cfg.Fcn(x, y, st.dy); err != nil {
				return stat, err
			}
			stat.Evals++

			if hitTarget {
				x = target
				if cfg.Observer != nil {
					if err = cfg.Observer(idx, x, y, st.dy); err != nil {
						return stat, err
					}
				}
				idx++
			}

			// 步长增长（误差越小增长越多，安全区间钳制）
			scale := maxStepScale
			if errQ > 0 {
				scale = stepSafety * math.Pow(errQ, -1.0/3.0)
				scale = math.Min(maxStepScale, math.Max(minStepScale, scale))
			}
			h = math.Min(h*scale, cfg.MaxStep)
		}
		if stat.Steps+stat.Rejected > cfg.MaxSteps {
			return stat, fmt.Errorf("bdf: 超出最大步数预算 %d (x=%g)", cfg.MaxSteps, x)
		}
	}
	return stat, nil
}

// step 执行一个隐式步：构造 BDF 右端、牛顿迭代、误差估计
// 返回（牛顿是否收敛，误差商，错误）
func (b *bdf) step(x, h float64, y []float64, st *bdfState, cfg *Config, stat *Statistics) (bool, float64, error) {
	n := st.n
	xNew := x + h

	// 变步长 BDF 系数：无历史时退化为隐式欧拉
	var beta float64
	if st.haveP {
		r := h / st.hPrev
		a1 := (1 + r) * (1 + r) / (1 + 2*r)
		a2 := -r * r / (1 + 2*r)
		beta = h * (1 + r) / (1 + 2*r)
		for i := 0; i < n; i++ {
			st.rhs[i] = a1*y[i] + a2*st.yPrev[i]
			// 二次外推预测值，用于误差估计
			st.yPred[i] = y[i] + r*(y[i]-st.yPrev[i])
		}
	} else {
		beta = h
		for i := 0; i < n; i++ {
			st.rhs[i] = y[i]
			st.yPred[i] = y[i] + h*st.dy[i]
		}
	}

	// 显式预测作为牛顿初值
	for i := 0; i < n; i++ {
		st.yNew[i] = y[i] + h*st.dy[i]
	}

	// 数值雅可比 J = df/dy（前向差分），G = I - beta*J
	if err := cfg.Fcn(xNew, st.yNew, st.scr); err != nil {
		return false, 0, err
	}
	stat.Evals++
	f0 := append([]float64(nil), st.scr...)
	for j := 0; j < n; j++ {
		save := st.yNew[j]
		eps := 1e-8 * math.Max(math.Abs(save), cfg.AbsTol)
		if eps == 0 {
			eps = 1e-12
		}
		st.yNew[j] = save + eps
		if err := cfg.Fcn(xNew, st.yNew, st.scr); err != nil {
			st.yNew[j] = save
			return false, 0, err
		}
		stat.Evals++
		st.yNew[j] = save
		for i := 0; i < n; i++ {
			st.jac.Set(i, j, (st.scr[i]-f0[i])/eps)
		}
	}
	stat.JacEvals++
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -beta * st.jac.At(i, j)
			if i == j {
				v += 1
			}
			st.g.Set(i, j, v)
		}
	}
	st.lu.Factorize(st.g)

	// 牛顿迭代求解 yNew - beta*f(x,yNew) - rhs = 0
	converged := false
	for iter := 0; iter < newtonMaxIter; iter++ {
		if err := cfg.Fcn(xNew, st.yNew, st.scr); err != nil {
			return false, 0, err
		}
		stat.Evals++
		for i := 0; i < n; i++ {
			st.resid[i] = st.yNew[i] - beta*st.scr[i] - st.rhs[i]
		}
		rv := mat.NewVecDense(n, st.resid)
		dv := mat.NewVecDense(n, st.delta)
		if err := st.lu.SolveVecTo(dv, false, rv); err != nil {
			return false, 0, fmt.Errorf("bdf: 牛顿线性求解失败 (x=%g): %w", xNew, err)
		}
		var norm float64
		for i := 0; i < n; i++ {
			st.yNew[i] -= st.delta[i]
			tol := cfg.AbsTol + cfg.RelTol*math.Abs(st.yNew[i])
			q := st.delta[i] / tol
			norm += q * q
		}
		if math.Sqrt(norm/float64(n)) < newtonTolFact {
			converged = true
			break
		}
	}
	if !converged {
		return false, 0, nil
	}

	// 局部截断误差估计：校正值与外推预测值之差
	for i := 0; i < n; i++ {
		st.scr[i] = (st.yNew[i] - st.yPred[i]) / 3
	}
	errQ := errQuotient(st.scr, st.yNew, cfg.AbsTol, cfg.RelTol)
	return true, errQ, nil
}
