package evolver

import (
	"fmt"
	"math"
)

// Cash-Karp 嵌入式 Runge-Kutta 4(5) 系数表
var (
	ckC = [6]float64{0, 1.0 / 5, 3.0 / 10, 3.0 / 5, 1, 7.0 / 8}
	ckA = [6][5]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{3.0 / 10, -9.0 / 10, 6.0 / 5},
		{-11.0 / 54, 5.0 / 2, -70.0 / 27, 35.0 / 27},
		{1631.0 / 55296, 175.0 / 512, 575.0 / 13824, 44275.0 / 110592, 253.0 / 4096},
	}
	ckB = [6]float64{37.0 / 378, 0, 250.0 / 621, 125.0 / 594, 0, 512.0 / 1771}
	ckE = [6]float64{
		37.0/378 - 2825.0/27648,
		0,
		250.0/621 - 18575.0/48384,
		125.0/594 - 13525.0/55296,
		-277.0 / 14336,
		512.0/1771 - 1.0/4,
	}
)

type rkck struct {
	info Info
}

// NewRKCK 创建自适应 Cash-Karp RK 积分器（非刚性或弱刚性区间）
func NewRKCK() Integrator {
	return &rkck{info: Info{Name: "rkck", Order: 5}}
}

func (r *rkck) Info() Info { return r.info }

func (r *rkck) Integrate(x0 float64, xOut []float64, y []float64, cfg *Config) (stat Statistics, err error) {
	if len(xOut) == 0 {
		return stat, nil
	}
	span := xOut[len(xOut)-1] - x0
	if span <= 0 {
		return stat, fmt.Errorf("rkck: 输出点必须位于起点之后: x0=%g xEnd=%g", x0, xOut[len(xOut)-1])
	}
	fillDefaults(cfg, span)

	n := len(y)
	dy := make([]float64, n)
	yTmp := make([]float64, n)
	yErr := make([]float64, n)
	ks := make([][]float64, 6)
	for i := range ks {
		ks[i] = make([]float64, n)
	}

	x := x0
	if err = cfg.Fcn(x, y, dy); err != nil {
		return stat, err
	}
	stat.Evals++

	h := cfg.InitialStep
	if h <= 0 {
		h = span / 100
	}
	if h > cfg.MaxStep {
		h = cfg.MaxStep
	}

	for idx := 0; idx < len(xOut); {
		target := xOut[idx]
		if target <= x {
			return stat, fmt.Errorf("rkck: 输出点序列必须严格递增: x=%g target=%g", x, target)
		}
		hitTarget := false
		if x+h >= target {
			h = target - x
			hitTarget = true
		}

		// 计算各级中间值
		copy(ks[0], dy)
		for s := 1; s < 6; s++ {
			for i := 0; i < n; i++ {
				v := y[i]
				for j := 0; j < s; j++ {
					v += h * ckA[s][j] * ks[j][i]
				}
				yTmp[i] = v
			}
			if err = cfg.Fcn(x+ckC[s]*h, yTmp, ks[s]); err != nil {
				return stat, err
			}
			stat.Evals++
		}

		// 五阶解与嵌入式误差估计
		for i := 0; i < n; i++ {
			var dv, ev float64
			for s := 0; s < 6; s++ {
				dv += ckB[s] * ks[s][i]
				ev += ckE[s] * ks[s][i]
			}
			yTmp[i] = y[i] + h*dv
			yErr[i] = h * ev
		}
		errQ := errQuotient(yErr, y, cfg.AbsTol, cfg.RelTol)

		// 新步长估计（安全区间钳制）
		scale := maxStepScale
		if errQ > 0 {
			scale = stepSafety * math.Pow(errQ, -0.2)
			scale = math.Min(maxStepScale, math.Max(minStepScale, scale))
		}
		hNext := math.Min(h*scale, cfg.MaxStep)

		if errQ > 1 {
			// 拒绝该步，收缩后重试；只有收缩越过下限才报错
			stat.Rejected++
			h *= math.Max(minStepScale, stepSafety*math.Pow(errQ, -0.2))
			if h < cfg.MinStep {
				return stat, fmt.Errorf("rkck: 步长降至下限 %g 仍无法满足误差要求 (x=%g)", cfg.MinStep, x)
			}
		} else {
			// 接受该步
			x += h
			copy(y, yTmp)
			stat.Steps++
			stat.LastStep = h
			if err = cfg.Fcn(x, y, dy); err != nil {
				return stat, err
			}
			stat.Evals++
			if hitTarget {
				x = target
				if cfg.Observer != nil {
					if err = cfg.Observer(idx, x, y, dy); err != nil {
						return stat, err
					}
				}
				idx++
			}
			h = hNext
		}
		if stat.Steps+stat.Rejected > cfg.MaxSteps {
			return stat, fmt.Errorf("rkck: 超出最大步数预算 %d (x=%g)", cfg.MaxSteps, x)
		}
	}
	return stat, nil
}
