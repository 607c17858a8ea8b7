package maths

import (
	"fmt"
	"math"
)

// Ridders 带括号的 Ridders 求根法
// 参数:
//
//	f - 目标函数（允许返回错误，错误立即向上传播）
//	a, b - 包围根的初始区间（f(a) 与 f(b) 必须异号）
//	xtol - 根的位置容差
//	maxIter - 最大迭代次数
//
// 返回:
//
//	根的位置，错误信息
func Ridders(f func(float64) (float64, error), a, b, xtol float64, maxIter int) (float64, error) {
	fa, err := f(a)
	if err != nil {
		return 0, err
	}
	fb, err := f(b)
	if err != nil {
		return 0, err
	}
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if fa*fb > 0 {
		return 0, fmt.Errorf("求根区间未包围根: f(%g)=%g f(%g)=%g", a, fa, b, fb)
	}
	xlo, xhi, flo, fhi := a, b, fa, fb
	best := math.NaN()
	for iter := 0; iter < maxIter; iter++ {
		xm := 0.5 * (xlo + xhi)
		fm, err := f(xm)
		if err != nil {
			return 0, err
		}
		s := math.Sqrt(fm*fm - flo*fhi)
		if s == 0 {
			return xm, nil
		}
		// Ridders 指数修正的割线步
		xnew := xm + (xm-xlo)*sign(flo-fhi)*fm/s
		if !math.IsNaN(best) && math.Abs(xnew-best) <= xtol {
			return xnew, nil
		}
		best = xnew
		fnew, err := f(xnew)
		if err != nil {
			return 0, err
		}
		if fnew == 0 {
			return xnew, nil
		}
		// 收缩区间，保持括号
		switch {
		case fm*fnew < 0:
			xlo, flo = xm, fm
			xhi, fhi = xnew, fnew
		case flo*fnew < 0:
			xhi, fhi = xnew, fnew
		default:
			xlo, flo = xnew, fnew
		}
		if math.Abs(xhi-xlo) <= xtol {
			return 0.5 * (xlo + xhi), nil
		}
	}
	return 0, fmt.Errorf("求根在 %d 次迭代内未收敛: 区间 [%g,%g]", maxIter, xlo, xhi)
}

// ExpandBracket 向外扩展区间直到 f 变号或达到最大次数
func ExpandBracket(f func(float64) (float64, error), a, b float64, maxTries int) (float64, float64, error) {
	if a >= b {
		return 0, 0, fmt.Errorf("区间边界反转: a=%g b=%g", a, b)
	}
	fa, err := f(a)
	if err != nil {
		return 0, 0, err
	}
	fb, err := f(b)
	if err != nil {
		return 0, 0, err
	}
	for i := 0; i < maxTries; i++ {
		if fa*fb <= 0 {
			return a, b, nil
		}
		w := b - a
		if math.Abs(fa) < math.Abs(fb) {
			a -= w
			if fa, err = f(a); err != nil {
				return 0, 0, err
			}
		} else {
			b += w
			if fb, err = f(b); err != nil {
				return 0, 0, err
			}
		}
	}
	return 0, 0, fmt.Errorf("区间扩展 %d 次后仍未包围根: [%g,%g]", maxTries, a, b)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
