package maths

import (
	"errors"
	"fmt"
)

// InterpMode 插值查找模式
type InterpMode int

const (
	ModeNormal  InterpMode = iota // 普通模式：每次二分查找
	ModeCloseby                   // 邻近模式：从上次位置开始爬行查找
)

// SplineNatural 计算自然三次样条的二阶导数系数表
// 参数:
//
//	x - 严格递增的节点坐标
//	y - 节点值
//
// 返回:
//
//	每个节点处的二阶导数，错误信息
func SplineNatural(x, y []float64) ([]float64, error) {
	n := len(x)
	if n < 3 {
		return nil, errors.New("样条节点数必须不少于3")
	}
	if len(y) != n {
		return nil, fmt.Errorf("样条 x/y 长度不一致: %d/%d", n, len(y))
	}
	y2 := make([]float64, n)
	u := make([]float64, n)
	for i := 1; i < n-1; i++ {
		if x[i] <= x[i-1] {
			return nil, fmt.Errorf("样条节点必须严格递增: x[%d]=%g x[%d]=%g", i-1, x[i-1], i, x[i])
		}
		sig := (x[i] - x[i-1]) / (x[i+1] - x[i-1])
		pp := sig*y2[i-1] + 2
		y2[i] = (sig - 1) / pp
		u[i] = (y[i+1]-y[i])/(x[i+1]-x[i]) - (y[i]-y[i-1])/(x[i]-x[i-1])
		u[i] = (6*u[i]/(x[i+1]-x[i-1]) - sig*u[i-1]) / pp
	}
	for i := n - 2; i >= 0; i-- {
		y2[i] = y2[i]*y2[i+1] + u[i]
	}
	return y2, nil
}

// Locate 在递增数组中查找包围 xq 的区间下标 i（x[i] <= xq <= x[i+1]）
// 邻近模式下从 *last 开始向两侧爬行，均摊常数时间；普通模式二分查找。
func Locate(x []float64, xq float64, last *int, mode InterpMode) (int, error) {
	n := len(x)
	if xq < x[0] || xq > x[n-1] {
		return 0, fmt.Errorf("插值点超出表格范围: %g 不在 [%g,%g]", xq, x[0], x[n-1])
	}
	if mode == ModeCloseby && last != nil {
		i := *last
		if i < 0 {
			i = 0
		}
		if i > n-2 {
			i = n - 2
		}
		for i > 0 && xq < x[i] {
			i--
		}
		for i < n-2 && xq > x[i+1] {
			i++
		}
		*last = i
		return i, nil
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if xq >= x[mid] {
			lo = mid
		} else {
			hi = mid
		}
	}
	if last != nil {
		*last = lo
	}
	return lo, nil
}

// SplineEval 样条点值插值
func SplineEval(x, y, y2 []float64, xq float64, last *int, mode InterpMode) (float64, error) {
	i, err := Locate(x, xq, last, mode)
	if err != nil {
		return 0, err
	}
	h := x[i+1] - x[i]
	a := (x[i+1] - xq) / h
	b := (xq - x[i]) / h
	return a*y[i] + b*y[i+1] + ((a*a*a-a)*y2[i]+(b*b*b-b)*y2[i+1])*h*h/6, nil
}

// SplineDeriv 样条一阶导数插值
func SplineDeriv(x, y, y2 []float64, xq float64, last *int, mode InterpMode) (float64, error) {
	i, err := Locate(x, xq, last, mode)
	if err != nil {
		return 0, err
	}
	h := x[i+1] - x[i]
	a := (x[i+1] - xq) / h
	b := (xq - x[i]) / h
	return (y[i+1]-y[i])/h + ((3*b*b-1)*y2[i+1]-(3*a*a-1)*y2[i])*h/6, nil
}

// SplineIntegrate 样条在整个节点范围上的定积分（逐段解析积分）
func SplineIntegrate(x, y, y2 []float64) float64 {
	var sum float64
	for i := 0; i+1 < len(x); i++ {
		h := x[i+1] - x[i]
		sum += h*(y[i]+y[i+1])/2 - h*h*h*(y2[i]+y2[i+1])/24
	}
	return sum
}

// SplineTableLines 对共享同一 x 轴的多列表格逐列计算二阶导数系数
// 表格按行主序存储：tab[row*ncol+col]。
func SplineTableLines(x, tab []float64, ncol int) ([]float64, error) {
	n := len(x)
	if ncol < 1 || len(tab) != n*ncol {
		return nil, fmt.Errorf("表格尺寸与列数不一致: len=%d n=%d ncol=%d", len(tab), n, ncol)
	}
	d2 := make([]float64, n*ncol)
	col := make([]float64, n)
	for c := 0; c < ncol; c++ {
		for r := 0; r < n; r++ {
			col[r] = tab[r*ncol+c]
		}
		y2, err := SplineNatural(x, col)
		if err != nil {
			return nil, err
		}
		for r := 0; r < n; r++ {
			d2[r*ncol+c] = y2[r]
		}
	}
	return d2, nil
}

// SplineTableEval 多列表格整行插值，结果写入 out（长度必须为 ncol）
func SplineTableEval(x, tab, d2 []float64, ncol int, xq float64, last *int, mode InterpMode, out []float64) error {
	if len(out) != ncol {
		return fmt.Errorf("输出缓冲长度不等于列数: %d/%d", len(out), ncol)
	}
	i, err := Locate(x, xq, last, mode)
	if err != nil {
		return err
	}
	h := x[i+1] - x[i]
	a := (x[i+1] - xq) / h
	b := (xq - x[i]) / h
	ca := (a*a*a - a) * h * h / 6
	cb := (b*b*b - b) * h * h / 6
	lo := i * ncol
	hi := (i + 1) * ncol
	for c := 0; c < ncol; c++ {
		out[c] = a*tab[lo+c] + b*tab[hi+c] + ca*d2[lo+c] + cb*d2[hi+c]
	}
	return nil
}

// CumulativeTrapz 梯形法累积积分，out[i] = 积分 x[0]..x[i]
func CumulativeTrapz(x, y, out []float64) {
	out[0] = 0
	for i := 1; i < len(x); i++ {
		out[i] = out[i-1] + 0.5*(y[i]+y[i-1])*(x[i]-x[i-1])
	}
}
