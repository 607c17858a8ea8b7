// Package table 组装热力学量表格并提供样条查询：
// 光深、可见度函数及其导数、重子温度与声速、阻尼尺度与特征时期。
package table

import (
	"fmt"

	"thermo/maths"
)

// 表格列下标
const (
	ColXe       = iota // 总电离度 x_e
	ColDKappa          // dκ/dτ [1/Mpc]
	ColTauD            // 重子拖曳光深 τ_d
	ColDDKappa         // d²κ/dτ² [1/Mpc²]
	ColDDDKappa        // d³κ/dτ³ [1/Mpc³]
	ColExpMKappa       // e^{-κ}
	ColG               // 可见度函数 g = κ' e^{-κ} [1/Mpc]
	ColDG              // dg/dτ [1/Mpc²]
	ColDDG             // d²g/dτ² [1/Mpc³]
	ColTb              // 重子温度 [K]
	ColCb2             // 重子声速平方 cb²
	ColDCb2            // dcb²/dτ [1/Mpc]
	ColDDCb2           // d²cb²/dτ² [1/Mpc²]
	ColRate            // 热力学量最大变化率 [1/Mpc]
	ColRD              // 光子扩散尺度 r_d [Mpc]

	NumCols
)

// Hint 查询位置缓存，红移接近的连续查询摊还为常数时间
type Hint struct {
	last int
}

// Epochs 热力学历史的特征时期
type Epochs struct {
	ZRec   float64 // 复合红移（可见度函数峰值）
	TauRec float64 // 复合时刻共形时间 [Mpc]
	RsRec  float64 // 复合时声视界 [Mpc]
	DsRec  float64 // 复合时物理声视界 [Mpc]
	RaRec  float64 // 到复合面的共形距离 [Mpc]
	DaRec  float64 // 到复合面的角直径距离 [Mpc]
	RdRec  float64 // 复合时光子扩散尺度 [Mpc]

	ZDrag   float64 // 重子拖曳红移（τ_d=1）
	TauDrag float64 // 拖曳时刻共形时间 [Mpc]
	RsDrag  float64 // 拖曳时声视界 [Mpc]
	DsDrag  float64 // 拖曳时物理声视界 [Mpc]

	ZReio   float64 // 再电离红移
	TauReio float64 // 再电离光学深度

	Tau0 float64 // 共形年龄 [Mpc]
}

// Table 热力学量查询表（按红移递增排列）
type Table struct {
	Z    []float64 // 红移节点
	Tau  []float64 // 对应共形时间（随红移递减）[Mpc]
	Data []float64 // 行主序数据，每行 NumCols 列
	D2   []float64 // 数据列的样条二阶导系数

	Epochs Epochs

	tauD2 []float64
	clamp bool
}

// At 查询红移 z 处的整行热力学量，结果写入 out（长度 NumCols）
// 超出表格范围时按构造选项钳制到边界行或返回错误。
func (t *Table) At(z float64, hint *Hint, out []float64) error {
	if len(out) != NumCols {
		return fmt.Errorf("输出缓冲长度不等于列数: %d/%d", len(out), NumCols)
	}
	n := len(t.Z)
	if z < t.Z[0] || z > t.Z[n-1] {
		if !t.clamp {
			return fmt.Errorf("查询红移超出表格范围: %g 不在 [%g,%g]", z, t.Z[0], t.Z[n-1])
		}
		row := 0
		if z > t.Z[n-1] {
			row = n - 1
		}
		copy(out, t.Data[row*NumCols:(row+1)*NumCols])
		return nil
	}
	mode := maths.ModeNormal
	var last *int
	if hint != nil {
		mode = maths.ModeCloseby
		last = &hint.last
	}
	return maths.SplineTableEval(t.Z, t.Data, t.D2, NumCols, z, last, mode, out)
}

// TauAt 查询红移 z 处的共形时间 [Mpc]
func (t *Table) TauAt(z float64, hint *Hint) (float64, error) {
	n := len(t.Z)
	if z < t.Z[0] || z > t.Z[n-1] {
		if !t.clamp {
			return 0, fmt.Errorf("查询红移超出表格范围: %g 不在 [%g,%g]", z, t.Z[0], t.Z[n-1])
		}
		if z > t.Z[n-1] {
			return t.Tau[n-1], nil
		}
		return t.Tau[0], nil
	}
	mode := maths.ModeNormal
	var last *int
	if hint != nil {
		mode = maths.ModeCloseby
		last = &hint.last
	}
	return maths.SplineEval(t.Z, t.Tau, t.tauD2, z, last, mode)
}
