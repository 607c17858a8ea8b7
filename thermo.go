// Package thermo 宇宙热力学历史计算模块：
// 给定宇宙学参数，求解复合与再电离时期的电离度与物质温度演化，
// 组装可供样条查询的热力学量表格并提取特征时期。
package thermo

import (
	"fmt"
	"log"
	"strings"

	"thermo/background"
	"thermo/history"
	"thermo/injection"
	"thermo/table"
	"thermo/types"
)

// Model 热力学计算门面，持有输入参数与计算产物
type Model struct {
	Par types.Params
	Pre types.Precision

	Bg     *background.LCDM
	Result *history.Result
	Table  *table.Table
}

// New 创建模型并检查输入参数
func New(par types.Params, pre types.Precision) (*Model, error) {
	if err := par.Check(); err != nil {
		return nil, fmt.Errorf("参数检查失败: %w", err)
	}
	if err := pre.Check(); err != nil {
		return nil, fmt.Errorf("精度参数检查失败: %w", err)
	}
	return &Model{Par: par, Pre: pre}, nil
}

// Compute 执行完整计算流程：背景、能量注入、历史积分、表格组装
func (m *Model) Compute() error {
	bg, err := background.NewLCDM(&m.Par, m.Pre.ZIni)
	if err != nil {
		return fmt.Errorf("背景模型构建失败: %w", err)
	}
	m.Bg = bg

	inj, err := injection.New(&m.Par)
	if err != nil {
		return fmt.Errorf("能量注入模型构建失败: %w", err)
	}

	ws, err := history.NewWorkspace(&m.Par, &m.Pre, bg, inj)
	if err != nil {
		return err
	}
	if m.Par.Verbose > 0 {
		for _, iv := range ws.Intervals {
			log.Printf("近似方案 %-4v 区间 [%.6g, %.6g]", iv.Regime, iv.ZMin, iv.ZMax)
		}
	}
	res, err := ws.Solve()
	if err != nil {
		return fmt.Errorf("历史求解失败: %w", err)
	}
	m.Result = res
	if m.Par.Verbose > 0 {
		log.Printf("历史求解完成: %d 个样本, tau_reio=%.6g", len(res.Samples), res.TauReio)
	}

	tab, err := table.Build(&m.Par, bg, res)
	if err != nil {
		return fmt.Errorf("表格组装失败: %w", err)
	}
	m.Table = tab
	return nil
}

// At 查询红移 z 处的整行热力学量
func (m *Model) At(z float64, hint *table.Hint, out []float64) error {
	if m.Table == nil {
		return fmt.Errorf("尚未调用 Compute")
	}
	return m.Table.At(z, hint, out)
}

// Epochs 计算得到的特征时期
func (m *Model) Epochs() table.Epochs {
	if m.Table == nil {
		return table.Epochs{}
	}
	return m.Table.Epochs
}

// Summary 特征时期的可读摘要
func (m *Model) Summary() string {
	if m.Table == nil {
		return "尚未计算"
	}
	e := m.Table.Epochs
	var b strings.Builder
	fmt.Fprintf(&b, "复合红移          z_rec  = %.2f\n", e.ZRec)
	fmt.Fprintf(&b, "复合共形时间      tau    = %.4f Mpc\n", e.TauRec)
	fmt.Fprintf(&b, "复合声视界        r_s    = %.4f Mpc\n", e.RsRec)
	fmt.Fprintf(&b, "复合角直径距离    d_A    = %.4f Mpc\n", e.DaRec)
	fmt.Fprintf(&b, "拖曳红移          z_d    = %.2f\n", e.ZDrag)
	fmt.Fprintf(&b, "拖曳声视界        r_s(d) = %.4f Mpc\n", e.RsDrag)
	if m.Par.ReioParametrization != types.ReioNone {
		fmt.Fprintf(&b, "再电离红移        z_re   = %.3f\n", e.ZReio)
		fmt.Fprintf(&b, "再电离光学深度    tau_re = %.5f\n", e.TauReio)
	}
	fmt.Fprintf(&b, "共形年龄          tau_0  = %.2f Mpc\n", e.Tau0)
	return b.String()
}
