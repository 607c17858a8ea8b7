// Package debug 调试输出：历史样本记录、网页曲线与 PNG 图像。
package debug

import (
	"encoding/json"
	"io"
	"log"

	"thermo/history"
	"thermo/table"
)

// Record 记录历史样本
type Record struct {
	Z      []float64 // 红移列
	Xe     []float64 // 总电离度列
	XH     []float64 // 氢电离度列
	XHe    []float64 // 氦电离度列
	Tb     []float64 // 重子温度列
	Trad   []float64 // 辐射温度列
	DKappa []float64 // 散射率列
	G      []float64 // 可见度函数列
}

// Init 从求解结果与表格装填记录
func (list *Record) Init(res *history.Result, tab *table.Table, tcmb float64) {
	n := len(res.Samples)
	list.Z = make([]float64, n)
	list.Xe = make([]float64, n)
	list.XH = make([]float64, n)
	list.XHe = make([]float64, n)
	list.Tb = make([]float64, n)
	list.Trad = make([]float64, n)
	list.DKappa = make([]float64, n)
	list.G = make([]float64, n)
	for i, s := range res.Samples {
		list.Z[i] = s.Z
		list.Xe[i] = s.X
		list.XH[i] = s.XH
		list.XHe[i] = s.XHe
		list.Tb[i] = s.Tb
		list.Trad[i] = tcmb * (1 + s.Z)
		list.DKappa[i] = s.DKappa
		// 表格按红移递增存储，样本按时间顺序
		list.G[i] = tab.Data[(n-1-i)*table.NumCols+table.ColG]
	}
}

// Render 格式和输出内容
func (list *Record) Render(w io.Writer) error { return json.NewEncoder(w).Encode(list) }

func (list *Record) Error(err error) { log.Println(err) }
