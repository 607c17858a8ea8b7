package history

import (
	"fmt"

	"thermo/maths"
	"thermo/types"
)

// buildIntervals 构建近似方案区间表
// 前四个边界为固定红移，氦/氢触发边界由 Saha 公式求根定位。
func (ws *Workspace) buildIntervals() error {
	pre := ws.Pre

	// 第二次氦复合触发：Saha 氦电离度降至阈值
	// 先扩展区间确保包围（非默认阈值下变号点可能移出初始区间），再求根
	fHe := func(z float64) (float64, error) {
		x := ws.sahaHeII(z, ws.Tcmb*(1+z))
		return (x-1)/ws.FHe - pre.HeIITrigger, nil
	}
	lo, hi, err := maths.ExpandBracket(fHe, 1200, pre.ZHeII, 6)
	if err != nil {
		return fmt.Errorf("氦复合触发红移包围失败: %w", err)
	}
	zHeTrig, err := maths.Ridders(fHe, lo, hi, 1e-6, 60)
	if err != nil {
		return fmt.Errorf("氦复合触发红移求根失败: %w", err)
	}

	// 氢复合触发：Saha 氢电离度降至阈值
	fH := func(z float64) (float64, error) {
		return ws.sahaXH(z, ws.Tcmb*(1+z)) - pre.HTrigger, nil
	}
	lo, hi, err = maths.ExpandBracket(fH, 900, zHeTrig, 6)
	if err != nil {
		return fmt.Errorf("氢复合触发红移包围失败: %w", err)
	}
	zHTrig, err := maths.Ridders(fH, lo, hi, 1e-6, 60)
	if err != nil {
		return fmt.Errorf("氢复合触发红移求根失败: %w", err)
	}

	if !(pre.ZIni > pre.ZHeI && pre.ZHeI > pre.ZHeIf && pre.ZHeIf > pre.ZHeII &&
		pre.ZHeII > zHeTrig && zHeTrig > zHTrig && zHTrig > pre.ReioZStartMax) {
		return fmt.Errorf("近似方案边界次序非法: zini=%g zHeI=%g zHeIf=%g zHeII=%g zHeTrig=%g zHTrig=%g",
			pre.ZIni, pre.ZHeI, pre.ZHeIf, pre.ZHeII, zHeTrig, zHTrig)
	}

	zEnd := 0.0
	reio := ws.Par.ReioParametrization != types.ReioNone
	frecEnd := zEnd
	if reio {
		frecEnd = pre.ReioZStartMax
	}

	ws.Intervals = []Interval{
		{Regime: types.RegimeBRec, ZMax: pre.ZIni, ZMin: pre.ZHeI},
		{Regime: types.RegimeHeI, ZMax: pre.ZHeI, ZMin: pre.ZHeIf, Delta: pre.DeltaHeI},
		{Regime: types.RegimeHeIf, ZMax: pre.ZHeIf, ZMin: pre.ZHeII, Delta: pre.DeltaHeIf},
		{Regime: types.RegimeHeII, ZMax: pre.ZHeII, ZMin: zHeTrig, Delta: pre.DeltaHeII},
		{Regime: types.RegimeHRec, ZMax: zHeTrig, ZMin: zHTrig, Delta: pre.DeltaHRec},
		{Regime: types.RegimeFRec, ZMax: zHTrig, ZMin: frecEnd, Delta: pre.DeltaFRec},
	}
	if reio {
		ws.Intervals = append(ws.Intervals, Interval{
			Regime: types.RegimeReio, ZMax: pre.ReioZStartMax, ZMin: zEnd,
		})
	}
	return nil
}
