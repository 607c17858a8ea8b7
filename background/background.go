// Package background 提供热力学求解所依赖的背景宇宙学服务：
// 给定红移返回膨胀率、共形时间、共动距离等量，支持邻近查询提示。
package background

// Vec 单个红移处的背景量向量（c=1 单位制，长度单位 Mpc）
type Vec struct {
	H   float64 // 哈勃膨胀率 [1/Mpc]
	Tau float64 // 共形时间 [Mpc]
	Chi float64 // 共动距离 [Mpc]
	R   float64 // 重子-光子动量密度比 3*rho_b/(4*rho_g)
	Rs  float64 // 共动声视界 [Mpc]
}

// Hint 邻近查询提示：缓存上一次查找位置以摊销查找开销。
// 零值可直接使用；不同计算流程之间不得共享。
type Hint struct {
	last int
}

// Model 背景宇宙学查询接口
type Model interface {
	// At 查询红移 z 处的背景量；hint 为 nil 时执行普通查找
	At(z float64, hint *Hint) (Vec, error)
	// ConformalAge 今日共形时间 tau0 [Mpc]
	ConformalAge() float64
	// ZMax 表格覆盖的最大红移
	ZMax() float64
}
