package evolver

import (
	"math"
	"testing"
)

// decay 指数衰减问题 y' = -y，解 y = exp(-x)
func decay(_ float64, y, dy []float64) error {
	dy[0] = -y[0]
	return nil
}

func TestRKCKDecay(t *testing.T) {
	// 1.多个输出点上与解析解比较
	xOut := []float64{0.5, 1, 2, 5}
	y := []float64{1}
	hits := 0
	cfg := &Config{
		Fcn:    decay,
		AbsTol: 1e-10,
		RelTol: 1e-8,
		Observer: func(i int, x float64, y, dy []float64) error {
			exact := math.Exp(-x)
			if math.Abs(y[0]-exact) > 1e-6 {
				t.Fatalf("输出点 %d 误差过大: y(%g)=%g 期望 %g", i, x, y[0], exact)
			}
			hits++
			return nil
		},
	}
	st, err := NewRKCK().Integrate(0, xOut, y, cfg)
	if err != nil {
		t.Fatal("积分失败:", err)
	}
	// 2.观察器覆盖全部输出点
	if hits != len(xOut) {
		t.Fatalf("观察器调用次数不足: %d/%d", hits, len(xOut))
	}
	if st.Steps == 0 || st.Evals == 0 {
		t.Fatalf("统计信息缺失: %+v", st)
	}
	if math.Abs(y[0]-math.Exp(-5)) > 1e-6 {
		t.Fatalf("末端误差过大: %g", y[0]-math.Exp(-5))
	}
}

func TestBDFDecay(t *testing.T) {
	xOut := []float64{1, 3}
	y := []float64{1}
	cfg := &Config{Fcn: decay, AbsTol: 1e-10, RelTol: 1e-7}
	if _, err := NewBDF().Integrate(0, xOut, y, cfg); err != nil {
		t.Fatal("积分失败:", err)
	}
	if math.Abs(y[0]-math.Exp(-3)) > 1e-4 {
		t.Fatalf("末端误差过大: y=%g 期望 %g", y[0], math.Exp(-3))
	}
}

func TestBDFStiff(t *testing.T) {
	// 刚性问题 y' = lambda (cos x - y)，快瞬态后贴合慢解
	const lambda = 500.0
	fcn := func(x float64, y, dy []float64) error {
		dy[0] = lambda * (math.Cos(x) - y[0])
		return nil
	}
	y := []float64{0}
	cfg := &Config{Fcn: fcn, AbsTol: 1e-9, RelTol: 1e-6}
	st, err := NewBDF().Integrate(0, []float64{2}, y, cfg)
	if err != nil {
		t.Fatal("积分失败:", err)
	}
	// 慢解 y = (lambda^2 cos x + lambda sin x)/(lambda^2+1)
	exact := (lambda*lambda*math.Cos(2) + lambda*math.Sin(2)) / (lambda*lambda + 1)
	if math.Abs(y[0]-exact) > 1e-3 {
		t.Fatalf("刚性问题末端误差过大: y=%g 期望 %g", y[0], exact)
	}
	if st.JacEvals == 0 {
		t.Fatal("隐式积分器未计算雅可比")
	}
}

func TestRKCKMinStepRetry(t *testing.T) {
	// 收缩后恰好落在下限上的步长仍应尝试一步，而不是直接放弃
	cfg := &Config{Fcn: decay, AbsTol: 1e-280, RelTol: 1e-280, InitialStep: 1, MinStep: 0.4}
	y := []float64{1}
	st, err := NewRKCK().Integrate(0, []float64{10}, y, cfg)
	if err == nil {
		t.Fatal("误差要求无法满足时应当报错")
	}
	if st.Rejected < 2 {
		t.Fatalf("下限步长未被尝试: 拒绝次数 %d", st.Rejected)
	}
}

func TestMaxStepsExceeded(t *testing.T) {
	// 步数预算用尽应当报错
	cfg := &Config{Fcn: decay, AbsTol: 1e-14, RelTol: 1e-14, MaxSteps: 3}
	y := []float64{1}
	if _, err := NewRKCK().Integrate(0, []float64{100}, y, cfg); err == nil {
		t.Fatal("超出步数预算应当报错")
	}
	y = []float64{1}
	if _, err := NewBDF().Integrate(0, []float64{100}, y, cfg); err == nil {
		t.Fatal("超出步数预算应当报错")
	}
}
