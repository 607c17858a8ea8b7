package maths

import (
	"math"
	"testing"
)

func TestRiddersSimple(t *testing.T) {
	// 1.多项式求根
	root, err := Ridders(func(x float64) (float64, error) {
		return x*x - 4, nil
	}, 0, 3, 1e-10, 60)
	if err != nil {
		t.Fatal("求根失败:", err)
	}
	if math.Abs(root-2) > 1e-9 {
		t.Fatalf("根误差过大: 得到 %g 期望 2", root)
	}
	// 2.超越方程求根
	root, err = Ridders(func(x float64) (float64, error) {
		return math.Cos(x) - x, nil
	}, 0, 1, 1e-12, 60)
	if err != nil {
		t.Fatal("求根失败:", err)
	}
	if math.Abs(math.Cos(root)-root) > 1e-10 {
		t.Fatalf("根残差过大: f(%g)=%g", root, math.Cos(root)-root)
	}
}

func TestRiddersNoBracket(t *testing.T) {
	// 区间未包围根时应当报错
	if _, err := Ridders(func(x float64) (float64, error) {
		return x*x + 1, nil
	}, -1, 1, 1e-10, 60); err == nil {
		t.Fatal("未包围根的区间应当报错")
	}
}

func TestExpandBracket(t *testing.T) {
	f := func(x float64) (float64, error) { return x - 10, nil }
	a, b, err := ExpandBracket(f, 0, 1, 20)
	if err != nil {
		t.Fatal("区间扩展失败:", err)
	}
	fa, _ := f(a)
	fb, _ := f(b)
	if fa*fb > 0 {
		t.Fatalf("扩展后的区间仍未包围根: [%g,%g]", a, b)
	}
}
