package types

import "testing"

func TestParamsCheck(t *testing.T) {
	par := DefaultParams()
	if err := par.Check(); err != nil {
		t.Fatal("默认参数未通过检查:", err)
	}

	// 1.氦丰度越界
	bad := DefaultParams()
	bad.YHe = 0.7
	if err := bad.Check(); err == nil {
		t.Fatal("氦丰度越界应当报错")
	}

	// 2.湮灭窗口边界反转
	bad = DefaultParams()
	bad.Annihilation = 1e-30
	bad.AnnihilationZmin = 3000
	if err := bad.Check(); err == nil {
		t.Fatal("湮灭窗口反转应当报错")
	}

	// 3.分箱再电离缺少节点数组
	bad = DefaultParams()
	bad.ReioParametrization = ReioBinsTanh
	if err := bad.Check(); err == nil {
		t.Fatal("分箱再电离缺少节点应当报错")
	}
}

func TestParamsCheckTauInput(t *testing.T) {
	// 光学深度输入仅支持 camb 参数化，其余方案在检查阶段即拒绝
	par := DefaultParams()
	par.ReioInput = ReioInputTau
	par.TauReio = 0.0544
	if err := par.Check(); err != nil {
		t.Fatal("camb 参数化下光学深度输入应当通过:", err)
	}
	for _, r := range []ReioParametrization{ReioNone, ReioBinsTanh, ReioManyTanh, ReioInter} {
		bad := par
		bad.ReioParametrization = r
		if err := bad.Check(); err == nil {
			t.Fatalf("%v 参数化下光学深度输入应当报错", r)
		}
	}
	// 目标光学深度本身越界
	bad := par
	bad.TauReio = 1.5
	if err := bad.Check(); err == nil {
		t.Fatal("非物理目标光学深度应当报错")
	}
}

func TestPrecisionCheck(t *testing.T) {
	pre := DefaultPrecision()
	if err := pre.Check(); err != nil {
		t.Fatal("默认精度未通过检查:", err)
	}
	bad := DefaultPrecision()
	bad.ZHeI = 2e4
	if err := bad.Check(); err == nil {
		t.Fatal("边界次序非法应当报错")
	}
}

func TestOmegaG(t *testing.T) {
	par := DefaultParams()
	// 标准参数下今日光子密度参数 ~5.4e-5 量级
	og := par.OmegaG()
	if og < 4e-5 || og > 7e-5 {
		t.Fatalf("光子密度参数超出预期量级: %g", og)
	}
}
