package load

import (
	"os"
	"path/filepath"
	"testing"

	"thermo/types"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal("测试文件写入失败:", err)
	}
	return path
}

func TestLoadOverrides(t *testing.T) {
	path := writeTemp(t, `
cosmology:
  h: 0.70
  omega_b: 0.05
  yhe: 0.24
recombination:
  algorithm: corrected
reionization:
  parametrization: camb
  tau_reio: 0.0544
  exponent: 1.5
precision:
  evolver: rkck
  rel_tol: 1.0e-7
`)
	par, pre, err := Load(path)
	if err != nil {
		t.Fatal("参数装载失败:", err)
	}
	// 1.显式字段被覆盖
	if par.H100 != 0.70 || par.OmegaB != 0.05 || par.YHe != 0.24 {
		t.Fatalf("宇宙学参数未覆盖: %+v", par)
	}
	if par.Recombination != types.RecombinationCorrected {
		t.Fatalf("复合算法未覆盖: %v", par.Recombination)
	}
	if par.ReioInput != types.ReioInputTau || par.TauReio != 0.0544 {
		t.Fatalf("再电离输入模式错误: %+v", par)
	}
	if pre.Evolver != types.EvolverRKCK || pre.RelTol != 1e-7 {
		t.Fatalf("精度参数未覆盖: %+v", pre)
	}
	// 2.未出现的字段保持默认值
	def := types.DefaultParams()
	if par.Tcmb != def.Tcmb || par.OmegaCDM != def.OmegaCDM {
		t.Fatalf("默认值被意外改写: %+v", par)
	}
}

func TestLoadConflict(t *testing.T) {
	path := writeTemp(t, `
reionization:
  z_reio: 7.68
  tau_reio: 0.0544
`)
	if _, _, err := Load(path); err == nil {
		t.Fatal("同时给出 z_reio 与 tau_reio 应当报错")
	}
}

func TestLoadUnknownEnum(t *testing.T) {
	path := writeTemp(t, `
recombination:
  algorithm: hyrec
`)
	if _, _, err := Load(path); err == nil {
		t.Fatal("未知复合算法应当报错")
	}
}

func TestLoadInvalidParams(t *testing.T) {
	// 装载成功但参数校验失败
	path := writeTemp(t, `
cosmology:
  yhe: 0.9
`)
	if _, _, err := Load(path); err == nil {
		t.Fatal("非法氦丰度应当报错")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, _, err := Load("/no/such/file.yaml"); err == nil {
		t.Fatal("缺失文件应当报错")
	}
}
