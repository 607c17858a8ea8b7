// Package load 从 YAML 文件装载计算参数。
// 未出现的字段保持默认值，字符串枚举在装载时转换并检查。
package load

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"thermo/types"
)

// document YAML 文件结构镜像，可选字段用指针表达
type document struct {
	Cosmology struct {
		H        *float64 `yaml:"h"`
		OmegaB   *float64 `yaml:"omega_b"`
		OmegaCDM *float64 `yaml:"omega_cdm"`
		Tcmb     *float64 `yaml:"tcmb"`
		YHe      *float64 `yaml:"yhe"`
		Neff     *float64 `yaml:"neff"`
	} `yaml:"cosmology"`

	Recombination struct {
		Algorithm *string `yaml:"algorithm"` // base | corrected
	} `yaml:"recombination"`

	Reionization struct {
		Parametrization *string  `yaml:"parametrization"` // none | camb | bins_tanh | many_tanh | inter
		ZReio           *float64 `yaml:"z_reio"`
		TauReio         *float64 `yaml:"tau_reio"`
		Exponent        *float64 `yaml:"exponent"`
		Width           *float64 `yaml:"width"`
		HeliumZ         *float64 `yaml:"helium_z"`
		HeliumWidth     *float64 `yaml:"helium_width"`

		BinZ      []float64 `yaml:"bin_z"`
		BinXe     []float64 `yaml:"bin_xe"`
		Sharpness *float64  `yaml:"sharpness"`

		ManyTanhZ     []float64 `yaml:"many_tanh_z"`
		ManyTanhXe    []float64 `yaml:"many_tanh_xe"`
		ManyTanhWidth *float64  `yaml:"many_tanh_width"`

		InterZ  []float64 `yaml:"inter_z"`
		InterXe []float64 `yaml:"inter_xe"`
	} `yaml:"reionization"`

	Injection struct {
		Annihilation *float64 `yaml:"annihilation"`
		Variation    *float64 `yaml:"variation"`
		Z            *float64 `yaml:"z"`
		Zmax         *float64 `yaml:"zmax"`
		Zmin         *float64 `yaml:"zmin"`
		FHalo        *float64 `yaml:"f_halo"`
		ZHalo        *float64 `yaml:"z_halo"`
		Decay        *float64 `yaml:"decay"`
		OnTheSpot    *bool    `yaml:"on_the_spot"`
	} `yaml:"injection"`

	Output struct {
		Cb2Derivatives *bool `yaml:"cb2_derivatives"`
		DampingScale   *bool `yaml:"damping_scale"`
		ClampQueries   *bool `yaml:"clamp_queries"`
		Verbose        *int  `yaml:"verbose"`
	} `yaml:"output"`

	Precision struct {
		ZIni      *float64 `yaml:"z_ini"`
		NzRecoLog *int     `yaml:"nz_reco_log"`
		NzRecoLin *int     `yaml:"nz_reco_lin"`
		NzReio    *int     `yaml:"nz_reio"`
		Evolver   *string  `yaml:"evolver"` // bdf | rkck
		AbsTol    *float64 `yaml:"abs_tol"`
		RelTol    *float64 `yaml:"rel_tol"`
		TauTol    *float64 `yaml:"reio_tau_tol"`
	} `yaml:"precision"`
}

func setF(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setI(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setB(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Load 读取 YAML 参数文件并叠加在默认参数之上
func Load(path string) (types.Params, types.Precision, error) {
	par := types.DefaultParams()
	pre := types.DefaultPrecision()

	data, err := os.ReadFile(path)
	if err != nil {
		return par, pre, fmt.Errorf("参数文件读取失败: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return par, pre, fmt.Errorf("参数文件解析失败: %w", err)
	}

	setF(&par.H100, doc.Cosmology.H)
	setF(&par.OmegaB, doc.Cosmology.OmegaB)
	setF(&par.OmegaCDM, doc.Cosmology.OmegaCDM)
	setF(&par.Tcmb, doc.Cosmology.Tcmb)
	setF(&par.YHe, doc.Cosmology.YHe)
	setF(&par.Neff, doc.Cosmology.Neff)

	if doc.Recombination.Algorithm != nil {
		switch *doc.Recombination.Algorithm {
		case "base":
			par.Recombination = types.RecombinationBase
		case "corrected":
			par.Recombination = types.RecombinationCorrected
		default:
			return par, pre, fmt.Errorf("未知复合算法: %q", *doc.Recombination.Algorithm)
		}
	}

	r := &doc.Reionization
	if r.Parametrization != nil {
		switch *r.Parametrization {
		case "none":
			par.ReioParametrization = types.ReioNone
		case "camb":
			par.ReioParametrization = types.ReioCamb
		case "bins_tanh":
			par.ReioParametrization = types.ReioBinsTanh
		case "many_tanh":
			par.ReioParametrization = types.ReioManyTanh
		case "inter":
			par.ReioParametrization = types.ReioInter
		default:
			return par, pre, fmt.Errorf("未知再电离参数化: %q", *r.Parametrization)
		}
	}
	if r.ZReio != nil && r.TauReio != nil {
		return par, pre, fmt.Errorf("z_reio 与 tau_reio 不能同时给出")
	}
	if r.ZReio != nil {
		par.ReioInput = types.ReioInputZ
		par.ZReio = *r.ZReio
	}
	if r.TauReio != nil {
		par.ReioInput = types.ReioInputTau
		par.TauReio = *r.TauReio
	}
	setF(&par.ReioExponent, r.Exponent)
	setF(&par.ReioWidth, r.Width)
	setF(&par.HeliumReioZ, r.HeliumZ)
	setF(&par.HeliumReioWidth, r.HeliumWidth)
	if len(r.BinZ) > 0 {
		par.BinnedReioZ = r.BinZ
		par.BinnedReioXe = r.BinXe
	}
	setF(&par.BinnedReioSharpness, r.Sharpness)
	if len(r.ManyTanhZ) > 0 {
		par.ManyTanhZ = r.ManyTanhZ
		par.ManyTanhXe = r.ManyTanhXe
	}
	setF(&par.ManyTanhWidth, r.ManyTanhWidth)
	if len(r.InterZ) > 0 {
		par.InterReioZ = r.InterZ
		par.InterReioXe = r.InterXe
	}

	inj := &doc.Injection
	setF(&par.Annihilation, inj.Annihilation)
	setF(&par.AnnihilationVariation, inj.Variation)
	setF(&par.AnnihilationZ, inj.Z)
	setF(&par.AnnihilationZmax, inj.Zmax)
	setF(&par.AnnihilationZmin, inj.Zmin)
	setF(&par.AnnihilationFHalo, inj.FHalo)
	setF(&par.AnnihilationZHalo, inj.ZHalo)
	setF(&par.Decay, inj.Decay)
	setB(&par.OnTheSpot, inj.OnTheSpot)

	setB(&par.ComputeCb2Derivatives, doc.Output.Cb2Derivatives)
	setB(&par.ComputeDampingScale, doc.Output.DampingScale)
	setB(&par.ClampQueries, doc.Output.ClampQueries)
	setI(&par.Verbose, doc.Output.Verbose)

	p := &doc.Precision
	setF(&pre.ZIni, p.ZIni)
	setI(&pre.NzRecoLog, p.NzRecoLog)
	setI(&pre.NzRecoLin, p.NzRecoLin)
	setI(&pre.NzReio, p.NzReio)
	if p.Evolver != nil {
		switch *p.Evolver {
		case "bdf":
			pre.Evolver = types.EvolverBDF
		case "rkck":
			pre.Evolver = types.EvolverRKCK
		default:
			return par, pre, fmt.Errorf("未知积分器: %q", *p.Evolver)
		}
	}
	setF(&pre.AbsTol, p.AbsTol)
	setF(&pre.RelTol, p.RelTol)
	setF(&pre.ReioTauTol, p.TauTol)

	if err := par.Check(); err != nil {
		return par, pre, err
	}
	if err := pre.Check(); err != nil {
		return par, pre, err
	}
	return par, pre, nil
}
