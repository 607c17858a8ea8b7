package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"thermo"
	"thermo/debug"
	"thermo/load"
	"thermo/types"
)

func main() {
	paramFile := flag.String("p", "", "YAML 参数文件路径（缺省使用内置默认参数）")
	htmlOut := flag.String("html", "", "调试曲线 HTML 输出路径")
	pngOut := flag.String("png", "", "电离历史 PNG 输出路径")
	jsonOut := flag.String("json", "", "历史样本 JSON 输出路径")
	flag.Parse()

	par := types.DefaultParams()
	pre := types.DefaultPrecision()
	if *paramFile != "" {
		var err error
		par, pre, err = load.Load(*paramFile)
		if err != nil {
			log.Fatalln(err)
		}
	}

	m, err := thermo.New(par, pre)
	if err != nil {
		log.Fatalln(err)
	}
	if err := m.Compute(); err != nil {
		log.Fatalln(err)
	}
	fmt.Print(m.Summary())

	if *htmlOut != "" || *pngOut != "" || *jsonOut != "" {
		c := &debug.Charts{}
		c.Init(m.Result, m.Table, par.Tcmb)
		if *htmlOut != "" {
			f, err := os.Create(*htmlOut)
			if err != nil {
				log.Fatalln(err)
			}
			if err := c.Render(f); err != nil {
				log.Fatalln(err)
			}
			f.Close()
		}
		if *pngOut != "" {
			if err := c.SaveIonizationPNG(*pngOut); err != nil {
				log.Fatalln(err)
			}
		}
		if *jsonOut != "" {
			f, err := os.Create(*jsonOut)
			if err != nil {
				log.Fatalln(err)
			}
			if err := c.Record.Render(f); err != nil {
				log.Fatalln(err)
			}
			f.Close()
		}
	}
}
