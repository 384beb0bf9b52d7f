package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/ByLCY/inkline/config"
	"github.com/ByLCY/inkline/dsl"
	"github.com/ByLCY/inkline/inline"
	"github.com/ByLCY/inkline/layout"
	"github.com/ByLCY/inkline/renderer"
	canvasrenderer "github.com/ByLCY/inkline/renderer/canvas"
)

// options 汇总配置文件与命令行参数。
type options struct {
	input     string
	output    string
	debugPath string
	rawUnits  bool
	workers   int
	data      any
}

func main() {
	var (
		input         string
		output        string
		configPath    string
		debug         string
		debugRawUnits bool
		dataJSON      string
		workers       int
	)
	pflag.StringVarP(&input, "in", "i", "examples/demo.inkline", "DSL 文件路径")
	pflag.StringVarP(&output, "out", "o", "", "PDF 输出路径（默认取配置文件）")
	pflag.StringVarP(&configPath, "config", "c", "", "YAML 配置文件路径")
	pflag.StringVar(&debug, "debug", "", "布局调试输出路径（.json 或 .yaml）")
	pflag.BoolVar(&debugRawUnits, "debug-raw-units", false, "在调试输出中写入 debug.rawUnits 影子字段")
	pflag.StringVarP(&dataJSON, "data", "d", "", "绑定到 DSL 的 JSON 数据")
	pflag.IntVarP(&workers, "workers", "w", 0, "推断 flow 宽度时的并发数，0 表示不限制")
	pflag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	cfg.ApplyTrace()

	opts := options{
		input:     input,
		output:    cfg.Output,
		debugPath: cfg.Debug.Path,
		rawUnits:  cfg.Debug.RawUnits,
		workers:   cfg.Workers,
	}
	// 显式给出的命令行参数覆盖配置文件
	if pflag.CommandLine.Changed("out") {
		opts.output = output
	}
	if pflag.CommandLine.Changed("debug") {
		opts.debugPath = debug
	}
	if pflag.CommandLine.Changed("debug-raw-units") {
		opts.rawUnits = debugRawUnits
	}
	if pflag.CommandLine.Changed("workers") {
		opts.workers = workers
	}
	if dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &opts.data); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}

	fontRes := map[string]canvasrenderer.Resource{}
	for name, path := range cfg.Fonts {
		fontRes[name] = canvasrenderer.Resource{Path: path}
	}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir: filepath.Dir(input),
		Fonts:   fontRes,
	})
	if err := run(opts, r, r); err != nil {
		log.Fatalf("生成 PDF 失败: %v", err)
	}
	fmt.Printf("已生成 PDF：%s\n", opts.output)
}

// run 串联解析、布局与渲染。
// shaper 为 nil 时布局使用等宽估算。
func run(opts options, r renderer.Renderer, shaper inline.Shaper) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	file, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("无法打开 DSL 文件 %s: %w", opts.input, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return fmt.Errorf("解析 DSL 失败: %w", err)
	}

	result, err := layout.Build(doc, opts.data, layout.BuildOptions{
		Shaper:  shaper,
		Workers: opts.workers,
		Debug:   layout.DebugOptions{RawUnits: opts.rawUnits},
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	for _, note := range result.Notes {
		log.Printf("note: %s", note)
	}

	if opts.debugPath != "" {
		if err := writeDebug(result, opts.debugPath); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	pdfBytes, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(opts.output, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebug(result, debugPath); err != nil {
		return fmt.Errorf("输出调试文件失败: %w", err)
	}
	return nil
}
