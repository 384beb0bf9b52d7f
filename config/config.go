// Package config 读取 inkline 命令行的 YAML 配置文件。命令行参数优先于配置文件。
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"gopkg.in/yaml.v3"
)

// Config 是配置文件的结构。
//
//	output: out/doc.pdf
//	workers: 4
//	fonts:
//	  heading: ./fonts/Heading.ttf
//	debug:
//	  path: out/layout.yaml
//	  rawUnits: true
//	trace:
//	  inkline.layout: debug
type Config struct {
	Output  string `yaml:"output"`
	Workers int    `yaml:"workers"`
	// Fonts 注册额外的字体文件，可在 DSL 中以 builtin:<name> 引用。
	Fonts map[string]string `yaml:"fonts"`
	Debug Debug             `yaml:"debug"`
	// Trace 按 tracer 键设置日志级别：debug / info / error。
	Trace map[string]string `yaml:"trace"`
}

// Debug 控制布局调试输出。
type Debug struct {
	Path     string `yaml:"path"`
	RawUnits bool   `yaml:"rawUnits"`
}

// Default 返回没有配置文件时的默认值。
func Default() Config {
	return Config{
		Output: "output/demo.pdf",
		Trace: map[string]string{
			"inkline.inline": "error",
			"inkline.layout": "error",
			"inkline.canvas": "error",
		},
	}
}

// Load 读取 path 指定的配置文件并叠加到默认值上；path 为空时直接返回默认值。
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析 YAML 配置。未知字段视为错误，避免拼写错误被静默忽略。
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("解析配置失败: %w", err)
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("workers 不能为负数：%d", cfg.Workers)
	}
	for key, level := range cfg.Trace {
		if _, ok := traceLevel(level); !ok {
			return Config{}, fmt.Errorf("trace %s 的级别无法识别：%s", key, level)
		}
	}
	return cfg, nil
}

// ApplyTrace 按配置设置各 tracer 的日志级别。
func (c Config) ApplyTrace() {
	for key, level := range c.Trace {
		if l, ok := traceLevel(level); ok {
			tracing.Select(key).SetTraceLevel(l)
		}
	}
}

func traceLevel(s string) (tracing.TraceLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return tracing.LevelDebug, true
	case "info":
		return tracing.LevelInfo, true
	case "error", "":
		return tracing.LevelError, true
	}
	return tracing.LevelError, false
}
