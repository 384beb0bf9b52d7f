package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteDebug 将布局结果输出为 JSON 或 YAML（按扩展名 .yaml/.yml 判断），便于调试或可视化。
func WriteDebug(res *Result, path string) error {
	if res == nil {
		return nil
	}
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(res)
	default:
		data, err = json.MarshalIndent(res, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
