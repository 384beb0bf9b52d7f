package fonts

import "testing"

func TestLoadBuiltin(t *testing.T) {
	for _, name := range []string{"builtin:lmroman10-regular", "lmsans10-bold", "built-in:LMMONO10-REGULAR"} {
		data, err := Load(name)
		if err != nil {
			t.Fatalf("加载 %s 失败: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("%s 字节为空", name)
		}
	}
	if _, err := Load("builtin:inter"); err == nil {
		t.Fatalf("未知字体应返回错误")
	}
	if names := Names(); len(names) != len(builtin) || names[0] != "lmmono10-regular" {
		t.Fatalf("Names 未排序或不完整: %v", names)
	}
}
