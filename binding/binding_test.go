package binding

import "testing"

func TestInterpolate(t *testing.T) {
	data := map[string]interface{}{
		"user": map[string]interface{}{"name": "Ada"},
		"items": []interface{}{
			map[string]interface{}{"title": "first"},
			map[string]interface{}{"title": "second"},
		},
	}
	cases := []struct {
		in   string
		data any
		want string
	}{
		{"Hello, ${user.name}!", data, "Hello, Ada!"},
		{"${items[1].title}", data, "second"},
		{"${user.missing}", data, "${user.missing}"},
		{"${user.missing:-anonymous}", data, "anonymous"},
		{"${user.name:-anonymous}", data, "Ada"},
		{"${items[5].title:-}", data, ""},
		{"${user.name:-x}", nil, "x"},
		{"${user.name}", nil, "${user.name}"},
	}
	for _, c := range cases {
		if got := Interpolate(c.in, c.data); got != c.want {
			t.Fatalf("Interpolate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
