package build

import "testing"

func TestClassifier_Diagnostic(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		line   string
		want   string
		ok     bool
	}{
		{"cargo line", "", "   Compiling serde v1.0.130", "serde 1.0.130", true},
		{"path suffix", "", "   Compiling my_app v0.1.0 (/home/me/my_app)", "my-app 0.1.0", true},
		{"no indent", "", "Compiling itoa v0.4.8", "itoa 0.4.8", true},
		{"other step", "", "    Finished dev [unoptimized] target(s)", "", false},
		{"glued prefix", "", "   Compilingserde v1.0.0", "", false},
		{"prefix only", "", "   Compiling", "", false},
		{"warning", "", "warning: unused import", "", false},
		{"custom prefix", "Checking", "    Checking ryu v1.0.5", "ryu 1.0.5", true},
		{"custom prefix ignores default", "Checking", "   Compiling ryu v1.0.5", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Classifier{Prefix: tt.prefix}.Diagnostic(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (ev.Kind != Started || ev.Name != tt.want) {
				t.Errorf("got %v %q, want started %q", ev.Kind, ev.Name, tt.want)
			}
		})
	}
}

func TestClassifier_Artifact(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
		ok   bool
	}{
		{
			"legacy package id",
			`{"reason":"compiler-artifact","package_id":"serde 1.0.130 (registry+https://github.com/rust-lang/crates.io-index)","fresh":true}`,
			"serde 1.0.130", true,
		},
		{
			"package id spec",
			`{"reason":"compiler-artifact","package_id":"registry+https://github.com/rust-lang/crates.io-index#serde_json@1.0.68"}`,
			"serde-json 1.0.68", true,
		},
		{
			"path package",
			`{"reason":"compiler-artifact","package_id":"path+file:///home/me/my_app#0.1.0"}`,
			"my-app 0.1.0", true,
		},
		{"other reason", `{"reason":"compiler-message","package_id":"serde 1.0.130"}`, "", false},
		{"build finished", `{"reason":"build-finished","success":true}`, "", false},
		{"missing package id", `{"reason":"compiler-artifact"}`, "", false},
		{"not json", "   Compiling serde v1.0.130", "", false},
		{"truncated", `{"reason":"compiler-artifact","package_id":"ser`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Classifier{}.Artifact(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (ev.Kind != Finished || ev.Name != tt.want) {
				t.Errorf("got %v %q, want finished %q", ev.Kind, ev.Name, tt.want)
			}
		})
	}
}
