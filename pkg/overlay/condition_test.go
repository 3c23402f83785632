package overlay

import "testing"

func TestCondition_Eval(t *testing.T) {
	values := map[string]string{
		"type":          "dashboard",
		"palette":       "violet",
		"columns":       "3",
		"meta.audience": "internal",
		"meta.beta":     "true",
	}

	cases := []struct {
		expr string
		want bool
	}{
		{"", true},
		{`type == "dashboard"`, true},
		{`type == dashboard`, true},
		{`type != "report"`, true},
		{`columns == 3`, true},
		{`columns == 3.0`, true},
		{`columns != 4`, true},
		{`meta.beta == true`, true},
		{`meta.beta`, true},
		{`meta.missing`, false},
		{`meta.missing == ""`, true},
		{`type == "dashboard" && columns == 3`, true},
		{`type == "report" || palette == "violet"`, true},
		{`type == "report" && palette == "violet"`, false},
		{`!(type == "report")`, true},
		{`!meta.beta`, false},
		{`(type == "report" || type == "dashboard") && meta.audience != "public"`, true},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			cond, err := CompileCondition(tc.expr)
			if err != nil {
				t.Fatalf("compile %q: %v", tc.expr, err)
			}
			if got := cond.Eval(values); got != tc.want {
				t.Fatalf("eval %q: want %v got %v", tc.expr, tc.want, got)
			}
		})
	}
}

func TestCompileCondition_Errors(t *testing.T) {
	cases := []string{
		`type = "dashboard"`,
		`type & palette`,
		`type |`,
		`(type == "a"`,
		`== "a"`,
		`type == `,
		`"unterminated`,
	}

	for _, expr := range cases {
		if _, err := CompileCondition(expr); err == nil {
			t.Fatalf("expected compile error for %q", expr)
		}
	}
}

func TestCondition_NilAlwaysTrue(t *testing.T) {
	var cond *Condition
	if !cond.Eval(nil) {
		t.Fatal("nil condition should be true")
	}
}
