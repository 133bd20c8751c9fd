package interpret_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/raysh454/alignscore/internal/interpret"
)

func ptr(f float64) *float64 { return &f }

func TestClassify_SchemeA(t *testing.T) {
	t.Parallel()
	cases := []struct {
		score float64
		want  interpret.Label
	}{
		{-2.0, interpret.LabelUnqualified},
		{-1.0001, interpret.LabelUnqualified},
		{-1.0, interpret.LabelSuspect},
		{0.0, interpret.LabelSuspect},
		{1.0, interpret.LabelSuspect},
		{1.0001, interpret.LabelQualified},
		{2.0, interpret.LabelQualified},
	}
	for _, tc := range cases {
		if got := interpret.SchemeA.Classify(tc.score); got != tc.want {
			t.Errorf("SchemeA.Classify(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestClassify_SchemeB(t *testing.T) {
	t.Parallel()
	cases := []struct {
		score float64
		want  interpret.Label
	}{
		{-0.75, interpret.LabelUnqualified},
		{-0.5, interpret.LabelSuspect},
		{0.5, interpret.LabelSuspect},
		{0.75, interpret.LabelQualified},
	}
	for _, tc := range cases {
		if got := interpret.SchemeB.Classify(tc.score); got != tc.want {
			t.Errorf("SchemeB.Classify(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestInterpret_FromResponseBody(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		body string
		want interpret.Result
	}{
		{"negative", `{"message":{"score":-2.0}}`, interpret.Result{Score: ptr(-2), Label: interpret.LabelUnqualified}},
		{"zero", `{"message":{"score":0.0}}`, interpret.Result{Score: ptr(0), Label: interpret.LabelSuspect}},
		{"positive", `{"message":{"score":2.0}}`, interpret.Result{Score: ptr(2), Label: interpret.LabelQualified}},
		{"numeric string", `{"message":{"score":"1.5"}}`, interpret.Result{Score: ptr(1.5), Label: interpret.LabelQualified}},
		{"absent", `{"message":{}}`, interpret.Result{Label: interpret.LabelUnknown}},
		{"null", `{"message":{"score":null}}`, interpret.Result{Label: interpret.LabelUnknown}},
		{"text", `{"message":{"score":"high"}}`, interpret.Result{Label: interpret.LabelUnknown}},
		{"object", `{"message":{"score":{"v":1}}}`, interpret.Result{Label: interpret.LabelUnknown}},
		{"overflow", `{"message":{"score":1e400}}`, interpret.Result{Label: interpret.LabelUnknown}},
		{"negative overflow", `{"message":{"score":-1e400}}`, interpret.Result{Label: interpret.LabelUnknown}},
		{"NaN string", `{"message":{"score":"NaN"}}`, interpret.Result{Label: interpret.LabelUnknown}},
		{"Infinity string", `{"message":{"score":"Infinity"}}`, interpret.Result{Label: interpret.LabelUnknown}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := interpret.SchemeA.Interpret(gjson.Get(tc.body, "message.score"))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Interpret mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchemeByName(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]interpret.Thresholds{"A": interpret.SchemeA, "b": interpret.SchemeB, " a ": interpret.SchemeA} {
		got, err := interpret.SchemeByName(name)
		if err != nil {
			t.Fatalf("SchemeByName(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("SchemeByName(%q) = %+v, want %+v", name, got, want)
		}
	}
	if _, err := interpret.SchemeByName("C"); err == nil {
		t.Error("expected error for unknown scheme")
	}
}

func TestLabel_Explanation(t *testing.T) {
	t.Parallel()
	want := map[interpret.Label]string{
		interpret.LabelUnqualified: "回答不合格",
		interpret.LabelQualified:   "回答合格",
		interpret.LabelSuspect:     "疑似",
		interpret.LabelUnknown:     "未返回评分",
	}
	for l, w := range want {
		if got := l.Explanation(); got != w {
			t.Errorf("%q.Explanation() = %q, want %q", l, got, w)
		}
	}
}
