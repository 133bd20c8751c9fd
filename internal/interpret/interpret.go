package interpret

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Label is the human-readable category for a score.
type Label string

const (
	LabelUnqualified Label = "unqualified"
	LabelQualified   Label = "qualified"
	LabelSuspect     Label = "suspect"
	LabelUnknown     Label = "unknown"
)

// Explanation is the display text the demo front-end showed for each label.
func (l Label) Explanation() string {
	switch l {
	case LabelUnqualified:
		return "回答不合格"
	case LabelQualified:
		return "回答合格"
	case LabelSuspect:
		return "疑似"
	default:
		return "未返回评分"
	}
}

// Thresholds split the score line into three bands. Scores strictly below Low
// are unqualified, strictly above High qualified, anything between suspect.
type Thresholds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// The two schemes found across deployments.
var (
	SchemeA = Thresholds{Low: -1, High: 1}
	SchemeB = Thresholds{Low: -0.5, High: 0.5}
)

// SchemeByName resolves "A" or "B" (case-insensitive).
func SchemeByName(name string) (Thresholds, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "A":
		return SchemeA, nil
	case "B":
		return SchemeB, nil
	default:
		return Thresholds{}, fmt.Errorf("unknown threshold scheme %q: want A or B", name)
	}
}

// Classify maps a score to a label.
func (t Thresholds) Classify(score float64) Label {
	switch {
	case score < t.Low:
		return LabelUnqualified
	case score > t.High:
		return LabelQualified
	default:
		return LabelSuspect
	}
}

// Result is what a caller gets back for one scored pair. Score is nil when the
// service returned no usable number.
type Result struct {
	Score *float64 `json:"score"`
	Label Label    `json:"label"`
}

// Interpret reads a score value out of a response field. Finite numbers and
// numeric strings are accepted; anything else, NaN and infinities included,
// yields LabelUnknown.
func (t Thresholds) Interpret(v gjson.Result) Result {
	score, ok := numeric(v)
	if !ok {
		return Result{Label: LabelUnknown}
	}
	return Result{Score: &score, Label: t.Classify(score)}
}

func numeric(v gjson.Result) (float64, bool) {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	// 1e400 parses to +Inf, and "NaN" is a valid float string. Neither can
	// be classified or encoded as JSON.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
