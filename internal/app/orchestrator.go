package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/alignscore/internal/interpret"
	"github.com/raysh454/alignscore/internal/logging"
	"github.com/raysh454/alignscore/internal/scoring"
	"github.com/raysh454/alignscore/internal/validate"
)

// Status is the kind of outcome a submission produced.
type Status string

const (
	StatusOK            Status = "ok"
	StatusInvalid       Status = "invalid"
	StatusRateLimited   Status = "rate_limited"
	StatusRequestError  Status = "request_error"
	StatusUpstreamError Status = "upstream_error"
	StatusDecodeError   Status = "decode_error"
)

// Outcome is always displayable: every failure becomes a Status and a Message
// rather than an error returned to the caller.
type Outcome struct {
	RequestID   string          `json:"request_id"`
	Status      Status          `json:"status"`
	Score       *float64        `json:"score"`
	Label       interpret.Label `json:"label,omitempty"`
	Explanation string          `json:"explanation,omitempty"`
	Message     string          `json:"message"`
	// Field names the offending input for StatusInvalid.
	Field      string `json:"field,omitempty"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Scorer is the remote half of a submission.
type Scorer interface {
	Score(ctx context.Context, question, answer string) (interpret.Result, error)
}

// Orchestrator runs one submission through validation and scoring. It keeps
// no state between calls.
type Orchestrator struct {
	validator validate.Validator
	scorer    Scorer
	logger    logging.Logger
}

// NewOrchestrator ties a validator to a scorer.
func NewOrchestrator(v validate.Validator, scorer Scorer, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewStdoutLogger("app")
	}
	return &Orchestrator{
		validator: v,
		scorer:    scorer,
		logger:    logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
	}
}

// Submit validates, scores and interprets one pair. Validation failures never
// reach the network.
func (o *Orchestrator) Submit(ctx context.Context, question, answer string) Outcome {
	start := time.Now()
	out := Outcome{RequestID: uuid.NewString()}
	logger := o.logger.With(logging.Field{Key: "request_id", Value: out.RequestID})

	if err := o.validator.Validate(question, answer); err != nil {
		o.describeValidation(&out, err)
		logger.Info("submission rejected",
			logging.Field{Key: "field", Value: out.Field},
			logging.Field{Key: "answer_chars", Value: len([]rune(answer))},
			logging.Err(err))
		return finish(out, start)
	}

	res, err := o.scorer.Score(ctx, question, answer)
	if err != nil {
		o.describeScoringError(&out, err)
		logger.Warn("submission failed",
			logging.Field{Key: "status", Value: string(out.Status)},
			logging.Err(err))
		return finish(out, start)
	}

	out.Status = StatusOK
	out.Score = res.Score
	out.Label = res.Label
	out.Explanation = res.Label.Explanation()
	out.Message = out.Explanation

	logger.Info("submission scored",
		logging.Field{Key: "label", Value: string(res.Label)},
		logging.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
	return finish(out, start)
}

func finish(out Outcome, start time.Time) Outcome {
	out.DurationMS = time.Since(start).Milliseconds()
	return out
}

func (o *Orchestrator) describeValidation(out *Outcome, err error) {
	out.Status = StatusInvalid
	var ve *validate.ValidationError
	if !errors.As(err, &ve) {
		out.Message = err.Error()
		return
	}
	out.Field = ve.Field
	switch {
	case errors.Is(err, validate.ErrAnswerTooLong):
		out.Message = fmt.Sprintf("答案长度不能超过%d个字符。", ve.Limit)
	case errors.Is(err, validate.ErrNoChinese) && ve.Field == "question":
		out.Message = "问题需要包含中文。"
	case errors.Is(err, validate.ErrNoChinese):
		out.Message = "答案需要包含中文。"
	default:
		out.Message = err.Error()
	}
}

func (o *Orchestrator) describeScoringError(out *Outcome, err error) {
	var (
		rl *scoring.RateLimitedError
		se *scoring.StatusError
		de *scoring.DecodeError
	)
	switch {
	case errors.As(err, &rl):
		out.Status = StatusRateLimited
		out.Message = "试用的人太多了，请稍后再试。"
		out.RetryAfter = int(rl.RetryAfter / time.Second)
	case errors.As(err, &se):
		out.Status = StatusUpstreamError
		out.Message = fmt.Sprintf("评分服务暂时不可用（状态码 %d），请稍后再试。", se.Code)
	case errors.As(err, &de):
		out.Status = StatusDecodeError
		out.Message = "评分服务返回了无法解析的结果。"
	default:
		out.Status = StatusRequestError
		out.Message = "请求错误: " + err.Error()
	}
}
