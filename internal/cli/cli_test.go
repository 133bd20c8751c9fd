package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/raysh454/alignscore/internal/app"
	"github.com/raysh454/alignscore/internal/cli"
	"github.com/raysh454/alignscore/internal/codec"
	"github.com/raysh454/alignscore/internal/interpret"
	"github.com/raysh454/alignscore/internal/testutil"
)

func run(t *testing.T, ctx context.Context, environ map[string]string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCommand(cli.Options{
		Environ: func() map[string]string { return environ },
		Out:     &out,
		Err:     &errOut,
		Logger:  &testutil.DummyLogger{},
	})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestKeygen(t *testing.T) {
	out, err := run(t, context.Background(), nil, "keygen")
	require.NoError(t, err)

	_, err = codec.NewCodec(strings.TrimSpace(out))
	require.NoError(t, err, "keygen output must be a usable key")
}

func TestDecode(t *testing.T) {
	c, key := testutil.NewCodec(t)
	token, err := c.Encode("你好")
	require.NoError(t, err)

	out, err := run(t, context.Background(), map[string]string{"DECODE_KEY": key}, "decode", "--token", token)
	require.NoError(t, err)
	require.Equal(t, "你好\n", out)
}

func TestDecode_MissingKey(t *testing.T) {
	_, err := run(t, context.Background(), map[string]string{}, "decode", "--token", "x")
	require.ErrorContains(t, err, "DECODE_KEY")
}

func TestDecode_WrongKey(t *testing.T) {
	c, _ := testutil.NewCodec(t)
	token, err := c.Encode("secret")
	require.NoError(t, err)

	_, err = run(t, context.Background(), map[string]string{"DECODE_KEY": testutil.NewKey(t)}, "decode", "--token", token)
	require.ErrorIs(t, err, codec.ErrInvalidToken)
}

func TestScore(t *testing.T) {
	c, key := testutil.NewCodec(t)
	remote := testutil.NewScoringServer(t, c, func(call testutil.ScoringCall) (int, string) {
		return http.StatusOK, `{"message":{"score":0.7}}`
	})

	environ := map[string]string{
		"DECODE_KEY":       key,
		"LOGIN_KEY":        "token",
		"SCORING_URL":      remote.URL,
		"THRESHOLD_SCHEME": "B",
	}
	out, err := run(t, context.Background(), environ, "score", "--question", "问题", "--answer", "回答")
	require.NoError(t, err)

	var outcome app.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	require.Equal(t, app.StatusOK, outcome.Status)
	require.Equal(t, interpret.LabelQualified, outcome.Label)
	require.Contains(t, out, "回答合格", "explanation is printed unescaped")

	calls := remote.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "回答", calls[0].Answer)
}

func TestScore_OverflowingScorePrintsUnknown(t *testing.T) {
	c, key := testutil.NewCodec(t)
	remote := testutil.NewScoringServer(t, c, func(testutil.ScoringCall) (int, string) {
		return http.StatusOK, `{"message":{"score":1e400}}`
	})

	environ := map[string]string{"DECODE_KEY": key, "LOGIN_KEY": "token", "SCORING_URL": remote.URL}
	out, err := run(t, context.Background(), environ, "score", "-q", "q", "-a", "a")
	require.NoError(t, err)

	var outcome app.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	require.Equal(t, interpret.LabelUnknown, outcome.Label)
	require.Nil(t, outcome.Score)
}

func TestScore_RequiresFlags(t *testing.T) {
	_, err := run(t, context.Background(), map[string]string{}, "score", "--question", "q")
	require.Error(t, err)
}

func TestScore_MissingConfig(t *testing.T) {
	_, err := run(t, context.Background(), map[string]string{}, "score", "-q", "q", "-a", "a")
	require.ErrorContains(t, err, "DECODE_KEY")
}

func TestServe_StopsWhenContextCancelled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	environ := map[string]string{
		"DECODE_KEY":  testutil.NewKey(t),
		"LOGIN_KEY":   "token",
		"SCORING_URL": "http://127.0.0.1:1/score",
		"LISTEN_ADDR": "127.0.0.1:0",
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := run(t, ctx, environ, "serve")
	require.NoError(t, err)
}
