package interp_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sledlang/sled/interp"
	"github.com/sledlang/sled/parser"
)

// runScript compiles script and runs it over input, returning the
// produced output and the run result.
func runScript(t *testing.T, script, input string, printAll bool) (string, interp.Result) {
	t.Helper()
	return runConfig(t, script, input, &interp.Config{PrintAll: printAll})
}

func runConfig(t *testing.T, script, input string, config *interp.Config) (string, interp.Result) {
	t.Helper()
	prog, err := parser.ParseProgram(script)
	require.NoError(t, err)
	var out bytes.Buffer
	config.Output = &out
	result, err := interp.ExecProgram(prog, interp.NewReaderSource(strings.NewReader(input)), config)
	require.NoError(t, err)
	return out.String(), result
}

func numbered(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "%d\n", i)
	}
	return sb.String()
}

func TestDelete(t *testing.T) {
	out, result := runScript(t, `1d;3d;7d`, numbered(10), true)

	assert.Equal(t, "2\n4\n5\n6\n8\n9\n10\n", out)
	assert.Equal(t, interp.Normal, result.Status)
	assert.Equal(t, 3, result.Matches)
}

func TestPrint(t *testing.T) {
	out, result := runScript(t, `/b/ p`, "a\nb\nab\n", false)

	assert.Equal(t, "b\nab\n", out)
	assert.Equal(t, 2, result.Matches)
}

func TestPrintAllAndExplicit(t *testing.T) {
	out, _ := runScript(t, `2 p`, "a\nb\n", true)

	// Line 2 is printed by p and again by print-all mode.
	assert.Equal(t, "a\nb\nb\n", out)
}

func TestLineNumberAndInsert(t *testing.T) {
	out, _ := runScript(t, `= ": " p`, "a\nb\n", false)

	assert.Equal(t, "1: a\n2: b\n", out)
}

func TestEscape(t *testing.T) {
	out, _ := runScript(t, `l`, "a\tb\n", false)

	assert.Equal(t, "a\\tb\n", out)
}

// Control characters are escaped; printable text, including
// non-ASCII, passes through untouched.
func TestEscapeKeepsPrintableUnicode(t *testing.T) {
	out, _ := runScript(t, `l`, "café\n\x01\n", false)

	assert.Equal(t, "café\n\\x01\n", out)
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name   string
		script string
		input  string
		want   string
	}{
		{"all", `s/o/0/`, "foo oo", "f00 00\n"},
		{"explicit global", `s/o/0/g`, "foo oo", "f00 00\n"},
		{"limited", `s/o/0/2`, "foo oo", "f00 oo\n"},
		{"group template", `s/(o+)/<$1>/`, "foo boo", "f<oo> b<oo>\n"},
		{"literal digits", `s/a/123/`, "cat", "c123t\n"},
		{"digit after group", `s/(o+)/$1 2/`, "foo", "foo 2\n"},
		{"chained", `s/cat/dog/;s/dog/cow/`, "cat", "cow\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, _ := runScript(t, test.script, test.input+"\n", true)
			assert.Equal(t, test.want, out)
		})
	}
}

func TestKeep(t *testing.T) {
	tests := []struct {
		script string
		want   string
	}{
		{`k3-5`, "345\n"},
		{`k-5`, "12345\n"},
		{`k5`, "5\n"},
		{`k3-`, "3456789\n"},
		{`k1-1`, "1\n"},
		{`k`, "1\n"},
		{`k20-`, "\n"},
	}
	for _, test := range tests {
		t.Run(test.script, func(t *testing.T) {
			out, _ := runScript(t, test.script, "123456789\n", true)
			assert.Equal(t, test.want, out)
		})
	}
}

func TestKeepCountsRunes(t *testing.T) {
	out, _ := runScript(t, `k5-7`, "héllo wörld\n", true)

	assert.Equal(t, "o w\n", out)
}

func TestHoldAndExchange(t *testing.T) {
	out, _ := runScript(t, `1h;2x`, "a\nb\n", true)

	assert.Equal(t, "a\na\n", out)
}

func TestGet(t *testing.T) {
	out, _ := runScript(t, `1h;2g`, "a\nb\n", true)

	assert.Equal(t, "a\na\n", out)
}

func TestJoin(t *testing.T) {
	out, _ := runScript(t, `1h;2J`, "a\nb\n", true)

	assert.Equal(t, "a\nba\n", out)
}

func TestJoinWithNewline(t *testing.T) {
	out, _ := runScript(t, `1h;2j`, "a\nb\n", true)

	assert.Equal(t, "a\nb\na\n", out)
}

func TestReset(t *testing.T) {
	out, result := runScript(t, `2z`, "a\nb\n", true)

	assert.Equal(t, "a\n\n", out)
	assert.Equal(t, interp.Normal, result.Status)
}

func TestReadLines(t *testing.T) {
	out, _ := runScript(t, `1 r 2 p`, "a\nb\nc\n", false)

	assert.Equal(t, "a\nb\nc\n", out)
}

func TestReadLinesStopsAtEOF(t *testing.T) {
	out, result := runScript(t, `1 r 5 p`, "a\nb\n", false)

	assert.Equal(t, "a\nb\n", out)
	assert.Equal(t, interp.Normal, result.Status)
}

func TestReadReplace(t *testing.T) {
	out, result := runScript(t, `2R`, "a\nb\nc\n", true)

	// Line b is replaced wholesale by line c.
	assert.Equal(t, "a\nc\n", out)
	assert.Equal(t, interp.Normal, result.Status)
}

func TestReadReplaceRenumbers(t *testing.T) {
	out, _ := runScript(t, `2R;= "\n"`, "a\nb\nc\n", false)

	assert.Equal(t, "1\n3\n", out)
}

func TestReadReplaceExhausted(t *testing.T) {
	out, result := runScript(t, `1R`, "a\n", true)

	assert.Equal(t, "a\n", out)
	assert.Equal(t, interp.Break, result.Status)
}

func TestQuit(t *testing.T) {
	out, result := runScript(t, `2q`, "a\nb\nc\n", true)

	// The quitting line is still printed; line c is never read.
	assert.Equal(t, "a\nb\n", out)
	assert.Equal(t, interp.Quit, result.Status)
	assert.Equal(t, 0, result.ExitCode)
}

func TestQuitWithCode(t *testing.T) {
	_, result := runScript(t, `2 q 4`, "a\nb\nc\n", false)

	assert.Equal(t, interp.Quit, result.Status)
	assert.Equal(t, 4, result.ExitCode)
}

func TestBreakStopsDispatch(t *testing.T) {
	out, result := runScript(t, `1 p . p`, "a\n", false)

	assert.Equal(t, "a\n", out)
	assert.Equal(t, interp.Break, result.Status)
}

func TestLoopRunsBodyOnce(t *testing.T) {
	out, result := runScript(t, `:{.}p`, "a\nb\n", false)

	assert.Equal(t, "a\nb\n", out)
	assert.Equal(t, interp.Normal, result.Status)
}

func TestLoopUntilPattern(t *testing.T) {
	out, _ := runScript(t, `:{ /aa/! . s/aa/a/ }`, "aaaaaaaa\nbaab\n", true)

	assert.Equal(t, "a\nbab\n", out)
}

func TestLoopPropagatesDelete(t *testing.T) {
	out, result := runScript(t, `:{ /x/ d; . }`, "x\ny\n", true)

	// Delete escapes the loop and suppresses the line; the break
	// only ends the loop.
	assert.Equal(t, "y\n", out)
	assert.Equal(t, interp.Normal, result.Status)
}

func TestLoopPropagatesQuit(t *testing.T) {
	out, result := runScript(t, `:{ q 3 }`, "a\nb\n", true)

	assert.Equal(t, "a\n", out)
	assert.Equal(t, interp.Quit, result.Status)
	assert.Equal(t, 3, result.ExitCode)
}

func TestDeferredAddress(t *testing.T) {
	out, result := runScript(t, `? s/cat/dog/ p`, "the cat\nno match\n", false)

	assert.Equal(t, "the dog\n", out)
	assert.Equal(t, 1, result.Matches)
}

func TestNegatedPattern(t *testing.T) {
	out, result := runScript(t, `/a/! d`, "abc\nxyz\naaa\n", true)

	assert.Equal(t, "abc\naaa\n", out)
	assert.Equal(t, 1, result.Matches)
}

func TestRangeAcrossLines(t *testing.T) {
	out, _ := runScript(t, `/begin/-/end/ p`, "x\nbegin\ny\nend\nz\n", false)

	assert.Equal(t, "begin\ny\nend\n", out)
}

func TestFinalize(t *testing.T) {
	out, result := runScript(t, `p;$ "END\n"`, "a\nb\n", false)

	assert.Equal(t, "a\nb\nEND\n", out)
	assert.Equal(t, interp.Normal, result.Status)
}

func TestFinalizeRunsAfterQuit(t *testing.T) {
	out, _ := runScript(t, `2q;$ "bye\n"`, "a\nb\nc\n", true)

	assert.Equal(t, "a\nb\nbye\n", out)
}

func TestFinalizeOverridesStatus(t *testing.T) {
	_, result := runScript(t, `$ q 3`, "a\n", false)

	assert.Equal(t, interp.Quit, result.Status)
	assert.Equal(t, 3, result.ExitCode)
}

func TestFinalizeUsesLastBuffers(t *testing.T) {
	out, _ := runScript(t, `h;$ p`, "a\nb\n", false)

	assert.Equal(t, "b\n", out)
}

func TestEmptyInput(t *testing.T) {
	out, result := runScript(t, `p;$ "done\n"`, "", false)

	assert.Equal(t, "done\n", out)
	assert.Equal(t, interp.Normal, result.Status)
	assert.Equal(t, 0, result.Matches)
}

func TestMatchCounting(t *testing.T) {
	_, result := runScript(t, `2-4`, numbered(10), false)

	assert.Equal(t, 3, result.Matches)
}

type fakeExecutor struct {
	out   string
	code  int
	calls int
	got   []string
}

func (e *fakeExecutor) Execute(command string) (string, int, error) {
	e.calls++
	e.got = append(e.got, command)
	return e.out, e.code, nil
}

func TestShellReplacesPattern(t *testing.T) {
	exec := &fakeExecutor{out: "HI\n"}
	out, result := runConfig(t, `e`, "echo hi\n", &interp.Config{PrintAll: true, Exec: exec})

	assert.Equal(t, "HI\n", out)
	assert.Equal(t, interp.Normal, result.Status)
	assert.Equal(t, []string{"echo hi"}, exec.got)
}

func TestShellNonZeroExitQuits(t *testing.T) {
	exec := &fakeExecutor{code: 4}
	_, result := runConfig(t, `e`, "false\nnever run\n", &interp.Config{Exec: exec})

	assert.Equal(t, interp.Quit, result.Status)
	assert.Equal(t, 4, result.ExitCode)
	assert.Equal(t, 1, exec.calls)
}

func TestExec(t *testing.T) {
	var out bytes.Buffer
	result, err := interp.Exec(`s/dog/cat/`, strings.NewReader("hot dog\n"), &out, true)

	require.NoError(t, err)
	assert.Equal(t, "hot cat\n", out.String())
	assert.Equal(t, interp.Normal, result.Status)
}

func TestExecCompileError(t *testing.T) {
	_, err := interp.Exec(`7-3`, strings.NewReader(""), &bytes.Buffer{}, false)

	assert.Error(t, err)
}
