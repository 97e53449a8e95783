package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

type solveSummary struct {
	Cost  float64
	Hops  int
	inner string
}

// readLogLine returns the tab delimited columns of the next line written to `buf`.
func readLogLine(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	line, err := buf.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	return strings.Split(strings.TrimSuffix(line, "\n"), "\t")
}

func newBufferLogger(name string, level Level) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := &impl{name, NewAtomicLevelAt(level), true, []Appender{NewWriterAppender(buf)}}
	return logger, buf
}

func TestConsoleAppenderFormat(t *testing.T) {
	logger, buf := newBufferLogger("", DEBUG)

	logger.Info("converged ", 3, " chains")
	parts := readLogLine(t, buf)
	test.That(t, parts, test.ShouldHaveLength, 4)
	test.That(t, len(parts[0]), test.ShouldEqual, len("2025-01-02T03:04:05.000Z"))
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, strings.HasPrefix(parts[2], "logging/impl_test.go:"), test.ShouldBeTrue)
	test.That(t, parts[3], test.ShouldEqual, "converged 3 chains")

	logger.Warnf("only %d pair(s)", 1)
	parts = readLogLine(t, buf)
	test.That(t, parts[1], test.ShouldEqual, "WARN")
	test.That(t, parts[3], test.ShouldEqual, "only 1 pair(s)")
}

func TestStructuredFields(t *testing.T) {
	logger, buf := newBufferLogger("solver", DEBUG)

	logger.Debugw("chain finished", "chain", 2, "summary", solveSummary{Cost: 0.5, Hops: 100, inner: "hidden"}, "dangling")
	parts := readLogLine(t, buf)
	test.That(t, parts, test.ShouldHaveLength, 6)
	test.That(t, parts[2], test.ShouldEqual, "solver")
	test.That(t, parts[4], test.ShouldEqual, "chain finished")

	fields := map[string]any{}
	test.That(t, json.Unmarshal([]byte(parts[5]), &fields), test.ShouldBeNil)
	test.That(t, fields["chain"], test.ShouldEqual, 2.0)
	test.That(t, fields["summary"], test.ShouldResemble, map[string]any{"Cost": 0.5, "Hops": 100.0})
	test.That(t, fields["dangling"], test.ShouldEqual, "unpaired log key")
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger("lvl", WARN)
	logger.Debug("dropped")
	logger.Info("dropped")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.Error("kept")
	parts := readLogLine(t, buf)
	test.That(t, parts[1], test.ShouldEqual, "ERROR")

	logger.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	logger.Debug("now kept")
	parts = readLogLine(t, buf)
	test.That(t, parts[len(parts)-1], test.ShouldEqual, "now kept")
}

func TestSublogger(t *testing.T) {
	logger, buf := newBufferLogger("registration", INFO)
	sub := logger.Sublogger("chain")
	sub.Info("hop")
	parts := readLogLine(t, buf)
	test.That(t, parts[2], test.ShouldEqual, "registration.chain")

	// Sublogger levels are independent of the parent after creation.
	sub.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, INFO)
}

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Warnw("underdetermined", "pairs", 1)
	logger.Info("done")

	test.That(t, logs.FilterLevelExact(zapcore.WarnLevel).Len(), test.ShouldEqual, 1)
	entry := logs.FilterMessage("underdetermined").All()[0]
	test.That(t, entry.ContextMap()["pairs"], test.ShouldEqual, int64(1))
	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestLevelStrings(t *testing.T) {
	for _, level := range []Level{DEBUG, INFO, WARN, ERROR} {
		parsed, err := LevelFromString(strings.ToUpper(level.String()))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, level)

		encoded, err := json.Marshal(level)
		test.That(t, err, test.ShouldBeNil)
		var decoded Level
		test.That(t, json.Unmarshal(encoded, &decoded), test.ShouldBeNil)
		test.That(t, decoded, test.ShouldEqual, level)
	}

	_, err := LevelFromString("verbose")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, WARN.AsZap(), test.ShouldEqual, zapcore.WarnLevel)
}
