package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", VariableKey, "income")
	testLogger.Error("error message", fmt.Errorf("boom"), ErrorTypeKey, "TEST")

	require.NotEmpty(t, buffer.String())
	assert.True(t, testLogger.ContainsMessage("debug message"))
	assert.True(t, testLogger.ContainsMessage("error message"))
	assert.True(t, testLogger.ContainsField("key1", "value1"))
	assert.True(t, testLogger.ContainsField("number", 42.0)) // JSON decoding yields float64
	assert.True(t, testLogger.ContainsField(ErrAttrKey, "boom"))
	assert.Equal(t, 1, testLogger.CountLevel("WARN"))
}

func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	child := testLogger.With(ComponentKey, "preprocessing.Cap", EstimatorIDKey, "cap-001")
	child.Info("contextual message", OperationKey, OperationApply)

	assert.True(t, testLogger.ContainsField(ComponentKey, "preprocessing.Cap"))
	assert.True(t, testLogger.ContainsField(EstimatorIDKey, "cap-001"))
	assert.True(t, testLogger.ContainsField(OperationKey, OperationApply))
}

func TestLevelFiltering(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelWarn)

	testLogger.Debug("hidden")
	testLogger.Info("hidden too")
	testLogger.Warn("visible")

	assert.False(t, testLogger.ContainsMessage("hidden"))
	assert.True(t, testLogger.ContainsMessage("visible"))
	assert.False(t, testLogger.Enabled(context.Background(), LevelInfo))
	assert.True(t, testLogger.Enabled(context.Background(), LevelError))
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProviderWithWriter(&buf, LevelInfo)

	logger := p.GetLoggerWithName("tactic")
	logger.Debug("not emitted")
	logger.Info("stage fitted", StageKey, "Cap", VariablesKey, 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "stage fitted", entry["message"])
	assert.Equal(t, "tactic", entry[ComponentKey])
	assert.Equal(t, "Cap", entry[StageKey])
	assert.Equal(t, 3.0, entry[VariablesKey])

	p.SetLevel(LevelDebug)
	p.GetLogger().Debug("now emitted")
	assert.Contains(t, buf.String(), "now emitted")
}

func TestZerologProviderRoutesWarnings(t *testing.T) {
	var buf bytes.Buffer
	NewZerologProviderWithWriter(&buf, LevelInfo)
	defer errors.SetZerologWarnFunc(nil)

	errors.Warn(errors.NewMissingImputeWarning("income", 2))

	assert.Contains(t, buf.String(), `"variable":"income"`)
	assert.Contains(t, buf.String(), "MissingImputeWarning")
}

func TestZerologErrorField(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProviderWithWriter(&buf, LevelInfo)

	p.GetLogger().Error("apply failed", errors.NewMissingReferenceError("Cap.Apply", "x", "Cap_Value"))

	assert.Contains(t, buf.String(), `"variable":"x"`)
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
	assert.Panics(t, func() { ToLogLevel("loud") })
}

func TestErrFmtHandlerAddsErrorKind(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil)))

	err := errors.Wrap(errors.NewDegenerateStatisticError("Normalize.Apply", "flat", "std == 0"), "apply")
	logger.Error("stage failed", ErrAttr(err))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DegenerateStatisticError", entry[ErrorKindAttrKey])
	assert.Contains(t, entry, ErrAttrKey)

	buf.Reset()
	logger.Info("no error here", "variable", "income")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, buf.String(), ErrorKindAttrKey)
}
