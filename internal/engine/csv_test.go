package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func mergeCSVText(t *testing.T, chunks ...string) string {
	t.Helper()
	buf, out := sinkWriter()
	require.NoError(t, MergeCSV(context.Background(), textOpeners(chunks...), out))
	return buf.String()
}

func TestMergeCSVDedupHeader(t *testing.T) {
	got := mergeCSVText(t, "a,b\n1,2\n3,4\n", "a,b\n5,6\n")
	require.Equal(t, "a,b\n1,2\n3,4\n5,6\n", got)
}

func TestMergeCSVDifferingHeadersPassThrough(t *testing.T) {
	// exact-match dedup only: a differing header is ordinary data
	got := mergeCSVText(t, "a,b\n1,2\n", "c,d\n3,4\n")
	require.Equal(t, "a,b\n1,2\nc,d\n3,4\n", got)
}

func TestMergeCSVNormalizesTerminators(t *testing.T) {
	got := mergeCSVText(t, "a,b\r\n1,2\r\n", "a,b\r\n3,4")
	require.Equal(t, "a,b\n1,2\n3,4\n", got)
}

func TestMergeCSVEmptyInputsContributeNothing(t *testing.T) {
	got := mergeCSVText(t, "", "a,b\n1,2\n", "", "a,b\n3,4\n")
	require.Equal(t, "a,b\n1,2\n3,4\n", got)
}

func TestMergeCSVSingleInputNoTrailingNewline(t *testing.T) {
	got := mergeCSVText(t, "a,b\n1,2")
	require.Equal(t, "a,b\n1,2\n", got)
}

func TestMergeCSVHeaderFromFirstContributingInput(t *testing.T) {
	// an all-blank first input does not pin an empty header
	got := mergeCSVText(t, "\n\n", "a,b\n1,2\n", "a,b\n3,4\n")
	require.Equal(t, "a,b\n1,2\n3,4\n", got)
}

func TestMergeCSVInteriorBlankLinesKept(t *testing.T) {
	got := mergeCSVText(t, "a,b\n1,2\n\n3,4\n")
	require.Equal(t, "a,b\n1,2\n\n3,4\n", got)
}

func TestMergeCSVCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, out := sinkWriter()
	err := MergeCSV(ctx, textOpeners("a,b\n1,2\n"), out)
	require.ErrorIs(t, err, context.Canceled)
}
