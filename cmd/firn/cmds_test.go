package main

import (
	"bytes"
	"testing"

	"github.com/miretskiy/firn/plan"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInferFormat(t *testing.T) {
	out, err := run(t, "infer-format", "2024-01-01T10:00:00.123", "15 January 2024")
	require.NoError(t, err)
	require.Equal(t, "2024-01-01T10:00:00.123\t%Y-%m-%dT%H:%M:%S.%3f\n15 January 2024\t%d %B %Y\n", out)

	_, err = run(t, "infer-format", "not a date")
	require.Error(t, err)
}

func TestLocalize(t *testing.T) {
	out, err := run(t, "localize", "America/New_York",
		"2024-03-10 01:30:00", "2024-03-10 02:30:00", "2024-11-03 01:30:00", "2024-07-01 12:00:00")
	require.NoError(t, err)

	expected := "input\tAmerica/New_York\tUTC\n" +
		"2024-03-10 01:30:00\t2024-03-10 01:30:00\t2024-03-10 06:30:00\n" +
		"2024-03-10 02:30:00\tnull\tnull\n" +
		"2024-11-03 01:30:00\tnull\tnull\n" +
		"2024-07-01 12:00:00\t2024-07-01 12:00:00\t2024-07-01 16:00:00\n"
	require.Equal(t, expected, out)

	_, err = run(t, "localize", "--ambiguous", "infer", "America/New_York", "2024-01-01")
	require.Error(t, err)
	_, err = run(t, "localize", "Mars/Olympus", "2024-01-01")
	require.Error(t, err)
}

func TestTransitions(t *testing.T) {
	out, err := run(t, "transitions", "America/New_York", "--from", "2024", "--to", "2024")
	require.NoError(t, err)
	require.Equal(t, "2024-03-10T07:00:00Z\t-04:00\n2024-11-03T06:00:00Z\t-05:00\n", out)

	out, err = run(t, "transitions", "UTC")
	require.NoError(t, err)
	require.Equal(t, "initial\t+00:00\n", out)

	out, err = run(t, "transitions", "UTC", "--from", "2024")
	require.NoError(t, err)
	require.Equal(t, "no transitions\n", out)
}

func TestLower(t *testing.T) {
	t.Run("fallback", func(t *testing.T) {
		out, err := run(t, "lower", "--rows", "6", "--max-rows", "2", "--fallback", "silent")
		require.NoError(t, err)
		require.Contains(t, out, "scheduler: synchronous\n")
		require.Contains(t, out,
			"fallback: sort 3: sort does not support multiple partitions (filter-2 has 3 partitions)\n")
		require.Contains(t, out, "(repartition-3, 0) <- [(filter-2, 0), (filter-2, 1), (filter-2, 2)]\n")
		require.Contains(t, out, "(sort-4, 0) <- [(repartition-3, 0)]\n")
		// 02:00 on the spring-forward day has no hour and is filtered out.
		require.Contains(t, out, "shape: (5, 3)")
	})

	t.Run("cluster", func(t *testing.T) {
		out, err := run(t, "lower", "--rows", "4", "--scheduler", "local-cluster")
		require.NoError(t, err)
		require.Contains(t, out, "scheduler: local-cluster\n")
		require.NotContains(t, out, "fallback:")
		require.Contains(t, out, "shape: (3, 3)")
	})

	t.Run("raise", func(t *testing.T) {
		_, err := run(t, "lower", "--max-rows", "3", "--fallback", "raise")
		require.ErrorIs(t, err, plan.ErrNotImplemented)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := run(t, "lower", "--rows", "0")
		require.Error(t, err)
		_, err = run(t, "lower", "--scheduler", "dask")
		require.Error(t, err)
	})
}
