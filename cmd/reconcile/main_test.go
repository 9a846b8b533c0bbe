package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/pkg/report"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd(report.NewPrinter(&bytes.Buffer{}))

	names := []string{}
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"pending", "backfill-codes"}, names)
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)
}

func TestRootCommandRejectsArguments(t *testing.T) {
	root := newRootCmd(report.NewPrinter(&bytes.Buffer{}))
	root.SetArgs([]string{"unexpected"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
}
