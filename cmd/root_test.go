package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	sampleHeader = "Timestamp,Address,ZIP,FullName,FooDuration,BarDuration,TotalDuration,Notes\n"
	sampleGood   = `4/1/11 11:00:00 AM,"123 4th St, Anywhere, AA",1,Monkey Alberto,1:23:32.123,1:32:33.123,zzsasdfa,I am the very model of a modern major general` + "\n"
	sampleBad    = `4/1/11 11:00:00 AM,"123 4th St, Anywhere, AA",94121,Monkey Alberto,1:23:32.123,abc,zzsasdfa,bad bar` + "\n"
	sampleOutput = `2011-04-01T14:00:00-04:00,"123 4th St, Anywhere, AA",00001,MONKEY ALBERTO,5012.123,5553.123,10565.246,I am the very model of a modern major general` + "\n"
)

func TestNormalize_StdinToStdout(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := normalize(context.Background(), runOptions{Input: "-", Output: "-"}, streams{
		In:  strings.NewReader(sampleHeader + sampleBad + sampleGood),
		Out: &stdout,
		Err: &stderr,
	})
	require.NoError(t, err)

	assert.Equal(t, sampleHeader+sampleOutput, stdout.String())
	assert.Equal(t, 1, strings.Count(stderr.String(), "Error transforming line"))
	assert.Contains(t, stderr.String(), "Error transforming line 1: ")
	assert.Contains(t, stderr.String(), "BarDuration")
}

func TestNormalize_Files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	output := filepath.Join(dir, "out", "normalized.csv")
	promFile := filepath.Join(dir, "normalizer.prom")
	require.NoError(t, os.WriteFile(input, []byte(sampleHeader+sampleGood+sampleGood), 0644))

	var stderr bytes.Buffer
	err := normalize(context.Background(), runOptions{
		Input:       input,
		Output:      output,
		MetricsFile: promFile,
	}, streams{Out: &bytes.Buffer{}, Err: &stderr})
	require.NoError(t, err)
	assert.Empty(t, stderr.String())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, sampleHeader+sampleOutput+sampleOutput, string(data))

	prom, err := os.ReadFile(promFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "normalizer_rows_written_total 3")
	assert.Contains(t, string(prom), "normalizer_rows_read_total 3")
}

func TestNormalize_PipeDelimitedConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "normalizer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("csv:\n  delimiter: pipe\n"), 0644))

	in := "A|B|C|D|E|F|G|H\n" +
		"4/1/11 11:00:00 AM|addr|123|dana smith|0:00:01.000|0:00:02.000||x\n"

	var stdout, stderr bytes.Buffer
	err := normalize(context.Background(), runOptions{ConfigFile: cfgPath, Input: "-", Output: "-"}, streams{
		In:  strings.NewReader(in),
		Out: &stdout,
		Err: &stderr,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"A|B|C|D|E|F|G|H\n"+
			"2011-04-01T14:00:00-04:00|addr|00123|DANA SMITH|1|2|3|x\n",
		stdout.String())
}

func TestNormalize_XLSXInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "export.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Timestamp", "Address", "ZIP", "FullName", "FooDuration", "BarDuration", "TotalDuration", "Notes"},
		{"4/1/11 11:00:00 AM", "123 4th St, Anywhere, AA", "1", "Monkey Alberto", "1:23:32.123", "1:32:33.123", "zzsasdfa", "I am the very model of a modern major general"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	var stdout, stderr bytes.Buffer
	err := normalize(context.Background(), runOptions{Input: path, Output: "-"}, streams{
		Out: &stdout,
		Err: &stderr,
	})
	require.NoError(t, err)
	assert.Equal(t, sampleHeader+sampleOutput, stdout.String())
}

func TestNormalize_XLSXDateCell(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "export.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Timestamp", "Address", "ZIP", "FullName", "FooDuration", "BarDuration", "TotalDuration", "Notes"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "B2", &[]interface{}{"123 4th St, Anywhere, AA", "1", "Monkey Alberto", "1:23:32.123", "1:32:33.123", "zzsasdfa", "I am the very model of a modern major general"}))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", time.Date(2011, 4, 1, 11, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	var stdout, stderr bytes.Buffer
	err := normalize(context.Background(), runOptions{Input: path, Output: "-"}, streams{
		Out: &stdout,
		Err: &stderr,
	})
	require.NoError(t, err)
	assert.Empty(t, stderr.String())
	assert.Equal(t, sampleHeader+sampleOutput, stdout.String())
}

func TestNormalize_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	output := filepath.Join(t.TempDir(), "out.csv")
	err := normalize(ctx, runOptions{Input: "-", Output: output}, streams{
		In:  strings.NewReader(sampleHeader + sampleGood),
		Err: &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no partial output file")
}

func TestNormalize_BadConfig(t *testing.T) {
	t.Parallel()

	err := normalize(context.Background(), runOptions{
		ConfigFile: filepath.Join(t.TempDir(), "missing.yaml"),
	}, streams{In: strings.NewReader(""), Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestNormalize_MissingInput(t *testing.T) {
	t.Parallel()

	err := normalize(context.Background(), runOptions{
		Input:  filepath.Join(t.TempDir(), "missing.csv"),
		Output: "-",
	}, streams{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, validateConfig("", &out))
	assert.Contains(t, out.String(), "Configuration OK: (defaults)")
	assert.Contains(t, out.String(), "6 TotalDuration")

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("csv:\n  encoding: klingon\n"), 0644))

	err := validateConfig(bad, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "klingon")
}
