package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"devfestsched/model"
	"devfestsched/schedule"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixtureConfig saves a lagos schedule to disk and points a config at it
// through the file source, so commands run without network access.
func writeFixtureConfig(t *testing.T) (cfgFile, dir string) {
	t.Helper()
	dir = t.TempDir()
	saved := filepath.Join(dir, "lagos.json")
	require.NoError(t, schedule.SaveJSON(saved, schedule.Build(map[string][]model.RawSession{
		"day1": {
			{Title: "Lunch Break", Time: "1:00 PM - 2:00 PM"},
			{Title: "Opening Keynote", Time: "9:00 AM - 9:45 AM", Room: "Main Auditorium", Speaker: "Ada Obi"},
		},
	})))

	cfgFile = filepath.Join(dir, "devfest.yaml")
	yml := fmt.Sprintf(`events:
  lagos:
    source: file
    url: %q
    date: "2024-11-16"
    timezone: UTC
archive:
  path: %q
output:
  dir: %q
logging:
  level: error
`, saved, filepath.Join(dir, "archive.db"), dir)
	require.NoError(t, os.WriteFile(cfgFile, []byte(yml), 0o644))
	return cfgFile, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DEVFEST_ARCHIVE", "")
	fetchJSON, fetchSave, fetchArchive = false, "", false
	showDetails, exportOutput, historyLimit = false, "", 10

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFetchCommand(t *testing.T) {
	cfgFile, _ := writeFixtureConfig(t)

	out, err := execute(t, "--config", cfgFile, "fetch", "lagos")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Schedule for DevFest Lagos 2024:\n"))
	assert.Less(t, strings.Index(out, "Opening Keynote"), strings.Index(out, "Lunch Break"))

	out, err = execute(t, "--config", cfgFile, "fetch", "lagos", "--json")
	require.NoError(t, err)
	c, err := schedule.UnmarshalJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count())
}

func TestFetchUnknownEvent(t *testing.T) {
	cfgFile, _ := writeFixtureConfig(t)
	_, err := execute(t, "--config", cfgFile, "fetch", "accra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known events")
}

func TestFetchSaveAndArchive(t *testing.T) {
	cfgFile, dir := writeFixtureConfig(t)
	target := filepath.Join(dir, "copy.json")

	out, err := execute(t, "--config", cfgFile, "fetch", "lagos", "--save="+target, "--archive")
	require.NoError(t, err)
	assert.Contains(t, out, "Raw schedule saved to "+target)

	c, err := schedule.LoadJSON(target)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count())

	out, err = execute(t, "--config", cfgFile, "history", "Lagos")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "SNAPSHOT"))
	assert.True(t, strings.HasSuffix(lines[1], "2"))
}

func TestHistoryWithoutSnapshots(t *testing.T) {
	cfgFile, _ := writeFixtureConfig(t)
	out, err := execute(t, "--config", cfgFile, "history", "nairobi")
	require.NoError(t, err)
	assert.Equal(t, "No archived schedules for nairobi.\n", out)
}

func TestExportCommand(t *testing.T) {
	cfgFile, dir := writeFixtureConfig(t)
	target := filepath.Join(dir, "lagos.ics")

	_, err := execute(t, "--config", cfgFile, "export", "lagos", "-o", target)
	require.NoError(t, err)

	f, err := os.Open(target)
	require.NoError(t, err)
	defer f.Close()
	cal, err := ics.ParseCalendar(f)
	require.NoError(t, err)
	require.Len(t, cal.Events(), 2)
	start, err := cal.Events()[0].GetStartAt()
	require.NoError(t, err)
	assert.Equal(t, 9, start.UTC().Hour())
	assert.Equal(t, 16, start.UTC().Day())
}

func TestShowCommand(t *testing.T) {
	cfgFile, _ := writeFixtureConfig(t)
	out, err := execute(t, "--config", cfgFile, "show", "lagos")
	require.NoError(t, err)
	assert.Contains(t, out, "Opening Keynote")
	assert.Contains(t, out, "Ada Obi")
}
