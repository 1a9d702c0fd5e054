package core_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"chvcore/internal/core"
	"chvcore/pkg/domain"
)

func TestParseExportFormat(t *testing.T) {
	cases := map[string]core.ExportFormat{
		"":      core.FormatJSON,
		"json":  core.FormatJSON,
		" CSV ": core.FormatCSV,
		"xlsx":  core.FormatXLSX,
	}
	for in, want := range cases {
		got, err := core.ParseExportFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := core.ParseExportFormat("pdf")
	require.Error(t, err)
	assert.Equal(t, "text/csv", core.FormatCSV.ContentType())
	assert.Equal(t, "xlsx", core.FormatXLSX.Extension())
}

func exportFixture(t *testing.T) *core.Service {
	t.Helper()
	svc := newTestService(t)
	seedService(t, svc)
	other := householdInput("Someone Else")
	_, err := svc.AddHousehold(context.Background(), other, "chv-2")
	require.NoError(t, err)
	_, _, err = svc.ReportHazard(context.Background(), core.HazardInput{Type: domain.HazardFire, Severity: domain.HazardLow}, "chv-2")
	require.NoError(t, err)
	return svc
}

func TestExportJSONContainsOnlyWorkerRecords(t *testing.T) {
	svc := exportFixture(t)

	out, err := svc.ExportData("chv-1", core.FormatJSON)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, []byte("\n  \"households\"")), "json should be indented")

	var data core.WorkerExport
	require.NoError(t, json.Unmarshal(out, &data))
	assert.Equal(t, "chv-1", data.ExportedBy)
	assert.False(t, data.ExportedAt.IsZero())
	assert.Len(t, data.Households, 1)
	assert.Len(t, data.Mothers, 1)
	assert.Len(t, data.Children, 1)
	assert.Len(t, data.Hazards, 1)
	assert.Len(t, data.DiseaseCases, 1)
}

func TestExportCSVRows(t *testing.T) {
	svc := exportFixture(t)

	out, err := svc.ExportData("chv-1", core.FormatCSV)
	require.NoError(t, err)
	lines := strings.Split(string(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Type,ID,Name,Status,Date", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Household,KE-13-KE-13-09-0001,Achieng Otieno,active,2024-06-01T08:00:00.000Z"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Mother,KE-13-KE-13-09-M-0001,Achieng,"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "Child,KE-13-KE-13-09-C-0001,Baraka,"), lines[3])
}

func TestExportCSVForUnknownWorkerHasOnlyHeader(t *testing.T) {
	svc := exportFixture(t)
	out, err := svc.ExportData("nobody", core.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "Type,ID,Name,Status,Date", string(out))
}

func TestExportXLSXSheets(t *testing.T) {
	svc := exportFixture(t)

	out, err := svc.ExportData("chv-1", core.FormatXLSX)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Households", "Mothers", "Children"}, f.GetSheetList())
	rows, err := f.GetRows("Households")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Type", "ID", "Name", "Status", "Date"}, rows[0])
	assert.Equal(t, "KE-13-KE-13-09-0001", rows[1][1])

	rows, err = f.GetRows("Children")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Baraka", rows[1][2])
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ExportData("chv-1", core.ExportFormat("pdf"))
	require.Error(t, err)
}
