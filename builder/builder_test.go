package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tm "github.com/gofhir/termsmap"
)

const meshXML = `<?xml version="1.0"?>
<DescriptorRecordSet>
  <DescriptorRecord DescriptorClass="1">
    <DescriptorUI>D000001</DescriptorUI>
    <DescriptorName><String>Calcimycin</String></DescriptorName>
  </DescriptorRecord>
  <DescriptorRecord DescriptorClass="1">
    <DescriptorUI>D000002</DescriptorUI>
    <DescriptorName><String>Temefos</String></DescriptorName>
  </DescriptorRecord>
</DescriptorRecordSet>`

func conso(cui, sab, code string) string {
	cols := make([]string, 18)
	cols[0], cols[1], cols[11], cols[13], cols[16] = cui, "ENG", sab, code, "N"
	return strings.Join(cols, "|") + "|\n"
}

func write(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func fixture(t *testing.T) (dir, meshPath, xrefA, xrefB string) {
	t.Helper()
	dir = t.TempDir()
	meshPath = write(t, dir, "desc.xml", meshXML)
	xrefA = write(t, dir, "a.RRF",
		conso("C001", "MSH", "D000001")+
			conso("C001", "SNOMEDCT_US", "111111")+
			conso("C002", "MSH", "D999999")+
			conso("C002", "SNOMEDCT_US", "222222"))
	xrefB = write(t, dir, "b.RRF",
		conso("C003", "MSH", "D000002")+
			conso("C003", "SNOMEDCT_US", "333333")+
			conso("C004", "SNOMEDCT_VET", "444444"))
	return dir, meshPath, xrefA, xrefB
}

func TestRun(t *testing.T) {
	_, meshPath, xrefA, xrefB := fixture(t)
	m := tm.NewMetrics()

	summary, err := Run(context.Background(), Request{MeshPath: meshPath, XrefPaths: []string{xrefA, xrefB}},
		tm.WithWorkers(2), tm.WithMetrics(m))
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	require.NotNil(t, summary.Mesh)
	assert.Equal(t, 2, summary.Mesh.Records)
	require.Len(t, summary.Xrefs, 2)

	a := summary.Xrefs[0]
	assert.Equal(t, xrefA, a.Path)
	assert.Equal(t, 2, a.Records)
	assert.Equal(t, 1, a.Pruned)
	assert.Equal(t, uint64(1), a.Rows.Filtered)

	b := summary.Xrefs[1]
	assert.Equal(t, 2, b.Records)
	assert.Zero(t, b.Pruned)

	assert.Equal(t, []string{meshPath + ".out.csv", xrefA + ".out.csv", xrefB + ".out.csv"}, summary.Outputs())

	out, err := os.ReadFile(xrefA + ".out.csv")
	require.NoError(t, err)
	assert.Equal(t, "C001|MSH|D000001\nC001|SNOMEDCT_US|111111\n", string(out))

	out, err = os.ReadFile(meshPath + ".out.csv")
	require.NoError(t, err)
	assert.Equal(t, "D000001|Calcimycin||1|1|0\nD000002|Temefos||1|1|0\n", string(out))

	assert.Equal(t, uint64(3), m.DocumentsLoaded())
	assert.Equal(t, uint64(1), m.GroupsPruned())
}

func TestRun_WithoutMesh(t *testing.T) {
	_, _, xrefA, _ := fixture(t)

	summary, err := Run(context.Background(), Request{XrefPaths: []string{xrefA}})
	require.NoError(t, err)

	assert.Nil(t, summary.Mesh)
	require.Len(t, summary.Xrefs, 1)
	assert.Equal(t, 4, summary.Xrefs[0].Records)
}

func TestRun_FHIR(t *testing.T) {
	dir, meshPath, xrefA, _ := fixture(t)
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0o755))

	summary, err := Run(context.Background(), Request{MeshPath: meshPath, XrefPaths: []string{xrefA}},
		tm.WithFormats(tm.FormatFHIR), tm.WithOutputDir(outDir))
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(outDir, "desc.xml.out.json"),
		filepath.Join(outDir, "a.RRF.out.json"),
	}, summary.Outputs())

	data, err := os.ReadFile(filepath.Join(outDir, "a.RRF.out.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ConceptMap"`)
	assert.Contains(t, string(data), `"Calcimycin"`)
}

func TestRun_Errors(t *testing.T) {
	dir, meshPath, xrefA, _ := fixture(t)
	missing := filepath.Join(dir, "missing.RRF")

	tests := []struct {
		name    string
		req     Request
		want    tm.Status
		wantMsg string
	}{
		{"no xref", Request{MeshPath: meshPath}, tm.StatusInvalidArguments, "expected non-empty xref target"},
		{"empty xref", Request{XrefPaths: []string{""}}, tm.StatusInvalidArguments, "expected non-empty xref target"},
		{"missing mesh", Request{MeshPath: filepath.Join(dir, "nope.xml"), XrefPaths: []string{xrefA}}, tm.StatusFileNotFound, ""},
		{"bad mesh", Request{MeshPath: write(t, dir, "bad.xml", "<Other/>"), XrefPaths: []string{xrefA}}, tm.StatusRootMissing, ""},
		{"missing xref", Request{XrefPaths: []string{xrefA, missing}}, tm.StatusFileNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := Run(context.Background(), tt.req, tm.WithWorkers(1))
			require.Error(t, err)
			require.NotNil(t, summary)
			assert.Equal(t, tt.want, tm.StatusOf(err))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, tm.ResultOf(err).Message)
			}
		})
	}
}

func TestRun_FailFast(t *testing.T) {
	dir, _, xrefA, _ := fixture(t)
	missing := filepath.Join(dir, "missing.RRF")

	summary, err := Run(context.Background(), Request{XrefPaths: []string{missing, xrefA}}, tm.WithWorkers(1))
	require.Error(t, err)
	assert.Empty(t, summary.Xrefs)

	_, statErr := os.Stat(xrefA + ".out.csv")
	assert.True(t, os.IsNotExist(statErr))
}
