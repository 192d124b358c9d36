package mesh

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tm "github.com/gofhir/termsmap"
)

func parseString(t *testing.T, src string, opts ...tm.Option) (*Document, error) {
	t.Helper()
	return Parse(context.Background(), strings.NewReader(src), opts...)
}

func wrap(records string) string {
	return `<?xml version="1.0"?><DescriptorRecordSet>` + records + `</DescriptorRecordSet>`
}

func TestParse_SingleDescriptor(t *testing.T) {
	doc, err := parseString(t, wrap(`
		<DescriptorRecord DescriptorClass="1">
			<DescriptorUI>D000001</DescriptorUI>
			<DescriptorName><String>Test Disease</String></DescriptorName>
		</DescriptorRecord>`))
	require.NoError(t, err)
	defer doc.Close()

	require.Equal(t, 1, doc.Len())
	assert.True(t, doc.Result().Ok())
	assert.Equal(t, []Entry{{
		UID:      "D000001",
		Name:     "Test Disease",
		Kind:     KindDescriptorRecord,
		Category: CategoryDescriptorTopical,
	}}, doc.Lookup("D000001"))
	assert.False(t, doc.Lookup("D000001")[0].HasParent())
}

func TestLoad_Sample(t *testing.T) {
	m := tm.NewMetrics()
	doc, err := Load(context.Background(), nil, filepath.Join("testdata", "desc_sample.xml"),
		tm.WithMetrics(m), tm.WithArenaRegionSize(64))
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 8, doc.Len())
	assert.Equal(t, uint64(8), m.MeshRecords())
	assert.Equal(t, uint64(1), m.DocumentsLoaded())
	assert.Greater(t, doc.ArenaStats().Regions, 1)

	var uids []string
	for e := range doc.Records() {
		uids = append(uids, e.UID)
	}
	assert.Equal(t, []string{
		"D000001", "M0000001", "T000002", "T001124965", "M0353609", "T000001", "Q000008", "D000002",
	}, uids)

	tests := []struct {
		uid  string
		want Entry
	}{
		{"M0000001", Entry{UID: "M0000001", Name: "Calcimycin", ParentUID: "D000001", Kind: KindConcept, Category: CategoryConceptPreferred}},
		{"M0353609", Entry{UID: "M0353609", Name: "A-23187", ParentUID: "D000001", Kind: KindConcept, Category: CategoryConceptNarrower}},
		{"T000002", Entry{UID: "T000002", Name: "Calcimycin", ParentUID: "M0000001", Kind: KindTerm, Category: CategoryTermDescriptorPreferred, Modifier: ModifierNone}},
		{"T001124965", Entry{UID: "T001124965", Name: "A-23187", ParentUID: "M0000001", Kind: KindTerm, Category: CategoryTermSupplementary, Modifier: ModifierLabNumber}},
		{"T000001", Entry{UID: "T000001", Name: "A 23187", ParentUID: "M0353609", Kind: KindTerm, Category: CategoryTermConceptPreferred}},
		{"Q000008", Entry{UID: "Q000008", Name: "administration & dosage", ParentUID: "D000001", Kind: KindQualifier}},
		{"D000002", Entry{UID: "D000002", Name: "Temefos", Kind: KindDescriptorRecord, Category: CategoryDescriptorGeographic}},
	}
	for _, tt := range tests {
		t.Run(tt.uid, func(t *testing.T) {
			got := doc.Lookup(tt.uid)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}

	assert.True(t, doc.HasIdentifier("D000001"))
	assert.False(t, doc.HasIdentifier("D999999"))
}

func TestLoad_Idempotent(t *testing.T) {
	path := filepath.Join("testdata", "desc_sample.xml")
	collect := func() []Entry {
		doc, err := Load(context.Background(), nil, path)
		require.NoError(t, err)
		defer doc.Close()
		// Copy strings out of the arena before Close.
		var out []Entry
		for e := range doc.Records() {
			e.UID = strings.Clone(e.UID)
			e.Name = strings.Clone(e.Name)
			e.ParentUID = strings.Clone(e.ParentUID)
			out = append(out, e)
		}
		return out
	}

	first, second := collect(), collect()
	assert.Equal(t, first, second)
}

func TestParse_DuplicateFirstWins(t *testing.T) {
	doc, err := parseString(t, wrap(`
		<DescriptorRecord DescriptorClass="1">
			<DescriptorUI>D1</DescriptorUI><DescriptorName><String>First</String></DescriptorName>
		</DescriptorRecord>
		<DescriptorRecord DescriptorClass="2">
			<DescriptorUI>D1</DescriptorUI><DescriptorName><String>Second</String></DescriptorName>
		</DescriptorRecord>
		<DescriptorRecord DescriptorClass="1">
			<DescriptorUI>D2</DescriptorUI><DescriptorName><String>Other</String></DescriptorName>
			<ConceptList>
				<Concept PreferredConceptYN="Y"><ConceptUI>M1</ConceptUI><ConceptName><String>Shared</String></ConceptName></Concept>
			</ConceptList>
		</DescriptorRecord>
		<DescriptorRecord DescriptorClass="1">
			<DescriptorUI>D3</DescriptorUI><DescriptorName><String>Another</String></DescriptorName>
			<ConceptList>
				<Concept PreferredConceptYN="N"><ConceptUI>M1</ConceptUI><ConceptName><String>Shared</String></ConceptName></Concept>
			</ConceptList>
		</DescriptorRecord>`))
	require.NoError(t, err)
	defer doc.Close()

	d1 := doc.Lookup("D1")
	require.Len(t, d1, 1)
	assert.Equal(t, "First", d1[0].Name)
	assert.Equal(t, CategoryDescriptorTopical, d1[0].Category)

	m1 := doc.Lookup("M1")
	require.Len(t, m1, 2)
	parents := []string{m1[0].ParentUID, m1[1].ParentUID}
	assert.True(t, slices.Equal(parents, []string{"D2", "D3"}))
}

func TestParse_SkipsUnknownTags(t *testing.T) {
	doc, err := parseString(t, wrap(`
		<SomethingElse/>
		<DescriptorRecord DescriptorClass="3">
			<DescriptorUI>D1</DescriptorUI><DescriptorName><String>Male</String></DescriptorName>
			<ConceptList><Note/></ConceptList>
		</DescriptorRecord>`))
	require.NoError(t, err)
	defer doc.Close()
	assert.Equal(t, 1, doc.Len())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want tm.Status
	}{
		{"empty document", "", tm.StatusRootMissing},
		{"wrong root", `<QualifierRecordSet/>`, tm.StatusRootMissing},
		{"malformed", `<DescriptorRecordSet><DescriptorRecord></DescriptorRecordSet>`, tm.StatusXMLRead},
		{"bad class", wrap(`<DescriptorRecord DescriptorClass="9"><DescriptorUI>D1</DescriptorUI><DescriptorName><String>x</String></DescriptorName></DescriptorRecord>`), tm.StatusInvalidDataType},
		{"missing uid", wrap(`<DescriptorRecord DescriptorClass="1"><DescriptorName><String>x</String></DescriptorName></DescriptorRecord>`), tm.StatusInvalidDataType},
		{"missing name", wrap(`<DescriptorRecord DescriptorClass="1"><DescriptorUI>D1</DescriptorUI></DescriptorRecord>`), tm.StatusInvalidDataType},
		{"empty uid", wrap(`<DescriptorRecord DescriptorClass="1"><DescriptorUI> </DescriptorUI><DescriptorName><String>x</String></DescriptorName></DescriptorRecord>`), tm.StatusEmptyNodeData},
		{"empty name", wrap(`<DescriptorRecord DescriptorClass="1"><DescriptorUI>D1</DescriptorUI><DescriptorName><String></String></DescriptorName></DescriptorRecord>`), tm.StatusEmptyNodeData},
		{"qualifier without wrapper", wrap(`<DescriptorRecord DescriptorClass="1"><DescriptorUI>D1</DescriptorUI><DescriptorName><String>x</String></DescriptorName>
			<AllowableQualifiersList><AllowableQualifier><QualifierUI>Q1</QualifierUI></AllowableQualifier></AllowableQualifiersList></DescriptorRecord>`), tm.StatusNodeMissing},
		{"bad concept flag", wrap(`<DescriptorRecord DescriptorClass="1"><DescriptorUI>D1</DescriptorUI><DescriptorName><String>x</String></DescriptorName>
			<ConceptList><Concept PreferredConceptYN="Q"><ConceptUI>M1</ConceptUI><ConceptName><String>y</String></ConceptName></Concept></ConceptList></DescriptorRecord>`), tm.StatusInvalidDataType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tm.NewMetrics()
			doc, err := parseString(t, tt.src, tm.WithMetrics(m))
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.Equal(t, tt.want, tm.StatusOf(err))
			assert.Equal(t, uint64(1), m.DocumentsFailed())
		})
	}
}

func TestParse_AllocationFailure(t *testing.T) {
	_, err := parseString(t, wrap(`
		<DescriptorRecord DescriptorClass="1">
			<DescriptorUI>D000001</DescriptorUI>
			<DescriptorName><String>`+strings.Repeat("x", 200)+`</String></DescriptorName>
		</DescriptorRecord>`), tm.WithArenaRegionSize(64), tm.WithArenaMaxBytes(128))
	require.Error(t, err)
	assert.Equal(t, tm.StatusAllocation, tm.StatusOf(err))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(context.Background(), nil, filepath.Join(t.TempDir(), "missing.xml"))
	assert.Equal(t, tm.StatusFileNotFound, tm.StatusOf(err))

	_, err = Load(context.Background(), nil, "")
	assert.Equal(t, tm.StatusInvalidArguments, tm.StatusOf(err))
}

func TestDocument_CloseTwice(t *testing.T) {
	doc, err := Load(context.Background(), nil, filepath.Join("testdata", "desc_sample.xml"))
	require.NoError(t, err)
	doc.Close()
	doc.Close()
	assert.Zero(t, doc.Len())

	var nilDoc *Document
	nilDoc.Close()
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindQualifier, KindOf("AllowableQualifier"))
	assert.Equal(t, KindUnknown, KindOf("QualifierReferredTo"))
	assert.Equal(t, "Term", KindTerm.String())
	assert.Equal(t, "TermConceptPreferred", CategoryTermConceptPreferred.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
