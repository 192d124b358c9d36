// Package export writes loaded documents to their output formats.
//
// The CSV format is one pipe-delimited line per record:
//
//	MeSH: uid|name|parent_uid|type|category|modifier   (enums as ordinals)
//	xref: uid|source|target
//
// The FHIR format renders MeSH as an R4 CodeSystem and the surviving
// cross-references as an R4 ConceptMap. Exported JSON can be queried with
// an Evaluator.
package export
