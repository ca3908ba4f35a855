package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping defines how search documents are analyzed. Title and
// overview go through the English analyzer so stemmed words match, while id,
// kind, imdb_id and genres use the keyword analyzer so filters and facets
// compare whole values ("science-fiction" stays one term). Everything except
// the overview is stored for result rendering, and term vectors on the title
// feed highlighting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	doc := bleve.NewDocumentMapping()

	title := englishField()
	title.IncludeTermVectors = true
	doc.AddFieldMappingsAt("title", title)

	overview := englishField()
	overview.Store = false
	doc.AddFieldMappingsAt("overview", overview)

	for _, field := range []string{"id", "kind", "imdb_id", "genres"} {
		doc.AddFieldMappingsAt(field, keywordField())
	}

	indexMapping.AddDocumentMapping("_default", doc)
	return indexMapping
}

func englishField() *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = en.AnalyzerName
	fm.Store = true
	return fm
}

func keywordField() *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = keyword.Name
	fm.Store = true
	return fm
}
