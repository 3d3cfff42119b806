// File path: internal/retriever/retriever.go

// Package retriever ranks dataset metadata documents against a question
// using lexical TF-IDF. The documents are short summaries of the ARGO
// dataset (coverage, ranges, schema notes) that give the language model
// grounding context; there is no vector store behind this.
package retriever

import (
	"math"
	"sort"
	"strings"
	"sync"
)

// Doc is one retrievable context document.
type Doc struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// SearchResult pairs a document with its relevance score.
type SearchResult struct {
	Doc   Doc     `json:"doc"`
	Score float64 `json:"score"`
}

// Retriever holds the TF-IDF index over the current documents. Refresh
// replaces the corpus wholesale; reads and refreshes may interleave.
type Retriever struct {
	mu      sync.RWMutex
	docs    []Doc
	vectors map[string]map[string]float64
	norms   map[string]float64
	df      map[string]int
	total   int
}

// NewRetriever builds a retriever over the initial documents.
func NewRetriever(docs []Doc) *Retriever {
	r := &Retriever{}
	r.Refresh(docs)
	return r
}

// Refresh replaces the indexed corpus.
func (r *Retriever) Refresh(docs []Doc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = docs
	r.vectors = make(map[string]map[string]float64)
	r.norms = make(map[string]float64)
	r.df = make(map[string]int)
	r.total = len(docs)
	for _, doc := range docs {
		tf := make(map[string]float64)
		for _, term := range tokenize(doc.Content) {
			tf[term]++
		}
		for term := range tf {
			r.df[term]++
		}
		r.vectors[doc.ID] = tf
	}
	for id, tf := range r.vectors {
		var norm float64
		for term, freq := range tf {
			weight := r.tfidfWeight(term, freq)
			tf[term] = weight
			norm += weight * weight
		}
		r.norms[id] = math.Sqrt(norm)
	}
}

// Search returns up to limit documents ranked by cosine similarity to the
// query. Documents with no lexical overlap are omitted.
func (r *Retriever) Search(query string, limit int) []SearchResult {
	if limit <= 0 {
		limit = 3
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	qtf := make(map[string]float64)
	for _, term := range terms {
		qtf[term]++
	}
	var qnorm float64
	for term, freq := range qtf {
		weight := r.tfidfWeight(term, freq)
		qtf[term] = weight
		qnorm += weight * weight
	}
	qnorm = math.Sqrt(qnorm)
	if qnorm == 0 {
		return nil
	}
	scores := make([]SearchResult, 0, len(r.docs))
	for _, doc := range r.docs {
		dv := r.vectors[doc.ID]
		if len(dv) == 0 {
			continue
		}
		var dot float64
		for term, weight := range qtf {
			dot += weight * dv[term]
		}
		denom := qnorm * r.norms[doc.ID]
		if denom == 0 {
			continue
		}
		score := dot / denom
		if score <= 0 {
			continue
		}
		scores = append(scores, SearchResult{Doc: doc, Score: score})
	}
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	if len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}

func (r *Retriever) tfidfWeight(term string, freq float64) float64 {
	df := float64(r.df[term])
	if df == 0 {
		return 0
	}
	idf := math.Log((float64(r.total)+1)/(df+1)) + 1
	return freq * idf
}

func tokenize(text string) []string {
	text = strings.ToLower(text)
	replacer := strings.NewReplacer(
		".", " ",
		",", " ",
		"\n", " ",
		"\t", " ",
		":", " ",
		";", " ",
		"-", " ",
		"_", " ",
		"(", " ",
		")", " ",
		"'", " ",
		"\"", " ",
	)
	return strings.Fields(replacer.Replace(text))
}
