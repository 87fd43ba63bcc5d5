// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package cluster

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tomtom215/viewlens/watch"
)

// foldTransformer strips combining marks so accented and unaccented spellings
// of the same term share a vocabulary slot ("café" and "cafe").
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Vector is a sparse, L2-normalized TF-IDF vector over the corpus vocabulary.
// Terms are sorted ascending by vocabulary index, which keeps dot products a
// single merge pass and makes vector construction deterministic.
type Vector struct {
	terms   []int
	weights []float64
}

// IsZero reports whether the vector has no non-zero components. Empty titles
// and titles with no vocabulary overlap produce zero vectors; they are valid
// clustering input and end up as noise.
func (v Vector) IsZero() bool {
	return len(v.terms) == 0
}

// Dot returns the dot product of two vectors.
func (v Vector) Dot(other Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.terms) && j < len(other.terms) {
		switch {
		case v.terms[i] < other.terms[j]:
			i++
		case v.terms[i] > other.terms[j]:
			j++
		default:
			sum += v.weights[i] * other.weights[j]
			i++
			j++
		}
	}
	return sum
}

// CosineSimilarity returns the cosine similarity between two normalized
// vectors. Similarity involving a zero vector is defined as 0, so degenerate
// titles are never spuriously similar to anything.
func CosineSimilarity(a, b Vector) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	return a.Dot(b)
}

// CosineDistance returns 1 - CosineSimilarity(a, b).
func CosineDistance(a, b Vector) float64 {
	return 1 - CosineSimilarity(a, b)
}

// Vectorizer builds TF-IDF vectors from a title corpus.
//
// Tokens are lowercased, diacritic-folded, stripped of punctuation, and
// filtered against the English stop-word list; single-rune tokens are
// dropped. Term weight is tf × idf with the smoothed inverse document
// frequency ln((1+n)/(1+df)) + 1, and each vector is L2-normalized.
type Vectorizer struct {
	vocab map[string]int
	terms []string
	idf   []float64
}

// NewVectorizer creates an untrained vectorizer.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{vocab: make(map[string]int)}
}

// Tokenize normalizes a title into its informative tokens.
func Tokenize(title string) []string {
	folded, _, err := transform.String(foldTransformer, title)
	if err != nil {
		folded = title
	}
	folded = strings.ToLower(folded)

	var tokens []string
	var sb strings.Builder
	flush := func() {
		if sb.Len() == 0 {
			return
		}
		tok := sb.String()
		sb.Reset()
		if len([]rune(tok)) < 2 || isStopword(tok) {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// FitTransform builds the vocabulary from the corpus and returns one vector
// per title, in input order. Vocabulary indices are assigned in first-seen
// order, so the same corpus always produces identical vectors.
//
// It returns an InvalidEntryError only when the entire corpus yields zero
// tokens; individual empty titles simply become zero vectors.
func (v *Vectorizer) FitTransform(titles []string) ([]Vector, error) {
	if len(titles) == 0 {
		return []Vector{}, nil
	}

	tokenized := make([][]string, len(titles))
	totalTokens := 0
	for i, title := range titles {
		tokenized[i] = Tokenize(title)
		totalTokens += len(tokenized[i])
	}
	if totalTokens == 0 {
		return nil, watch.NewInvalidEntry("corpus of %d titles has no informative tokens", len(titles))
	}

	// Vocabulary and document frequencies in first-seen order.
	df := []int{}
	for _, tokens := range tokenized {
		seen := make(map[int]struct{}, len(tokens))
		for _, tok := range tokens {
			idx, ok := v.vocab[tok]
			if !ok {
				idx = len(v.terms)
				v.vocab[tok] = idx
				v.terms = append(v.terms, tok)
				df = append(df, 0)
			}
			if _, dup := seen[idx]; !dup {
				df[idx]++
				seen[idx] = struct{}{}
			}
		}
	}

	n := float64(len(titles))
	v.idf = make([]float64, len(v.terms))
	for i, d := range df {
		v.idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}

	vectors := make([]Vector, len(titles))
	for i, tokens := range tokenized {
		vectors[i] = v.vectorize(tokens)
	}
	return vectors, nil
}

// Transform vectorizes additional titles against the fitted vocabulary.
// Out-of-vocabulary tokens are ignored.
func (v *Vectorizer) Transform(titles []string) []Vector {
	vectors := make([]Vector, len(titles))
	for i, title := range titles {
		vectors[i] = v.vectorize(Tokenize(title))
	}
	return vectors
}

// VocabularySize returns the number of distinct terms seen during fitting.
func (v *Vectorizer) VocabularySize() int {
	return len(v.terms)
}

func (v *Vectorizer) vectorize(tokens []string) Vector {
	if len(tokens) == 0 {
		return Vector{}
	}

	tf := make(map[int]int)
	for _, tok := range tokens {
		if idx, ok := v.vocab[tok]; ok {
			tf[idx]++
		}
	}
	if len(tf) == 0 {
		return Vector{}
	}

	// Sorted index order keeps the sparse representation canonical.
	indices := make([]int, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sortInts(indices)

	vec := Vector{
		terms:   indices,
		weights: make([]float64, len(indices)),
	}
	var sumSq float64
	for i, idx := range indices {
		w := float64(tf[idx]) * v.idf[idx]
		vec.weights[i] = w
		sumSq += w * w
	}
	if sumSq > 0 {
		invNorm := 1 / math.Sqrt(sumSq)
		for i := range vec.weights {
			vec.weights[i] *= invNorm
		}
	}
	return vec
}

func sortInts(s []int) {
	// Insertion sort; sparse title vectors rarely exceed a dozen terms.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
