package classifier

import (
	"math"
	"sort"
	"strings"

	"github.com/paidsearchlab/searchintent/internal/domain"
)

// Propagation thresholds. Bigram patterns are the most specific and are
// checked first; word patterns second; TF-IDF nearest neighbors last.
const (
	bigramMinOccurrences = 2
	bigramMinShare       = 0.8
	wordMinOccurrences   = 3
	wordMinShare         = 0.7
	wordMinScore         = 0.7
	knnNeighbors         = 5
	knnMinSimilarity     = 0.4

	// propagationDeflation scales a propagated confidence down relative to
	// the method it was learned from.
	propagationDeflation = 0.85
)

// TrainingPair is one (term, category) example the propagator learns from:
// this run's LLM answers plus signal-matched terms.
type TrainingPair struct {
	Term     string
	Category domain.IntentCategory
}

type patternStat struct {
	counts map[domain.IntentCategory]int
	total  int
}

func (p *patternStat) add(cat domain.IntentCategory) {
	if p.counts == nil {
		p.counts = make(map[domain.IntentCategory]int)
	}
	p.counts[cat]++
	p.total++
}

// majority returns the dominant category and its share of occurrences.
func (p *patternStat) majority() (domain.IntentCategory, float64) {
	var bestCat domain.IntentCategory
	best := 0
	for cat, n := range p.counts {
		if n > best || (n == best && cat < bestCat) {
			best = n
			bestCat = cat
		}
	}
	if p.total == 0 {
		return bestCat, 0
	}
	return bestCat, float64(best) / float64(p.total)
}

type trainingDoc struct {
	category domain.IntentCategory
	vector   map[string]float64
	norm     float64
}

// Propagator spreads categories learned from classified terms to terms never
// sent to the LLM. All three internal models are built once from the
// training set and never mutated afterwards.
type Propagator struct {
	bigrams map[string]bigramPattern
	words   map[string]wordPattern
	docs    []trainingDoc
	idf     map[string]float64
}

type bigramPattern struct {
	category domain.IntentCategory
	share    float64
}

type wordPattern struct {
	category domain.IntentCategory
	share    float64
}

// NewPropagator builds the bigram table, the word table, and the TF-IDF
// vector space from the training pairs.
func NewPropagator(pairs []TrainingPair) *Propagator {
	p := &Propagator{
		bigrams: make(map[string]bigramPattern),
		words:   make(map[string]wordPattern),
		idf:     make(map[string]float64),
	}

	bigramStats := make(map[string]*patternStat)
	wordStats := make(map[string]*patternStat)
	df := make(map[string]int)

	for _, pair := range pairs {
		words := strings.Fields(pair.Term)
		for i := 0; i+1 < len(words); i++ {
			key := words[i] + " " + words[i+1]
			s, ok := bigramStats[key]
			if !ok {
				s = &patternStat{}
				bigramStats[key] = s
			}
			s.add(pair.Category)
		}
		seen := make(map[string]bool, len(words))
		for _, w := range words {
			s, ok := wordStats[w]
			if !ok {
				s = &patternStat{}
				wordStats[w] = s
			}
			s.add(pair.Category)
			if !seen[w] {
				seen[w] = true
				df[w]++
			}
		}
	}

	for key, s := range bigramStats {
		if s.total < bigramMinOccurrences {
			continue
		}
		cat, share := s.majority()
		if share >= bigramMinShare {
			p.bigrams[key] = bigramPattern{category: cat, share: share}
		}
	}
	for w, s := range wordStats {
		if s.total < wordMinOccurrences {
			continue
		}
		cat, share := s.majority()
		if share >= wordMinShare {
			p.words[w] = wordPattern{category: cat, share: share}
		}
	}

	n := float64(len(pairs))
	for w, d := range df {
		p.idf[w] = math.Log(n/(1.0+float64(d))) + 1.0
	}
	for _, pair := range pairs {
		vec, norm := p.vectorize(pair.Term)
		if norm == 0 {
			continue
		}
		p.docs = append(p.docs, trainingDoc{category: pair.Category, vector: vec, norm: norm})
	}

	return p
}

// Predict classifies a held-out term, checking bigram patterns, then word
// patterns, then TF-IDF nearest neighbors. Nil means no level matched; the
// caller must default the term explicitly rather than dropping it.
func (p *Propagator) Predict(term string) *domain.Classification {
	if c := p.predictBigram(term); c != nil {
		return c
	}
	if c := p.predictWords(term); c != nil {
		return c
	}
	return p.predictKNN(term)
}

func (p *Propagator) predictBigram(term string) *domain.Classification {
	words := strings.Fields(term)
	var best *bigramPattern
	for i := 0; i+1 < len(words); i++ {
		if bp, ok := p.bigrams[words[i]+" "+words[i+1]]; ok {
			if best == nil || bp.share > best.share {
				cp := bp
				best = &cp
			}
		}
	}
	if best == nil {
		return nil
	}
	return &domain.Classification{
		Category:   best.category,
		Confidence: best.share * propagationDeflation,
		Method:     domain.MethodPropagated,
	}
}

func (p *Propagator) predictWords(term string) *domain.Classification {
	words := strings.Fields(term)
	if len(words) == 0 {
		return nil
	}
	scores := make(map[domain.IntentCategory]float64)
	for _, w := range words {
		if wp, ok := p.words[w]; ok {
			scores[wp.category] += wp.share
		}
	}
	if len(scores) == 0 {
		return nil
	}
	var bestCat domain.IntentCategory
	best := -1.0
	for cat, s := range scores {
		normalized := s / float64(len(words))
		if normalized > best || (normalized == best && cat < bestCat) {
			best = normalized
			bestCat = cat
		}
	}
	if best < wordMinScore {
		return nil
	}
	return &domain.Classification{
		Category:   bestCat,
		Confidence: best * propagationDeflation,
		Method:     domain.MethodPropagated,
	}
}

func (p *Propagator) predictKNN(term string) *domain.Classification {
	query, qnorm := p.vectorize(term)
	if qnorm == 0 || len(p.docs) == 0 {
		return nil
	}

	type neighbor struct {
		similarity float64
		category   domain.IntentCategory
	}
	neighbors := make([]neighbor, 0, len(p.docs))
	for _, doc := range p.docs {
		sim := cosine(query, qnorm, doc.vector, doc.norm)
		if sim >= knnMinSimilarity {
			neighbors = append(neighbors, neighbor{similarity: sim, category: doc.category})
		}
	}
	if len(neighbors) == 0 {
		return nil
	}

	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].similarity > neighbors[j].similarity
	})
	if len(neighbors) > knnNeighbors {
		neighbors = neighbors[:knnNeighbors]
	}

	votes := make(map[domain.IntentCategory]float64)
	total := 0.0
	for _, nb := range neighbors {
		votes[nb.category] += nb.similarity
		total += nb.similarity
	}
	var bestCat domain.IntentCategory
	best := -1.0
	for cat, v := range votes {
		if v > best || (v == best && cat < bestCat) {
			best = v
			bestCat = cat
		}
	}
	return &domain.Classification{
		Category:   bestCat,
		Confidence: (best / total) * propagationDeflation,
		Method:     domain.MethodPropagated,
	}
}

// vectorize builds the TF-IDF sparse vector for a term and its L2 norm.
// Words outside the training vocabulary contribute nothing.
func (p *Propagator) vectorize(term string) (map[string]float64, float64) {
	words := strings.Fields(term)
	if len(words) == 0 {
		return nil, 0
	}
	tf := make(map[string]float64)
	for _, w := range words {
		tf[w]++
	}
	vec := make(map[string]float64, len(tf))
	sumSq := 0.0
	for w, f := range tf {
		idf, ok := p.idf[w]
		if !ok {
			continue
		}
		weight := (f / float64(len(words))) * idf
		vec[w] = weight
		sumSq += weight * weight
	}
	return vec, math.Sqrt(sumSq)
}

func cosine(a map[string]float64, anorm float64, b map[string]float64, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	dot := 0.0
	for w, av := range a {
		if bv, ok := b[w]; ok {
			dot += av * bv
		}
	}
	return dot / (anorm * bnorm)
}
