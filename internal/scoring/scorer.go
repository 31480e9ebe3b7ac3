// Package scoring rates how relevant a document is to a keyword set.
//
// The score is term-frequency based: each keyword contributes the share of
// document tokens it accounts for, weighted up for multi-word phrases, and the
// sum is scaled and clamped into [0,1]. The scale factor and clamp are tuned
// against stored minMatchScore thresholds and must not change.
package scoring

// Calibration constants. Crawler thresholds are expressed on this scale.
const (
	scaleFactor         = 6.0
	phraseWeightTokens  = 3.0
	maxPhraseWeightGain = 1.0
)

// Counter counts scoring calls. prometheus.Counter satisfies it.
type Counter interface {
	Inc()
}

// Result is a score plus the keywords that occurred in the document.
type Result struct {
	Score   float64
	Matched []string
}

// Scorer computes relevance scores. It holds no state between calls beyond
// the optional call counter, and is safe for concurrent use if the counter is.
type Scorer struct {
	calls Counter
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithCallCounter makes the Scorer increment c once per evaluation.
func WithCallCounter(c Counter) Option {
	return func(s *Scorer) {
		s.calls = c
	}
}

// New returns a Scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the relevance of the document to keywords in [0,1].
func (s *Scorer) Score(title, summary, content string, keywords []string) float64 {
	return s.Evaluate(title, summary, content, keywords).Score
}

// Evaluate scores the document and reports which keywords matched. Empty text
// or an empty keyword list scores 0; it never fails.
func (s *Scorer) Evaluate(title, summary, content string, keywords []string) Result {
	if s.calls != nil {
		s.calls.Inc()
	}

	if len(keywords) == 0 {
		return Result{}
	}

	tokens := Tokenize(title + " " + summary + " " + content)
	if len(tokens) == 0 {
		return Result{}
	}

	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	total := float64(len(tokens))

	var sum float64
	var matched []string
	for _, keyword := range keywords {
		kwTokens := Tokenize(keyword)
		if len(kwTokens) == 0 {
			continue
		}

		occurrences := 0
		for _, t := range kwTokens {
			occurrences += freq[t]
		}
		if occurrences == 0 {
			continue
		}

		weight := 1 + min(maxPhraseWeightGain, float64(len(kwTokens))/phraseWeightTokens)
		sum += float64(occurrences) / total * weight
		matched = append(matched, keyword)
	}

	return Result{Score: min(1, sum*scaleFactor), Matched: matched}
}

// Score is Scorer.Score without a call counter.
func Score(title, summary, content string, keywords []string) float64 {
	return New().Score(title, summary, content, keywords)
}
