package nonsense

// NGrams returns every contiguous n-length window of the normalized text in
// left-to-right order. A text shorter than n yields an empty slice.
func NGrams(text string, n int) []string {
	if n <= 0 || len(text) < n {
		return nil
	}
	grams := make([]string, 0, len(text)-n+1)
	for i := 0; i+n <= len(text); i++ {
		grams = append(grams, text[i:i+n])
	}
	return grams
}

// NGramCounts collapses the window sequence into per-ngram occurrence counts
// within the one input text. This is the aggregation unit the scorer
// consumes.
func NGramCounts(text string, n int) map[string]int {
	counts := make(map[string]int)
	if n <= 0 {
		return counts
	}
	for i := 0; i+n <= len(text); i++ {
		counts[text[i:i+n]]++
	}
	return counts
}
