package catalog

import "math/rand"

// Sample draws up to perCategory questions from each requested category,
// uniformly without replacement, then shuffles the combined sequence so the
// final ordering carries no category signal. A pool smaller than perCategory
// contributes everything it has.
func (c *Catalog) Sample(categories []Category, perCategory int) []Question {
	var picked []Question
	for _, cat := range categories {
		pool := c.byCategory[cat]
		n := perCategory
		if n > len(pool) {
			n = len(pool)
		}
		for _, idx := range rand.Perm(len(pool))[:n] {
			picked = append(picked, pool[idx])
		}
	}
	rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked
}

// SamplePublic is the participant-facing variant of Sample: the drawn
// questions are projected through Public so correct answers and explanations
// never leave the server.
func (c *Catalog) SamplePublic(categories []Category, perCategory int) []PublicQuestion {
	qs := c.Sample(categories, perCategory)
	out := make([]PublicQuestion, len(qs))
	for i, q := range qs {
		out[i] = q.Public()
	}
	return out
}
