package pipeline

// Balance selects exactly min(n, len(candidates)) candidates
// approximating the 30/40/30 easy/medium/hard target. Integer quotas
// are reconciled so they sum to n, with the remainder distributed to
// medium first, then easy, then hard. Buckets are filled in original
// order and never shuffled; when a bucket is under-supplied the
// shortfall is backfilled from leftover candidates across all buckets,
// again in original order, so output is deterministic for a given
// input ordering.
func Balance(candidates []Candidate, n int) []Candidate {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}
	if n > len(candidates) {
		n = len(candidates)
	}

	quotas := difficultyQuotas(n)

	taken := make([]bool, len(candidates))
	selected := make([]Candidate, 0, n)
	counts := map[string]int{}
	for i, c := range candidates {
		if counts[c.Difficulty] >= quotas[c.Difficulty] {
			continue
		}
		counts[c.Difficulty]++
		taken[i] = true
		selected = append(selected, c)
	}

	// Backfill under-supplied quotas from whatever is left.
	for i, c := range candidates {
		if len(selected) >= n {
			break
		}
		if taken[i] {
			continue
		}
		taken[i] = true
		selected = append(selected, c)
	}

	if len(selected) > n {
		selected = selected[:n]
	}
	return selected
}

// difficultyQuotas converts the target ratio into integer quotas that
// sum exactly to n. Rounding drift is corrected one unit at a time
// cycling medium, easy, hard.
func difficultyQuotas(n int) map[string]int {
	quotas := map[string]int{
		DifficultyEasy:   int(float64(n)*easyRatio + 0.5),
		DifficultyMedium: int(float64(n)*mediumRatio + 0.5),
		DifficultyHard:   int(float64(n)*hardRatio + 0.5),
	}

	order := []string{DifficultyMedium, DifficultyEasy, DifficultyHard}
	diff := n - (quotas[DifficultyEasy] + quotas[DifficultyMedium] + quotas[DifficultyHard])
	for i := 0; diff != 0; i++ {
		key := order[i%len(order)]
		if diff > 0 {
			quotas[key]++
			diff--
		} else {
			if quotas[key] == 0 {
				continue
			}
			quotas[key]--
			diff++
		}
	}
	return quotas
}
