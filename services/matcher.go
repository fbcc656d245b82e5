package services

import "matchmaking-service/models"

// FindOpponent picks the best opponent for current from pool, or nil when
// none qualifies. Candidates sharing the current user's preferred language
// are considered first; when that set is empty the unfiltered pool is only
// used if languageFallback is set.
//
// Selection is a single left-to-right scan minimizing the absolute tier
// progress difference. The best candidate is replaced only on a strict
// improvement, so ties go to the first-scanned entry. Greedy and
// order-dependent; there is no global optimum across simultaneous matches.
func FindOpponent(current models.CandidateEntry, pool []models.CandidateEntry, languageFallback bool) *models.CandidateEntry {
	candidates := make([]models.CandidateEntry, 0, len(pool))
	for _, c := range pool {
		if c.UserID == current.UserID {
			continue
		}
		candidates = append(candidates, c)
	}

	if current.PreferredLanguage != nil {
		sameLanguage := make([]models.CandidateEntry, 0, len(candidates))
		for _, c := range candidates {
			if c.PreferredLanguage != nil && *c.PreferredLanguage == *current.PreferredLanguage {
				sameLanguage = append(sameLanguage, c)
			}
		}
		if len(sameLanguage) > 0 {
			candidates = sameLanguage
		} else if !languageFallback {
			return nil
		}
	}

	var best *models.CandidateEntry
	var bestDiff int64
	for i := range candidates {
		diff := current.TierProgress - candidates[i].TierProgress
		if diff < 0 {
			diff = -diff
		}
		if best == nil || diff < bestDiff {
			best = &candidates[i]
			bestDiff = diff
		}
	}

	return best
}
