package services

import (
	"gamerit/domain/entities"
)

// SelectContentPair picks the first two candidates by different authors that
// were not used recently. Candidates are expected in ranking order.
func SelectContentPair(candidates []*entities.ContentItem, recent []string) (*entities.ContentItem, *entities.ContentItem, bool) {
	used := toSet(recent)
	var first *entities.ContentItem
	for _, item := range candidates {
		if item == nil || used[item.ID] {
			continue
		}
		if first == nil {
			first = item
			continue
		}
		if item.ID != first.ID && item.Author != first.Author {
			return first, item, true
		}
	}
	return nil, nil, false
}

// SelectHotPotatoCandidate picks the most controversial candidate not used recently
func SelectHotPotatoCandidate(candidates []*entities.ContentItem, recent []string) (*entities.ContentItem, bool) {
	used := toSet(recent)
	var best *entities.ContentItem
	for _, item := range candidates {
		if item == nil || used[item.ID] {
			continue
		}
		if best == nil || item.ControversyScore().GreaterThan(best.ControversyScore()) {
			best = item
		}
	}
	return best, best != nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
