package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vegcafe/cafe-voice-backend/internal/models"
	"github.com/vegcafe/cafe-voice-backend/internal/storage"
)

// maxMenuContextItems caps how many menu lines go into the prompt. Past this
// the keyword relevance filter trims the list to what matches the utterance.
const maxMenuContextItems = 40

// MenuService renders menu context for the LLM prompt
type MenuService struct {
	store storage.Store
}

// NewMenuService creates the menu context provider
func NewMenuService(store storage.Store) *MenuService {
	return &MenuService{store: store}
}

// BuildContext returns the menu text block passed to the model. For large
// menus only the items most relevant to the user's utterance are included.
func (s *MenuService) BuildContext(userInput string) (string, error) {
	items, err := s.store.GetAvailableMenuItems()
	if err != nil {
		return "", fmt.Errorf("%w: loading menu: %v", ErrPersistence, err)
	}
	if len(items) > maxMenuContextItems {
		items = RelevantItems(items, userInput, maxMenuContextItems)
	}
	return RenderMenuContext(items), nil
}

// RenderMenuContext formats items the way the model expects them
func RenderMenuContext(items []*models.MenuItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		price := strconv.FormatFloat(item.Price, 'f', -1, 64)
		lines = append(lines, fmt.Sprintf("- %s (%s): Rs.%s", item.NameEn, item.NameHi, price))
	}
	return strings.Join(lines, "\n")
}

// RelevantItems scores items by keyword overlap with the query and returns
// the top-k. A stand-in for the offline embedding index, which is built and
// served outside this process.
func RelevantItems(items []*models.MenuItem, query string, topK int) []*models.MenuItem {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 || topK <= 0 {
		if topK > 0 && len(items) > topK {
			return items[:topK]
		}
		return items
	}

	type scored struct {
		item  *models.MenuItem
		score int
		pos   int
	}
	ranked := make([]scored, 0, len(items))
	for i, item := range items {
		haystack := strings.ToLower(strings.Join([]string{
			item.NameEn, item.NameHi, item.Description, item.DietaryTags, item.Category,
		}, " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				score++
			}
		}
		ranked = append(ranked, scored{item: item, score: score, pos: i})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].pos < ranked[j].pos
	})

	if topK > len(ranked) {
		topK = len(ranked)
	}
	result := make([]*models.MenuItem, 0, topK)
	for _, r := range ranked[:topK] {
		result = append(result, r.item)
	}
	return result
}
