package content

import (
	"sort"

	"github.com/Bitlatte/shitdocs/internal/model"
)

// SortByOrder sorts items by ascending Order. Items without an order come
// after all ordered ones; ties are broken by slug.
func SortByOrder(items []*model.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.Order != nil && b.Order != nil && *a.Order != *b.Order:
			return *a.Order < *b.Order
		case a.Order != nil && b.Order == nil:
			return true
		case a.Order == nil && b.Order != nil:
			return false
		}
		return a.Slug < b.Slug
	})
}

// GroupByCollection splits items into standalone pages and per-collection
// lists. Each collection list is sorted with SortByOrder.
func GroupByCollection(items []*model.ContentItem) (pages []*model.ContentItem, collections map[string][]*model.ContentItem) {
	collections = make(map[string][]*model.ContentItem)
	for _, item := range items {
		if item.Collection == "" {
			pages = append(pages, item)
			continue
		}
		collections[item.Collection] = append(collections[item.Collection], item)
	}
	for _, list := range collections {
		SortByOrder(list)
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Slug < pages[j].Slug })
	return pages, collections
}
