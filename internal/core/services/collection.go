package services

import "github.com/custodia-labs/draftline/internal/core/domain"

// collection is an insertion-ordered annotation index for one category.
type collection[T domain.Annotation] struct {
	order []string
	items map[string]T
}

func newCollection[T domain.Annotation]() *collection[T] {
	return &collection[T]{items: make(map[string]T)}
}

// put stores item. An existing item with the same id is replaced and moves
// to the end.
func (c *collection[T]) put(item T) {
	id := item.AnnotationID()
	if _, ok := c.items[id]; ok {
		c.dropOrder(id)
	}
	c.order = append(c.order, id)
	c.items[id] = item
}

func (c *collection[T]) dropOrder(id string) {
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *collection[T]) clear() {
	c.order = nil
	c.items = make(map[string]T)
}

func (c *collection[T]) len() int {
	return len(c.order)
}

func (c *collection[T]) ids() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// list returns the items in insertion order.
func (c *collection[T]) list() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// annotations returns the items as the Annotation interface.
func (c *collection[T]) annotations() []domain.Annotation {
	out := make([]domain.Annotation, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}
