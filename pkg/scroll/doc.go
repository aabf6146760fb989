// Package scroll implements an incremental list: a page cursor, an
// accumulating ordered item list, and a visibility tracker attached to the
// last rendered item.
//
// Every reveal of the last item advances the cursor by one and requests the
// next page. Pages may complete in any order; the controller parks early
// results and appends them strictly in page order. A failed page is logged
// and counts as empty, so it never blocks the pages after it.
//
// Example usage:
//
//	ctrl := scroll.New(scroll.Config[aggregate.Card, string]{
//	    Fetch:    client.FetchPage,
//	    Render:   func(c aggregate.Card) string { return c.Name },
//	    Observer: viewport.Factory(),
//	})
//	ctrl.Start(ctx)
//	defer ctrl.Close()
//
//	for _, w := range ctrl.View().Items {
//	    draw(w.Content)
//	    if w.Ref != nil {
//	        w.Ref(w.Key)
//	    }
//	}
package scroll
