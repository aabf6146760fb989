package scroll_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sternrassler/pokegrid/pkg/scroll"
	"github.com/Sternrassler/pokegrid/pkg/visibility"
)

func Example() {
	names := map[int][]string{
		1: {"bulbasaur", "ivysaur"},
		2: {"venusaur", "charmander"},
	}

	// One row per item, three rows visible.
	vp := visibility.NewViewport(0, 3)
	ctrl := scroll.New(scroll.Config[string, string]{
		Fetch: func(_ context.Context, page int) ([]string, error) {
			return names[page], nil
		},
		Render:     strings.ToUpper,
		Visibility: visibility.Config{UnobserveWhenVisible: true},
		Observer:   vp.Factory(),
	})
	defer ctrl.Close()

	ctrl.Start(context.Background())
	ctrl.Wait()

	layout := func() {
		items := ctrl.View().Items
		for _, w := range items {
			vp.SetBounds(w.Key, visibility.Rect{Top: w.Key, Height: 1})
		}
		last := items[len(items)-1]
		last.Ref(last.Key)
	}

	// The second row is visible, so laying it out reveals it.
	layout()
	ctrl.Wait()
	fmt.Println(ctrl.Cursor(), ctrl.Items())

	var rendered []string
	for _, w := range ctrl.View().Items {
		rendered = append(rendered, w.Content)
	}
	fmt.Println(strings.Join(rendered, " "))
	// Output:
	// 2 [bulbasaur ivysaur venusaur charmander]
	// BULBASAUR IVYSAUR VENUSAUR CHARMANDER
}
