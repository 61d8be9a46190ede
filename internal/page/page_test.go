package page

import (
	"reflect"
	"testing"
)

func TestNew_MiddlePage(t *testing.T) {
	t.Parallel()

	p := New([]int{21, 22, 23}, 47, 2, 20)
	if !p.HasNext {
		t.Error("page 2 of 47/20 should have a next page")
	}
	if !p.HasPrevious {
		t.Error("page 2 should have a previous page")
	}
	if p.Total != 47 || p.Page != 2 || p.PageSize != 20 {
		t.Errorf("unexpected page metadata: %+v", p)
	}
}

func TestNew_LastPartialPage(t *testing.T) {
	t.Parallel()

	// 47 items, page size 20: page 3 holds items 41..47.
	p := New(make([]int, 7), 47, 3, 20)
	if p.HasNext {
		t.Error("page 3 of 47/20 must not have a next page")
	}
	if !p.HasPrevious {
		t.Error("page 3 must have a previous page")
	}
}

func TestNew_NilItemsBecomeEmpty(t *testing.T) {
	t.Parallel()

	p := New[string](nil, 0, 1, 10)
	if p.Items == nil {
		t.Error("nil items must normalize to an empty slice")
	}
	if p.HasNext || p.HasPrevious {
		t.Errorf("empty result set has no neighbors: %+v", p)
	}
}

func TestWindow_SlicesMaterializedList(t *testing.T) {
	t.Parallel()

	all := []int{1, 2, 3, 4, 5, 6, 7}

	p := Window(all, 2, 3)
	if want := []int{4, 5, 6}; !reflect.DeepEqual(p.Items, want) {
		t.Errorf("page 2 items: got %v, want %v", p.Items, want)
	}
	if p.Total != 7 || !p.HasNext || !p.HasPrevious {
		t.Errorf("unexpected metadata: %+v", p)
	}
}

func TestWindow_BeyondLastPage(t *testing.T) {
	t.Parallel()

	p := Window([]int{1, 2, 3}, 5, 2)
	if len(p.Items) != 0 {
		t.Errorf("page beyond the end: got %v, want empty", p.Items)
	}
	if p.Total != 3 {
		t.Errorf("total: got %d, want 3", p.Total)
	}
	if p.HasNext {
		t.Error("page beyond the end must not report a next page")
	}
}

func TestWindow_ZeroPageClampsToFirst(t *testing.T) {
	t.Parallel()

	p := Window([]int{1, 2, 3}, 0, 2)
	if want := []int{1, 2}; !reflect.DeepEqual(p.Items, want) {
		t.Errorf("got %v, want %v", p.Items, want)
	}
	if p.Page != 1 {
		t.Errorf("page: got %d, want 1", p.Page)
	}
}
