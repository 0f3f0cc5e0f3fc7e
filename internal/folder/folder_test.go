package folder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		items    []int
		capacity int
		want     [][]int
	}{
		{"empty", nil, 9, [][]int{{}}},
		{"short", []int{1, 2}, 9, [][]int{{1, 2}}},
		{"exact", []int{1, 2, 3, 4}, 4, [][]int{{1, 2, 3, 4}}},
		{"overflow", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"no capacity", []int{1, 2, 3}, 0, [][]int{{1, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(tt.items, tt.capacity)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Paginate(%v, %d) mismatch (-want +got):\n%s", tt.items, tt.capacity, diff)
			}
		})
	}
}

func TestPaginateFlattenRoundTrip(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	got := Flatten(Paginate(items, 3))
	if diff := cmp.Diff(items, got); diff != "" {
		t.Errorf("Flatten(Paginate) mismatch (-want +got):\n%s", diff)
	}
}

func TestAppend(t *testing.T) {
	pages := [][]int{{1, 2}}
	pages = Append(pages, 3, 3)
	if diff := cmp.Diff([][]int{{1, 2, 3}}, pages); diff != "" {
		t.Errorf("Append into short page (-want +got):\n%s", diff)
	}
	pages = Append(pages, 4, 3)
	if diff := cmp.Diff([][]int{{1, 2, 3}, {4}}, pages); diff != "" {
		t.Errorf("Append into full page (-want +got):\n%s", diff)
	}
	if got := Append[int](nil, 7, 3); len(got) != 1 || got[0][0] != 7 {
		t.Errorf("Append(nil, 7) = %v, want [[7]]", got)
	}
}

func TestReorder(t *testing.T) {
	tests := []struct {
		from, to int
		want     []string
	}{
		{0, 2, []string{"b", "c", "a", "d"}},
		{3, 0, []string{"d", "a", "b", "c"}},
		{1, 1, []string{"a", "b", "c", "d"}},
		{1, 99, []string{"a", "c", "d", "b"}},
		{-1, 2, []string{"a", "b", "c", "d"}},
	}
	in := []string{"a", "b", "c", "d"}
	for _, tt := range tests {
		got := Reorder(in, tt.from, tt.to)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Reorder(%d, %d) mismatch (-want +got):\n%s", tt.from, tt.to, diff)
		}
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, in); diff != "" {
		t.Errorf("Reorder modified its input:\n%s", diff)
	}
}

func TestSentinel(t *testing.T) {
	const add = -1
	isAdd := func(v int) bool { return v == add }

	pages := AddSentinel([][]int{{1, 2, 3}}, add, 3)
	if diff := cmp.Diff([][]int{{1, 2, 3}, {add}}, pages); diff != "" {
		t.Errorf("AddSentinel on full page (-want +got):\n%s", diff)
	}
	pages = StripSentinel(pages, 3, isAdd)
	if diff := cmp.Diff([][]int{{1, 2, 3}}, pages); diff != "" {
		t.Errorf("StripSentinel (-want +got):\n%s", diff)
	}
}

func TestCapacity(t *testing.T) {
	if got := Capacity(3, 3); got != 9 {
		t.Errorf("Capacity(3,3) = %d, want 9", got)
	}
	if got := Capacity(0, 3); got != 0 {
		t.Errorf("Capacity(0,3) = %d, want 0", got)
	}
}
