package types

import "testing"

func TestParseSortOrder(t *testing.T) {
	opts := ParseSortOrder("updated-desc,title-asc,severity:desc")
	if len(opts) != 3 {
		t.Fatalf("expected 3 options, got %d", len(opts))
	}
	if opts[0].Field != SortFieldUpdated || opts[0].Direction != SortDesc {
		t.Fatalf("unexpected first option %+v", opts[0])
	}
	if opts[1].Field != SortFieldTitle || opts[1].Direction != SortAsc {
		t.Fatalf("unexpected second option %+v", opts[1])
	}
	if opts[2].Field != SortFieldSeverity || opts[2].Direction != SortDesc {
		t.Fatalf("unexpected third option %+v", opts[2])
	}
}

func TestParseSortOrderSkipsInvalid(t *testing.T) {
	opts := ParseSortOrder("unknown-desc,updated-ascending,,title-sideways,priority-desc,updated-desc")
	if len(opts) != 2 {
		t.Fatalf("expected 2 valid options, got %d: %+v", len(opts), opts)
	}
	if opts[0].Field != SortFieldUpdated || opts[0].Direction != SortAsc {
		t.Fatalf("unexpected updated option %+v", opts[0])
	}
	if opts[1].Field != SortFieldPriority || opts[1].Direction != SortDesc {
		t.Fatalf("unexpected priority option %+v", opts[1])
	}
}

func TestParseSortOrderBareField(t *testing.T) {
	opts := ParseSortOrder("created_at")
	if len(opts) != 1 || opts[0].Field != SortFieldCreated || opts[0].Direction != SortAsc {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestEncodeSortOrder(t *testing.T) {
	order := EncodeSortOrder([]SortOption{
		{Field: SortFieldUpdated, Direction: SortDesc},
		{Field: SortFieldTitle, Direction: SortAsc},
		{Field: "bogus", Direction: SortAsc},
	})
	if order != "updated-desc,title-asc" {
		t.Fatalf("unexpected encoded order %q", order)
	}
}

func TestDefaultSortOptions(t *testing.T) {
	defaults := DefaultSortOptions()
	if len(defaults) != 2 {
		t.Fatalf("expected 2 defaults, got %d", len(defaults))
	}
	if defaults[0].Field != SortFieldPriority || defaults[0].Direction != SortDesc {
		t.Fatalf("unexpected primary default %+v", defaults[0])
	}
}
