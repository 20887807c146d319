package types

import "strings"

// SortField names a sortable attribute.
type SortField string

// Sort field constants
const (
	SortFieldTitle    SortField = "title"
	SortFieldPriority SortField = "priority"
	SortFieldSeverity SortField = "severity"
	SortFieldCreated  SortField = "created"
	SortFieldUpdated  SortField = "updated"
)

// SortDirection is ascending or descending.
type SortDirection string

// Sort direction constants
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortOption is one key of a composite sort. The first option is primary;
// later options break ties.
type SortOption struct {
	Field     SortField
	Direction SortDirection
}

// DefaultSortOptions returns the default ordering for list views:
// highest priority first with most recently updated as fallback.
func DefaultSortOptions() []SortOption {
	return []SortOption{
		{Field: SortFieldPriority, Direction: SortDesc},
		{Field: SortFieldUpdated, Direction: SortDesc},
	}
}

// ParseSortOrder converts a comma-delimited string (e.g. "priority-desc,title-asc")
// into a slice of SortOption values. Unrecognised fields or directions are skipped,
// as are repeats of a field already seen.
func ParseSortOrder(raw string) []SortOption {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	options := make([]SortOption, 0, len(parts))
	seen := make(map[SortField]bool)

	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}

		field, dir := splitSortToken(token)
		sortField := mapSortField(field)
		if sortField == "" {
			continue
		}

		direction := mapSortDirection(dir)
		if direction == "" {
			continue
		}

		if seen[sortField] {
			continue
		}
		seen[sortField] = true

		options = append(options, SortOption{
			Field:     sortField,
			Direction: direction,
		})
	}

	return options
}

// EncodeSortOrder converts sort options into their canonical string form.
func EncodeSortOrder(options []SortOption) string {
	if len(options) == 0 {
		return ""
	}

	tokens := make([]string, 0, len(options))
	for _, opt := range options {
		if mapSortField(string(opt.Field)) == "" || mapSortDirection(string(opt.Direction)) == "" {
			continue
		}
		tokens = append(tokens, string(opt.Field)+"-"+string(opt.Direction))
	}
	return strings.Join(tokens, ",")
}

// splitSortToken splits "field-dir" or "field:dir". A bare field sorts ascending.
func splitSortToken(token string) (string, string) {
	token = strings.ToLower(token)
	if idx := strings.LastIndexAny(token, ":-"); idx >= 0 {
		return strings.TrimSpace(token[:idx]), strings.TrimSpace(token[idx+1:])
	}
	return token, "asc"
}

func mapSortField(raw string) SortField {
	switch strings.ToLower(raw) {
	case "title":
		return SortFieldTitle
	case "priority":
		return SortFieldPriority
	case "severity":
		return SortFieldSeverity
	case "created", "created_at", "createdat":
		return SortFieldCreated
	case "updated", "updated_at", "updatedat":
		return SortFieldUpdated
	default:
		return ""
	}
}

func mapSortDirection(raw string) SortDirection {
	switch strings.ToLower(raw) {
	case "asc", "ascending":
		return SortAsc
	case "desc", "descending":
		return SortDesc
	default:
		return ""
	}
}
