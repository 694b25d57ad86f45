package table

const (
	// MobileBreakpoint is the first width that counts as a wide viewport.
	MobileBreakpoint = 768
	// DefaultViewportWidth is assumed when the client has not reported a width.
	DefaultViewportWidth = 1280
	// MinVisibleColumns is the floor below which high-priority columns cannot be hidden.
	MinVisibleColumns = 3
)

// Visibility maps a column to whether the renderer includes it.
type Visibility map[ColumnKey]bool

// SeedVisibility returns the default map for a viewport width: every column
// on wide viewports, only high-priority columns below the breakpoint.
func SeedVisibility(width int) Visibility {
	mobile := isMobile(width)
	v := make(Visibility, len(Columns))
	for _, c := range Columns {
		v[c.Key] = !mobile || c.HighPriority
	}
	return v
}

// VisibleCount counts the visible rendered columns.
func (v Visibility) VisibleCount() int {
	n := 0
	for _, c := range Columns {
		if v[c.Key] {
			n++
		}
	}
	return n
}

// Resize records a new viewport width. Crossing the breakpoint reseeds
// visibility from scratch, discarding manual toggles; otherwise nothing
// changes. It reports whether a reseed happened.
func (s *State) Resize(width int) bool {
	if width <= 0 {
		return false
	}
	prev := s.ViewportWidth
	s.ViewportWidth = width
	if prev > 0 && isMobile(prev) == isMobile(width) && s.Visibility != nil {
		return false
	}
	s.Visibility = SeedVisibility(width)
	return true
}

// ToggleColumn flips a column's visibility. A visible high-priority column
// is kept when the visible count is already at the floor.
func (s *State) ToggleColumn(key ColumnKey) bool {
	col, ok := LookupColumn(key)
	if !ok {
		return false
	}
	if s.Visibility == nil {
		s.Visibility = SeedVisibility(s.ViewportWidth)
	}
	visible := s.Visibility[key]
	if visible && col.HighPriority && s.Visibility.VisibleCount() <= MinVisibleColumns {
		return false
	}
	s.Visibility[key] = !visible
	return true
}

// VisibleColumns lists the rendered columns in display order.
func VisibleColumns(v Visibility) []Column {
	out := make([]Column, 0, len(Columns))
	for _, c := range Columns {
		if v[c.Key] {
			out = append(out, c)
		}
	}
	return out
}

func isMobile(width int) bool {
	return width < MobileBreakpoint
}
