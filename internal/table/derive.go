package table

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"chanlytics/internal/calls"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Derive computes the displayed rows from the full record list and a view
// state: text filter, then appointment filter, then a stable sort.
// The input slice is never reordered.
func Derive(records []calls.Record, st State, loc *time.Location) []calls.Record {
	if loc == nil {
		loc = time.UTC
	}

	term := strings.ToLower(st.Search)
	allowed := appointmentSet(st.AppointmentFilter)

	out := make([]calls.Record, 0, len(records))
	for _, r := range records {
		if term != "" && !matchesSearch(r, term, loc) {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[r.AppointmentLabel()]; !ok {
				continue
			}
		}
		out = append(out, r)
	}

	if st.SortKey != "" && st.SortKey != ColumnActions && IsSortable(st.SortKey) {
		sortRecords(out, st.SortKey, st.SortDir)
	}
	return out
}

func matchesSearch(r calls.Record, term string, loc *time.Location) bool {
	if strings.Contains(strings.ToLower(r.PhoneNumber), term) {
		return true
	}
	if strings.Contains(strings.ToLower(string(r.CallType)), term) {
		return true
	}
	if r.CallTime.IsZero() {
		return false
	}
	return strings.Contains(strings.ToLower(r.CallTime.In(loc).Format(calls.LayoutLong)), term)
}

func appointmentSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == calls.AppointmentYes || v == calls.AppointmentNo {
			set[v] = struct{}{}
		}
	}
	return set
}

type valueKind int

const (
	kindNull valueKind = iota
	kindNumber
	kindTime
	kindBool
	kindText
)

type value struct {
	kind valueKind
	num  float64
	at   time.Time
	b    bool
	text string
}

func fieldValue(r calls.Record, key ColumnKey) value {
	switch key {
	case ColumnID:
		return textValue(&r.ID)
	case ColumnPhoneNumber:
		return textValue(&r.PhoneNumber)
	case ColumnDuration:
		if r.Duration == nil {
			return value{}
		}
		return value{kind: kindNumber, num: float64(*r.Duration)}
	case ColumnCallType:
		s := string(r.CallType)
		return textValue(&s)
	case ColumnAppointmentBooked:
		return value{kind: kindBool, b: r.AppointmentBooked}
	case ColumnRating:
		return value{kind: kindNumber, num: float64(r.Rating)}
	case ColumnCallTime:
		if r.CallTime.IsZero() {
			return value{}
		}
		return value{kind: kindTime, at: r.CallTime}
	case ColumnTranscript:
		return textValue(r.Transcript)
	case ColumnRecordingURL:
		return textValue(r.RecordingURL)
	}
	return value{}
}

func textValue(s *string) value {
	if s == nil {
		return value{}
	}
	return value{kind: kindText, text: *s}
}

// sortRecords orders rows by key. Null values go last in both directions;
// the direction only flips the comparison of non-null values.
func sortRecords(rows []calls.Record, key ColumnKey, dir SortDirection) {
	coll := collate.New(language.English)
	vals := make([]value, len(rows))
	for i := range rows {
		vals[i] = fieldValue(rows[i], key)
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(i, j int) bool {
		a, b := vals[idx[i]], vals[idx[j]]
		if a.kind == kindNull || b.kind == kindNull {
			return a.kind != kindNull && b.kind == kindNull
		}
		c := compareValues(coll, a, b)
		if dir == SortDesc {
			c = -c
		}
		return c < 0
	})

	sorted := make([]calls.Record, len(rows))
	for i, k := range idx {
		sorted[i] = rows[k]
	}
	copy(rows, sorted)
}

func compareValues(coll *collate.Collator, a, b value) int {
	if a.kind != b.kind {
		return coll.CompareString(a.String(), b.String())
	}
	switch a.kind {
	case kindNumber:
		return cmpFloat(a.num, b.num)
	case kindTime:
		return a.at.Compare(b.at)
	case kindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	default:
		return coll.CompareString(a.text, b.text)
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (v value) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindTime:
		return v.at.Format(time.RFC3339)
	case kindBool:
		if v.b {
			return "true"
		}
		return "false"
	case kindText:
		return v.text
	}
	return ""
}
