package database

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
)

// DateLayout is the ISO date format stored in date columns.
const DateLayout = "2006-01-02"

// ParseDateTime parses s permissively: ISO dates and datetimes, US and
// textual formats, and Excel serial day numbers. Blank, "nan" and "nat"
// report false.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "nat", "none", "null":
		return time.Time{}, false
	}

	if serial, ok := excelSerial(s); ok {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDate returns s as YYYY-MM-DD, or "" when s is blank or cannot be
// parsed. It never fails.
func NormalizeDate(s string) string {
	t, ok := ParseDateTime(s)
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}

// excelSerial recognizes raw numeric date cells such as "45123" or
// "45123.5". Four and eight digit integers are left to dateparse, which
// reads them as a year and as YYYYMMDD.
func excelSerial(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if !strings.Contains(s, ".") && (len(s) == 4 || len(s) == 8) {
		return 0, false
	}
	if f < 1 || f > 2958465 {
		return 0, false
	}
	return f, true
}
