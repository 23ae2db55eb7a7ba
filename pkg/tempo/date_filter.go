package tempo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Common date format patterns that we'll try to parse
var commonDateFormats = []string{
	// ISO and RFC formats
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",

	// Common formats
	"01/02/2006",
	"01/02/2006 15:04:05",
	"2006/01/02",
	"02.01.2006",
	"2.1.2006",

	// Other formats
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006",
	"Mon Jan 02 2006",
}

// dateTokenPattern matches candidate tokens in a date format. Runs that match but are not
// in dateTokens (YYY, SS) are kept verbatim.
var dateTokenPattern = regexp.MustCompile(`Y{2,4}|M{1,2}|D{1,2}|H{1,2}|m{1,2}|s{1,2}|S{1,3}|a`)

var dateTokens = map[string]func(t time.Time) string{
	"YYYY": func(t time.Time) string { return strconv.Itoa(t.Year()) },
	"YY":   func(t time.Time) string { return pad(t.Year()%100, 2) },
	"MM":   func(t time.Time) string { return pad(int(t.Month()), 2) },
	"M":    func(t time.Time) string { return strconv.Itoa(int(t.Month())) },
	"DD":   func(t time.Time) string { return pad(t.Day(), 2) },
	"D":    func(t time.Time) string { return strconv.Itoa(t.Day()) },
	"HH":   func(t time.Time) string { return pad(t.Hour(), 2) },
	"H":    func(t time.Time) string { return strconv.Itoa(t.Hour()) },
	"mm":   func(t time.Time) string { return pad(t.Minute(), 2) },
	"m":    func(t time.Time) string { return strconv.Itoa(t.Minute()) },
	"ss":   func(t time.Time) string { return pad(t.Second(), 2) },
	"s":    func(t time.Time) string { return strconv.Itoa(t.Second()) },
	"SSS":  func(t time.Time) string { return pad(t.Nanosecond()/int(time.Millisecond), 3) },
	"S":    func(t time.Time) string { return strconv.Itoa(t.Nanosecond() / int(time.Millisecond)) },
	"a": func(t time.Time) string {
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	},
}

func pad(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

// localeLayouts holds the date and time layouts used by localedate and localetime.
var localeLayouts = map[string][2]string{
	"en": {"1/2/2006", "3:04:05 PM"},
	"de": {"2.1.2006", "15:04:05"},
	"fr": {"02/01/2006", "15:04:05"},
	"es": {"2/1/2006", "15:04:05"},
	"it": {"2/1/2006", "15:04:05"},
}

func registerDateFilter(registry *DefaultFilterRegistry, locale language.Tag, loc *time.Location) {
	base, _ := locale.Base()
	lang := base.String()

	_ = registry.RegisterFilter(NewSimpleFilter("date", func(value interface{}, args []string) (interface{}, error) {
		if value == nil || len(args) != 1 {
			return value, nil
		}
		t, err := parseDate(value, loc)
		if err != nil {
			return value, NewFilterError("date", args, err.Error())
		}
		return FormatDate(t.In(loc), args[0], lang), nil
	}))
}

// FormatDate renders t according to format. The forms localedate, localetime and time are
// rendered for lang; anything else is a token pattern such as "YYYY-MM-DD HH:mm".
func FormatDate(t time.Time, format string, lang string) string {
	layouts, ok := localeLayouts[lang]
	if !ok {
		layouts = [2]string{"2006-01-02", "15:04:05"}
	}

	switch format {
	case "localedate":
		return t.Format(layouts[0])
	case "localetime":
		return t.Format(layouts[1])
	case "time":
		return applyLocaleTranslations(t.Format("Mon Jan 02 2006"), t, lang)
	}

	return dateTokenPattern.ReplaceAllStringFunc(format, func(token string) string {
		if fn, ok := dateTokens[token]; ok {
			return fn(t)
		}
		return token
	})
}

// parseDate reads numbers as epoch milliseconds and strings in any of commonDateFormats.
// Strings without a zone are read in loc.
func parseDate(value interface{}, loc *time.Location) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("cannot parse nil time pointer")
		}
		return *v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, fmt.Errorf("cannot parse empty string as date")
		}
		for _, format := range commonDateFormats {
			if parsed, err := time.ParseInLocation(format, s, loc); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("could not parse date string: %s", s)
	}

	if ms, ok := toFloat64(value); ok {
		return time.UnixMilli(int64(ms)), nil
	}
	return time.Time{}, fmt.Errorf("cannot parse %T as date", value)
}

// applyLocaleTranslations swaps the English short month and weekday names in formatted
// for lang's.
func applyLocaleTranslations(formatted string, t time.Time, lang string) string {
	translations := getDateTranslations(lang)
	if translations == nil {
		return formatted
	}

	words := strings.Fields(formatted)
	for i, w := range words {
		switch w {
		case t.Format("Jan"):
			if tr, ok := translations.monthsShort[w]; ok {
				words[i] = tr
			}
		case t.Format("Mon"):
			if tr, ok := translations.weekdaysShort[w]; ok {
				words[i] = tr
			}
		}
	}
	return strings.Join(words, " ")
}

type dateTranslations struct {
	monthsShort   map[string]string
	weekdaysShort map[string]string
}

func getDateTranslations(lang string) *dateTranslations {
	switch lang {
	case "de":
		return &dateTranslations{
			monthsShort: map[string]string{
				"Jan": "Jan", "Feb": "Feb", "Mar": "Mär",
				"Apr": "Apr", "May": "Mai", "Jun": "Jun",
				"Jul": "Jul", "Aug": "Aug", "Sep": "Sep",
				"Oct": "Okt", "Nov": "Nov", "Dec": "Dez",
			},
			weekdaysShort: map[string]string{
				"Mon": "Mo", "Tue": "Di", "Wed": "Mi",
				"Thu": "Do", "Fri": "Fr", "Sat": "Sa", "Sun": "So",
			},
		}
	case "fr":
		return &dateTranslations{
			monthsShort: map[string]string{
				"Jan": "janv.", "Feb": "févr.", "Mar": "mars",
				"Apr": "avr.", "May": "mai", "Jun": "juin",
				"Jul": "juil.", "Aug": "août", "Sep": "sept.",
				"Oct": "oct.", "Nov": "nov.", "Dec": "déc.",
			},
			weekdaysShort: map[string]string{
				"Mon": "lun.", "Tue": "mar.", "Wed": "mer.",
				"Thu": "jeu.", "Fri": "ven.", "Sat": "sam.", "Sun": "dim.",
			},
		}
	case "es":
		return &dateTranslations{
			monthsShort: map[string]string{
				"Jan": "ene", "Feb": "feb", "Mar": "mar",
				"Apr": "abr", "May": "may", "Jun": "jun",
				"Jul": "jul", "Aug": "ago", "Sep": "sept",
				"Oct": "oct", "Nov": "nov", "Dec": "dic",
			},
			weekdaysShort: map[string]string{
				"Mon": "lun", "Tue": "mar", "Wed": "mié",
				"Thu": "jue", "Fri": "vie", "Sat": "sáb", "Sun": "dom",
			},
		}
	case "it":
		return &dateTranslations{
			monthsShort: map[string]string{
				"Jan": "gen", "Feb": "feb", "Mar": "mar",
				"Apr": "apr", "May": "mag", "Jun": "giu",
				"Jul": "lug", "Aug": "ago", "Sep": "set",
				"Oct": "ott", "Nov": "nov", "Dec": "dic",
			},
			weekdaysShort: map[string]string{
				"Mon": "lun", "Tue": "mar", "Wed": "mer",
				"Thu": "gio", "Fri": "ven", "Sat": "sab", "Sun": "dom",
			},
		}
	default:
		return nil
	}
}
