package isis

import "strings"

// FormatDate converts an ISIS compact date to ISO form:
//
//	20200501 -> 2020-05-01
//	20200500, 202005 -> 2020-05
//	20200000, 2020 -> 2020
//
// A value that already contains a dash, or is shorter than a year, is
// returned unchanged.
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) < 4 || strings.Contains(raw, "-") {
		return raw
	}

	year := raw[:4]
	var month, day string
	if len(raw) >= 6 {
		month = raw[4:6]
	}
	if len(raw) >= 8 {
		day = raw[6:8]
	}

	if month == "" || month == "00" {
		return year
	}
	if day == "" || day == "00" {
		return year + "-" + month
	}
	return year + "-" + month + "-" + day
}

var documentTypes = map[string]string{
	"ab": "abstract",
	"an": "announcement",
	"ax": "addendum",
	"co": "article-commentary",
	"cr": "case-report",
	"ed": "editorial",
	"er": "correction",
	"le": "letter",
	"mt": "research-article",
	"nd": "undefined",
	"oa": "research-article",
	"pr": "press-release",
	"ra": "review-article",
	"rc": "book-review",
	"re": "retraction",
	"rn": "brief-report",
	"sc": "rapid-communication",
	"tr": "research-article",
}

// DocumentType maps an ISIS v71 code to its document type name.
func DocumentType(code string) string {
	if t, ok := documentTypes[strings.ToLower(strings.TrimSpace(code))]; ok {
		return t
	}
	return "undefined"
}
