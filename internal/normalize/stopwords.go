// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import "strings"

// stopwords are query tokens that carry no search value on their own:
// Korean particles and generic research nouns, plus their common English
// counterparts. Matching is case-insensitive.
var stopwords = map[string]bool{
	// particles and function words
	"이": true, "가": true, "은": true, "는": true,
	"을": true, "를": true, "의": true, "에": true,
	"에서": true, "으로": true, "로": true, "와": true,
	"과": true, "및": true, "등": true, "또는": true,
	"그리고": true, "대해": true, "대한": true, "위한": true,
	"관한": true, "관련": true,
	// generic research nouns
	"문제": true, "연구": true, "논문": true, "분석": true,
	"방안": true, "현황": true, "사례": true, "고찰": true,
	"탐색": true, "효과": true, "영향": true,
	// English
	"a": true, "an": true, "the": true, "of": true,
	"in": true, "on": true, "for": true, "and": true,
	"or": true, "to": true, "with": true, "about": true,
	"paper": true, "papers": true, "study": true, "studies": true,
	"research": true, "analysis": true, "review": true,
}

func isStopword(token string) bool {
	return stopwords[strings.ToLower(token)]
}
