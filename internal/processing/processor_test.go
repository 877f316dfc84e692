package processing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erictseng47/Stock/internal/processing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain text untouched", input: "台股收盤上漲", want: "台股收盤上漲"},
		{name: "strips tags", input: "<p>盤後速報</p>", want: "盤後速報"},
		{name: "self closing tag", input: "line one<br/>line two", want: "line oneline two"},
		{name: "decodes entities", input: "AT&amp;T 財報", want: "ATT 財報"},
		{name: "encoded markup", input: "&lt;b&gt;bold&lt;/b&gt;", want: "bold"},
		{name: "keeps cjk punctuation", input: "漲幅 3%，收在 17,000 點。", want: "漲幅 3，收在 17,000 點。"},
		{name: "keeps latin punctuation", input: "Q1 EPS: 2.5, up!", want: "Q1 EPS: 2.5, up!"},
		{name: "drops symbols", input: "營收 +15% (YoY)", want: "營收 15 YoY"},
		{name: "trims whitespace", input: "  <div> 外資買超 </div>  ", want: "外資買超"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.CleanText(tt.input))
		})
	}
}

func TestCleanTextIdempotent(t *testing.T) {
	inputs := []string{
		"<p>盤後速報</p>",
		"<b><i>nested</b></i> tags",
		"<unclosed tag",
		"&amp;lt;doubly encoded&amp;gt;",
		"台積電法說會：資本支出上修，ADR 漲逾 2%！",
	}

	for _, input := range inputs {
		once := processing.CleanText(input)
		require.Equal(t, once, processing.CleanText(once), "input %q", input)
	}
}
