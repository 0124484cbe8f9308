package collect

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// escapedSlash is the JSON unicode escape for "/", spelled out to keep it literal.
var escapedSlash = "\\" + "u002F"

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "quoted json array",
			text: `"/assets/img/a.png","/imager/x/b.jpg"`,
			want: []string{"/assets/img/a.png", "/imager/x/b.jpg"},
		},
		{
			name: "duplicates are kept",
			text: `{src:"/assets/a.png"},{src:"/assets/a.png"}`,
			want: []string{"/assets/a.png", "/assets/a.png"},
		},
		{
			name: "unicode escaped separators",
			text: `"` + escapedSlash + "assets" + escapedSlash + `img` + escapedSlash + `a.png"`,
			want: []string{"/assets/img/a.png"},
		},
		{
			name: "backslash escaped separators",
			text: `"\/imager\/w_200\/photo.jpg"`,
			want: []string{"/imager/w_200/photo.jpg"},
		},
		{
			name: "escaped quote inside a JSON string",
			text: `"{\"src\":\"/assets/hero.webp\"}"`,
			want: []string{"/assets/hero.webp"},
		},
		{
			name: "commas are stripped",
			text: `"/assets/a,b.png"`,
			want: []string{"/assets/ab.png"},
		},
		{
			name: "query strings are part of the reference",
			text: `"/imager/x.jpg?w=300&h=200"`,
			want: []string{"/imager/x.jpg?w=300&h=200"},
		},
		{
			name: "other roots are ignored",
			text: `"/static/a.png","/_nuxt/entry.js","/assetsx/b.png"`,
			want: nil,
		},
		{
			name: "unterminated candidate is dropped",
			text: `"/assets/ok.png","/assets/broken.png`,
			want: []string{"/assets/ok.png"},
		},
		{
			name: "candidate spanning lines is dropped",
			text: "src=/assets/a.png\nalt=\"x\"",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestExtract_CountMatchesOccurrences(t *testing.T) {
	for _, n := range []int{0, 1, 7, 250} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			var b strings.Builder
			want := make([]string, 0, n)
			for i := 0; i < n; i++ {
				root := "assets"
				if i%3 == 0 {
					root = "imager"
				}
				ref := fmt.Sprintf("/%s/dir%d/file-%d.png", root, i%5, i)
				want = append(want, ref)
				fmt.Fprintf(&b, `x[%d]={"src":"%s"};`, i, ref)
			}

			got := Extract(b.String())
			assert.Len(t, got, n)
			if n > 0 {
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestScan_ReportsMalformed(t *testing.T) {
	refs, malformed := scan(`"/assets/a.png" /imager/tail`)
	assert.Equal(t, []string{"/assets/a.png"}, refs)
	assert.Equal(t, []string{"/imager/tail"}, malformed)
}

func TestIsReference(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"/assets/a.png", true},
		{"https://cdn.example/a.png", true},
		{"HTTP://cdn.example/a.png", true},
		{"", false},
		{"assets/a.png", false},
		{"//cdn.example/a.png", false},
		{"ftp://cdn.example/a.png", false},
		{"data:image/png;base64,AAAA", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReference(tt.ref))
		})
	}
}
