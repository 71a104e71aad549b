package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/admitportal/internal/app/system/htmlsanitize"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "I want to study nursing.", "I want to study nursing."},
		{"formatting kept", "<p><strong>Bold</strong> and <em>italic</em></p>", "<p><strong>Bold</strong> and <em>italic</em></p>"},
		{"lists kept", "<ul><li>Item 1</li><li>Item 2</li></ul>", "<ul><li>Item 1</li><li>Item 2</li></ul>"},
		{"script removed", "<p>Hello</p><script>alert('xss')</script>", "<p>Hello</p>"},
		{"style removed", "<style>body { color: red; }</style><p>Text</p>", "<p>Text</p>"},
		{"surrounding space trimmed", "  <p>Hi</p>\n", "<p>Hi</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_RemovesDangerousAttributes(t *testing.T) {
	tests := []struct {
		input  string
		banned string
	}{
		{`<button onclick="alert('xss')">Click</button>`, "onclick"},
		{`<a href="javascript:alert('xss')">Click</a>`, "javascript:"},
		{`<img src="x" onerror="alert('xss')">`, "onerror"},
		{`<p>Content</p><iframe src="https://evil.example"></iframe>`, "iframe"},
		{`<form action="/submit"><input type="text" name="data"></form>`, "<input"},
		{`<p style="color:red">Red</p>`, "style="},
	}
	for _, tt := range tests {
		if got := htmlsanitize.Sanitize(tt.input); strings.Contains(got, tt.banned) {
			t.Errorf("Sanitize(%q) = %q, still contains %q", tt.input, got, tt.banned)
		}
	}
}

func TestSanitize_SafeLinks(t *testing.T) {
	got := htmlsanitize.Sanitize(`<a href="https://example.com/portfolio">Portfolio</a>`)
	if !strings.Contains(got, `href="https://example.com/portfolio"`) {
		t.Errorf("expected safe link preserved, got %q", got)
	}
	if !strings.Contains(got, "nofollow") {
		t.Errorf("expected rel=nofollow on link, got %q", got)
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"Ready for review", "Ready for review"},
		{"<b>Interview</b> on Monday", "Interview on Monday"},
		{"<script>alert(1)</script>Note", "Note"},
		{"  padded  ", "padded"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.Strip(tt.input); got != tt.want {
			t.Errorf("Strip(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"Hello, World!", true},
		{"5 < 10", true},
		{"5 > 3", true},
		{"a < b and c > d", true},
		{"<p>Hello</p>", false},
		{"line<br/>break", false},
	}
	for _, tt := range tests {
		if got := htmlsanitize.IsPlainText(tt.input); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
