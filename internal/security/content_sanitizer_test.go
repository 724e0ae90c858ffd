package security

import (
	"strings"
	"testing"
)

// scriptタグが除去されることを検証
func TestSanitize_RemovesScriptTags(t *testing.T) {
	s := NewContentSanitizer()

	out := s.Sanitize(`<p>面白かった</p><script>alert("xss")</script>`)

	if strings.Contains(out, "<script>") {
		t.Errorf("script tag should be removed, got %q", out)
	}
	if !strings.Contains(out, "<p>面白かった</p>") {
		t.Errorf("allowed tag should be preserved, got %q", out)
	}
}

// on*イベント属性が除去されることを検証
func TestSanitize_RemovesEventAttributes(t *testing.T) {
	s := NewContentSanitizer()

	out := s.Sanitize(`<p onclick="alert(1)">text</p>`)

	if strings.Contains(out, "onclick") {
		t.Errorf("event attribute should be removed, got %q", out)
	}
}

// 許可タグが通過することを検証
func TestSanitize_PreservesAllowedTags(t *testing.T) {
	s := NewContentSanitizer()

	input := `<blockquote>引用</blockquote><ul><li>一点目</li></ul><strong>強調</strong><code>code</code>`
	out := s.Sanitize(input)

	for _, tag := range []string{"<blockquote>", "<ul>", "<li>", "<strong>", "<code>"} {
		if !strings.Contains(out, tag) {
			t.Errorf("tag %s should be preserved, got %q", tag, out)
		}
	}
}

// imgタグがレビュー本文では許可されないことを検証
func TestSanitize_RemovesImgTags(t *testing.T) {
	s := NewContentSanitizer()

	out := s.Sanitize(`<p>text</p><img src="https://example.com/x.png">`)

	if strings.Contains(out, "<img") {
		t.Errorf("img tag should be removed from review content, got %q", out)
	}
}

// aタグにtarget=_blankとrel属性が付与されることを検証
func TestSanitize_AddsLinkProtections(t *testing.T) {
	s := NewContentSanitizer()

	out := s.Sanitize(`<a href="https://example.com">link</a>`)

	if !strings.Contains(out, `target="_blank"`) {
		t.Errorf("target=_blank should be added, got %q", out)
	}
	if !strings.Contains(out, "noopener") || !strings.Contains(out, "noreferrer") {
		t.Errorf("rel protections should be added, got %q", out)
	}
}

// 空文字列入力には空文字列を返すことを検証
func TestSanitize_EmptyInput(t *testing.T) {
	s := NewContentSanitizer()

	if out := s.Sanitize(""); out != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", out)
	}
}

// 同一入力に対する冪等性を検証
func TestSanitize_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p>text <em>emphasis</em></p><script>x</script>`
	once := s.Sanitize(input)
	twice := s.Sanitize(once)

	if once != twice {
		t.Errorf("sanitize should be idempotent: %q != %q", once, twice)
	}
}
