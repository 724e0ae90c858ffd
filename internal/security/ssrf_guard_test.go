package security

import (
	"testing"
	"time"
)

// ValidateURLがプライベートIPアドレスをブロックすることを検証
func TestValidateURL_BlocksPrivateIPs(t *testing.T) {
	guard := NewSSRFGuard()

	cases := []string{
		"http://10.0.0.1/cover.jpg",
		"http://172.16.0.1/cover.jpg",
		"http://192.168.1.1/cover.jpg",
		"http://127.0.0.1/cover.jpg",
		"http://169.254.169.254/latest/meta-data/",
		"http://0.0.0.0/cover.jpg",
		"http://[::1]/cover.jpg",
		"http://[fe80::1]/cover.jpg",
		"http://[fc00::1]/cover.jpg",
	}

	for _, rawURL := range cases {
		if err := guard.ValidateURL(rawURL); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", rawURL)
		}
	}
}

// ValidateURLがlocalhostをブロックすることを検証
func TestValidateURL_BlocksLocalhost(t *testing.T) {
	guard := NewSSRFGuard()

	for _, rawURL := range []string{
		"http://localhost/cover.jpg",
		"http://LOCALHOST/cover.jpg",
	} {
		if err := guard.ValidateURL(rawURL); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", rawURL)
		}
	}
}

// ValidateURLが不正なスキームをブロックすることを検証
func TestValidateURL_BlocksDisallowedSchemes(t *testing.T) {
	guard := NewSSRFGuard()

	cases := []string{
		"file:///etc/passwd",
		"ftp://example.com/cover.jpg",
		"gopher://example.com/",
		"javascript:alert(1)",
	}

	for _, rawURL := range cases {
		if err := guard.ValidateURL(rawURL); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", rawURL)
		}
	}
}

// ValidateURLが空URLと不正なURLを拒否することを検証
func TestValidateURL_RejectsInvalidInput(t *testing.T) {
	guard := NewSSRFGuard()

	if err := guard.ValidateURL(""); err == nil {
		t.Error("ValidateURL(\"\") = nil, want error")
	}
	if err := guard.ValidateURL("http://"); err == nil {
		t.Error("ValidateURL with empty host = nil, want error")
	}
	if err := guard.ValidateURL("://invalid"); err == nil {
		t.Error("ValidateURL with invalid URL = nil, want error")
	}
}

// ValidateURLが正当な外部URLを許可することを検証
func TestValidateURL_AllowsPublicURLs(t *testing.T) {
	guard := NewSSRFGuard()

	cases := []string{
		"https://covers.openlibrary.org/b/id/12345-L.jpg",
		"http://example.com/cover.png",
		"https://example.com:443/path/to/image.jpg",
		"http://93.184.216.34/cover.jpg",
	}

	for _, rawURL := range cases {
		if err := guard.ValidateURL(rawURL); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", rawURL, err)
		}
	}
}

// NewSafeClientがタイムアウト設定付きのクライアントを返すことを検証
func TestNewSafeClient_ReturnsClient(t *testing.T) {
	guard := NewSSRFGuard()

	client := guard.NewSafeClient(5*time.Second, 2*1024*1024)
	if client == nil {
		t.Fatal("expected non-nil client")
	}
}
