// Package book は蔵書管理のドメインロジックを提供する。
package book

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/bookshelf/internal/metrics"
)

// SSRFValidator はSSRF防止機能のインターフェース。
// internal/securityのSSRFGuardServiceを抽象化する。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// CoverFetcherService はカバー画像取得のインターフェース。
type CoverFetcherService interface {
	// FetchCover は指定URLからカバー画像を取得する。
	// 取得失敗時はnilデータと空MIMEを返す（エラーは返さない）。
	FetchCover(ctx context.Context, coverURL string) (data []byte, mimeType string, err error)
}

// CoverFetcher はカバー画像取得機能の実装。
// ユーザー入力のURLを扱うため、SSRF検証・サイズ上限・画像MIME限定で防御する。
type CoverFetcher struct {
	ssrfGuard SSRFValidator
	timeout   time.Duration
	maxSize   int64
	collector metrics.MetricsCollector
}

// NewCoverFetcher はCoverFetcherの新しいインスタンスを生成する。
// collectorはnil許容で、nilの場合はメトリクスを記録しない。
func NewCoverFetcher(ssrfGuard SSRFValidator, timeout time.Duration, maxSize int64, collector metrics.MetricsCollector) *CoverFetcher {
	return &CoverFetcher{
		ssrfGuard: ssrfGuard,
		timeout:   timeout,
		maxSize:   maxSize,
		collector: collector,
	}
}

// FetchCover は指定URLからカバー画像を取得する。
// 取得失敗時はnilデータと空MIMEを返す（カバー取得は常にベストエフォート）。
func (f *CoverFetcher) FetchCover(ctx context.Context, coverURL string) ([]byte, string, error) {
	if coverURL == "" {
		return nil, "", nil
	}

	// SSRF検証
	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(coverURL); err != nil {
			slog.Warn("カバー画像取得: SSRFブロック", "url", coverURL, "error", err)
			f.recordFailure()
			return nil, "", nil
		}
	}

	// HTTPクライアント取得
	client := f.getHTTPClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		slog.Warn("カバー画像取得: リクエスト作成失敗", "url", coverURL, "error", err)
		f.recordFailure()
		return nil, "", nil
	}
	req.Header.Set("User-Agent", "Bookshelf/1.0 Book Tracker")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("カバー画像取得: HTTPリクエスト失敗", "url", coverURL, "error", err)
		f.recordFailure()
		return nil, "", nil
	}
	defer resp.Body.Close()

	// 2xx以外は取得失敗として扱う
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("カバー画像取得: HTTPステータス異常", "url", coverURL, "status", resp.StatusCode)
		f.recordFailure()
		return nil, "", nil
	}

	// レスポンスボディを読み込み（サイズ上限あり）
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		slog.Warn("カバー画像取得: レスポンス読み取り失敗", "url", coverURL, "error", err)
		f.recordFailure()
		return nil, "", nil
	}

	// サイズ超過チェック
	if int64(len(body)) > f.maxSize {
		slog.Warn("カバー画像取得: サイズ超過", "url", coverURL, "size", len(body))
		f.recordFailure()
		return nil, "", nil
	}

	// Content-Typeを取得
	contentType := resp.Header.Get("Content-Type")
	mimeType := extractMimeType(contentType)

	// 画像でない場合はnilを返す
	if !isImageMime(mimeType) {
		slog.Warn("カバー画像取得: 画像以外のContent-Type", "url", coverURL, "contentType", contentType)
		f.recordFailure()
		return nil, "", nil
	}

	if f.collector != nil {
		f.collector.RecordCoverFetchSuccess()
	}
	return body, mimeType, nil
}

// getHTTPClient はHTTPクライアントを取得する。
func (f *CoverFetcher) getHTTPClient() *http.Client {
	if f.ssrfGuard != nil {
		return f.ssrfGuard.NewSafeClient(f.timeout, f.maxSize)
	}
	return &http.Client{Timeout: f.timeout}
}

// recordFailure はカバー取得失敗メトリクスを記録する。
func (f *CoverFetcher) recordFailure() {
	if f.collector != nil {
		f.collector.RecordCoverFetchFailure()
	}
}

// extractMimeType はContent-Typeヘッダーからメディアタイプを抽出する。
func extractMimeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	// セミコロンの前の部分（charset等を除去）
	parts := strings.SplitN(contentType, ";", 2)
	return strings.TrimSpace(strings.ToLower(parts[0]))
}

// isImageMime はMIMEタイプが画像かどうかを判定する。
func isImageMime(mimeType string) bool {
	if mimeType == "" {
		return false
	}
	imageTypes := []string{
		"image/png",
		"image/jpeg",
		"image/gif",
		"image/webp",
		"image/bmp",
	}
	for _, t := range imageTypes {
		if mimeType == t {
			return true
		}
	}
	// image/ で始まるものは許可
	return strings.HasPrefix(mimeType, "image/")
}

// compile-time interface check
var _ CoverFetcherService = (*CoverFetcher)(nil)
