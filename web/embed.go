// Package web は配信用の静的ページを埋め込みファイルシステムとして公開する。
package web

import "embed"

// Pages は静的HTMLページの埋め込みファイルシステム。
//
//go:embed index.html events.html
var Pages embed.FS
