package handlers

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// 公開する規約ドキュメントのホワイトリスト
var termsDocs = map[string]string{
	"terms":   "terms.md",
	"privacy": "privacy.md",
}

// TermsHandler は docs/ 配下の規約 Markdown を HTML で返す
type TermsHandler struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
	dir       string
}

func NewTermsHandler() *TermsHandler {
	dir := os.Getenv("DOCS_DIR")
	if dir == "" {
		dir = "docs"
	}
	return &TermsHandler{
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer: bluemonday.UGCPolicy(),
		dir:       dir,
	}
}

// Show は指定ドキュメントを描画する。ホワイトリスト外は 404
func (h *TermsHandler) Show(c *gin.Context) {
	filename, ok := termsDocs[c.Param("name")]
	if !ok {
		JSONError(c, http.StatusNotFound, "ドキュメントが見つかりません")
		return
	}

	source, err := os.ReadFile(filepath.Join(h.dir, filename))
	if err != nil {
		JSONError(c, http.StatusNotFound, "ドキュメントが見つかりません")
		return
	}

	var buf bytes.Buffer
	if err := h.md.Convert(source, &buf); err != nil {
		JSONError(c, http.StatusInternalServerError, "ドキュメントの変換に失敗しました")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", h.sanitizer.SanitizeBytes(buf.Bytes()))
}
