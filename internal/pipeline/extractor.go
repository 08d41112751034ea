// Package pipeline 定义了文档入库的核心流程：文本提取、切块、分类与批量写入。
package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"resume-smart-go/pkg/log"

	"github.com/ledongthuc/pdf"
)

// FallbackExtractor 是外部文本提取服务（如 Tika）的最小接口。
type FallbackExtractor interface {
	ExtractText(ctx context.Context, r io.Reader, fileName string) (string, error)
}

// Extractor 按扩展名把原始文件转换为纯文本。任何失败都降级为空字符串。
type Extractor struct {
	fallback FallbackExtractor
}

// NewExtractor 创建 Extractor。fallback 可为 nil，非 nil 时在 PDF 本地解析为空时使用。
func NewExtractor(fallback FallbackExtractor) *Extractor {
	return &Extractor{fallback: fallback}
}

// Extension 返回小写且不带点的扩展名。
func Extension(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// Extract 提取文件文本。未知扩展名或解析失败时返回空字符串，由调用方决定如何处理空文本。
func (e *Extractor) Extract(ctx context.Context, data []byte, filename string) string {
	var (
		text string
		err  error
	)
	switch ext := Extension(filename); ext {
	case "txt":
		text, err = extractPlain(data)
	case "pdf":
		text, err = extractPDF(data)
		if strings.TrimSpace(text) == "" && e.fallback != nil {
			log.Infof("[Extractor] PDF 本地解析结果为空，尝试使用 Tika, file: %s", filename)
			text, err = e.fallback.ExtractText(ctx, bytes.NewReader(data), filename)
		}
	case "docx":
		text, err = extractDOCX(data)
	case "json":
		text, err = extractJSON(data)
	default:
		log.Warnf("[Extractor] 不支持的文件类型, file: %s, ext: %s", filename, ext)
		return ""
	}
	if err != nil {
		log.Warnf("[Extractor] 提取文本失败, file: %s, error: %v", filename, err)
		return ""
	}
	return text
}

func extractPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid utf-8")
	}
	return string(data), nil
}

// extractPDF 逐页提取文本，每页之后追加换行；单页失败按空文本处理。
func extractPDF(data []byte) (text string, err error) {
	// 畸形 PDF 可能让解析库 panic
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		sb.WriteString(pageText(reader.Page(i)))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func pageText(page pdf.Page) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

// extractJSON 校验后以两个空格缩进重新输出，保持原有的键顺序。
func extractJSON(data []byte) (string, error) {
	if !json.Valid(data) {
		return "", fmt.Errorf("invalid json")
	}
	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(data), "", "  "); err != nil {
		return "", err
	}
	return out.String(), nil
}

// extractDOCX 读取 word/document.xml，正文中每个段落的文本后追加换行。
func extractDOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}

		var doc docxDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		var sb strings.Builder
		for _, p := range doc.Body.Paragraphs {
			sb.WriteString(p.text)
			sb.WriteString("\n")
		}
		return sb.String(), nil
	}
	return "", fmt.Errorf("word/document.xml not found")
}

type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

// docxParagraph 按文档顺序收集段落内所有 run 的文本，包括超链接中的 run。
type docxParagraph struct {
	text string
}

func (p *docxParagraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	inText := false
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br", "cr":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			if depth == 0 {
				p.text = sb.String()
				return nil
			}
			depth--
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
}
