package analyzer

import "fmt"

// DefaultMaxChars 送入模型的正文最大字符数
const DefaultMaxChars = 8000

const promptTemplate = `
Đọc bài báo sau:
TIÊU ĐỀ: %s
NỘI DUNG: %s

Nhiệm vụ:
1. Dịch tóm tắt sang tiếng Việt (khoảng 200 từ).
2. Trích xuất tối đa 5 thẻ (TAGS) phân loại quan trọng (Ví dụ: ["AI", "Technology", "Deep Learning"]).
3. Tạo Mindmap code (MermaidJS graph TD).
4. Tạo 3 câu hỏi Flashcard.

Trả về JSON duy nhất:
{
    "content_vi": "...",
    "tags": ["Tag1", "Tag2", "..."],
    "mindmap_code": "graph TD; ...",
    "flashcards": [ { "q": "...", "a": "..." } ]
}
`

// BuildPrompt 组装固定指令，正文只取前 maxChars 个字符
func BuildPrompt(title, body string, maxChars int) string {
	return fmt.Sprintf(promptTemplate, title, truncateRunes(body, maxChars))
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		n = DefaultMaxChars
	}
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
