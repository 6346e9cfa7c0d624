package entity

import "strings"

// Question представляет вопрос дневного челленджа.
// Вопросы эфемерны: они приходят от внешнего провайдера, декодируются
// и отдаются клиенту, но никогда не сохраняются в БД.
type Question struct {
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// htmlEntityReplacer покрывает сущности, которые реально встречаются
// в ответах opentdb.
var htmlEntityReplacer = strings.NewReplacer(
	"&quot;", `"`,
	"&#039;", "'",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
)

// DecodeHTMLEntities заменяет HTML-сущности в тексте вопроса и всех ответах.
func (q *Question) DecodeHTMLEntities() {
	q.Question = htmlEntityReplacer.Replace(q.Question)
	q.CorrectAnswer = htmlEntityReplacer.Replace(q.CorrectAnswer)
	for i, a := range q.IncorrectAnswers {
		q.IncorrectAnswers[i] = htmlEntityReplacer.Replace(a)
	}
}
