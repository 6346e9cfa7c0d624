package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeHTMLEntities(t *testing.T) {
	q := Question{
		Question:      "Which company&#039;s motto is &quot;Don&#039;t be evil&quot;?",
		CorrectAnswer: "Johnson &amp; Johnson &lt;no&gt;",
		IncorrectAnswers: []string{
			"AT&amp;T",
			"&quot;quoted&quot;",
			"plain",
		},
	}

	q.DecodeHTMLEntities()

	assert.Equal(t, `Which company's motto is "Don't be evil"?`, q.Question)
	assert.Equal(t, "Johnson & Johnson <no>", q.CorrectAnswer)
	assert.Equal(t, []string{"AT&T", `"quoted"`, "plain"}, q.IncorrectAnswers)
}

func TestDecodeHTMLEntities_NoEntities(t *testing.T) {
	q := Question{
		Question:         "Plain question?",
		CorrectAnswer:    "Yes",
		IncorrectAnswers: []string{"No", "Maybe", "Never"},
	}

	q.DecodeHTMLEntities()

	assert.Equal(t, "Plain question?", q.Question)
}
