package study

import "fmt"

const (
	QuizQuestionCount = 10
	QAPairCount       = 8
)

func QuizPrompt(title, text string) string {
	return fmt.Sprintf(`You are an expert tutor who writes interactive quizzes.

Write %d questions from the study notes below, using ONLY two types:
- "mcq": multiple choice with exactly 4 options, for definitions, comparisons and facts.
- "truefalse": statements that can clearly be judged true or false from the notes.

Rules:
1. No open-ended, short-answer or "explain" questions.
2. Keep every question simple, factual and self-contained.
3. Every question has exactly one correct answer. For truefalse the answer is "True" or "False".
4. Reply with JSON only. No markdown, no text outside the JSON.

Format:
{
  "title": "Quiz on <note title>",
  "questions": [
    {"type": "mcq", "question": "...", "options": ["...", "...", "...", "..."], "answer": "..."},
    {"type": "truefalse", "question": "...", "answer": "False"}
  ]
}

Note title: %s
Notes:
"""%s"""
`, QuizQuestionCount, title, text)
}

func QAPrompt(title, text string) string {
	return fmt.Sprintf(`You are a tutor. Write exactly %d short descriptive question and answer pairs based strictly on the study note below.

Rules:
- Focus on conceptual and theoretical questions.
- Each answer is one or two concise sentences.
- No multiple choice or true/false questions.
- Reply with JSON only.

Format:
{
  "title": "Short Q&A on <note title>",
  "qa": [
    {"question": "...", "answer": "..."}
  ]
}

Note title: %s
Notes:
"""%s"""
`, QAPairCount, title, text)
}

func SummaryPrompt(title, text string) string {
	return fmt.Sprintf(`Summarize this note clearly and concisely in academic language.
Keep it under 5 key points and one short paragraph. Reply with the summary text only.

Title: %s
Content: """%s"""
`, title, text)
}
