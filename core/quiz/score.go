package quiz

import (
	"github.com/edulane/lms/core/course"
)

// Score grades a submission against the quiz questions.
// Every question counts towards the total; a question scores its marks when an answer was
// given for it and that answer is the correct option. The quiz is passed when
// score/total reaches passMark; a quiz worth no marks cannot be passed.
func Score(questions []course.Question, sub Submission, passMark float64) Result {
	var res Result
	for _, q := range questions {
		res.TotalMarks += q.Marks
		if a, ok := sub.answer(q.ID); ok && a.Valid && a.Value == q.CorrectOption {
			res.Score += q.Marks
		}
	}
	res.Passed = res.TotalMarks > 0 && float64(res.Score)/float64(res.TotalMarks) >= passMark
	return res
}
