package grading

import (
	"context"
	"math"
)

// PassPercent is the minimum percentage that passes a quiz.
const PassPercent = 50.0

// QuizScore is the outcome of grading a whole quiz submission.
type QuizScore struct {
	Correct int
	Total   int
	Percent float64
	Passed  bool
}

// ScoreQuiz grades every question against answers keyed by question ID.
// Missing answers count as wrong. The percentage is correct/total*100 and
// the attempt passes at PassPercent or above.
func ScoreQuiz(ctx context.Context, g Grader, questions []Q, answers map[string]string) (QuizScore, error) {
	out := QuizScore{Total: len(questions)}
	if out.Total == 0 {
		return out, nil
	}
	for _, q := range questions {
		resp, ok := answers[q.ID]
		if !ok {
			continue
		}
		res, err := g.Grade(ctx, q, resp)
		if err != nil {
			return out, err
		}
		if res.Correct {
			out.Correct++
		}
	}
	out.Percent = Percent(out.Correct, out.Total)
	out.Passed = out.Percent >= PassPercent
	return out, nil
}

// Percent returns correct/total*100 rounded to two decimals.
func Percent(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*100*100) / 100
}
