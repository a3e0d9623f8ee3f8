package app

const (
	baseScore    = 100
	maxTimeBonus = 50
)

// ScoreDelta computes the points awarded for a correct answer. answerTime is
// the server-sampled remaining time at submission, so faster answers earn up
// to maxTimeBonus extra, decaying to zero near the deadline. Incorrect or
// absent answers score nothing and never reach this function.
func ScoreDelta(answerTime, timeLimit int) int {
	if timeLimit <= 0 {
		return baseScore
	}
	if answerTime < 0 {
		answerTime = 0
	}
	if answerTime > timeLimit {
		answerTime = timeLimit
	}
	return baseScore + answerTime*maxTimeBonus/timeLimit
}
