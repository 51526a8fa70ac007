package scoring

// gradeStep maps every raw score at or above minRaw to published
type gradeStep struct {
	minRaw    int
	published int
}

// gradingCurve is ordered from the highest band down. Raw scores below the
// last band are published as-is, floored at curveFloor.
var gradingCurve = []gradeStep{
	{minRaw: 95, published: 100},
	{minRaw: 90, published: 95},
	{minRaw: 85, published: 90},
	{minRaw: 80, published: 85},
	{minRaw: 75, published: 80},
	{minRaw: 70, published: 75},
	{minRaw: 65, published: 70},
	{minRaw: 60, published: 65},
	{minRaw: 50, published: 60},
}

// curveFloor is the lowest published score
const curveFloor = 30

// ApplyGradingCurve maps a raw score to the published ATS score
func ApplyGradingCurve(raw int) int {
	for _, step := range gradingCurve {
		if raw >= step.minRaw {
			return step.published
		}
	}
	return max(curveFloor, raw)
}

// GradingCodomain returns every published score the curve can produce, in ascending order
func GradingCodomain() []int {
	lowest := gradingCurve[len(gradingCurve)-1].minRaw
	values := make([]int, 0, lowest-curveFloor+len(gradingCurve))
	for v := curveFloor; v < lowest; v++ {
		values = append(values, v)
	}
	for i := len(gradingCurve) - 1; i >= 0; i-- {
		values = append(values, gradingCurve[i].published)
	}
	return values
}
