package pool

// Tier is an inclusive band of confidence values, High >= Low.
type Tier struct {
	Name string
	High int
	Low  int
}

func (t Tier) Contains(confidence int) bool {
	return confidence >= t.Low && confidence <= t.High
}

// Tiers splits 1..confidenceMax into high, medium and low bands. On the
// standard 20 point scale that is 20-16, 15-6 and 5-1; shorter weeks keep
// the outer bands at a third of the scale.
func Tiers(confidenceMax int) []Tier {
	if confidenceMax <= 0 {
		return nil
	}
	edge := min(5, confidenceMax/3)
	if edge == 0 {
		return []Tier{{Name: "High", High: confidenceMax, Low: 1}}
	}
	return []Tier{
		{Name: "High", High: confidenceMax, Low: confidenceMax - edge + 1},
		{Name: "Medium", High: confidenceMax - edge, Low: edge + 1},
		{Name: "Low", High: edge, Low: 1},
	}
}
