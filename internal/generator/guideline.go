package generator

import "fmt"

// Band is a contiguous grade range sharing one language guideline.
type Band struct {
	MinGrade  int
	MaxGrade  int
	Guideline string
}

// Bands partitions grades 1-12 with no gaps or overlaps.
var Bands = []Band{
	{1, 3, "Use very simple words and short sentences. Be playful and fun."},
	{4, 6, "Use clear, straightforward language. Include relatable examples."},
	{7, 9, "Use standard academic language. Include more detailed explanations."},
	{10, 12, "Use sophisticated vocabulary. Include technical terms with context."},
}

// BandFor returns the band containing grade.
func BandFor(grade int) (Band, error) {
	for _, b := range Bands {
		if grade >= b.MinGrade && grade <= b.MaxGrade {
			return b, nil
		}
	}
	return Band{}, fmt.Errorf("no guideline band for grade %d", grade)
}

// GuidelineFor returns the tone and vocabulary directive for grade.
func GuidelineFor(grade int) (string, error) {
	b, err := BandFor(grade)
	if err != nil {
		return "", err
	}
	return b.Guideline, nil
}
