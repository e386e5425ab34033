// Package bank reads, writes and seeds question bank files (YAML and XLSX).
package bank

// Bank is a portable question bank grouped by category.
type Bank struct {
	Categories []CategoryEntry `yaml:"categories" json:"categories"`
}

// CategoryEntry is one category with its questions.
type CategoryEntry struct {
	Type      string  `yaml:"type" json:"type"`
	Questions []Entry `yaml:"questions" json:"questions"`
}

// Entry is a single question inside a bank file.
type Entry struct {
	Question   string `yaml:"question" json:"question"`
	Answer     string `yaml:"answer" json:"answer"`
	Difficulty int    `yaml:"difficulty" json:"difficulty"`
}

// QuestionCount returns the number of questions across all categories.
func (b *Bank) QuestionCount() int {
	n := 0
	for _, c := range b.Categories {
		n += len(c.Questions)
	}
	return n
}

// Merge appends other into b, combining categories with the same type.
func (b *Bank) Merge(other *Bank) {
	index := make(map[string]int, len(b.Categories))
	for i, c := range b.Categories {
		index[c.Type] = i
	}
	for _, c := range other.Categories {
		if i, ok := index[c.Type]; ok {
			b.Categories[i].Questions = append(b.Categories[i].Questions, c.Questions...)
			continue
		}
		index[c.Type] = len(b.Categories)
		b.Categories = append(b.Categories, c)
	}
}
