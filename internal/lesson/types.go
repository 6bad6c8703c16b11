package lesson

// Kind distinguishes the three micro-lesson flavors of the grade-1 reading
// curriculum.
type Kind string

const (
	KindSound   Kind = "sound"
	KindWord    Kind = "word"
	KindPassage Kind = "passage"
)

// Lesson is one micro-lesson loaded from YAML. Main is the sound or word the
// lesson teaches, Examples are the graded example items (their index is the
// partIndex completion events refer to), Passage is the short reading text.
type Lesson struct {
	ID       string   `yaml:"id" json:"id"`
	Title    string   `yaml:"title" json:"title"`
	Kind     Kind     `yaml:"kind" json:"kind"`
	Main     string   `yaml:"main" json:"main"`
	Examples []string `yaml:"examples" json:"examples,omitempty"`
	Passage  string   `yaml:"passage" json:"passage,omitempty"`
	Order    int      `yaml:"order" json:"order"`
}
