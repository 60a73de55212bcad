package catalog

// Catalog is the static, ordered set of capsules a learning path is made of,
// together with the knowledge-graph layout used to render it.
// A Catalog is treated as immutable once loaded.
type Catalog struct {
	Version  string    `yaml:"version" json:"version"`
	Title    string    `yaml:"title" json:"title"`
	Capsules []Capsule `yaml:"capsules" json:"capsules"`
	Edges    []Edge    `yaml:"edges" json:"edges"`
}

// Capsule is a single unit of learning content gated by questions.
type Capsule struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description"`
	Media       string     `yaml:"media,omitempty" json:"media,omitempty"`
	Label       string     `yaml:"label,omitempty" json:"label,omitempty"`
	Position    Position   `yaml:"position" json:"position"`
	Questions   []Question `yaml:"questions" json:"questions"`
}

// Position is a node's location on the graph canvas, in percent of the
// canvas width and height.
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Question is a multiple-choice comprehension check.
type Question struct {
	Prompt        string   `yaml:"prompt" json:"prompt"`
	Options       []string `yaml:"options" json:"options"`
	CorrectOption string   `yaml:"correct_option" json:"correct_option"`
}

// Edge is a directed dependency between two capsules in the graph view.
type Edge struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Len returns the number of capsules.
func (c *Catalog) Len() int {
	return len(c.Capsules)
}

// Index returns the sequence position of the capsule with the given ID.
func (c *Catalog) Index(id string) (int, bool) {
	for i := range c.Capsules {
		if c.Capsules[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Capsule returns the capsule with the given ID.
func (c *Catalog) Capsule(id string) (*Capsule, bool) {
	i, ok := c.Index(id)
	if !ok {
		return nil, false
	}
	return &c.Capsules[i], true
}

// At returns the capsule at sequence position i.
func (c *Catalog) At(i int) (*Capsule, bool) {
	if i < 0 || i >= len(c.Capsules) {
		return nil, false
	}
	return &c.Capsules[i], true
}

// Successor returns the capsule that follows id in sequence order, if any.
func (c *Catalog) Successor(id string) (*Capsule, bool) {
	i, ok := c.Index(id)
	if !ok {
		return nil, false
	}
	return c.At(i + 1)
}

// IDs returns capsule IDs in sequence order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Capsules))
	for i := range c.Capsules {
		ids[i] = c.Capsules[i].ID
	}
	return ids
}

// QuestionCount returns the total number of questions across all capsules.
func (c *Catalog) QuestionCount() int {
	n := 0
	for i := range c.Capsules {
		n += len(c.Capsules[i].Questions)
	}
	return n
}

// DisplayLabel returns the short graph label, falling back to the title.
func (c *Capsule) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Title
}

// LastQuestion returns the index of the capsule's final question.
func (c *Capsule) LastQuestion() int {
	return len(c.Questions) - 1
}

// IsCorrect reports whether option is the correct answer. Comparison is an
// exact string match.
func (q *Question) IsCorrect(option string) bool {
	return option == q.CorrectOption
}

// CorrectIndex returns the index of the correct option within Options.
func (q *Question) CorrectIndex() int {
	for i, o := range q.Options {
		if o == q.CorrectOption {
			return i
		}
	}
	return -1
}
