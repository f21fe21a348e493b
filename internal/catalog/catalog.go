package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Category is one of the five fixed knowledge domains a question belongs to.
type Category string

const (
	CategoryCyberFoundations  Category = "CYBER_FOUNDATIONS"
	CategoryLinuxFundamentals Category = "LINUX_FUNDAMENTALS"
	CategoryAttackVectors     Category = "ATTACK_VECTORS"
	CategoryDefenseOps        Category = "DEFENSE_OPS"
	CategoryCapstone          Category = "CAPSTONE"
)

// Categories is the fixed category set, in seed order.
var Categories = []Category{
	CategoryCyberFoundations,
	CategoryLinuxFundamentals,
	CategoryAttackVectors,
	CategoryDefenseOps,
	CategoryCapstone,
}

// OptionLabels is the fixed answer label set.
var OptionLabels = []string{"A", "B", "C", "D"}

type Question struct {
	ID            string            `json:"id"`
	Text          string            `json:"question_text"`
	Category      Category          `json:"category"`
	Difficulty    string            `json:"difficulty"` // easy|medium|hard
	Options       map[string]string `json:"options"`    // label -> display text
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation,omitempty"`
	Points        int               `json:"points"`
}

// PublicQuestion is the grading-safe projection of a Question: what a
// participant is allowed to see while the test is running.
type PublicQuestion struct {
	ID         string            `json:"id"`
	Text       string            `json:"question_text"`
	Category   Category          `json:"category"`
	Difficulty string            `json:"difficulty"`
	Options    map[string]string `json:"options"`
	Points     int               `json:"points"`
}

// Public strips the correct answer and explanation.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:         q.ID,
		Text:       q.Text,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Options:    q.Options,
		Points:     q.Points,
	}
}

// Catalog is an immutable question bank grouped by category. It is built once
// at startup and safely shared without locking.
type Catalog struct {
	byID       map[string]Question
	byCategory map[Category][]Question
}

// New validates every question and builds the catalog. A question whose
// correct answer is not one of its own options is rejected here so it can
// never reach grading.
func New(questions []Question) (*Catalog, error) {
	c := &Catalog{
		byID:       make(map[string]Question, len(questions)),
		byCategory: map[Category][]Question{},
	}
	valid := map[Category]bool{}
	for _, cat := range Categories {
		valid[cat] = true
	}
	for i, q := range questions {
		if err := validate(q, valid); err != nil {
			return nil, fmt.Errorf("question %d (%s): %w", i, q.ID, err)
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("question %d: duplicate id %q", i, q.ID)
		}
		c.byID[q.ID] = q
		c.byCategory[q.Category] = append(c.byCategory[q.Category], q)
	}
	return c, nil
}

func validate(q Question, valid map[Category]bool) error {
	if q.ID == "" {
		return fmt.Errorf("empty id")
	}
	if q.Text == "" {
		return fmt.Errorf("empty question text")
	}
	if !valid[q.Category] {
		return fmt.Errorf("unknown category %q", q.Category)
	}
	switch q.Difficulty {
	case "easy", "medium", "hard":
	default:
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	}
	if len(q.Options) != len(OptionLabels) {
		return fmt.Errorf("expected %d options, got %d", len(OptionLabels), len(q.Options))
	}
	for _, label := range OptionLabels {
		if _, ok := q.Options[label]; !ok {
			return fmt.Errorf("missing option %q", label)
		}
	}
	if _, ok := q.Options[q.CorrectAnswer]; !ok {
		return fmt.Errorf("correct answer %q is not an option", q.CorrectAnswer)
	}
	if q.Points <= 0 {
		return fmt.Errorf("points must be positive, got %d", q.Points)
	}
	return nil
}

// Parse decodes a JSON question bank and builds a catalog from it. Questions
// with zero points default to 1 before validation.
func Parse(data []byte) (*Catalog, error) {
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	for i := range questions {
		if questions[i].Points == 0 {
			questions[i].Points = 1
		}
	}
	return New(questions)
}

// Lookup resolves a question by id with the full (gradable) view.
func (c *Catalog) Lookup(id string) (Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// Size reports the total number of questions in the bank.
func (c *Catalog) Size() int { return len(c.byID) }

// CategorySize reports how many questions a category pool holds.
func (c *Catalog) CategorySize(cat Category) int { return len(c.byCategory[cat]) }

// All returns every question ordered by category then id, for admin listings.
func (c *Catalog) All() []Question {
	out := make([]Question, 0, len(c.byID))
	for _, cat := range Categories {
		pool := append([]Question(nil), c.byCategory[cat]...)
		sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
		out = append(out, pool...)
	}
	return out
}
