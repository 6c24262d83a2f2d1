package model

import "time"

// SustainableAction is a catalog entry users can log as an activity.
type SustainableAction struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nome"`
	Description *string   `json:"descricao"`
	Points      int       `json:"pontos"`
	Category    *string   `json:"categoria"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type NewAction struct {
	Name        string  `json:"nome"`
	Description *string `json:"descricao"`
	Points      int     `json:"pontos"`
	Category    *string `json:"categoria"`
}

type ActionChanges struct {
	Name        Patch[string] `json:"nome"`
	Description Patch[string] `json:"descricao"`
	Points      Patch[int]    `json:"pontos"`
	Category    Patch[string] `json:"categoria"`
}

// Empty reports whether the payload carried no recognised field.
func (c ActionChanges) Empty() bool {
	return !c.Name.Set && !c.Description.Set && !c.Points.Set && !c.Category.Set
}

// Tip is a short educational text ("dica").
type Tip struct {
	ID        int64     `json:"id"`
	Title     string    `json:"titulo"`
	Body      string    `json:"conteudo"`
	Category  *string   `json:"categoria_dica"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NewTip struct {
	Title    string  `json:"titulo"`
	Body     string  `json:"conteudo"`
	Category *string `json:"categoria_dica"`
}

type TipChanges struct {
	Title    Patch[string] `json:"titulo"`
	Body     Patch[string] `json:"conteudo"`
	Category Patch[string] `json:"categoria_dica"`
}

func (c TipChanges) Empty() bool {
	return !c.Title.Set && !c.Body.Set && !c.Category.Set
}
