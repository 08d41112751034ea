package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"certified only", "certified", "certifications"},
		{"no keywords", "Hello there, nice weather today", CategoryGeneral},
		{"empty", "", CategoryGeneral},
		{"education", "B.Sc. degree from Stanford University, GPA 3.9", "education"},
		{"case insensitive", "WORKED at a COMPANY in a senior ROLE", "experience"},
		{"skills", "Skills: Go, Rust. Proficient in distributed systems programming", "skills"},
		{"projects", "Developed and implemented a GitHub project", "projects"},
		{"substring match", "multi-role leadership", "experience"},
		// education 与 projects 各命中一个关键词，先声明的 education 胜出
		{"tie goes to first declared", "college project", "education"},
		// experience(led) 与 certifications(certificate) 平局
		{"tie experience over certifications", "led certificate", "experience"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Categorize(tc.content))
		})
	}
}

func TestCategorize_Deterministic(t *testing.T) {
	text := "Led the project team at the company; certified scrum master"
	first := Categorize(text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Categorize(text))
	}
}

func TestCategories_Order(t *testing.T) {
	assert.Equal(t, []string{"education", "experience", "skills", "projects", "certifications"}, Categories())
}
