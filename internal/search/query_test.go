package search

import "testing"

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name   string
		titles []string
		domain string
		want   string
	}{
		{
			name:   "single title",
			titles: []string{"Software Engineer"},
			domain: "greenhouse.io",
			want:   `("Software Engineer") -intitle:"jobs at" -intitle:"careers" site:greenhouse.io`,
		},
		{
			name:   "multiple titles OR joined",
			titles: []string{"Software Engineer", "Data Scientist"},
			domain: "lever.co",
			want:   `("Software Engineer" OR "Data Scientist") -intitle:"jobs at" -intitle:"careers" site:lever.co`,
		},
		{
			name:   "blank titles dropped",
			titles: []string{"  ", "Product Manager", ""},
			domain: "example.com",
			want:   `("Product Manager") -intitle:"jobs at" -intitle:"careers" site:example.com`,
		},
		{
			name:   "no titles",
			titles: nil,
			domain: "example.com",
			want:   `-intitle:"jobs at" -intitle:"careers" site:example.com`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildQuery(tt.titles, tt.domain)
			if got != tt.want {
				t.Errorf("BuildQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildQueryDeterministic(t *testing.T) {
	titles := []string{"Backend Engineer", "Platform Engineer"}
	first := BuildQuery(titles, "jobs.example.com")
	second := BuildQuery(titles, "jobs.example.com")
	if first != second {
		t.Errorf("same inputs produced different queries: %q vs %q", first, second)
	}
}
