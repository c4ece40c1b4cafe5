package github

import (
	"encoding/json"
	"testing"
)

func TestMapRepoToLink_MappedLanguage(t *testing.T) {
	repo := Repo{
		Name:     "foo",
		HTMLURL:  "https://x/foo",
		Language: "Rust",
	}

	link := MapRepoToLink(repo, 3)

	if link.Title != "foo" {
		t.Errorf("Title = %q, want %q", link.Title, "foo")
	}
	if link.URL != "https://x/foo" {
		t.Errorf("URL = %q, want %q", link.URL, "https://x/foo")
	}
	if link.Description != "" {
		t.Errorf("Description = %q, want empty for an absent description", link.Description)
	}
	if len(link.Stacks) != 1 || link.Stacks[0] != "rust" {
		t.Errorf("Stacks = %v, want [rust]", link.Stacks)
	}
	if link.Order != 3 {
		t.Errorf("Order = %d, want 3", link.Order)
	}
}

func TestMapRepoToLink_UnmappedLanguage(t *testing.T) {
	link := MapRepoToLink(Repo{Name: "weird", HTMLURL: "https://x/weird", Language: "Brainfuck"}, 0)

	if len(link.Stacks) != 0 {
		t.Errorf("Stacks = %v, want empty list for an unmapped language", link.Stacks)
	}
	if link.Stacks == nil {
		t.Error("Stacks should be an empty list, not nil")
	}
}

func TestMapRepoToLink_NoLanguage(t *testing.T) {
	link := MapRepoToLink(Repo{Name: "docs", HTMLURL: "https://x/docs"}, 7)

	if len(link.Stacks) != 0 {
		t.Errorf("Stacks = %v, want empty list when the repo has no language", link.Stacks)
	}
	if link.Order != 7 {
		t.Errorf("Order = %d, want the caller-supplied 7", link.Order)
	}
}

func TestMapRepoToLink_DescriptionCarriedVerbatim(t *testing.T) {
	link := MapRepoToLink(Repo{Name: "n", HTMLURL: "https://x/n", Description: "a tool"}, 0)
	if link.Description != "a tool" {
		t.Errorf("Description = %q, want %q", link.Description, "a tool")
	}
}

func TestRepo_NullFieldsDecodeToEmpty(t *testing.T) {
	// The GitHub API sends JSON null for missing descriptions and languages;
	// decoding must leave the zero value, not fail.
	raw := `{"name":"foo","html_url":"https://x/foo","description":null,"language":null,"fork":false}`

	var repo Repo
	if err := json.Unmarshal([]byte(raw), &repo); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if repo.Description != "" || repo.Language != "" {
		t.Errorf("null fields decoded to %q/%q, want empty strings", repo.Description, repo.Language)
	}
}
