package github

import (
	"github.com/sakif/devlink/internal/model"
	"github.com/sakif/devlink/internal/stacks"
)

// MapRepoToLink converts a fetched repository into a link record. Pure and
// total for a well-formed Repo; no I/O, no failure.
//
// The stack list holds at most the repository's primary language (mapped
// through the catalog's language table); repositories whose language has no
// mapping get an empty list. Topics are deliberately ignored.
//
// The caller supplies order, offset by the current collection length, so bulk
// imports append after existing links instead of overwriting their positions.
func MapRepoToLink(repo Repo, order int) model.Link {
	stackList := []string{}
	if v, ok := stacks.StackForLanguage(repo.Language); ok {
		stackList = append(stackList, v)
	}

	return model.Link{
		Title:       repo.Name,
		URL:         repo.HTMLURL,
		Description: repo.Description,
		Stacks:      stackList,
		Order:       order,
	}
}
