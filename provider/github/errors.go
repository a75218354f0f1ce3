package github

import (
	"fmt"
	"strings"
)

// GraphQLErrorItem is one error from a GraphQL response envelope.
type GraphQLErrorItem struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLError reports a response whose errors array was non-empty.
// Partial data never masks it: any error entry fails the whole call.
type GraphQLError struct {
	Errors []GraphQLErrorItem
}

func (e *GraphQLError) Error() string {
	if len(e.Errors) == 0 {
		return "github graphql: unknown error"
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		msgs = append(msgs, item.Message)
	}
	return "github graphql: " + strings.Join(msgs, "; ")
}

// NoDataError reports a well-formed GraphQL response that carried no
// usable payload, typically a null user or repository node.
type NoDataError struct {
	Entity  string
	Subject string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("github: no %s data for %q", e.Entity, e.Subject)
}

// ContentNotFoundError reports that a path does not resolve to a file,
// either because nothing exists there or because it is a directory.
type ContentNotFoundError struct {
	Owner string
	Repo  string
	Path  string
}

func (e *ContentNotFoundError) Error() string {
	return fmt.Sprintf("github: %s/%s has no file at %q", e.Owner, e.Repo, e.Path)
}
