package forge

import (
	"encoding/base64"
	"strings"
)

// BranchRef is a freshly created branch.
type BranchRef struct {
	Ref string
	SHA string
}

// FileRef identifies a committed file.
type FileRef struct {
	SHA  string
	Path string
}

// PullRequest is the subset of a pull request the bridge needs.
type PullRequest struct {
	Number int
	URL    string
	Title  string
}

// RepoFile is one file entry of a directory listing.
type RepoFile struct {
	Name string
	Path string
	SHA  string
}

// FileContent is a file as returned by the contents API.
type FileContent struct {
	SHA string
	// Content is base64 as sent by the API, possibly wrapped across lines.
	Content string
}

// Decode returns the file's bytes.
func (f FileContent) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.ReplaceAll(f.Content, "\n", ""))
}

// Wire shapes. Only the fields the bridge reads are declared.

type refResponse struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

type createRefRequest struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

type putContentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type putContentResponse struct {
	Content struct {
		SHA  string `json:"sha"`
		Path string `json:"path"`
	} `json:"content"`
}

type deleteContentRequest struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

type contentEntry struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

type createPullRequest struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body"`
}

type pullResponse struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
	Title   string `json:"title"`
}

type labelsRequest struct {
	Labels []string `json:"labels"`
}

type mergeRequest struct {
	MergeMethod string `json:"merge_method"`
	CommitTitle string `json:"commit_title,omitempty"`
}

type updatePullRequest struct {
	State string `json:"state"`
}
