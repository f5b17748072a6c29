package jsonapi

import (
	"fmt"
	"strconv"

	"github.com/platinummonkey/mockapi/pkg/paging"
)

// MediaType is the JSON:API content type
const MediaType = "application/vnd.api+json"

// Resource is a single JSON:API resource object
type Resource struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Attributes interface{} `json:"attributes"`
}

// Links carries pagination links. Empty links are omitted.
type Links struct {
	First string `json:"first,omitempty"`
	Next  string `json:"next,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Last  string `json:"last,omitempty"`
}

// Document is a top-level JSON:API document with a single resource or a list
type Document struct {
	Data  interface{} `json:"data"`
	Links *Links      `json:"links,omitempty"`
}

// ErrorObject is a single JSON:API error
type ErrorObject struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// ErrorDocument is a top-level JSON:API error document
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// NewResource builds a resource object
func NewResource(id, typ string, attributes interface{}) Resource {
	return Resource{ID: id, Type: typ, Attributes: attributes}
}

// Single wraps one resource in a document
func Single(r Resource) Document {
	return Document{Data: r}
}

// List wraps resources and pagination links in a document. A nil slice is
// rendered as an empty array.
func List(resources []Resource, links *Links) Document {
	if resources == nil {
		resources = []Resource{}
	}
	return Document{Data: resources, Links: links}
}

// NewError builds a one-element error document
func NewError(status int, title, detail string) ErrorDocument {
	return ErrorDocument{
		Errors: []ErrorObject{{
			Status: strconv.Itoa(status),
			Title:  title,
			Detail: detail,
		}},
	}
}

// PaginationLinks builds first/prev/next/last links for base using
// bracketed page parameters. next and prev are left empty at the edges.
// An empty collection still links to page 1 as its last page.
func PaginationLinks(base string, page paging.Page) *Links {
	last := page.TotalPages
	if last < 1 {
		last = 1
	}
	links := &Links{
		First: pageURL(base, 1, page.Size),
		Last:  pageURL(base, last, page.Size),
	}
	if page.HasNext() {
		links.Next = pageURL(base, page.Number+1, page.Size)
	}
	if page.HasPrev() {
		links.Prev = pageURL(base, page.Number-1, page.Size)
	}
	return links
}

func pageURL(base string, number, size int) string {
	return fmt.Sprintf("%s?page%%5Bnumber%%5D=%d&page%%5Bsize%%5D=%d", base, number, size)
}
