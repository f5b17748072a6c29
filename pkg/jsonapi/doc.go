// Package jsonapi shapes records into JSON:API documents.
//
// # Documents
//
// Single resources and lists share one envelope:
//
//	{"data": {"id": "1", "type": "schools", "attributes": {"name": "..."}}}
//	{"data": [...], "links": {"first": "...", "next": "...", "last": "..."}}
//
// Errors use the errors array:
//
//	{"errors": [{"status": "404", "title": "Not Found", "detail": "..."}]}
//
// # Attribute names
//
// Attribute structs declare hyphenated JSON names (first-name). Source
// records use snake_case (first_name); DecodeAttributes accepts either
// spelling so both directions of the alias map are covered.
//
// # Pagination links
//
// PaginationLinks renders page[number] and page[size] percent-encoded:
//
//	https://host/api/v1/readings?page%5Bnumber%5D=2&page%5Bsize%5D=100
package jsonapi
