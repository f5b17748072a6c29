package catalog

import (
	"fmt"

	"github.com/platinummonkey/mockapi/pkg/jsonapi"
)

// Timestamps are carried through as the strings found in the data document
type Timestamps struct {
	CreatedAt string `json:"created-at"`
	UpdatedAt string `json:"updated-at"`
}

type SchoolAttributes struct {
	Name string `json:"name"`
}

type UnitAttributes struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Timestamps
}

type UnitOfferingAttributes struct {
	UnitID                jsonapi.Int  `json:"unit-id"`
	ReadingListID         *jsonapi.Int `json:"reading-list-id"`
	SourceUnitCode        string       `json:"source-unit-code"`
	SourceUnitName        string       `json:"source-unit-name"`
	SourceUnitOffering    string       `json:"source-unit-offering"`
	Result                string       `json:"result"`
	ListPublicationMethod string       `json:"list-publication-method"`
	Timestamps
}

type ReadingAttributes struct {
	ReadingTitle                  string  `json:"reading-title"`
	SourceDocumentTitle           string  `json:"source-document-title"`
	SourceDocumentGenre           string  `json:"source-document-genre"`
	SourceDocumentGenreCode       string  `json:"source-document-genre-code"`
	SourceDocumentKind            string  `json:"source-document-kind"`
	SourceDocumentAuthors         *string `json:"source-document-authors"`
	SourceDocumentPublisher       *string `json:"source-document-publisher"`
	SourceDocumentPublicationYear *string `json:"source-document-publication-year"`
	SourceDocumentEdition         *string `json:"source-document-edition"`
	SourceDocumentVolume          *string `json:"source-document-volume"`
	SourceDocumentISBN            *string `json:"source-document-isbn"`
	SourceDocumentEISBN           *string `json:"source-document-eisbn"`
	SourceDocumentISSN            *string `json:"source-document-issn"`
	SourceDocumentEISSN           *string `json:"source-document-eissn"`
	SourceDocumentCreatedAt       string  `json:"source-document-created-at"`
	SourceDocumentUpdatedAt       string  `json:"source-document-updated-at"`
	PublicationYear               *string `json:"publication-year"`
	Volume                        *string `json:"volume"`
	Genre                         string  `json:"genre"`
	GenreCode                     string  `json:"genre-code"`
	Kind                          string  `json:"kind"`
	ArticleNumber                 string  `json:"article-number"`
	Date                          *string `json:"date"`
	DateAccessed                  *string `json:"date-accessed"`
	DateIssued                    *string `json:"date-issued"`
	Authors                       string  `json:"authors"`
	Pages                         *string `json:"pages"`
	ReadingURL                    string  `json:"reading-url"`
	CountKind                     *string `json:"count-kind"`
	Timestamps
}

type ReadingListAttributes struct {
	UnitID            jsonapi.Int  `json:"unit-id"`
	TeachingSessionID *jsonapi.Int `json:"teaching-session-id"`
	Name              string       `json:"name"`
	Duration          string       `json:"duration"`
	StartDate         string       `json:"start-date"`
	EndDate           string       `json:"end-date"`
	Hidden            jsonapi.Bool `json:"hidden"`
	ItemCount         jsonapi.Int  `json:"item-count"`
	ApprovedItemCount jsonapi.Int  `json:"approved-item-count"`
	UsageCount        jsonapi.Int  `json:"usage-count"`
	Deleted           jsonapi.Bool `json:"deleted"`
	Timestamps
}

type ReadingListUsageAttributes struct {
	ListID            jsonapi.Int `json:"list-id"`
	IntegrationUserID jsonapi.Int `json:"integration-user-id"`
	ItemUsageCount    jsonapi.Int `json:"item-usage-count"`
	Timestamps
}

type ReadingListItemAttributes struct {
	ListID                   jsonapi.Int  `json:"list-id"`
	ReadingID                jsonapi.Int  `json:"reading-id"`
	Status                   string       `json:"status"`
	Hidden                   jsonapi.Bool `json:"hidden"`
	ReadingUtilisationsCount jsonapi.Int  `json:"reading-utilisations-count"`
	ReadingImportance        string       `json:"reading-importance"`
	UsageCount               jsonapi.Int  `json:"usage-count"`
	Timestamps
}

type ReadingListItemUsageAttributes struct {
	ItemID            jsonapi.Int `json:"item-id"`
	ListUsageID       jsonapi.Int `json:"list-usage-id"`
	IntegrationUserID jsonapi.Int `json:"integration-user-id"`
	UtilisationCount  jsonapi.Int `json:"utilisation-count"`
	Timestamps
}

type ReadingUtilisationAttributes struct {
	ItemID            jsonapi.Int `json:"item-id"`
	ItemUsageID       jsonapi.Int `json:"item-usage-id"`
	IntegrationUserID jsonapi.Int `json:"integration-user-id"`
	Timestamps
}

type IntegrationUserAttributes struct {
	Identifier            string `json:"identifier"`
	Roles                 string `json:"roles"`
	FirstName             string `json:"first-name"`
	LastName              string `json:"last-name"`
	Email                 string `json:"email"`
	LTIConsumerUserID     string `json:"lti-consumer-user-id"`
	LTILISPersonSourcedID string `json:"lti-lis-person-sourcedid"`
	Timestamps
}

type TeachingSessionAttributes struct {
	Name      string       `json:"name"`
	StartDate string       `json:"start-date"`
	EndDate   string       `json:"end-date"`
	Archived  jsonapi.Bool `json:"archived"`
	Timestamps
}

// UserAttributes is the public view of a login subject
type UserAttributes struct {
	FirstName string `json:"first-name"`
	LastName  string `json:"last-name"`
	Email     string `json:"email"`
	Timestamps
}

// newAttributes returns a pointer to an empty attribute struct for c
func newAttributes(c Collection) (interface{}, error) {
	switch c {
	case Schools:
		return &SchoolAttributes{}, nil
	case Units:
		return &UnitAttributes{}, nil
	case UnitOfferings:
		return &UnitOfferingAttributes{}, nil
	case Readings:
		return &ReadingAttributes{}, nil
	case ReadingLists:
		return &ReadingListAttributes{}, nil
	case ReadingListUsages:
		return &ReadingListUsageAttributes{}, nil
	case ReadingListItems:
		return &ReadingListItemAttributes{}, nil
	case ReadingListItemUsages:
		return &ReadingListItemUsageAttributes{}, nil
	case ReadingUtilisations:
		return &ReadingUtilisationAttributes{}, nil
	case IntegrationUsers:
		return &IntegrationUserAttributes{}, nil
	case TeachingSessions:
		return &TeachingSessionAttributes{}, nil
	case Users:
		return &UserAttributes{}, nil
	}
	return nil, fmt.Errorf("no attribute schema for collection %d", int(c))
}

// Attributes decodes rec into the typed attribute schema of c
func (c Collection) Attributes(rec Record) (interface{}, error) {
	dst, err := newAttributes(c)
	if err != nil {
		return nil, err
	}
	if err := jsonapi.DecodeAttributes(rec, dst); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", c, rec.ID(), err)
	}
	if r, ok := dst.(*ReadingAttributes); ok {
		r.PublicationYear = r.SourceDocumentPublicationYear
		r.Volume = r.SourceDocumentVolume
	}
	return dst, nil
}

// Resource renders rec as a JSON:API resource of type c
func (c Collection) Resource(rec Record) (jsonapi.Resource, error) {
	attrs, err := c.Attributes(rec)
	if err != nil {
		return jsonapi.Resource{}, err
	}
	return jsonapi.NewResource(rec.ID(), c.Type(), attrs), nil
}
