package listingsvc

import (
	"net/url"

	"github.com/mkrupp/bookswap/internal/domain"
)

// AddListingRequest is the body of a request listing a book.
type AddListingRequest struct {
	ImgURL      string `json:"imgUrl" label:"Image URL" validate:"omitempty,url"`
	Title       string `json:"title" label:"Title" validate:"required"`
	Author      string `json:"author" label:"Author" validate:"required"`
	Page        int    `json:"page" label:"Page" validate:"omitempty,min=1"`
	ReleaseYear int    `json:"releaseYear" label:"Release year" validate:"omitempty,min=1700,max=2023"`
	Condition   string `json:"condition" label:"Condition" validate:"required,oneof=new good acceptable used"`
	Location    string `json:"location" label:"Location" validate:"required"`
}

// Book returns the book described by the request, created by creatorID.
func (r AddListingRequest) Book(creatorID domain.ID) domain.Book {
	return domain.Book{
		ImgURL:      r.ImgURL,
		Title:       r.Title,
		Author:      r.Author,
		Page:        r.Page,
		ReleaseYear: r.ReleaseYear,
		CreatorID:   creatorID,
	}
}

// UpdateListingRequest is the body of a partial book and listing update.
// Absent fields are left untouched.
type UpdateListingRequest struct {
	ImgURL       *string `json:"imgUrl" label:"Image URL" validate:"omitempty,url"`
	Title        *string `json:"title" label:"Title"`
	Author       *string `json:"author" label:"Author"`
	Page         *int    `json:"page" label:"Page" validate:"omitempty,min=1"`
	ReleaseYear  *int    `json:"releaseYear" label:"Release year" validate:"omitempty,min=1700,max=2023"`
	Availability *string `json:"availability" label:"Availability" validate:"omitempty,oneof=available borrowed"`
	Condition    *string `json:"condition" label:"Condition" validate:"omitempty,oneof=new good acceptable used"`
	Location     *string `json:"location" label:"Location"`
}

// EmptyField returns the name of the first field set to an empty string.
func (r UpdateListingRequest) EmptyField() (string, bool) {
	fields := []struct {
		name  string
		value *string
	}{
		{"imgUrl", r.ImgURL},
		{"title", r.Title},
		{"author", r.Author},
		{"availability", r.Availability},
		{"condition", r.Condition},
		{"location", r.Location},
	}

	for _, f := range fields {
		if f.value != nil && *f.value == "" {
			return f.name, true
		}
	}

	return "", false
}

// BookPatch returns the book half of the update.
func (r UpdateListingRequest) BookPatch() domain.BookPatch {
	return domain.BookPatch{
		ImgURL:      r.ImgURL,
		Title:       r.Title,
		Author:      r.Author,
		Page:        r.Page,
		ReleaseYear: r.ReleaseYear,
	}
}

// ListingPatch returns the listing half of the update.
func (r UpdateListingRequest) ListingPatch() domain.ListingPatch {
	var patch domain.ListingPatch

	if r.Availability != nil {
		availability := domain.Availability(*r.Availability)
		patch.Availability = &availability
	}

	if r.Condition != nil {
		condition := domain.Condition(*r.Condition)
		patch.Condition = &condition
	}

	patch.Location = r.Location

	return patch
}

// SearchRequest holds the query parameters of a listing search.
type SearchRequest struct {
	Title     string `json:"title" label:"Title" validate:"required"`
	Author    string `json:"author" label:"Author"`
	Location  string `json:"location" label:"Location"`
	Condition string `json:"condition" label:"Condition" validate:"omitempty,oneof=new good acceptable used"`
}

// NewSearchRequest reads a SearchRequest from URL query parameters.
func NewSearchRequest(query url.Values) SearchRequest {
	return SearchRequest{
		Title:     query.Get("title"),
		Author:    query.Get("author"),
		Location:  query.Get("location"),
		Condition: query.Get("condition"),
	}
}
