package domain

// BookView is the JSON representation of a Book.
// IsCreated is only set when the view is rendered for a specific user.
type BookView struct {
	ID          ID     `json:"_id"`
	ImgURL      string `json:"imgUrl,omitempty"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Page        int    `json:"page,omitempty"`
	ReleaseYear int    `json:"releaseYear,omitempty"`
	CreatorID   ID     `json:"creatorId"`
	IsCreated   *bool  `json:"isCreated,omitempty"`
}

// NewBookView renders a book without any user-relative fields.
func NewBookView(book Book) BookView {
	return BookView{
		ID:          book.ID,
		ImgURL:      book.ImgURL,
		Title:       book.Title,
		Author:      book.Author,
		Page:        book.Page,
		ReleaseYear: book.ReleaseYear,
		CreatorID:   book.CreatorID,
		IsCreated:   nil,
	}
}

// NewBookViewFor renders a book for userID, flagging whether userID created it.
func NewBookViewFor(book Book, userID ID) BookView {
	view := NewBookView(book)
	isCreated := book.CreatorID == userID
	view.IsCreated = &isCreated

	return view
}

// ListingView is the JSON representation of a Listing.
type ListingView struct {
	ID           ID           `json:"_id"`
	Availability Availability `json:"availability"`
	Condition    Condition    `json:"condition"`
	Location     string       `json:"location"`
}

// NewListingView renders a listing.
func NewListingView(listing Listing) ListingView {
	return ListingView{
		ID:           listing.ID,
		Availability: listing.Availability,
		Condition:    listing.Condition,
		Location:     listing.Location,
	}
}

// BookListingView pairs a book with one of its listings.
type BookListingView struct {
	Book    BookView    `json:"book"`
	Listing ListingView `json:"listing"`
}

// LenderView is the public contact card of a lender.
type LenderView struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
}

// SearchListingView is a listing as shown in search results.
type SearchListingView struct {
	ListingView

	Lender LenderView `json:"lender"`
}

// SearchResultView is the result of a listing search: one book and its listings.
type SearchResultView struct {
	Book     BookView            `json:"book"`
	Listings []SearchListingView `json:"listings"`
}
