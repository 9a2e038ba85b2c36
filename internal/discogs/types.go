package discogs

// Artist is an artist credit on a release.
type Artist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Label is a label credit, with the label-assigned catalog number.
type Label struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	CatNo string `json:"catno"`
}

// Format describes a physical format (Vinyl, CD, ...).
type Format struct {
	Name         string   `json:"name"`
	Qty          string   `json:"qty"`
	Descriptions []string `json:"descriptions"`
}

// Image is an image reference on a release.
type Image struct {
	Type   string `json:"type"`
	URI    string `json:"uri"`
	URI150 string `json:"uri150"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// BasicInformation is the denormalized release summary embedded in each collection item.
type BasicInformation struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	Year       int      `json:"year"`
	Artists    []Artist `json:"artists"`
	Labels     []Label  `json:"labels"`
	Formats    []Format `json:"formats"`
	Genres     []string `json:"genres"`
	Styles     []string `json:"styles"`
	Thumb      string   `json:"thumb"`
	CoverImage string   `json:"cover_image"`
}

// CollectionItem is one entry of a collection folder listing.
type CollectionItem struct {
	ID               int              `json:"id"`
	InstanceID       int              `json:"instance_id"`
	FolderID         int              `json:"folder_id"`
	Rating           int              `json:"rating"`
	DateAdded        string           `json:"date_added"`
	BasicInformation BasicInformation `json:"basic_information"`
}

// Pagination is the paging envelope returned by list endpoints.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// CollectionPage is a single page of a collection folder listing.
type CollectionPage struct {
	Pagination Pagination       `json:"pagination"`
	Releases   []CollectionItem `json:"releases"`
}

// ReleaseDetail is the full release record from /releases/{id}.
type ReleaseDetail struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Year    int      `json:"year"`
	Country string   `json:"country"`
	Artists []Artist `json:"artists"`
	Labels  []Label  `json:"labels"`
	Formats []Format `json:"formats"`
	Genres  []string `json:"genres"`
	Styles  []string `json:"styles"`
	Images  []Image  `json:"images"`
	URI     string   `json:"uri"`
}
