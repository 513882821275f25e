package domain

// PageState is what the presentation layer renders for the active page:
// the resolved node plus the ids of its ancestors, root first, for
// breadcrumb and sidebar highlighting.
type PageState struct {
	Page      Page     `json:"page"`
	Ancestors []string `json:"ancestors"`
}
