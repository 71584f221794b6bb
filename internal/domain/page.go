package domain

// Candidate is a freshly claimed snippet with its badge already attached.
type Candidate struct {
	ID   string
	URL  string
	Text string
}

// Mutation describes one batch of structural changes observed on the page.
type Mutation struct {
	AddedNodes int
}
