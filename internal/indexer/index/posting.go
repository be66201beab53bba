package index

import "sort"

// TermFrequencies maps a normalized term to its occurrence count in one comic.
type TermFrequencies map[string]int

// Posting is one (comic, term) entry of the inverted index.
type Posting struct {
	ComicNum  int
	Term      string
	Frequency int
}

// PostingList is the postings of one comic.
type PostingList []Posting

// Postings expands tf into a term-ordered PostingList for comic num. Entries
// with an empty term or a non-positive count are dropped.
func (tf TermFrequencies) Postings(num int) PostingList {
	list := make(PostingList, 0, len(tf))
	for term, freq := range tf {
		if term == "" || freq <= 0 {
			continue
		}
		list = append(list, Posting{ComicNum: num, Term: term, Frequency: freq})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Term < list[j].Term
	})
	return list
}

// Total returns the number of term occurrences.
func (tf TermFrequencies) Total() int {
	n := 0
	for _, f := range tf {
		n += f
	}
	return n
}
