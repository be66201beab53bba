// Package comic defines the archive entry persisted by the synchronizer and
// read back by the indexer.
package comic

// Comic is one xkcd archive entry as served by the remote JSON API. Num is
// assigned remotely and never changes once stored; the remaining metadata is
// carried through untouched.
type Comic struct {
	Num        int    `json:"num"`
	Title      string `json:"title"`
	SafeTitle  string `json:"safe_title"`
	Transcript string `json:"transcript"`
	Alt        string `json:"alt"`
	Img        string `json:"img"`
	Link       string `json:"link"`
	News       string `json:"news"`
	Year       string `json:"year"`
	Month      string `json:"month"`
	Day        string `json:"day"`
}

// IDSet is a set of comic numbers.
type IDSet map[int]struct{}

func NewIDSet(nums ...int) IDSet {
	s := make(IDSet, len(nums))
	for _, n := range nums {
		s[n] = struct{}{}
	}
	return s
}

func (s IDSet) Contains(num int) bool {
	_, ok := s[num]
	return ok
}

func (s IDSet) Add(num int) {
	s[num] = struct{}{}
}
