package model

// Reply is a response to a posting.
//
// A Reply carries no identifier and no reference to its posting. Both live in
// the reply index (reply ID → posting ID) kept by the repository, which is the
// only way to find the replies of a posting.
type Reply struct {
	GitHub      string `json:"github"`
	Description string `json:"description"`
	Contact     string `json:"contact"`
}

// ReplyLink is one entry of the reply index.
type ReplyLink struct {
	ReplyID   uint64 `json:"replyId"`
	PostingID uint32 `json:"postingId"`
}
