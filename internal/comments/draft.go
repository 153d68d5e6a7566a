package comments

import "strings"

// Draft is the state of a comment or reply form.
// Text survives a failed submission and is cleared by a successful one.
type Draft struct {
	PostID   int64  `json:"post_id"`
	ParentID *int64 `json:"parent_comment_id"`
	Text     string `json:"content"`
}

// CanSubmit reports whether the submit control should be enabled
func (d *Draft) CanSubmit() bool {
	return d != nil && strings.TrimSpace(d.Text) != ""
}

// IsReply reports whether the draft answers another comment
func (d *Draft) IsReply() bool {
	return d != nil && d.ParentID != nil
}
