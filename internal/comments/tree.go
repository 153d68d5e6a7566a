package comments

import "github.com/MosinFAM/redditclone/internal/models"

// BuildTree nests a flat comment list ordered by created_at into a forest.
// Roots and siblings keep the input order. A comment whose parent is not in
// the list becomes a root.
func BuildTree(comments []models.Comment) []*models.CommentNode {
	index := make(map[int64]*models.CommentNode, len(comments))
	for _, c := range comments {
		index[c.ID] = &models.CommentNode{Comment: c, Children: []*models.CommentNode{}}
	}

	roots := make([]*models.CommentNode, 0)
	for _, c := range comments {
		node := index[c.ID]
		if c.ParentCommentID != nil && *c.ParentCommentID != c.ID {
			if parent, ok := index[*c.ParentCommentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// CountNodes returns the number of nodes in the forest
func CountNodes(roots []*models.CommentNode) int {
	n := 0
	for _, node := range roots {
		n += 1 + CountNodes(node.Children)
	}
	return n
}

// Orphans returns the ids of comments that BuildTree lifts to the top level
// although they declare a parent: the parent is missing or is the comment itself
func Orphans(comments []models.Comment) []int64 {
	ids := make(map[int64]struct{}, len(comments))
	for _, c := range comments {
		ids[c.ID] = struct{}{}
	}

	var orphans []int64
	for _, c := range comments {
		if c.ParentCommentID == nil {
			continue
		}
		if _, ok := ids[*c.ParentCommentID]; !ok || *c.ParentCommentID == c.ID {
			orphans = append(orphans, c.ID)
		}
	}
	return orphans
}
