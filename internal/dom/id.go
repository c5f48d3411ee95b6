package dom

import (
	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// MediaIDAttr carries the stable identity of every inserted media block.
const MediaIDAttr = "data-media-id"

func NewMediaID() string {
	return uuid.NewString()
}

// SetMediaID assigns a fresh identity to n and returns it.
func SetMediaID(n *html.Node) string {
	id := NewMediaID()
	SetAttr(n, MediaIDAttr, id)
	return id
}

func MediaID(n *html.Node) string {
	v, _ := Attr(n, MediaIDAttr)
	return v
}

func FindByMediaID(root *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	return FindByAttr(root, MediaIDAttr, id)
}
