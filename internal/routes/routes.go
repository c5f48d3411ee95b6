// Package routes defines HTTP route constants for the application.
package routes

import "strconv"

const (
	RobotsPath = "/robots.txt"
	HealthPath = "/healthz"

	// Editor collaborator endpoints
	UploadMedia  = "/Posts/UploadMedia"
	AutoSave     = "/Posts/AutoSave"
	SearchPhotos = "/Posts/SearchPhotos"
	Create       = "/Posts/Create"

	// Read endpoints the create form redirects to
	Drafts = "/Posts/Drafts"
	Post   = "/Posts/{id}"
	Tags   = "/Posts/Tags"

	// Uploads is the default prefix stored media is served under.
	Uploads = "/uploads/"
)

// PostPath returns the read path of a single post.
func PostPath(id int64) string {
	return "/Posts/" + strconv.FormatInt(id, 10)
}
