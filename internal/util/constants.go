package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// Roles carried in service JWTs. Admin implies all teacher permissions.
const (
	RoleService = "service"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Upload handling constants.
const (
	MimeVideo       = "video/"
	MimeImage       = "image/"
	MimeOctetStream = "application/octet-stream"

	// Hard cap on lesson document size accepted for text extraction.
	MaxDocumentBytes = 10 << 20
)

var (
	AllowedVideoExtensions    = []string{".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm"}
	AllowedDocumentExtensions = []string{".txt", ".md", ".markdown", ".html", ".htm"}
)
