package services

import "strings"

// DefaultContentType is served for unknown or missing extensions.
const DefaultContentType = "application/octet-stream"

// contentTypeByExt maps lower-case, dot-prefixed extensions to MIME types.
var contentTypeByExt = map[string]string{
	// text
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".xml":  "application/xml",

	// documents
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".odt":  "application/vnd.oasis.opendocument.text",
	".rtf":  "application/rtf",

	// images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",

	// audio
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",

	// video
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",

	// archives
	".zip": "application/zip",
	".tar": "application/x-tar",
	".gz":  "application/gzip",
	".7z":  "application/x-7z-compressed",
	".rar": "application/vnd.rar",
}

// GetContentType resolves a file type to its MIME type. The lookup is
// case-insensitive and accepts the extension with or without its leading dot.
func GetContentType(fileType string) string {
	ext := strings.ToLower(strings.TrimSpace(fileType))
	if ext == "" {
		return DefaultContentType
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if contentType, ok := contentTypeByExt[ext]; ok {
		return contentType
	}
	return DefaultContentType
}
