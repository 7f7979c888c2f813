package sharepoint

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// defaultContentType is sent by UploadFile when no type is given.
const defaultContentType = "text/plain"

// officeTypes covers the extensions whose registered types are missing from
// most system MIME tables.
var officeTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".vsdx": "application/vnd.ms-visio.drawing",
	".one":  "application/onenote",
	".csv":  "text/csv",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
}

// GuessContentType infers a MIME type from the file name's extension and,
// failing that, from the content. data may be nil.
func GuessContentType(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))

	if t, ok := officeTypes[ext]; ok {
		return t
	}

	if ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}

	if len(data) > 0 {
		return mimetype.Detect(data).String()
	}

	return "application/octet-stream"
}
