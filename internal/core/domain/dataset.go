package domain

import (
	"path/filepath"
	"strings"
	"time"
)

type DatasetStatus string

const (
	DatasetUploaded   DatasetStatus = "uploaded"
	DatasetAnonymized DatasetStatus = "anonymized"
	DatasetFailed     DatasetStatus = "failed"
)

// Dataset is the uploaded file an anonymization job works on. Findings and
// the policy are attached by the analysis stage before a job is enqueued.
type Dataset struct {
	ID         string        `json:"id"`
	Filename   string        `json:"filename"`
	FileType   FileType      `json:"file_type"`
	MimeType   string        `json:"mime_type,omitempty"`
	SourcePath string        `json:"source_path"`
	Status     DatasetStatus `json:"status"`
	OutputPath string        `json:"output_path,omitempty"`
	UploadedAt time.Time     `json:"uploaded_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// FileType is the canonical lower-case extension without the dot.
type FileType string

const (
	FileTypeUnknown FileType = ""
	FileTypeTXT     FileType = "txt"
	FileTypeCSV     FileType = "csv"
	FileTypeJSON    FileType = "json"
	FileTypeJSONL   FileType = "jsonl"
	FileTypeHTML    FileType = "html"
	FileTypeXML     FileType = "xml"
	FileTypePDF     FileType = "pdf"
	FileTypeDOC     FileType = "doc"
	FileTypeDOCX    FileType = "docx"
	FileTypeXLS     FileType = "xls"
	FileTypeXLSX    FileType = "xlsx"
	FileTypePPT     FileType = "ppt"
	FileTypePPTX    FileType = "pptx"
	FileTypeODT     FileType = "odt"
	FileTypeODS     FileType = "ods"
	FileTypeODP     FileType = "odp"
	FileTypeRTF     FileType = "rtf"
	FileTypeJPEG    FileType = "jpeg"
	FileTypePNG     FileType = "png"
	FileTypeTIFF    FileType = "tiff"
	FileTypeBMP     FileType = "bmp"
	FileTypeGIF     FileType = "gif"
)

var extensionAliases = map[string]FileType{
	"jpg":  FileTypeJPEG,
	"jpe":  FileTypeJPEG,
	"tif":  FileTypeTIFF,
	"htm":  FileTypeHTML,
	"text": FileTypeTXT,
	"log":  FileTypeTXT,
}

var mimeTypes = map[string]FileType{
	"text/plain":      FileTypeTXT,
	"text/csv":        FileTypeCSV,
	"text/html":       FileTypeHTML,
	"application/json": FileTypeJSON,
	"application/x-ndjson": FileTypeJSONL,
	"application/xml":  FileTypeXML,
	"text/xml":         FileTypeXML,
	"application/pdf":  FileTypePDF,
	"application/msword": FileTypeDOC,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FileTypeDOCX,
	"application/vnd.ms-excel": FileTypeXLS,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       FileTypeXLSX,
	"application/vnd.ms-powerpoint": FileTypePPT,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": FileTypePPTX,
	"application/vnd.oasis.opendocument.text":         FileTypeODT,
	"application/vnd.oasis.opendocument.spreadsheet":  FileTypeODS,
	"application/vnd.oasis.opendocument.presentation": FileTypeODP,
	"application/rtf": FileTypeRTF,
	"image/jpeg":      FileTypeJPEG,
	"image/png":       FileTypePNG,
	"image/tiff":      FileTypeTIFF,
	"image/bmp":       FileTypeBMP,
	"image/gif":       FileTypeGIF,
}

// DetectFileType canonicalizes the file type from the filename extension,
// falling back to the mime type hint when the extension says nothing.
func DetectFileType(filename, mimeType string) FileType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if alias, ok := extensionAliases[ext]; ok {
		return alias
	}
	if ext != "" {
		ft := FileType(ext)
		if _, ok := mimeFor(ft); ok {
			return ft
		}
	}
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if ft, ok := mimeTypes[mt]; ok {
		return ft
	}
	return FileTypeUnknown
}

func mimeFor(ft FileType) (string, bool) {
	for mt, known := range mimeTypes {
		if known == ft {
			return mt, true
		}
	}
	return "", false
}

func (ft FileType) IsImage() bool {
	switch ft {
	case FileTypeJPEG, FileTypePNG, FileTypeTIFF, FileTypeBMP, FileTypeGIF:
		return true
	}
	return false
}

// PlausiblyText reports whether a direct byte read is a sensible fallback
// when the conversion backend is unavailable.
func (ft FileType) PlausiblyText() bool {
	switch ft {
	case FileTypeTXT, FileTypeCSV, FileTypeJSON, FileTypeJSONL, FileTypeHTML, FileTypeXML, FileTypeRTF:
		return true
	}
	return false
}
