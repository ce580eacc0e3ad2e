package entry

// Extensions the batch thumbnail worker can render.
var WorkerImageFormats = []string{
	"jpg", "jpeg", "jif", "jfif", "png", "gif", "svg", "tif", "tiff", "ico", "webp", "avif",
}

// Extensions the per-file thumbnail resolver accepts.
var (
	SupportedImages = []string{
		"jpg", "jpeg", "jif", "jfif", "png", "gif", "svg", "tif", "tiff", "ico", "webp", "avif", "bmp",
	}
	SupportedContainers = []string{
		"zip", "pages", "key", "numbers", "epub", "docx", "pptx", "pptm", "potx", "potm",
		"ppsx", "ppsm", "sldx", "sldm", "dotx", "dotm", "xlsx", "xlsm", "xlsb", "xltx",
		"xltm", "odp", "odt", "ods",
	}
	SupportedText = []string{
		"txt", "md", "coffee", "c", "cpp", "css", "groovy", "haxe", "xml", "java", "js",
		"json", "less", "php", "pl", "py", "rb", "ini", "sh", "sql", "mhtml", "html",
		"htm", "xhtml", "eml",
	}
	SupportedMisc = []string{
		"url", "pdf", "mp3", "psd", "tiff",
	}
	SupportedVideos = []string{
		"ogv", "mp4", "webm", "m4v", "mkv", "lrv", "3gp", "3g2",
	}
)

func contains(list []string, ext string) bool {
	for _, e := range list {
		if e == ext {
			return true
		}
	}
	return false
}

// IsWorkerThumbFormat reports whether the batch worker handles ext.
func IsWorkerThumbFormat(ext string) bool {
	return contains(WorkerImageFormats, ext)
}

// IsThumbFormat reports whether the per-file resolver handles ext.
func IsThumbFormat(ext string) bool {
	return contains(SupportedImages, ext) ||
		contains(SupportedContainers, ext) ||
		contains(SupportedText, ext) ||
		contains(SupportedMisc, ext) ||
		contains(SupportedVideos, ext)
}

// IsRenderableImage reports whether ext can be decoded and resized locally.
func IsRenderableImage(ext string) bool {
	switch ext {
	case "jpg", "jpeg", "jif", "jfif", "png", "gif", "tif", "tiff", "bmp":
		return true
	}
	return false
}
