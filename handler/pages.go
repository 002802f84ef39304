package handler

// Error bodies
const (
	notFoundPage = `<!DOCTYPE html>
<html>
<head>
    <title>404 Not Found</title>
</head>
<body>
    <h1>Not Found</h1>
    <p>The requested URL was not found on this server.</p>
</body>
</html>
`

	unsupportedTypePage = `<!DOCTYPE html>
<html>
<head>
    <title>404 Not Found</title>
</head>
<body>
    <h1>Content type not supported</h1>
</body>
</html>
`

	methodNotAllowedPage = `<!DOCTYPE html>
<html>
<head>
    <title>405 Method Not Allowed</title>
</head>
<body>
    <h1>Method Not Allowed</h1>
</body>
</html>
`

	badRequestPage = `<!DOCTYPE html>
<html>
<head>
    <title>400 Bad Request</title>
</head>
<body>
    <h1>Bad Request</h1>
</body>
</html>
`
)

const htmlContentType = "text/html; charset=utf-8"

// contentTypes lists the served extensions
var contentTypes = map[string]string{
	".html": htmlContentType,
	".htm":  htmlContentType,
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".txt":  "text/plain; charset=utf-8",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".ico":  "image/x-icon",
}
