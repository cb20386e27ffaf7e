package emailalert

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

// extractHTMLBody walks the MIME structure of a raw RFC822 message and
// returns the first text/html part, decoded. Returns "" when the message has
// no HTML part or cannot be parsed; alert emails without HTML carry no job
// cards worth scraping.
func extractHTMLBody(raw []byte) string {
	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		return ""
	}
	return htmlFromPart(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
}

func htmlFromPart(contentType, encoding string, body io.Reader) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return ""
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err != nil {
				return ""
			}
			if html := htmlFromPart(
				part.Header.Get("Content-Type"),
				part.Header.Get("Content-Transfer-Encoding"),
				part,
			); html != "" {
				return html
			}
		}
	}

	if mediaType != "text/html" {
		return ""
	}

	decoded := decodeTransferEncoding(encoding, body)
	b, err := io.ReadAll(io.LimitReader(decoded, 4<<20))
	if err != nil {
		return ""
	}
	return string(b)
}

func decodeTransferEncoding(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
